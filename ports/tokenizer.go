package ports

import "github.com/layer-3/walletauth/core"

// Tokenizer mints and checks session tokens
type Tokenizer interface {
	Issue(identity *core.Identity, kind core.TokenKind) (string, error)

	// Verify fails with core.ErrTokenInvalid, core.ErrTokenExpired or core.ErrWrongKind
	Verify(token string, expected core.TokenKind) (*core.Claims, error)
}
