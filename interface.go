package walletauth

import (
	"context"
)

// API is the wallet authentication surface of the service
type API interface {
	// Nonce returns the challenge the wallet has to sign
	Nonce(ctx context.Context, address, provider string) (int64, error)

	// Login exchanges a signed nonce for an access and a refresh token
	Login(ctx context.Context, address, provider, signature string) (Tokens, error)

	// Refresh returns a new access token
	Refresh(ctx context.Context, refreshToken string) (string, error)

	// Me returns the identity an access token was issued for
	Me(ctx context.Context, accessToken string) (*Identity, error)

	// Addresses lists the payment addresses of the token holder
	Addresses(ctx context.Context, accessToken string) ([]Address, error)
}

// Signer signs login challenges on behalf of a wallet
type Signer interface {
	// Address returns the checksummed wallet address
	Address() string

	// SignMessage returns the hex encoded personal_sign signature of message
	SignMessage(message []byte) (string, error)
}
