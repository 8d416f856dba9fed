package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with the identity snapshot.
// The subject is the identity id.
type SessionClaims struct {
	jwt.RegisteredClaims
	Address  string `json:"accountNumber"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
}
