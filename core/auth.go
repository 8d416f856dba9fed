package core

import "time"

// TokenKind tells which operations accept a session token
type TokenKind string

const (
	// TokenAccess is the short-lived credential checked on every protected request
	TokenAccess TokenKind = "ACCESS"

	// TokenRefresh is the long-lived credential exchanged for new access tokens
	TokenRefresh TokenKind = "REFRESH"
)

// Valid reports whether k is a known token kind
func (k TokenKind) Valid() bool {
	return k == TokenAccess || k == TokenRefresh
}

// Claims is the verified content of a session token
type Claims struct {
	ID        string    // Unique token identifier
	SubjectID string    // Identity.ID at issuance time
	Address   string    // Identity.Address at issuance time
	Provider  Provider  // Identity.Provider at issuance time
	Kind      TokenKind // Access or refresh
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // When the token stops being valid
}

// TokenPair is handed out after a successful login
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
