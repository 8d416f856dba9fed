package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// Config holds the signing secret and token lifetimes
type Config struct {
	Secret          []byte
	AccessValidity  time.Duration
	RefreshValidity time.Duration
}

// JWTTokenizer implements the Tokenizer interface with HS256 JWTs
type JWTTokenizer struct {
	secret   []byte
	validity map[core.TokenKind]time.Duration
	now      func() time.Time
}

// NewJWTTokenizer creates a new JWT tokenizer. The config is copied and never changes afterwards.
func NewJWTTokenizer(cfg Config) (*JWTTokenizer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if cfg.AccessValidity <= 0 || cfg.RefreshValidity <= 0 {
		return nil, errors.New("token validity must be positive")
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &JWTTokenizer{
		secret: secret,
		validity: map[core.TokenKind]time.Duration{
			core.TokenAccess:  cfg.AccessValidity,
			core.TokenRefresh: cfg.RefreshValidity,
		},
		now: time.Now,
	}, nil
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// WithClock returns a copy of the tokenizer reading time from now
func (j *JWTTokenizer) WithClock(now func() time.Time) *JWTTokenizer {
	c := *j
	c.now = now
	return &c
}

// Issue signs a token of the given kind for identity
func (j *JWTTokenizer) Issue(identity *core.Identity, kind core.TokenKind) (string, error) {
	validity, ok := j.validity[kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	now := j.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Address:  identity.Address,
		Provider: string(identity.Provider),
		Type:     string(kind),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return signedToken, nil
}

// Verify checks the signature and expiry of tokenStr and that it is of the expected kind
func (j *JWTTokenizer) Verify(tokenStr string, expected core.TokenKind) (*core.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, core.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.Subject == "" {
		return nil, core.ErrTokenInvalid
	}

	kind := core.TokenKind(claims.Type)
	if !kind.Valid() {
		return nil, core.ErrTokenInvalid
	}
	if kind != expected {
		return nil, core.ErrWrongKind
	}

	result := &core.Claims{
		ID:        claims.ID,
		SubjectID: claims.Subject,
		Address:   claims.Address,
		Provider:  core.Provider(claims.Provider),
		Kind:      kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}

	return result, nil
}
