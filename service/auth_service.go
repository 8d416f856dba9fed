package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"go.uber.org/zap"
)

// AuthService handles authentication business logic
type AuthService struct {
	identities ports.IdentityStore
	tokenizer  ports.Tokenizer
	verifiers  map[core.Provider]ports.SignatureVerifier
	eventPub   ports.EventPublisher
	log        *zap.Logger
}

// NewAuthService creates a new authentication service.
// verifiers lists the supported providers, eventPub may be nil.
func NewAuthService(
	identities ports.IdentityStore,
	tokenizer ports.Tokenizer,
	verifiers map[core.Provider]ports.SignatureVerifier,
	eventPub ports.EventPublisher,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		identities: identities,
		tokenizer:  tokenizer,
		verifiers:  verifiers,
		eventPub:   eventPub,
		log:        log.Named("auth"),
	}
}

func (s *AuthService) verifierFor(provider core.Provider) (ports.SignatureVerifier, error) {
	v, ok := s.verifiers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", provider, core.ErrUnsupportedProvider)
	}
	return v, nil
}

// IssueNonce returns the current nonce of the identity, creating the identity on first contact
func (s *AuthService) IssueNonce(ctx context.Context, address string, provider core.Provider) (core.Nonce, error) {
	if _, err := s.verifierFor(provider); err != nil {
		return 0, err
	}

	identity, err := s.identities.FindIdentity(ctx, address, provider)
	if err == nil {
		return identity.Nonce, nil
	}
	if !errors.Is(err, core.ErrNoRecord) {
		return 0, fmt.Errorf("failed to look up identity: %w", err)
	}

	candidate, err := core.NewIdentity(address, provider)
	if err != nil {
		return 0, err
	}

	// A concurrent request may have created the identity since the lookup,
	// the store then hands back that one.
	identity, err = s.identities.UpsertIdentity(ctx, candidate)
	if err != nil {
		return 0, fmt.Errorf("failed to create identity: %w", err)
	}

	if identity.ID == candidate.ID {
		s.log.Info("identity created",
			zap.String("identity_id", identity.ID),
			zap.String("provider", string(provider)),
		)
	}

	return identity.Nonce, nil
}

// VerifySignature checks that signature is the wallet's signature over the stored nonce.
// It never creates identities and never changes the nonce.
func (s *AuthService) VerifySignature(ctx context.Context, address string, provider core.Provider, signature string) (*core.Identity, error) {
	verifier, err := s.verifierFor(provider)
	if err != nil {
		return nil, err
	}

	identity, err := s.identities.FindIdentity(ctx, address, provider)
	if err != nil {
		if errors.Is(err, core.ErrNoRecord) {
			return nil, core.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}

	signer, err := verifier.RecoverAddress([]byte(identity.Nonce.String()), signature)
	if err != nil {
		return nil, err
	}

	if signer != address {
		return nil, core.ErrInvalidSignature
	}

	return identity, nil
}

// Login exchanges a signed nonce for a token pair and rotates the nonce.
// If only the rotation fails the issued tokens are still returned alongside the error.
func (s *AuthService) Login(ctx context.Context, address string, provider core.Provider, signature string) (core.TokenPair, error) {
	identity, err := s.VerifySignature(ctx, address, provider, signature)
	if err != nil {
		return core.TokenPair{}, err
	}

	accessToken, err := s.tokenizer.Issue(identity, core.TokenAccess)
	if err != nil {
		return core.TokenPair{}, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.Issue(identity, core.TokenRefresh)
	if err != nil {
		return core.TokenPair{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	pair := core.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	if err := s.RotateNonce(ctx, identity); err != nil {
		s.log.Error("nonce rotation failed after login",
			zap.String("identity_id", identity.ID),
			zap.Error(err),
		)
		return pair, err
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogin(ctx, identity); err != nil {
			// The login itself already succeeded
			s.log.Warn("failed to publish login event",
				zap.String("identity_id", identity.ID),
				zap.Error(err),
			)
		}
	}

	return pair, nil
}

// RotateNonce replaces the identity's nonce so that a used signature cannot be replayed
func (s *AuthService) RotateNonce(ctx context.Context, identity *core.Identity) error {
	nonce := identity.Nonce
	for nonce == identity.Nonce {
		next, err := core.GenerateNonce()
		if err != nil {
			return err
		}
		nonce = next
	}

	if err := s.identities.UpdateNonce(ctx, identity.ID, nonce); err != nil {
		return fmt.Errorf("failed to rotate nonce: %w", err)
	}

	identity.Nonce = nonce
	return nil
}

// Refresh mints a new access token from a valid refresh token.
// Refresh tokens are not rotated and survive nonce rotation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokenizer.Verify(refreshToken, core.TokenRefresh)
	if err != nil {
		return "", fmt.Errorf("invalid refresh token: %w", err)
	}

	identity, err := s.identities.FindIdentity(ctx, claims.Address, claims.Provider)
	if err != nil {
		if errors.Is(err, core.ErrNoRecord) {
			return "", core.ErrIdentityGone
		}
		return "", fmt.Errorf("failed to look up identity: %w", err)
	}

	accessToken, err := s.tokenizer.Issue(identity, core.TokenAccess)
	if err != nil {
		return "", fmt.Errorf("failed to create access token: %w", err)
	}

	return accessToken, nil
}

// Authorize resolves a bearer access token to the identity it was issued for
func (s *AuthService) Authorize(ctx context.Context, accessToken string) (*core.Identity, error) {
	if accessToken == "" {
		return nil, core.ErrMissingToken
	}

	claims, err := s.tokenizer.Verify(accessToken, core.TokenAccess)
	if err != nil {
		if errors.Is(err, core.ErrWrongKind) {
			return nil, err
		}
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if claims.Kind != core.TokenAccess {
		return nil, core.ErrWrongKind
	}

	// Tokens outlive deleted identities, this lookup is what rejects them
	identity, err := s.identities.FindIdentityByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, core.ErrNoRecord) {
			return nil, core.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}

	return identity, nil
}
