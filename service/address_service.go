package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"go.uber.org/zap"
)

// AddressInput is what a client submits when creating or updating an address
type AddressInput struct {
	AccountNumber string
	TokenSymbol   string
	Metadata      string
}

// AddressService manages the payment addresses of authenticated identities
type AddressService struct {
	addresses ports.AddressStore
	log       *zap.Logger
}

// NewAddressService creates a new address service
func NewAddressService(addresses ports.AddressStore, log *zap.Logger) *AddressService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AddressService{
		addresses: addresses,
		log:       log.Named("addresses"),
	}
}

// resolve validates input and fills the token details from the catalog
func resolve(input AddressInput) (core.TokenInfo, error) {
	token, ok := core.LookupToken(input.TokenSymbol)
	if !ok {
		return core.TokenInfo{}, core.ErrTokenNotSupported
	}

	n := len(input.AccountNumber)
	if n < core.AccountNumberMinLength || n > core.AccountNumberMaxLength {
		return core.TokenInfo{}, core.ErrInvalidAccountNumber
	}

	if token.RequiresMetadata && input.Metadata == "" {
		return core.TokenInfo{}, core.ErrMetadataRequired
	}

	return token, nil
}

// List returns the addresses of identity
func (s *AddressService) List(ctx context.Context, identity *core.Identity) ([]*core.Address, error) {
	addresses, err := s.addresses.ListAddresses(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// Create registers a new address for identity
func (s *AddressService) Create(ctx context.Context, identity *core.Identity, input AddressInput) (*core.Address, error) {
	token, err := resolve(input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	address := &core.Address{
		ID:            uuid.New().String(),
		IdentityID:    identity.ID,
		AccountNumber: input.AccountNumber,
		Token:         token,
		Metadata:      input.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.addresses.CreateAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	s.log.Debug("address created",
		zap.String("identity_id", identity.ID),
		zap.String("address_id", address.ID),
		zap.String("symbol", token.Symbol),
	)
	return address, nil
}

// owned loads an address and checks it belongs to identity
func (s *AddressService) owned(ctx context.Context, identity *core.Identity, id string) (*core.Address, error) {
	address, err := s.addresses.GetAddress(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNoRecord) {
			return nil, core.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to load address: %w", err)
	}

	if address.IdentityID != identity.ID {
		return nil, core.ErrNotPermitted
	}
	return address, nil
}

// Update replaces the details of one of identity's addresses
func (s *AddressService) Update(ctx context.Context, identity *core.Identity, id string, input AddressInput) (*core.Address, error) {
	token, err := resolve(input)
	if err != nil {
		return nil, err
	}

	address, err := s.owned(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	address.AccountNumber = input.AccountNumber
	address.Token = token
	address.Metadata = input.Metadata
	address.UpdatedAt = time.Now().UTC()

	if err := s.addresses.UpdateAddress(ctx, address); err != nil {
		if errors.Is(err, core.ErrNoRecord) {
			return nil, core.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return address, nil
}

// Delete removes one of identity's addresses and returns it
func (s *AddressService) Delete(ctx context.Context, identity *core.Identity, id string) (*core.Address, error) {
	address, err := s.owned(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if err := s.addresses.DeleteAddress(ctx, id); err != nil {
		if errors.Is(err, core.ErrNoRecord) {
			return nil, core.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to delete address: %w", err)
	}
	return address, nil
}
