package ports

import (
	"context"

	"github.com/layer-3/walletauth/core"
)

// IdentityStore persists wallet identities.
// Lookups that match nothing return core.ErrNoRecord.
type IdentityStore interface {
	FindIdentity(ctx context.Context, address string, provider core.Provider) (*core.Identity, error)
	FindIdentityByID(ctx context.Context, id string) (*core.Identity, error)

	// UpsertIdentity stores candidate unless an identity with the same address and
	// provider exists, and returns whichever identity is stored.
	UpsertIdentity(ctx context.Context, candidate *core.Identity) (*core.Identity, error)

	UpdateNonce(ctx context.Context, id string, nonce core.Nonce) error
}

// AddressStore persists the payment addresses of identities
type AddressStore interface {
	ListAddresses(ctx context.Context, identityID string) ([]*core.Address, error)
	GetAddress(ctx context.Context, id string) (*core.Address, error)
	CreateAddress(ctx context.Context, address *core.Address) error
	UpdateAddress(ctx context.Context, address *core.Address) error
	DeleteAddress(ctx context.Context, id string) error
}
