package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// MemoryStore is an in-memory implementation of the identity and address stores.
// Records are copied in and out so callers never share state with the store.
type MemoryStore struct {
	identities map[string]*core.Identity
	index      map[identityKey]string // (address, provider) to identity id
	addresses  map[string]*core.Address
	mu         sync.RWMutex
}

type identityKey struct {
	address  string
	provider core.Provider
}

var (
	_ ports.IdentityStore = (*MemoryStore)(nil)
	_ ports.AddressStore  = (*MemoryStore)(nil)
)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities: make(map[string]*core.Identity),
		index:      make(map[identityKey]string),
		addresses:  make(map[string]*core.Address),
	}
}

// FindIdentity looks an identity up by address and provider
func (s *MemoryStore) FindIdentity(ctx context.Context, address string, provider core.Provider) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.index[identityKey{address, provider}]
	if !ok {
		return nil, core.ErrNoRecord
	}
	return copyIdentity(s.identities[id]), nil
}

// FindIdentityByID looks an identity up by id
func (s *MemoryStore) FindIdentityByID(ctx context.Context, id string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[id]
	if !ok {
		return nil, core.ErrNoRecord
	}
	return copyIdentity(identity), nil
}

// UpsertIdentity stores candidate unless the address is already known for its provider
func (s *MemoryStore) UpsertIdentity(ctx context.Context, candidate *core.Identity) (*core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identityKey{candidate.Address, candidate.Provider}
	if id, ok := s.index[key]; ok {
		return copyIdentity(s.identities[id]), nil
	}

	stored := copyIdentity(candidate)
	s.identities[stored.ID] = stored
	s.index[key] = stored.ID

	return copyIdentity(stored), nil
}

// UpdateNonce replaces the nonce of an identity
func (s *MemoryStore) UpdateNonce(ctx context.Context, id string, nonce core.Nonce) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[id]
	if !ok {
		return core.ErrNoRecord
	}
	identity.Nonce = nonce
	identity.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteIdentity removes an identity and its addresses
func (s *MemoryStore) DeleteIdentity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[id]
	if !ok {
		return core.ErrNoRecord
	}
	delete(s.index, identityKey{identity.Address, identity.Provider})
	delete(s.identities, id)

	for addrID, addr := range s.addresses {
		if addr.IdentityID == id {
			delete(s.addresses, addrID)
		}
	}
	return nil
}

// ListAddresses returns the addresses of an identity, oldest first
func (s *MemoryStore) ListAddresses(ctx context.Context, identityID string) ([]*core.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*core.Address, 0)
	for _, addr := range s.addresses {
		if addr.IdentityID == identityID {
			c := *addr
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// GetAddress returns a single address
func (s *MemoryStore) GetAddress(ctx context.Context, id string) (*core.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addr, ok := s.addresses[id]
	if !ok {
		return nil, core.ErrNoRecord
	}
	c := *addr
	return &c, nil
}

// CreateAddress stores a new address
func (s *MemoryStore) CreateAddress(ctx context.Context, address *core.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *address
	s.addresses[address.ID] = &c
	return nil
}

// UpdateAddress overwrites an existing address
func (s *MemoryStore) UpdateAddress(ctx context.Context, address *core.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.addresses[address.ID]; !ok {
		return core.ErrNoRecord
	}
	c := *address
	s.addresses[address.ID] = &c
	return nil
}

// DeleteAddress removes an address
func (s *MemoryStore) DeleteAddress(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.addresses[id]; !ok {
		return core.ErrNoRecord
	}
	delete(s.addresses, id)
	return nil
}

func copyIdentity(identity *core.Identity) *core.Identity {
	c := *identity
	return &c
}
