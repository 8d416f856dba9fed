package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/redis/go-redis/v9"
)

// upsertScript creates the identity hash and its (provider, address) index in one step.
// KEYS: index, identity hash. ARGV: id, address, provider, nonce, timestamp.
var upsertScript = redis.NewScript(`
local existing = redis.call('GET', KEYS[1])
if existing then
	return existing
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('HSET', KEYS[2], 'id', ARGV[1], 'address', ARGV[2], 'provider', ARGV[3], 'nonce', ARGV[4], 'created_at', ARGV[5], 'updated_at', ARGV[5])
return ARGV[1]
`)

// updateNonceScript only touches identities that still exist
var updateNonceScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'nonce', ARGV[1], 'updated_at', ARGV[2])
return 1
`)

// updateAddressScript overwrites the mutable fields of an address that still exists.
// KEYS: address hash. ARGV: field/value pairs.
var updateAddressScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

// RedisStore is a Redis implementation of the identity and address stores
type RedisStore struct {
	client *redis.Client
	prefix string
}

var (
	_ ports.IdentityStore = (*RedisStore)(nil)
	_ ports.AddressStore  = (*RedisStore)(nil)
)

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "walletauth:",
	}
}

func (s *RedisStore) identityKey(id string) string {
	return s.prefix + "identity:" + id
}

func (s *RedisStore) addressKey(id string) string {
	return s.prefix + "address:" + id
}

// ownedKey is a sorted set of address ids scored by creation time in millis
func (s *RedisStore) ownedKey(identityID string) string {
	return s.prefix + "identity-addresses:" + identityID
}

func (s *RedisStore) indexKey(address string, provider core.Provider) string {
	return s.prefix + "identity-index:" + string(provider) + ":" + address
}

// FindIdentity looks an identity up by address and provider
func (s *RedisStore) FindIdentity(ctx context.Context, address string, provider core.Provider) (*core.Identity, error) {
	id, err := s.client.Get(ctx, s.indexKey(address, provider)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNoRecord
		}
		return nil, fmt.Errorf("failed to look up identity index: %w", err)
	}

	return s.FindIdentityByID(ctx, id)
}

// FindIdentityByID looks an identity up by id
func (s *RedisStore) FindIdentityByID(ctx context.Context, id string) (*core.Identity, error) {
	fields, err := s.client.HGetAll(ctx, s.identityKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrNoRecord
	}

	return identityFromHash(fields)
}

// UpsertIdentity stores candidate unless the address is already known for its provider
func (s *RedisStore) UpsertIdentity(ctx context.Context, candidate *core.Identity) (*core.Identity, error) {
	keys := []string{
		s.indexKey(candidate.Address, candidate.Provider),
		s.identityKey(candidate.ID),
	}
	id, err := upsertScript.Run(ctx, s.client, keys,
		candidate.ID,
		candidate.Address,
		string(candidate.Provider),
		int64(candidate.Nonce),
		toMillis(candidate.CreatedAt),
	).Text()
	if err != nil {
		return nil, fmt.Errorf("failed to upsert identity: %w", err)
	}

	return s.FindIdentityByID(ctx, id)
}

// UpdateNonce replaces the nonce of an identity
func (s *RedisStore) UpdateNonce(ctx context.Context, id string, nonce core.Nonce) error {
	updated, err := updateNonceScript.Run(ctx, s.client, []string{s.identityKey(id)},
		int64(nonce),
		toMillis(time.Now()),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to update nonce: %w", err)
	}
	if updated == 0 {
		return core.ErrNoRecord
	}
	return nil
}

// DeleteIdentity removes an identity, its index entry and its addresses
func (s *RedisStore) DeleteIdentity(ctx context.Context, id string) error {
	identity, err := s.FindIdentityByID(ctx, id)
	if err != nil {
		return err
	}

	addressIDs, err := s.client.ZRange(ctx, s.ownedKey(id), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list addresses of identity: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.indexKey(identity.Address, identity.Provider))
		pipe.Del(ctx, s.identityKey(id))
		for _, addressID := range addressIDs {
			pipe.Del(ctx, s.addressKey(addressID))
		}
		pipe.Del(ctx, s.ownedKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return nil
}

// ListAddresses returns the addresses of an identity, oldest first
func (s *RedisStore) ListAddresses(ctx context.Context, identityID string) ([]*core.Address, error) {
	ids, err := s.client.ZRange(ctx, s.ownedKey(identityID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}

	result := make([]*core.Address, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cmds := make([]*redis.MapStringStringCmd, 0, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			cmds = append(cmds, pipe.HGetAll(ctx, s.addressKey(id)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load addresses: %w", err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		addr, err := addressFromHash(fields)
		if err != nil {
			return nil, err
		}
		result = append(result, addr)
	}
	return result, nil
}

// GetAddress returns a single address
func (s *RedisStore) GetAddress(ctx context.Context, id string) (*core.Address, error) {
	fields, err := s.client.HGetAll(ctx, s.addressKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrNoRecord
	}
	return addressFromHash(fields)
}

// CreateAddress stores a new address and links it to its identity
func (s *RedisStore) CreateAddress(ctx context.Context, a *core.Address) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.addressKey(a.ID),
			"id", a.ID,
			"identity_id", a.IdentityID,
			"created_at", toMillis(a.CreatedAt),
		)
		pipe.HSet(ctx, s.addressKey(a.ID), mutableAddressFields(a)...)
		pipe.ZAdd(ctx, s.ownedKey(a.IdentityID), redis.Z{
			Score:  float64(toMillis(a.CreatedAt)),
			Member: a.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

// UpdateAddress overwrites the mutable fields of an address
func (s *RedisStore) UpdateAddress(ctx context.Context, a *core.Address) error {
	updated, err := updateAddressScript.Run(ctx, s.client, []string{s.addressKey(a.ID)},
		mutableAddressFields(a)...,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}
	if updated == 0 {
		return core.ErrNoRecord
	}
	return nil
}

// DeleteAddress removes an address and unlinks it from its identity
func (s *RedisStore) DeleteAddress(ctx context.Context, id string) error {
	addr, err := s.GetAddress(ctx, id)
	if err != nil {
		return err
	}

	var deleted *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.addressKey(id))
		pipe.ZRem(ctx, s.ownedKey(addr.IdentityID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	if deleted.Val() == 0 {
		return core.ErrNoRecord
	}
	return nil
}

func mutableAddressFields(a *core.Address) []interface{} {
	requiresMetadata := "0"
	if a.Token.RequiresMetadata {
		requiresMetadata = "1"
	}
	return []interface{}{
		"account_number", a.AccountNumber,
		"token_title", a.Token.Title,
		"token_symbol", a.Token.Symbol,
		"token_logo_url", a.Token.LogoURL,
		"token_requires_metadata", requiresMetadata,
		"token_info_url", a.Token.TokenInfoURL,
		"metadata", a.Metadata,
		"updated_at", toMillis(a.UpdatedAt),
	}
}

func addressFromHash(fields map[string]string) (*core.Address, error) {
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at for address %s: %w", fields["id"], err)
	}
	updatedAt, err := strconv.ParseInt(fields["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt updated_at for address %s: %w", fields["id"], err)
	}

	return &core.Address{
		ID:            fields["id"],
		IdentityID:    fields["identity_id"],
		AccountNumber: fields["account_number"],
		Token: core.TokenInfo{
			Title:            fields["token_title"],
			Symbol:           fields["token_symbol"],
			LogoURL:          fields["token_logo_url"],
			RequiresMetadata: fields["token_requires_metadata"] == "1",
			TokenInfoURL:     fields["token_info_url"],
		},
		Metadata:  fields["metadata"],
		CreatedAt: fromMillis(createdAt),
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}

func identityFromHash(fields map[string]string) (*core.Identity, error) {
	nonce, err := strconv.ParseInt(fields["nonce"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt nonce for identity %s: %w", fields["id"], err)
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at for identity %s: %w", fields["id"], err)
	}
	updatedAt, err := strconv.ParseInt(fields["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt updated_at for identity %s: %w", fields["id"], err)
	}

	return &core.Identity{
		ID:        fields["id"],
		Address:   fields["address"],
		Provider:  core.Provider(fields["provider"]),
		Nonce:     core.Nonce(nonce),
		CreatedAt: fromMillis(createdAt),
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}

// toMillis normalizes timestamps into millisecond precision for storage
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
