package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Provider identifies the wallet signing scheme used by an identity
type Provider string

const (
	// ProviderMetamask signs personal messages with EIP-191 over secp256k1
	ProviderMetamask Provider = "metamask"
)

const (
	// NonceMin is the smallest nonce value that can be issued
	NonceMin Nonce = 10_000_000
	// NonceMax is the largest nonce value that can be issued
	NonceMax Nonce = 99_999_999
)

// Nonce is the one-time numeric challenge a wallet holder signs to log in
type Nonce int64

// String returns the decimal form of the nonce, which is the exact message that gets signed
func (n Nonce) String() string {
	return strconv.FormatInt(int64(n), 10)
}

// Valid reports whether the nonce is an 8 digit value
func (n Nonce) Valid() bool {
	return n >= NonceMin && n <= NonceMax
}

// Identity binds a wallet address and provider to a rotating nonce
type Identity struct {
	ID        string    // Opaque unique handle
	Address   string    // Wallet address as claimed by the client
	Provider  Provider  // Signing scheme of the wallet
	Nonce     Nonce     // Current challenge value
	CreatedAt time.Time // When the identity was first seen
	UpdatedAt time.Time // Last nonce change
}

// GenerateNonce draws a uniformly random nonce in [NonceMin, NonceMax]
func GenerateNonce() (Nonce, error) {
	span := big.NewInt(int64(NonceMax-NonceMin) + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return NonceMin + Nonce(n.Int64()), nil
}

// NewIdentity builds a fresh identity with its own nonce.
// Every creation draws a new nonce, two identities never share a default.
func NewIdentity(address string, provider Provider) (*Identity, error) {
	nonce, err := GenerateNonce()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Identity{
		ID:        uuid.New().String(),
		Address:   address,
		Provider:  provider,
		Nonce:     nonce,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
