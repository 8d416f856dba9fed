package walletauth

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ProviderMetamask is the provider name of EIP-191 wallets
const ProviderMetamask = "metamask"

// Tokens is the result of a successful login
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Identity is an authenticated wallet
type Identity struct {
	ID            string `json:"id"`
	AccountNumber string `json:"accountNumber"`
	Provider      string `json:"provider"`
}

// Token describes the asset of an address
type Token struct {
	Title            string `json:"title"`
	Symbol           string `json:"symbol"`
	LogoURL          string `json:"logoUrl"`
	RequiresMetadata bool   `json:"requiresMetadata"`
	TokenInfoURL     string `json:"tokenInfoUrl"`
}

// Address is a payment address registered by an identity
type Address struct {
	ID            string    `json:"id"`
	AccountNumber string    `json:"accountNumber"`
	Token         Token     `json:"token"`
	Metadata      string    `json:"metadata"`
	User          string    `json:"user"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Client talks to a walletauth server over HTTP
type Client struct {
	baseURL string
	http    *http.Client
}

var _ API = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Nonce(ctx context.Context, address, provider string) (int64, error) {
	var resp struct {
		Nonce int64 `json:"nonce"`
	}
	body := map[string]string{"accountNumber": address, "provider": provider}
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/nonce", "", body, &resp); err != nil {
		return 0, err
	}
	return resp.Nonce, nil
}

func (c *Client) Login(ctx context.Context, address, provider, signature string) (Tokens, error) {
	var tokens Tokens
	body := map[string]string{"accountNumber": address, "provider": provider, "signature": signature}
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/create-jwt", "", body, &tokens); err != nil {
		return Tokens{}, err
	}
	return tokens, nil
}

// SignIn runs the whole challenge flow for signer
func (c *Client) SignIn(ctx context.Context, signer Signer, provider string) (Tokens, error) {
	nonce, err := c.Nonce(ctx, signer.Address(), provider)
	if err != nil {
		return Tokens{}, err
	}

	signature, err := signer.SignMessage([]byte(strconv.FormatInt(nonce, 10)))
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to sign nonce: %w", err)
	}

	return c.Login(ctx, signer.Address(), provider, signature)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/refresh-jwt", "", body, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (c *Client) Me(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}

	var identity Identity
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", accessToken, nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *Client) Addresses(ctx context.Context, accessToken string) ([]Address, error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}

	var addresses []Address
	if err := c.do(ctx, http.MethodGet, "/api/v1/addresses", accessToken, nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateAddress registers a payment address for the token holder
func (c *Client) CreateAddress(ctx context.Context, accessToken, accountNumber, symbol, metadata string) (*Address, error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}

	body := map[string]interface{}{
		"accountNumber": accountNumber,
		"token":         map[string]string{"symbol": symbol},
		"metadata":      metadata,
	}
	var address Address
	if err := c.do(ctx, http.MethodPost, "/api/v1/addresses", accessToken, body, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string       `json:"message"`
			Errors  []FieldError `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
			apiErr.Fields = payload.Errors
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// KeySigner signs with an in-memory secp256k1 key, the way MetaMask's personal_sign does
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address string
}

var _ Signer = (*KeySigner)(nil)

// NewKeySigner wraps key
func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

// Address returns the checksummed address of the key
func (s *KeySigner) Address() string {
	return s.address
}

// SignMessage returns the 65 byte signature with a 27/28 recovery id
func (s *KeySigner) SignMessage(message []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), s.key)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}
