package walletauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth"
	"github.com/layer-3/walletauth/adapters/signature"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
	transporthttp "github.com/layer-3/walletauth/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) *walletauth.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tk, err := tokenizer.NewJWTTokenizer(tokenizer.Config{
		Secret:          []byte("client-test-secret"),
		AccessValidity:  5 * time.Minute,
		RefreshValidity: 120 * time.Hour,
	})
	require.NoError(t, err)

	s := store.NewMemoryStore()
	authService := service.NewAuthService(
		s,
		tk,
		map[core.Provider]ports.SignatureVerifier{core.ProviderMetamask: signature.NewEthVerifier()},
		nil,
		nil,
	)

	srv := httptest.NewServer(transporthttp.SetupRouter(authService, service.NewAddressService(s, nil), nil))
	t.Cleanup(srv.Close)

	return walletauth.NewClient(srv.URL+"/", walletauth.WithHTTPClient(srv.Client()))
}

func newSigner(t *testing.T) *walletauth.KeySigner {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return walletauth.NewKeySigner(key)
}

func TestClientSignIn(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	signer := newSigner(t)

	tokens, err := client.SignIn(ctx, signer, walletauth.ProviderMetamask)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	me, err := client.Me(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), me.AccountNumber)
	assert.Equal(t, walletauth.ProviderMetamask, me.Provider)

	accessToken, err := client.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)

	again, err := client.Me(ctx, accessToken)
	require.NoError(t, err)
	assert.Equal(t, me.ID, again.ID)
}

func TestClientErrors(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	signer := newSigner(t)

	_, err := client.Login(ctx, signer.Address(), walletauth.ProviderMetamask, "0x00")
	require.Error(t, err)
	assert.True(t, walletauth.IsNotFound(err))

	_, err = client.Me(ctx, "invalidJWTToken")
	require.Error(t, err)
	assert.True(t, walletauth.IsUnauthorized(err))

	var apiErr *walletauth.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid or expired token.", apiErr.Message)

	_, err = client.Nonce(ctx, "", walletauth.ProviderMetamask)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "accountNumber", apiErr.Fields[0].Path)

	_, err = client.Me(ctx, "")
	require.ErrorIs(t, err, walletauth.ErrNoAccessToken)
}

func TestClientAddresses(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	tokens, err := client.SignIn(ctx, newSigner(t), walletauth.ProviderMetamask)
	require.NoError(t, err)

	created, err := client.CreateAddress(ctx, tokens.AccessToken, "3ExEQtSxPTQuzpRfqSGEsBJM8FxuswmqLU", "BTC", "")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", created.Token.Title)

	addresses, err := client.Addresses(ctx, tokens.AccessToken)
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, created.ID, addresses[0].ID)

	_, err = client.CreateAddress(ctx, tokens.AccessToken, "GATUWUJ2HGOCMGGVSZKBMVEREZTVKT56YC7VPJCIBQC3LXYW2MXJBWD2", "XLM", "")
	var apiErr *walletauth.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Metadata is required for this token.", apiErr.Message)
}
