package service_test

import (
	"context"
	"testing"

	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const btcAccount = "3ExEQtSxPTQuzpRfqSGEsBJM8FxuswmqLU"

func setupAddresses(t *testing.T) (*service.AddressService, *core.Identity, *core.Identity) {
	t.Helper()

	owner, err := core.NewIdentity("0x08Dc3835827e7958D5ABAeF12c09b7C128a93DFD", core.ProviderMetamask)
	require.NoError(t, err)
	stranger, err := core.NewIdentity("0x1234567890123456789012345678901234567890", core.ProviderMetamask)
	require.NoError(t, err)

	return service.NewAddressService(store.NewMemoryStore(), nil), owner, stranger
}

func TestAddressCreateAndList(t *testing.T) {
	svc, owner, stranger := setupAddresses(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, service.AddressInput{
		AccountNumber: btcAccount,
		TokenSymbol:   "btc",
		Metadata:      "test",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, owner.ID, created.IdentityID)
	assert.Equal(t, "BTC", created.Token.Symbol)
	assert.Equal(t, "Bitcoin", created.Token.Title)
	assert.NotEmpty(t, created.Token.TokenInfoURL)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	list, err = svc.List(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddressValidation(t *testing.T) {
	svc, owner, _ := setupAddresses(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input service.AddressInput
		err   error
	}{
		{
			name:  "unsupported token",
			input: service.AddressInput{AccountNumber: btcAccount, TokenSymbol: "invalidToken"},
			err:   core.ErrTokenNotSupported,
		},
		{
			name:  "metadata required",
			input: service.AddressInput{AccountNumber: "GATUWUJ2HGOCMGGVSZKBMVEREZTVKT56YC7VPJCIBQC3LXYW2MXJBWD2", TokenSymbol: "xlm"},
			err:   core.ErrMetadataRequired,
		},
		{
			name:  "account number too short",
			input: service.AddressInput{AccountNumber: "0x1234", TokenSymbol: "ETH"},
			err:   core.ErrInvalidAccountNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner, tt.input)
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, core.KindInvalidRequest, core.KindOf(err))
		})
	}
}

func TestAddressUpdateAndDelete(t *testing.T) {
	svc, owner, stranger := setupAddresses(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, service.AddressInput{AccountNumber: btcAccount, TokenSymbol: "BTC"})
	require.NoError(t, err)

	update := service.AddressInput{AccountNumber: "0x987654321123456789123456789", TokenSymbol: "eth", Metadata: "hot"}

	_, err = svc.Update(ctx, stranger, created.ID, update)
	require.ErrorIs(t, err, core.ErrNotPermitted)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))

	_, err = svc.Update(ctx, owner, "missing", update)
	require.ErrorIs(t, err, core.ErrAddressNotFound)

	updated, err := svc.Update(ctx, owner, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "ETH", updated.Token.Symbol)
	assert.Equal(t, "hot", updated.Metadata)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = svc.Delete(ctx, stranger, created.ID)
	require.ErrorIs(t, err, core.ErrNotPermitted)

	deleted, err := svc.Delete(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.Delete(ctx, owner, created.ID)
	require.ErrorIs(t, err, core.ErrAddressNotFound)
}
