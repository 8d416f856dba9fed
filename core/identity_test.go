package core_test

import (
	"strconv"
	"testing"

	"github.com/layer-3/walletauth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNonceRange(t *testing.T) {
	for i := 0; i < 10000; i++ {
		n, err := core.GenerateNonce()
		require.NoError(t, err)
		require.True(t, n.Valid(), "nonce %d out of range", n)

		s := n.String()
		require.Len(t, s, 8)
		parsed, err := strconv.ParseInt(s, 10, 64)
		require.NoError(t, err)
		require.Equal(t, int64(n), parsed)
	}
}

func TestNonceValid(t *testing.T) {
	assert.True(t, core.NonceMin.Valid())
	assert.True(t, core.NonceMax.Valid())
	assert.False(t, (core.NonceMin - 1).Valid())
	assert.False(t, (core.NonceMax + 1).Valid())
	assert.Equal(t, "10000000", core.NonceMin.String())
}

func TestNewIdentity(t *testing.T) {
	a, err := core.NewIdentity("0xabc", core.ProviderMetamask)
	require.NoError(t, err)
	b, err := core.NewIdentity("0xabc", core.ProviderMetamask)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "0xabc", a.Address)
	assert.Equal(t, core.ProviderMetamask, a.Provider)
	assert.True(t, a.Nonce.Valid())
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
}

func TestLookupToken(t *testing.T) {
	tok, ok := core.LookupToken("btc")
	require.True(t, ok)
	assert.Equal(t, "BTC", tok.Symbol)
	assert.False(t, tok.RequiresMetadata)

	tok, ok = core.LookupToken("XLM")
	require.True(t, ok)
	assert.True(t, tok.RequiresMetadata)

	_, ok = core.LookupToken("invalidToken")
	assert.False(t, ok)
}
