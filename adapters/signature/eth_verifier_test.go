package signature_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/adapters/signature"
	"github.com/layer-3/walletauth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// personalSign mimics a wallet: recovery id shifted to 27/28
func personalSign(t *testing.T, message string) (string, string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestRecoverAddress(t *testing.T) {
	v := signature.NewEthVerifier()
	address, sig := personalSign(t, "12345678")

	recovered, err := v.RecoverAddress([]byte("12345678"), sig)
	require.NoError(t, err)
	assert.Equal(t, address, recovered)

	// Same signature over another message recovers some other key
	recovered, err = v.RecoverAddress([]byte("87654321"), sig)
	require.NoError(t, err)
	assert.NotEqual(t, address, recovered)
}

func TestRecoverAddressRawRecoveryID(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte("55555555")), key)
	require.NoError(t, err)

	recovered, err := signature.NewEthVerifier().RecoverAddress([]byte("55555555"), hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), recovered)
}

func TestRecoverAddressMalformed(t *testing.T) {
	v := signature.NewEthVerifier()
	_, valid := personalSign(t, "12345678")
	raw, err := hexutil.Decode(valid)
	require.NoError(t, err)

	badV := make([]byte, len(raw))
	copy(badV, raw)
	badV[crypto.RecoveryIDOffset] = 35

	for name, sig := range map[string]string{
		"not hex":      "signature",
		"no prefix":    valid[2:],
		"short":        hexutil.Encode(raw[:64]),
		"long":         hexutil.Encode(append(append([]byte{}, raw...), 0x00)),
		"bad recovery": hexutil.Encode(badV),
		"zero":         hexutil.Encode(make([]byte, crypto.SignatureLength)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.RecoverAddress([]byte("12345678"), sig)
			require.ErrorIs(t, err, core.ErrSignatureFormat)
		})
	}
}
