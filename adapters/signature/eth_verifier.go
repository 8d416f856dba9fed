package signature

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// EthVerifier recovers signers of EIP-191 personal messages, as produced by
// MetaMask's personal_sign.
type EthVerifier struct{}

// NewEthVerifier creates a new personal message verifier
func NewEthVerifier() ports.SignatureVerifier {
	return EthVerifier{}
}

// RecoverAddress returns the checksummed address that signed message
func (EthVerifier) RecoverAddress(message []byte, signatureStr string) (string, error) {
	decodedSig, err := hexutil.Decode(signatureStr)
	if err != nil {
		return "", fmt.Errorf("failed to decode signature: %w", core.ErrSignatureFormat)
	}
	if len(decodedSig) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrSignatureFormat)
	}

	// Wallets emit V as 27/28, recovery expects 0/1
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, decodedSig)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return "", fmt.Errorf("invalid recovery id %d: %w", decodedSig[crypto.RecoveryIDOffset], core.ErrSignatureFormat)
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", core.ErrSignatureFormat)
	}

	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}
