package ports

// SignatureVerifier recovers the address that signed a message under one wallet scheme.
// Malformed signatures fail with core.ErrSignatureFormat.
type SignatureVerifier interface {
	RecoverAddress(message []byte, signature string) (string, error)
}
