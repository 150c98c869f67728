package keys

import (
	"bytes"
	cryptorand "crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"
)

// GenerateRSA returns a new RSA private key of the given bits in PKCS #8 PEM
// form, with a note and creation time in the PEM headers.
func GenerateRSA(bits int) ([]byte, error) {
	if bits < 1024 {
		return nil, fmt.Errorf("%w: rsa key of %d bits is too small", ErrKey, bits)
	}
	privKey, err := rsa.GenerateKey(cryptorand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(privKey)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	block := &pem.Block{
		Type: "PRIVATE KEY",
		Headers: map[string]string{
			"Note":    "RSA private key for use with DKIM and DomainKeys, generated by mailsign",
			"Created": time.Now().Format(time.RFC3339),
		},
		Bytes: pkcs8,
	}
	b := &bytes.Buffer{}
	if err := pem.Encode(b, block); err != nil {
		return nil, fmt.Errorf("encoding pem: %w", err)
	}
	return b.Bytes(), nil
}
