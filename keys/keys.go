// Package keys provides the private key operations for signing messages: a
// Signer hashes data and signs data with a fixed algorithm.
package keys

import (
	"crypto"
	cryptorand "crypto/rand"
	"crypto/rsa"
	_ "crypto/sha1"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

var (
	ErrKey       = errors.New("keys: invalid private key")
	ErrAlgorithm = errors.New("keys: unsupported algorithm")
)

// Algorithm is a signing algorithm, named as in the a= tag of signature headers.
type Algorithm string

const (
	RSASHA1   Algorithm = "rsa-sha1"   // Only algorithm for DomainKeys. Not recommended for DKIM.
	RSASHA256 Algorithm = "rsa-sha256" // Default for DKIM.
)

// ParseAlgorithm parses an algorithm name, case-insensitive.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(s))
	if a.Hash() == 0 {
		return "", fmt.Errorf("%w: %q", ErrAlgorithm, s)
	}
	return a, nil
}

// Hash returns the hash function for the algorithm, or zero for an unknown
// algorithm.
func (a Algorithm) Hash() crypto.Hash {
	switch a {
	case RSASHA1:
		return crypto.SHA1
	case RSASHA256:
		return crypto.SHA256
	}
	return 0
}

// Signer signs and hashes data with the private key and hash function of its
// algorithm.
type Signer interface {
	Algorithm() Algorithm

	// Sign returns the signature over the hash of data.
	Sign(data []byte) ([]byte, error)

	// Hash returns the digest of data.
	Hash(data []byte) ([]byte, error)
}

// PrivateKeySigner is a Signer with an RSA private key, creating PKCS #1 v1.5
// signatures. Safe for concurrent use.
type PrivateKeySigner struct {
	key *rsa.PrivateKey
	alg Algorithm
}

var _ Signer = (*PrivateKeySigner)(nil)

// New returns a signer for an RSA private key.
func New(key *rsa.PrivateKey, alg Algorithm) (*PrivateKeySigner, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: missing key", ErrKey)
	}
	if alg.Hash() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrAlgorithm, alg)
	}
	return &PrivateKeySigner{key, alg}, nil
}

// Parse parses a PEM-encoded RSA private key in PKCS #1, PKCS #8 or OpenSSH
// form.
func Parse(pemData []byte, alg Algorithm) (*PrivateKeySigner, error) {
	k, err := ssh.ParseRawPrivateKey(pemData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKey, err)
	}
	return newRaw(k, alg)
}

// ParseWithPassphrase is like Parse, for an encrypted private key.
func ParseWithPassphrase(pemData, passphrase []byte, alg Algorithm) (*PrivateKeySigner, error) {
	k, err := ssh.ParseRawPrivateKeyWithPassphrase(pemData, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKey, err)
	}
	return newRaw(k, alg)
}

func newRaw(k any, alg Algorithm) (*PrivateKeySigner, error) {
	key, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is %T, need rsa", ErrKey, k)
	}
	return New(key, alg)
}

// Load reads and parses a PEM private key file.
func Load(path string, alg Algorithm) (*PrivateKeySigner, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	s, err := Parse(buf, alg)
	if err != nil {
		return nil, fmt.Errorf("private key file %s: %w", path, err)
	}
	return s, nil
}

// WithAlgorithm returns a signer with the same key and another algorithm, e.g.
// for using one key for both DKIM and DomainKeys signatures.
func (s *PrivateKeySigner) WithAlgorithm(alg Algorithm) (*PrivateKeySigner, error) {
	return New(s.key, alg)
}

func (s *PrivateKeySigner) Algorithm() Algorithm {
	return s.alg
}

// Public returns the public key, to be published in DNS.
func (s *PrivateKeySigner) Public() *rsa.PublicKey {
	return &s.key.PublicKey
}

func (s *PrivateKeySigner) Hash(data []byte) ([]byte, error) {
	h := s.alg.Hash()
	if !h.Available() {
		return nil, fmt.Errorf("%w: hash %v not available", ErrAlgorithm, h)
	}
	hh := h.New()
	hh.Write(data)
	return hh.Sum(nil), nil
}

func (s *PrivateKeySigner) Sign(data []byte) ([]byte, error) {
	digest, err := s.Hash(data)
	if err != nil {
		return nil, err
	}
	sig, err := rsa.SignPKCS1v15(cryptorand.Reader, s.key, s.alg.Hash(), digest)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	return sig, nil
}
