package domainkey

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
)

// Record is a DomainKeys DNS TXT record, to be published at
// <selector>._domainkey.<domain>.
type Record struct {
	Granularity string // Local-part the key may sign for, "g=". Optional.
	Testing     bool   // Whether the domain is testing DomainKeys, "t=y".
	Notes       string // "n=".
	PublicKey   *rsa.PublicKey
}

// Record returns the TXT record text.
func (r Record) Record() (string, error) {
	var l []string
	if r.Granularity != "" {
		l = append(l, "g="+r.Granularity)
	}
	l = append(l, "k=rsa")
	if r.Notes != "" {
		if strings.Contains(r.Notes, ";") {
			return "", fmt.Errorf("notes cannot contain semicolon")
		}
		l = append(l, "n="+r.Notes)
	}
	if r.PublicKey == nil {
		return "", fmt.Errorf("missing public key")
	}
	pk, err := x509.MarshalPKIXPublicKey(r.PublicKey)
	if err != nil {
		return "", fmt.Errorf("marshal rsa public key: %v", err)
	}
	l = append(l, "p="+base64.StdEncoding.EncodeToString(pk))
	if r.Testing {
		l = append(l, "t=y")
	}
	return strings.Join(l, "; "), nil
}
