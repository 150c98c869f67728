package dkim

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
)

// Record is a DKIM DNS TXT record, to be published at
// <selector>._domainkey.<domain> for verifiers to find the public key.
//
// Example:
//
//	v=DKIM1;h=sha256;p=MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAru4k...
type Record struct {
	Hashes    []string // Acceptable hash algorithms, e.g. "sha256". Optional, defaults to all algorithms. Field "h".
	Notes     string   // Notes for administrators. Field "n".
	Flags     []string // Flags, e.g. "y" while testing DKIM. Field "t".
	PublicKey *rsa.PublicKey
}

// Record returns the TXT record text. Only non-default values are included.
func (r Record) Record() (string, error) {
	l := []string{"v=DKIM1"}
	if len(r.Hashes) > 0 {
		l = append(l, "h="+strings.Join(r.Hashes, ":"))
	}
	if r.Notes != "" {
		l = append(l, "n="+qpSection(r.Notes))
	}
	if len(r.Flags) > 0 {
		l = append(l, "t="+strings.Join(r.Flags, ":"))
	}
	if r.PublicKey == nil {
		return "", fmt.Errorf("missing public key")
	}
	pk, err := x509.MarshalPKIXPublicKey(r.PublicKey)
	if err != nil {
		return "", fmt.Errorf("marshal rsa public key: %v", err)
	}
	l = append(l, "p="+base64.StdEncoding.EncodeToString(pk))
	return strings.Join(l, ";"), nil
}

// qpSection encodes s as quoted-printable, as used for the n= tag.
func qpSection(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	for i, c := range []byte(s) {
		if i > 0 && (c == ' ' || c == '\t') || c > ' ' && c < 0x7f && c != '=' && c != ';' {
			b.WriteByte(c)
		} else {
			b.WriteByte('=')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		}
	}
	return b.String()
}
