// Package dns parses internationalized domain names (IDNA) for use in the d=
// and s= tags of signature headers.
package dns

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

var (
	errTrailingDot = errors.New("dns name has trailing dot")
	errEmpty       = errors.New("empty dns name")
	errLabel       = errors.New("dns name has empty label")
)

// Domain is a domain name, with one or more labels, with at least an ASCII
// representation, and for IDNA non-ASCII domains a unicode representation.
// The ASCII string is used in signature headers.
type Domain struct {
	// A non-unicode domain, e.g. with A-labels (xn--...) or NR-LDH (non-reserved
	// letters/digits/hyphens) labels. Always in lower case.
	ASCII string

	// Name as U-labels. Empty if this is an ASCII-only domain.
	Unicode string
}

// Name returns the unicode name if set, otherwise the ASCII name.
func (d Domain) Name() string {
	if d.Unicode != "" {
		return d.Unicode
	}
	return d.ASCII
}

// String returns a human-readable string.
// For IDNA names, the string contains both the unicode and ASCII name.
func (d Domain) String() string {
	return d.LogString()
}

// LogString returns a domain for logging.
func (d Domain) LogString() string {
	if d.Unicode == "" {
		return d.ASCII
	}
	return d.Unicode + "/" + d.ASCII
}

// IsZero returns if this is an empty Domain.
func (d Domain) IsZero() bool {
	return d == Domain{}
}

// ParseDomain parses a domain name that can consist of ASCII-only labels or U
// labels (unicode).
// Names are IDN-canonicalized and lower-cased.
// Characters in unicode can be replaced by equivalents. E.g. "Ⓡ" to "r". This
// means you should only compare parsed domain names, never strings directly.
func ParseDomain(s string) (Domain, error) {
	if s == "" {
		return Domain{}, errEmpty
	}
	if strings.HasSuffix(s, ".") {
		return Domain{}, errTrailingDot
	}
	ascii, err := idna.Lookup.ToASCII(s)
	if err != nil {
		return Domain{}, fmt.Errorf("to ascii: %w", err)
	}
	unicode, err := idna.Lookup.ToUnicode(s)
	if err != nil {
		return Domain{}, fmt.Errorf("to unicode: %w", err)
	}
	if ascii == unicode {
		return Domain{ascii, ""}, nil
	}
	return Domain{ascii, unicode}, nil
}

// ParseSelector parses a DKIM or DomainKeys selector. A selector is one or more
// dot-separated labels, like a domain name, but is also allowed to be a single
// label.
func ParseSelector(s string) (Domain, error) {
	if s == "" {
		return Domain{}, errEmpty
	}
	for _, l := range strings.Split(s, ".") {
		if l == "" {
			return Domain{}, errLabel
		}
	}
	return ParseDomain(s)
}
