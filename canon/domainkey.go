package canon

import (
	"strings"

	"github.com/mjl-/mailsign/message"
)

// DomainKeyAlgorithm is a DomainKeys canonicalization algorithm, applied to the
// headers and body. The zero value is DomainKeySimple.
type DomainKeyAlgorithm string

const (
	DomainKeySimple DomainKeyAlgorithm = "simple"
	DomainKeyNofws  DomainKeyAlgorithm = "nofws" // No folding whitespace.
)

// ParseDomainKeyAlgorithm parses "simple" or "nofws", case-insensitive.
func ParseDomainKeyAlgorithm(s string) (DomainKeyAlgorithm, error) {
	a := DomainKeyAlgorithm(strings.ToLower(s))
	if _, err := a.rules(); err != nil {
		return "", err
	}
	return a.norm(), nil
}

func (a DomainKeyAlgorithm) norm() DomainKeyAlgorithm {
	if a == "" {
		return DomainKeySimple
	}
	return a
}

// String returns the name as used in the c= tag.
func (a DomainKeyAlgorithm) String() string {
	return string(a.norm())
}

var domainKeyRules = map[DomainKeyAlgorithm]rules{
	// RFC 4870 section 3.4.2.1.
	DomainKeySimple: {
		header: rawHeader,
		line:   identity,
	},
	// RFC 4870 section 3.4.2.2.
	DomainKeyNofws: {
		header: func(h message.Header) string {
			return removeWhitespace(h.Key) + ":" + removeWhitespace(h.Value)
		},
		line: removeWhitespace,
	},
}

func (a DomainKeyAlgorithm) rules() (rules, error) {
	r, ok := domainKeyRules[a.norm()]
	if !ok {
		return rules{}, unknownf("domainkey", string(a))
	}
	return r, nil
}

// DomainKey returns the canonical text of e to sign for a DomainKeys signature.
//
// The headers named in names are included in that order, names not present in
// the message are skipped. Without names, all header fields of the message are
// included in message order. If the canonical body is not empty, it follows
// after an empty line. Empty lines at the end of the body are removed.
func DomainKey(e *message.Email, alg DomainKeyAlgorithm, names []string) (string, error) {
	r, err := alg.rules()
	if err != nil {
		return "", err
	}

	hdrs := e.Fields
	if len(names) > 0 {
		hdrs = make([]message.Header, 0, len(names))
		for _, name := range names {
			if h, ok := e.Headers.Get(name); ok {
				hdrs = append(hdrs, h)
			}
		}
	}

	s := r.headers(hdrs)
	if body := r.body(e.Body); body != "" {
		s += crlf + body
	}
	return s, nil
}
