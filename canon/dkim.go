package canon

import (
	"strings"

	"github.com/mjl-/mailsign/message"
)

// DKIMSignatureHeader is the name of the DKIM signature header.
const DKIMSignatureHeader = "DKIM-Signature"

// DKIMAlgorithm is a DKIM canonicalization algorithm for either header or body.
// The zero value is DKIMSimple.
type DKIMAlgorithm string

const (
	DKIMSimple  DKIMAlgorithm = "simple"
	DKIMRelaxed DKIMAlgorithm = "relaxed"
)

// ParseDKIMAlgorithm parses "simple" or "relaxed", case-insensitive.
func ParseDKIMAlgorithm(s string) (DKIMAlgorithm, error) {
	a := DKIMAlgorithm(strings.ToLower(s))
	if _, err := a.rules(); err != nil {
		return "", err
	}
	return a.norm(), nil
}

// ParseDKIMCanonicalization parses a c= value like "relaxed/simple". Without
// slash, the body algorithm is simple, RFC 6376 section 3.5.
func ParseDKIMCanonicalization(s string) (header, body DKIMAlgorithm, err error) {
	hs, bs, _ := strings.Cut(s, "/")
	if header, err = ParseDKIMAlgorithm(hs); err != nil {
		return "", "", err
	}
	if body, err = ParseDKIMAlgorithm(bs); err != nil {
		return "", "", err
	}
	return header, body, nil
}

func (a DKIMAlgorithm) norm() DKIMAlgorithm {
	if a == "" {
		return DKIMSimple
	}
	return a
}

// String returns the name as used in the c= tag.
func (a DKIMAlgorithm) String() string {
	return string(a.norm())
}

var dkimRules = map[DKIMAlgorithm]rules{
	// RFC 6376 section 3.4.1 and 3.4.3.
	DKIMSimple: {
		header:    rawHeader,
		line:      identity,
		emptyBody: crlf,
	},
	// RFC 6376 section 3.4.2 and 3.4.4.
	DKIMRelaxed: {
		header: func(h message.Header) string {
			v := strings.Trim(h.Value, " \t\r\n")
			if h.Folded {
				v = strings.ReplaceAll(v, crlf, "")
			}
			return strings.ToLower(strings.Trim(h.Key, " \t")) + ":" + reduceWhitespace(v)
		},
		// Also removes whitespace at the end.
		line:      reduceWhitespace,
		emptyBody: "",
	},
}

func (a DKIMAlgorithm) rules() (rules, error) {
	r, ok := dkimRules[a.norm()]
	if !ok {
		return rules{}, unknownf("dkim", string(a))
	}
	return r, nil
}

// DKIMHeaders canonicalizes the headers named in names, in that order.
//
// If includeSignatureHeader is set, the DKIM-Signature header is canonicalized
// after the named headers (just From if names is empty), and the line ending
// after it is left out: this is the data that is signed, with the b= tag
// of the signature header still empty.
//
// If any of the names is not present in h, a *MissingHeadersError is returned
// with all missing names.
func DKIMHeaders(h *message.Headers, alg DKIMAlgorithm, includeSignatureHeader bool, names []string) (string, error) {
	r, err := alg.rules()
	if err != nil {
		return "", err
	}

	if includeSignatureHeader {
		if len(names) == 0 {
			names = []string{"From", DKIMSignatureHeader}
		} else {
			names = append(names[:len(names):len(names)], DKIMSignatureHeader)
		}
	}

	var missing []string
	hdrs := make([]message.Header, 0, len(names))
	for _, name := range names {
		hdr, ok := h.Get(name)
		if !ok {
			missing = append(missing, strings.TrimSpace(name))
			continue
		}
		hdrs = append(hdrs, hdr)
	}
	if len(missing) > 0 {
		return "", &MissingHeadersError{missing}
	}

	s := r.headers(hdrs)
	if includeSignatureHeader {
		s = strings.TrimSuffix(s, crlf)
	}
	return s, nil
}

// DKIMBody canonicalizes a message body.
//
// With simple, lines are kept as is. With relaxed, whitespace at the end of
// lines is removed and other whitespace reduced to a single space. Empty lines
// at the end of the body are removed. An empty simple body canonicalizes to a
// single line ending, an empty relaxed body to the empty string.
func DKIMBody(body string, alg DKIMAlgorithm) (string, error) {
	r, err := alg.rules()
	if err != nil {
		return "", err
	}
	return r.body(body), nil
}
