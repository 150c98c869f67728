// Package canon canonicalizes message headers and bodies for DKIM (RFC 6376) and
// DomainKeys (RFC 4870) signatures.
//
// Both signature schemes have two algorithms that differ only in how a single
// header or body line is transformed. Each algorithm is a rule table, applied
// by the same code for selecting headers and for handling empty lines.
package canon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mjl-/mailsign/message"
)

var (
	ErrHeaderMissing    = errors.New("canon: header to sign not present in message")
	ErrCanonicalization = errors.New("canon: unknown canonicalization algorithm")
)

// MissingHeadersError is returned when headers requested for signing are not
// present in the message. It matches ErrHeaderMissing with errors.Is.
type MissingHeadersError struct {
	Names []string // Trimmed, as requested, in order.
}

func (e *MissingHeadersError) Error() string {
	return "canon: headers to sign not present in message: " + strings.Join(e.Names, ", ")
}

func (e *MissingHeadersError) Is(target error) bool {
	return target == ErrHeaderMissing
}

const crlf = "\r\n"

// Whitespace characters for reducing and removing, including line endings of
// folded header values.
func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// reduceWhitespace replaces each run of whitespace followed by other text with
// a single space. Whitespace at the end is removed.
func reduceWhitespace(s string) string {
	if strings.IndexFunc(s, isWhitespace) < 0 {
		return s
	}
	var b strings.Builder
	ws := false
	for _, c := range s {
		if isWhitespace(c) {
			ws = true
			continue
		}
		if ws {
			b.WriteByte(' ')
			ws = false
		}
		b.WriteRune(c)
	}
	return b.String()
}

// removeWhitespace removes all whitespace.
func removeWhitespace(s string) string {
	if strings.IndexFunc(s, isWhitespace) < 0 {
		return s
	}
	return strings.Map(func(c rune) rune {
		if isWhitespace(c) {
			return -1
		}
		return c
	}, s)
}

// rules is the strategy for one canonicalization algorithm.
type rules struct {
	// Canonical form of a header, without line ending.
	header func(h message.Header) string

	// Canonical form of a body line, without line ending.
	line func(s string) string

	// Canonical body when no non-empty lines remain.
	emptyBody string
}

// headers canonicalizes each header, each followed by a line ending.
func (r rules) headers(l []message.Header) string {
	var b strings.Builder
	for _, h := range l {
		b.WriteString(r.header(h))
		b.WriteString(crlf)
	}
	return b.String()
}

// body canonicalizes each line of body. A line that is empty after
// canonicalization is only written when a non-empty line follows, so empty
// lines at the end are removed.
func (r rules) body(body string) string {
	var b strings.Builder
	empty := 0
	for _, line := range message.Lines(body) {
		line = r.line(line)
		// Checked after the line transform: whitespace-only lines are empty lines.
		if line == "" {
			empty++
			continue
		}
		for ; empty > 0; empty-- {
			b.WriteString(crlf)
		}
		b.WriteString(line)
		b.WriteString(crlf)
	}
	if b.Len() == 0 {
		return r.emptyBody
	}
	return b.String()
}

// rawHeader is the header as it occurs in the message.
func rawHeader(h message.Header) string {
	return h.Key + ":" + h.Value
}

func identity(s string) string {
	return s
}

func unknownf(kind string, v any) error {
	return fmt.Errorf("%w: %s %q", ErrCanonicalization, kind, v)
}
