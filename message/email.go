// Package message parses raw email message text into headers and body, and
// renders headers to prepend to a message.
//
// Parsing is purely textual: no MIME structure is interpreted and the body is
// kept verbatim, so canonicalization for signing sees exactly the original
// text.
package message

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHeaderMalformed is returned for a header line without colon.
var ErrHeaderMalformed = errors.New("message: header is malformed")

// Header is a single header field.
type Header struct {
	Key    string // As in the message, not trimmed or case-folded.
	Value  string // Everything after the first colon, including leading whitespace. Continuation lines are joined with "\r\n".
	Folded bool   // Whether Value spans continuation lines.
}

// Headers is an ordered map of header fields, indexed by the lower-cased
// trimmed name. Setting a name that is already present replaces the field but
// keeps its position.
type Headers struct {
	names []string
	m     map[string]Header
}

func headerName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the header for name, case-insensitive.
func (h *Headers) Get(name string) (Header, bool) {
	if h == nil || h.m == nil {
		return Header{}, false
	}
	hdr, ok := h.m[headerName(name)]
	return hdr, ok
}

// Set adds or replaces the header with the same name as hdr.Key.
func (h *Headers) Set(hdr Header) {
	k := headerName(hdr.Key)
	if h.m == nil {
		h.m = map[string]Header{}
	}
	if _, ok := h.m[k]; !ok {
		h.names = append(h.names, k)
	}
	h.m[k] = hdr
}

// Names returns the lower-cased header names in order of first occurrence.
func (h *Headers) Names() []string {
	if h == nil {
		return nil
	}
	return append([]string{}, h.names...)
}

// Len returns the number of distinct header names.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

// Clone returns a copy of h that can be modified without affecting h.
func (h *Headers) Clone() *Headers {
	nh := &Headers{names: append([]string{}, h.names...), m: make(map[string]Header, len(h.m))}
	for k, v := range h.m {
		nh.m[k] = v
	}
	return nh
}

// Email is a parsed message. An Email is not modified after parsing, changes
// are made on a Clone.
type Email struct {
	// Headers by name. For repeated header names, the last value is
	// present, at the position of the first.
	Headers *Headers

	// All header fields, in message order.
	Fields []Header

	// Text after the empty line separating header and body. Empty if
	// there was no separator.
	Body string

	// Original message text.
	Raw string

	separator bool
}

// Parse parses raw message text.
//
// Lines can end in "\r\n", "\r" or "\n". The header section ends at the first
// empty line, the remaining text is the body. A line starting with space or
// tab continues the previous header. A header line without colon results in
// an error wrapping ErrHeaderMalformed.
func Parse(raw string) (*Email, error) {
	e := &Email{Headers: &Headers{}, Raw: raw}
	r := &lineReader{s: raw}
	for {
		line, ok := r.line()
		if !ok {
			break
		}
		if line == "" {
			e.separator = true
			e.Body = r.rest()
			break
		}
		if (line[0] == ' ' || line[0] == '\t') && len(e.Fields) > 0 {
			h := &e.Fields[len(e.Fields)-1]
			h.Value += "\r\n" + line
			h.Folded = true
			e.Headers.Set(*h)
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: missing colon in line %q", ErrHeaderMalformed, line)
		}
		h := Header{Key: k, Value: v}
		e.Fields = append(e.Fields, h)
		e.Headers.Set(h)
	}
	return e, nil
}

// Clone returns a copy of e whose Headers and Fields can be modified without
// affecting e.
func (e *Email) Clone() *Email {
	ne := *e
	ne.Headers = e.Headers.Clone()
	ne.Fields = append([]Header{}, e.Fields...)
	return &ne
}

// String returns the message text, with headers from Fields, each ending in
// "\r\n", followed by the separator line and the body. For a message with
// "\r\n" line endings, this is the original text.
func (e *Email) String() string {
	var b strings.Builder
	for _, h := range e.Fields {
		b.WriteString(h.Key + ":" + h.Value + "\r\n")
	}
	if e.separator {
		b.WriteString("\r\n")
		b.WriteString(e.Body)
	}
	return b.String()
}

// IsMultipart returns whether the Content-Type header indicates a multipart
// message. Software that regenerates MIME boundaries while transmitting
// invalidates signatures of such messages.
func (e *Email) IsMultipart() bool {
	h, ok := e.Headers.Get("Content-Type")
	if !ok {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(h.Value)), "multipart/")
}
