package message

import (
	"fmt"
	"strings"
)

// HeaderWriter helps create headers, folding to the next line when it would
// become too large. Used for rendering DKIM-Signature and DomainKey-Signature
// headers.
type HeaderWriter struct {
	b        *strings.Builder
	lineLen  int
	nonfirst bool
}

// Addf formats the string and calls Add.
func (w *HeaderWriter) Addf(separator string, format string, args ...any) {
	w.Add(separator, fmt.Sprintf(format, args...))
}

// Add adds texts, each separated by separator. Individual elements in text are
// not wrapped. If a text would make the line longer than 78 characters, the
// separator is replaced with a fold.
func (w *HeaderWriter) Add(separator string, texts ...string) {
	if w.b == nil {
		w.b = &strings.Builder{}
	}
	for _, text := range texts {
		n := len(text)
		if w.nonfirst && w.lineLen > 1 && w.lineLen+len(separator)+n > 78 {
			w.b.WriteString("\r\n\t")
			w.lineLen = 1
		} else if w.nonfirst && separator != "" {
			w.b.WriteString(separator)
			w.lineLen += len(separator)
		}
		w.b.WriteString(text)
		w.lineLen += len(text)
		w.nonfirst = true
	}
}

// String returns the header in string form, ending with \r\n.
func (w *HeaderWriter) String() string {
	if w.b == nil {
		return "\r\n"
	}
	return w.b.String() + "\r\n"
}

// RenderHeader returns a header line for key and value, folded at spaces in
// value, ending with \r\n. Non-space characters of value are never separated
// by a fold, so a token in value always ends up on a single line.
func RenderHeader(key, value string) string {
	w := &HeaderWriter{}
	w.Addf("", "%s:", key)
	w.Add(" ", strings.Split(value, " ")...)
	return w.String()
}

// PrependHeader returns raw with the rendered header for key and value in front
// of it.
func PrependHeader(raw, key, value string) string {
	return RenderHeader(key, value) + raw
}
