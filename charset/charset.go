// Package charset turns canonicalized text into the bytes that are hashed and
// signed, in a configured character set.
package charset

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrUnknown = errors.New("charset: unknown character set")
	ErrEncode  = errors.New("charset: text not representable in character set")
)

// ASCII is 7-bit US-ASCII. Encoding and decoding fail on bytes >= 0x80.
var ASCII encoding.Encoding = asciiEncoding{}

type asciiEncoding struct{}

func (asciiEncoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: asciiTransformer{}}
}

func (asciiEncoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: asciiTransformer{}}
}

func (asciiEncoding) String() string {
	return "US-ASCII"
}

var errNotASCII = errors.New("byte outside us-ascii")

// asciiTransformer copies 7-bit bytes.
type asciiTransformer struct{ transform.NopResetter }

func (asciiTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if src[nSrc] >= 0x80 {
			return nDst, nSrc, errNotASCII
		}
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = src[nSrc]
		nDst++
		nSrc++
	}
	return nDst, nSrc, nil
}

// Lookup returns the encoding for a MIME or IANA character set name. The empty
// name and utf-8 return unicode.UTF8, for which text is used as is. US-ASCII
// and its aliases return ASCII.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "us-ascii", "ascii", "ansi_x3.4-1968", "us":
		return ASCII, nil
	}
	enc, _ := ianaindex.MIME.Encoding(name)
	if enc == nil {
		enc, _ = ianaindex.IANA.Encoding(name)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return enc, nil
}

// Name returns the MIME name of an encoding, for logging.
func Name(enc encoding.Encoding) string {
	if enc == nil || enc == unicode.UTF8 {
		return "utf-8"
	}
	if enc == ASCII {
		return "US-ASCII"
	}
	if s, err := ianaindex.MIME.Name(enc); err == nil {
		return s
	}
	return fmt.Sprintf("%v", enc)
}

// Encode returns s encoded with enc. A nil enc is UTF-8.
func Encode(enc encoding.Encoding, s string) ([]byte, error) {
	if enc == nil || enc == unicode.UTF8 {
		return []byte(s), nil
	}
	buf, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, Name(enc), err)
	}
	return buf, nil
}
