package message

import (
	"errors"
	"io"
)

// DefaultMaxSize is the maximum size of a message read for signing, in bytes.
const DefaultMaxSize = 100 * 1024 * 1024

var ErrLimit = errors.New("message: exceeds maximum size") // Returned by LimitReader.

// LimitReader reads up to Limit bytes, returning ErrLimit if more bytes are
// read. Signing needs the whole message in memory, LimitReader bounds it.
type LimitReader struct {
	R     io.Reader
	Limit int64
}

// Read reads bytes from the underlying reader.
func (r *LimitReader) Read(buf []byte) (int, error) {
	n, err := r.R.Read(buf)
	if n > 0 {
		r.Limit -= int64(n)
		if r.Limit < 0 {
			return 0, ErrLimit
		}
	}
	return n, err
}
