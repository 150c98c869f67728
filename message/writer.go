package message

import (
	"io"
)

// Writer is a write-through helper that replaces bare \n line endings with
// \r\n, so messages read from files with unix line endings are signed in the
// form they are transmitted in.
type Writer struct {
	writer io.Writer

	Has8bit bool  // Whether a byte with the high/8bit has been written.
	Size    int64 // Number of bytes written to the underlying writer.

	lastCR bool // Whether the last byte written was \r, for a \n in the next write.
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{writer: w}
}

// Write implements io.Writer. The returned count is the number of bytes from
// buf that were written, not including added \r's.
func (w *Writer) Write(buf []byte) (int, error) {
	if !w.Has8bit {
		for _, b := range buf {
			if b&0x80 != 0 {
				w.Has8bit = true
				break
			}
		}
	}

	wrote := 0
	o := 0
	for i, b := range buf {
		if b != '\n' || i > 0 && buf[i-1] == '\r' || i == 0 && w.lastCR {
			continue
		}
		// Write buffer leading up to missing \r, and the \r.
		n, err := w.writer.Write(append(buf[o:i:i], '\r'))
		w.Size += int64(n)
		if n > i-o {
			n = i - o
		}
		wrote += n
		if err != nil {
			return wrote, err
		}
		o = i
	}
	n, err := w.writer.Write(buf[o:])
	w.Size += int64(n)
	wrote += n
	if len(buf) > 0 {
		w.lastCR = buf[len(buf)-1] == '\r'
	}
	return wrote, err
}
