package message

import (
	"strings"
	"testing"
)

func TestWriter(t *testing.T) {
	check := func(data, exp string, exp8bit bool) {
		t.Helper()

		var b strings.Builder
		mw := NewWriter(&b)
		n, err := mw.Write([]byte(data))
		tcheck(t, err, "write")
		if n != len(data) {
			t.Fatalf("wrote %d, expected %d", n, len(data))
		}
		if got := b.String(); got != exp {
			t.Fatalf("got %q, expected %q", got, exp)
		}
		if mw.Has8bit != exp8bit || mw.Size != int64(len(exp)) {
			t.Fatalf("got has8bit %v size %d, expected %v %d", mw.Has8bit, mw.Size, exp8bit, len(exp))
		}

		// Byte at a time, for \r\n split over writes.
		b.Reset()
		mw = NewWriter(&b)
		for i := 0; i < len(data); i++ {
			_, err := mw.Write([]byte(data[i : i+1]))
			tcheck(t, err, "write")
		}
		if got := b.String(); got != exp {
			t.Fatalf("bytewise: got %q, expected %q", got, exp)
		}
	}

	check("", "", false)
	check("key: value\r\n\r\nbody", "key: value\r\n\r\nbody", false)
	check("key: value\n\nline1\r\nline2\nx\n.\n", "key: value\r\n\r\nline1\r\nline2\r\nx\r\n.\r\n", false)
	check("\n", "\r\n", false)
	check("subject: ☺\n", "subject: ☺\r\n", true)
	check("a\r\rb", "a\r\rb", false)
}
