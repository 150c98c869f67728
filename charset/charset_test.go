package charset

import (
	"bytes"
	"errors"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "utf8"} {
		enc, err := Lookup(name)
		if err != nil || enc != unicode.UTF8 {
			t.Fatalf("lookup %q: got %v, %v", name, enc, err)
		}
	}
	for _, name := range []string{"US-ASCII", "ascii"} {
		enc, err := Lookup(name)
		if err != nil || enc != ASCII || Name(enc) != "US-ASCII" {
			t.Fatalf("lookup %q: got %v, %v", name, enc, err)
		}
	}

	enc, err := Lookup("ISO-8859-1")
	if err != nil {
		t.Fatalf("lookup iso-8859-1: %v", err)
	}
	if s := Name(enc); s != "ISO-8859-1" {
		t.Fatalf("got name %q", s)
	}

	if _, err := Lookup("no-such-charset"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("got err %v, expected ErrUnknown", err)
	}
}

func TestEncode(t *testing.T) {
	buf, err := Encode(nil, "café")
	if err != nil || string(buf) != "café" {
		t.Fatalf("utf-8: got %q, %v", buf, err)
	}

	latin1, err := Lookup("iso-8859-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	buf, err = Encode(latin1, "café")
	if err != nil || !bytes.Equal(buf, []byte{'c', 'a', 'f', 0xe9}) {
		t.Fatalf("latin1: got %q, %v", buf, err)
	}

	if _, err := Encode(latin1, "☺"); !errors.Is(err, ErrEncode) {
		t.Fatalf("got err %v, expected ErrEncode", err)
	}

	ascii, err := Lookup("us-ascii")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	buf, err = Encode(ascii, "From: a\r\n")
	if err != nil || string(buf) != "From: a\r\n" {
		t.Fatalf("ascii: got %q, %v", buf, err)
	}
	if _, err := Encode(ascii, "café"); !errors.Is(err, ErrEncode) {
		t.Fatalf("ascii: got err %v, expected ErrEncode", err)
	}
}
