package message

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tcheck(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %s", msg, err)
	}
}

func tcompare(t *testing.T, got, exp any) {
	t.Helper()
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("mismatch (-exp +got):\n%s", diff)
	}
}

func tfail(t *testing.T, err, expErr error) {
	t.Helper()
	if (err == nil) != (expErr == nil) || expErr != nil && !errors.Is(err, expErr) {
		t.Fatalf("got err %v, expected %v", err, expErr)
	}
}

func TestParse(t *testing.T) {
	raw := "A: X\r\nB:Y\t\r\n\tZ  \r\n\r\n C \r\nD \t E\r\n\r\n\r\n"
	e, err := Parse(raw)
	tcheck(t, err, "parse")
	tcompare(t, e.Fields, []Header{
		{Key: "A", Value: " X"},
		{Key: "B", Value: "Y\t\r\n\tZ  ", Folded: true},
	})
	tcompare(t, e.Body, " C \r\nD \t E\r\n\r\n\r\n")
	tcompare(t, e.Raw, raw)
	tcompare(t, e.String(), raw)

	h, ok := e.Headers.Get("b")
	if !ok || !h.Folded || h.Value != "Y\t\r\n\tZ  " {
		t.Fatalf("header b: got %#v, %v", h, ok)
	}
	tcompare(t, e.Headers.Names(), []string{"a", "b"})

	// Bare \n and \r line endings.
	e, err = Parse("From: a\nTo: b\r\n x\rSubject: c\n\nbody\n")
	tcheck(t, err, "parse")
	tcompare(t, e.Fields, []Header{
		{Key: "From", Value: " a"},
		{Key: "To", Value: " b\r\n x", Folded: true},
		{Key: "Subject", Value: " c"},
	})
	tcompare(t, e.Body, "body\n")

	// No separator, everything is header.
	e, err = Parse("From: a\r\nTo: b\r\n")
	tcheck(t, err, "parse")
	tcompare(t, len(e.Fields), 2)
	tcompare(t, e.Body, "")
	tcompare(t, e.String(), "From: a\r\nTo: b\r\n")

	// Empty header section.
	e, err = Parse("\r\nbody")
	tcheck(t, err, "parse")
	tcompare(t, e.Headers.Len(), 0)
	tcompare(t, e.Body, "body")

	e, err = Parse("")
	tcheck(t, err, "parse")
	tcompare(t, e.Headers.Len(), 0)
	tcompare(t, e.Body, "")

	// Leading whitespace without previous header is not a continuation.
	e, err = Parse(" X-Key : v\r\n\r\n")
	tcheck(t, err, "parse")
	h, ok = e.Headers.Get("x-key")
	if !ok || h.Key != " X-Key " || h.Value != " v" {
		t.Fatalf("got %#v, %v", h, ok)
	}

	// Only the first colon separates.
	e, err = Parse("Date: Mon, 1 Jan 2024 10:00:00 +0000\r\n\r\n")
	tcheck(t, err, "parse")
	h, _ = e.Headers.Get("DATE")
	tcompare(t, h.Value, " Mon, 1 Jan 2024 10:00:00 +0000")

	_, err = Parse("From: a\r\nno colon here\r\n\r\nbody")
	tfail(t, err, ErrHeaderMalformed)
}

func TestParseDuplicate(t *testing.T) {
	e, err := Parse("Subject: a\r\nFrom: f\r\nsubject: b\r\n\r\n")
	tcheck(t, err, "parse")
	tcompare(t, len(e.Fields), 3)
	tcompare(t, e.Headers.Names(), []string{"subject", "from"})
	h, _ := e.Headers.Get("SUBJECT")
	tcompare(t, h, Header{Key: "subject", Value: " b"})
}

func TestClone(t *testing.T) {
	e, err := Parse("From: a\r\n\r\nbody")
	tcheck(t, err, "parse")

	ne := e.Clone()
	ne.Headers.Set(Header{Key: "From", Value: " b"})
	ne.Headers.Set(Header{Key: "To", Value: " c"})
	ne.Fields[0].Value = " b"

	h, _ := e.Headers.Get("from")
	tcompare(t, h.Value, " a")
	tcompare(t, e.Fields[0].Value, " a")
	tcompare(t, e.Headers.Len(), 1)
	tcompare(t, ne.Headers.Names(), []string{"from", "to"})
	tcompare(t, ne.String(), "From: b\r\n\r\nbody")
}

func TestIsMultipart(t *testing.T) {
	check := func(raw string, exp bool) {
		t.Helper()
		e, err := Parse(raw)
		tcheck(t, err, "parse")
		if e.IsMultipart() != exp {
			t.Fatalf("multipart for %q: got %v, expected %v", raw, !exp, exp)
		}
	}
	check("From: a\r\n\r\n", false)
	check("Content-Type: text/plain\r\n\r\n", false)
	check("Content-Type: multipart/mixed; boundary=x\r\n\r\n", true)
	check("content-type:\r\n  Multipart/Alternative;\r\n boundary=x\r\n\r\n", true)
}

func TestLines(t *testing.T) {
	tcompare(t, Lines("a\r\nb\rc\nd"), []string{"a", "b", "c", "d"})
	tcompare(t, Lines("a\r\n"), []string{"a"})
	tcompare(t, Lines("\r\n"), []string{""})
	tcompare(t, Lines("a\r\n\r\n"), []string{"a", ""})
	tcompare(t, len(Lines("")), 0)
}

func TestRenderHeader(t *testing.T) {
	tcompare(t, RenderHeader("X-Test", "a b"), "X-Test: a b\r\n")

	v := "v=1; a=rsa-sha256; c=relaxed/relaxed; d=example.com; h=From:To:Subject; q=dns/txt; s=test; t=1300000000; bh=3CwSgMt17ucl0PaM0Z475+EJcOLi4vhl/0snBZ8zrNI=; b="
	zeros := strings.Repeat("0", 70)
	exp := "DKIM-Signature: v=1; a=rsa-sha256; c=relaxed/relaxed; d=example.com;\r\n" +
		"\th=From:To:Subject; q=dns/txt; s=test; t=1300000000;\r\n" +
		"\tbh=3CwSgMt17ucl0PaM0Z475+EJcOLi4vhl/0snBZ8zrNI=;\r\n" +
		"\tb=" + zeros + "\r\n"
	tcompare(t, RenderHeader("DKIM-Signature", v+zeros), exp)

	// A short trailing token stays on the line.
	exp = "DKIM-Signature: v=1; a=rsa-sha256; c=relaxed/relaxed; d=example.com;\r\n" +
		"\th=From:To:Subject; q=dns/txt; s=test; t=1300000000;\r\n" +
		"\tbh=3CwSgMt17ucl0PaM0Z475+EJcOLi4vhl/0snBZ8zrNI=; b=\r\n"
	tcompare(t, RenderHeader("DKIM-Signature", v), exp)

	msg := "From: a\r\n\r\nbody"
	tcompare(t, PrependHeader(msg, "X-Test", "a"), "X-Test: a\r\n"+msg)

	// Rendered header parses back to the value, with folds.
	e, err := Parse(PrependHeader(msg, "DKIM-Signature", v+zeros))
	tcheck(t, err, "parse")
	h := e.Fields[0]
	if !h.Folded || strings.ReplaceAll(strings.ReplaceAll(h.Value, "\r\n\t", " "), "  ", " ") != " "+v+zeros {
		t.Fatalf("unexpected parsed header %#v", h)
	}
}
