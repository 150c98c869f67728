package mlog

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLog(t *testing.T) {
	var b strings.Builder
	prev := SetOutput(&b)
	defer SetOutput(prev)
	prevConfig := Config()
	defer SetConfig(prevConfig)

	SetConfig(map[string]Level{"": LevelError, "dkim": LevelDebug})

	log := New("dkim")
	if !log.Debug("signing", Field("domain", "example.com")) {
		t.Fatalf("debug not logged for package with debug level")
	}
	if log.Trace("canonical") {
		t.Fatalf("trace logged for package with debug level")
	}
	if New("domainkey").Info("signing") {
		t.Fatalf("info logged for package falling back to error level")
	}
	if !New("domainkey").Print("always") {
		t.Fatalf("print not logged")
	}

	exp := "debug: signing (pkg: dkim; domain: example.com)\nprint: always (pkg: domainkey)\n"
	if s := b.String(); s != exp {
		t.Fatalf("got %q, expected %q", s, exp)
	}

	b.Reset()
	ctx := context.WithValue(context.Background(), CidKey, int64(0x1f))
	log.WithContext(ctx).Errorx("sign failed", errors.New("bad key"), Field("headers", []string{"From", "To"}))
	exp = "error: \"sign failed\": \"bad key\" (cid: 1f; pkg: dkim; headers: [From,To])\n"
	if s := b.String(); s != exp {
		t.Fatalf("got %q, expected %q", s, exp)
	}

	b.Reset()
	Logfmt = true
	defer func() { Logfmt = false }()
	log.Print("canonical data", Field("data", "a:b\r\n"))
	exp = "l=print m=\"canonical data\" pkg=dkim data=\"a:b\\r\\n\"\n"
	if s := b.String(); s != exp {
		t.Fatalf("got %q, expected %q", s, exp)
	}
}

func TestParseLevels(t *testing.T) {
	l, err := ParseLevels("info, dkim:trace,domainkey:debug")
	if err != nil {
		t.Fatalf("parse levels: %v", err)
	}
	if len(l) != 3 || l[""] != LevelInfo || l["dkim"] != LevelTrace || l["domainkey"] != LevelDebug {
		t.Fatalf("unexpected levels %v", l)
	}

	if _, err := ParseLevels("dkim:verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
