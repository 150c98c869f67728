package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mjl-/mailsign/charset"
	"github.com/mjl-/mailsign/dkim"
	"github.com/mjl-/mailsign/domainkey"
	"github.com/mjl-/mailsign/message"
	"github.com/mjl-/mailsign/mlog"
)

func TestParseConfig(t *testing.T) {
	c, errs := ParseConfig("testdata/mailsign.conf")
	if len(errs) > 0 {
		t.Fatalf("parsing config: %v", errs)
	}
	if c.DKIM == nil || c.DomainKey == nil {
		t.Fatalf("missing signers")
	}
	if c.DomainParsed.ASCII != "example.com" {
		t.Fatalf("got domain %v", c.DomainParsed)
	}
	if c.Log[""] != mlog.LevelInfo || c.Log["dkim"] != mlog.LevelDebug {
		t.Fatalf("unexpected log levels %v", c.Log)
	}

	msg := "From: <mjl@example.com>\r\nTo: <other@example.net>\r\nSubject: test\r\n\r\nhi\r\n"
	signed, err := c.Signer().Sign(context.Background(), msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !strings.HasPrefix(signed, domainkey.SignatureHeader+": a=rsa-sha1; c=nofws; d=example.com; q=dns; s=test;") {
		t.Fatalf("unexpected domainkey signature in %q", signed)
	}
	if !strings.Contains(signed, "\r\nDKIM-Signature: v=1; a=rsa-sha256; c=relaxed/relaxed; d=example.com;") || !strings.HasSuffix(signed, msg) {
		t.Fatalf("unexpected dkim signature in %q", signed)
	}
}

func writeConfig(t *testing.T, conf string) string {
	t.Helper()
	dir := t.TempDir()
	key, err := os.ReadFile("testdata/signing.pem")
	if err != nil {
		t.Fatalf("reading key: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "signing.pem"), key, 0600); err != nil {
		t.Fatalf("writing key: %v", err)
	}
	p := filepath.Join(dir, "mailsign.conf")
	if err := os.WriteFile(p, []byte(conf), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return p
}

func TestParseConfigSingle(t *testing.T) {
	p := writeConfig(t, "Charset: iso-8859-1\nDomain: example.com\nDKIM:\n\tSelector: test\n\tPrivateKeyFile: signing.pem\n\tAlgorithm: rsa-sha1\n\tHeaders:\n\t\t- From\n")
	c, errs := ParseConfig(p)
	if len(errs) > 0 {
		t.Fatalf("parsing config: %v", errs)
	}
	if c.DKIM == nil || c.DomainKey != nil {
		t.Fatalf("expected only dkim signer")
	}
	if s := charset.Name(c.Charset); s != "ISO-8859-1" {
		t.Fatalf("got charset %s", s)
	}
	if c.MaxMessageSize != message.DefaultMaxSize {
		t.Fatalf("got max message size %d", c.MaxMessageSize)
	}
	if c.Log[""] != mlog.LevelError {
		t.Fatalf("got default log level %v", c.Log[""])
	}
	signed, err := c.Signer().Sign(context.Background(), "From: <mjl@example.com>\r\n\r\n")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !strings.HasPrefix(signed, "DKIM-Signature: v=1; a=rsa-sha1; c=simple/simple;") {
		t.Fatalf("unexpected signed message %q", signed)
	}

	// Absolute key path.
	key, err := filepath.Abs("testdata/signing.pem")
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	p = writeConfig(t, "Domain: example.com\nDomainKey:\n\tSelector: test\n\tPrivateKeyFile: "+key+"\n\tHeaders:\n\t\t- From\n")
	c, errs = ParseConfig(p)
	if len(errs) > 0 {
		t.Fatalf("parsing config: %v", errs)
	}
	if c.DKIM != nil || c.DomainKey == nil {
		t.Fatalf("expected only domainkey signer")
	}
}

func TestParseConfigErrors(t *testing.T) {
	test := func(conf string, expErrs ...string) {
		t.Helper()
		_, errs := ParseConfig(writeConfig(t, conf))
		if len(errs) != len(expErrs) {
			t.Fatalf("got errors %v, expected %d errors", errs, len(expErrs))
		}
		for i, err := range errs {
			if !strings.Contains(err.Error(), expErrs[i]) {
				t.Fatalf("error %d is %q, expected it to contain %q", i, err, expErrs[i])
			}
		}
	}

	// All problems are reported together.
	test("LogLevel: loud\nPackageLogLevels:\n\tdkim: verbose\nCharset: bogus\nDomain: example.com\n",
		"invalid log level",
		"invalid package log level",
		"charset",
		"at least one of DKIM and DomainKey",
	)

	test("MaxMessageSize: -1\nDomain: example.com\nDomainKey:\n\tSelector: test\n\tPrivateKeyFile: signing.pem\n",
		"max message size",
	)

	test("Domain: Example.com\nDomainKey:\n\tSelector: test\n\tPrivateKeyFile: signing.pem\n",
		"unicode form",
	)

	test("Domain: example.com\nDKIM:\n\tSelector: test\n\tPrivateKeyFile: missing.pem\n\tAlgorithm: rsa-md5\n\tHeaders:\n\t\t- From\n\tCanonicalization: relaxed/nofws\n",
		"dkim: ",
		"dkim: ",
		"dkim: reading private key",
	)

	test("Domain: example.com\nDKIM:\n\tSelector: test\n\tPrivateKeyFile: signing.pem\n\tHeaders:\n\t\t- To\n",
		"dkim: "+dkim.ErrConfig.Error(),
	)

	test("Domain: example.com\nDomainKey:\n\tSelector: test\n\tPrivateKeyFile: signing.pem\n\tCanonicalization: relaxed\n",
		"domainkey: ",
	)

	_, errs := ParseConfig(filepath.Join(t.TempDir(), "missing.conf"))
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "open config file") {
		t.Fatalf("got errors %v, expected open error", errs)
	}

	_, errs = ParseConfig(writeConfig(t, "Domain: example.com\nUnknown: x\n"))
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "parsing") {
		t.Fatalf("got errors %v, expected parse error", errs)
	}
}
