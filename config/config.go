package config

import (
	"golang.org/x/text/encoding"

	"github.com/mjl-/mailsign/dkim"
	"github.com/mjl-/mailsign/dns"
	"github.com/mjl-/mailsign/domainkey"
	"github.com/mjl-/mailsign/mlog"
)

// Static is the parsed form of the mailsign.conf configuration file.
type Static struct {
	LogLevel         string            `sconf:"optional" sconf-doc:"NOTE: This config file is in 'sconf' format. Indent with tabs. Comments must be on their own line, they don't end a line. Do not escape or quote strings. Details: https://pkg.go.dev/github.com/mjl-/sconf.\n\n\nDefault log level, one of: error, info, debug, trace. Trace logs the canonicalized message data that is signed. Default: error."`
	PackageLogLevels map[string]string `sconf:"optional" sconf-doc:"Overrides of log level per package (e.g. dkim, domainkey, sign)."`
	Charset          string            `sconf:"optional" sconf-doc:"Character set for turning canonicalized message text into bytes before hashing and signing, e.g. utf-8 or iso-8859-1. Default: utf-8."`
	MaxMessageSize   int64             `sconf:"optional" sconf-doc:"Maximum size in bytes of messages to sign. Messages are read into memory completely before signing. Default: 104857600 (100MB)."`
	Domain           string            `sconf-doc:"Domain to sign for, the d= tag. Can be an internationalized domain name."`
	DKIM             *DKIM             `sconf:"optional" sconf-doc:"DKIM signing, RFC 6376. At least one of DKIM and DomainKey must be configured."`
	DomainKey        *DomainKey        `sconf:"optional" sconf-doc:"DomainKeys signing, RFC 4870. Only needed for receivers that still verify DomainKeys signatures. The DomainKey-Signature header is added after the DKIM-Signature header, and covers it when Headers is empty."`

	DomainParsed dns.Domain `sconf:"-" json:"-"`
}

// DKIM is the configuration for the DKIM signer.
type DKIM struct {
	Selector         string   `sconf-doc:"Selector the public key is published under, at <selector>._domainkey.<domain>."`
	PrivateKeyFile   string   `sconf-doc:"File with PEM-encoded RSA private key, in PKCS#1, PKCS#8 or OpenSSH format. If this is a relative path, it is relative to the directory of mailsign.conf."`
	Algorithm        string   `sconf:"optional" sconf-doc:"Signing algorithm, rsa-sha256 or rsa-sha1. Default: rsa-sha256."`
	Headers          []string `sconf-doc:"Headers to sign, in order. Must include From. All headers must be present in messages that are signed."`
	Canonicalization string   `sconf:"optional" sconf-doc:"Canonicalization for header and body, as in the c= tag, e.g. relaxed/relaxed. Default: simple/simple."`
}

// DomainKey is the configuration for the DomainKeys signer.
type DomainKey struct {
	Selector         string   `sconf-doc:"Selector the public key is published under, at <selector>._domainkey.<domain>. Can be the same as for DKIM."`
	PrivateKeyFile   string   `sconf-doc:"File with PEM-encoded RSA private key. If the same file is used for DKIM, the key is loaded once. If this is a relative path, it is relative to the directory of mailsign.conf."`
	Headers          []string `sconf:"optional" sconf-doc:"Headers to sign, in order. Headers not present in a message are skipped. If empty, all headers are signed, and the h= tag is left out."`
	Canonicalization string   `sconf:"optional" sconf-doc:"Canonicalization, simple or nofws. Default: simple."`
}

// Config is a parsed and checked configuration, with signers ready for use.
type Config struct {
	Static

	Log       map[string]mlog.Level
	Charset   encoding.Encoding
	DKIM      *dkim.Signer      // Nil if not configured.
	DomainKey *domainkey.Signer // Nil if not configured.
}
