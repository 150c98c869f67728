package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mjl-/sconf"
	"golang.org/x/exp/maps"

	"github.com/mjl-/mailsign/canon"
	"github.com/mjl-/mailsign/charset"
	"github.com/mjl-/mailsign/dkim"
	"github.com/mjl-/mailsign/dns"
	"github.com/mjl-/mailsign/domainkey"
	"github.com/mjl-/mailsign/keys"
	"github.com/mjl-/mailsign/message"
	"github.com/mjl-/mailsign/mlog"
	"github.com/mjl-/mailsign/sign"
)

var xlog = mlog.New("config")

// configDirPath returns the path of a file referenced from the config file: if
// relative, it is relative to the directory of the config file.
func configDirPath(configFile, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configFile), p)
}

// ParseConfig parses the config file at p and prepares the signers. All
// problems found are returned, not just the first.
func ParseConfig(p string) (c *Config, errs []error) {
	c = &Config{}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv("MAILSIGNCONF") == "" {
			return nil, []error{fmt.Errorf("open config file: %v (hint: use mailsign -config ... or set MAILSIGNCONF=...)", err)}
		}
		return nil, []error{fmt.Errorf("open config file: %v", err)}
	}
	defer f.Close()
	if err := sconf.Parse(f, &c.Static); err != nil {
		return nil, []error{fmt.Errorf("parsing %s%v", p, err)}
	}

	if errs := PrepareConfig(p, c); len(errs) > 0 {
		return nil, errs
	}
	return c, nil
}

// PrepareConfig checks the static config and loads keys and signers.
// configFile is used to resolve relative key file paths.
func PrepareConfig(configFile string, conf *Config) (errs []error) {
	addErrorf := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	c := &conf.Static

	// Post-process logging config.
	if c.LogLevel == "" {
		c.LogLevel = "error"
	}
	if logLevel, ok := mlog.Levels[c.LogLevel]; ok {
		conf.Log = map[string]mlog.Level{"": logLevel}
	} else {
		addErrorf("invalid log level %q", c.LogLevel)
		conf.Log = map[string]mlog.Level{}
	}
	pkgs := maps.Keys(c.PackageLogLevels)
	sort.Strings(pkgs)
	for _, pkg := range pkgs {
		s := c.PackageLogLevels[pkg]
		if logLevel, ok := mlog.Levels[s]; ok {
			conf.Log[pkg] = logLevel
		} else {
			addErrorf("invalid package log level %q for package %s", s, pkg)
		}
	}

	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = message.DefaultMaxSize
	} else if c.MaxMessageSize < 0 {
		addErrorf("max message size cannot be negative")
	}

	var err error
	conf.Charset, err = charset.Lookup(c.Charset)
	if err != nil {
		addErrorf("charset: %v", err)
	}

	c.DomainParsed, err = dns.ParseDomain(c.Domain)
	domainOK := err == nil
	if err != nil {
		addErrorf("parsing domain %q: %v", c.Domain, err)
	} else if c.DomainParsed.Name() != c.Domain {
		addErrorf("domain must be in unicode form %q instead of %q", c.DomainParsed.Name(), c.Domain)
	}

	if c.DKIM == nil && c.DomainKey == nil {
		addErrorf("at least one of DKIM and DomainKey must be configured")
	}

	// Keys by absolute path, for sharing a key between the signers.
	loaded := map[string]*keys.PrivateKeySigner{}
	loadKey := func(file string, alg keys.Algorithm) (*keys.PrivateKeySigner, error) {
		p := configDirPath(configFile, file)
		if k, ok := loaded[p]; ok {
			return k.WithAlgorithm(alg)
		}
		k, err := keys.Load(p, alg)
		if err != nil {
			return nil, err
		}
		loaded[p] = k
		return k, nil
	}

	if c.DKIM != nil {
		n := len(errs)
		addDKIMErrorf := func(format string, args ...any) {
			addErrorf("dkim: %s", fmt.Sprintf(format, args...))
		}

		alg := keys.RSASHA256
		if c.DKIM.Algorithm != "" {
			alg, err = keys.ParseAlgorithm(c.DKIM.Algorithm)
			if err != nil {
				addDKIMErrorf("%v", err)
			} else if alg == keys.RSASHA1 {
				xlog.Error("using sha1 with DKIM is deprecated as not secure enough, switch to sha256")
			}
		}
		hc, bc, err := canon.ParseDKIMCanonicalization(c.DKIM.Canonicalization)
		if err != nil {
			addDKIMErrorf("%v", err)
		}
		for _, h := range c.DKIM.Headers {
			if strings.EqualFold(h, canon.DKIMSignatureHeader) || strings.EqualFold(h, "Received") || strings.EqualFold(h, "Return-Path") {
				xlog.Error("dkim-signing header is recommended against as it may be modified in transit", mlog.Field("header", h))
			}
		}

		key, err := loadKey(c.DKIM.PrivateKeyFile, alg)
		if err != nil {
			addDKIMErrorf("%v", err)
		} else if domainOK && len(errs) == n {
			conf.DKIM, err = dkim.NewSigner(key, c.Domain, c.DKIM.Selector, c.DKIM.Headers, dkim.Options{
				HeaderCanonicalization: hc,
				BodyCanonicalization:   bc,
				Charset:                conf.Charset,
			})
			if err != nil {
				addDKIMErrorf("%v", err)
			}
		}
	}

	if c.DomainKey != nil {
		n := len(errs)
		addDomainKeyErrorf := func(format string, args ...any) {
			addErrorf("domainkey: %s", fmt.Sprintf(format, args...))
		}

		dc, err := canon.ParseDomainKeyAlgorithm(c.DomainKey.Canonicalization)
		if err != nil {
			addDomainKeyErrorf("%v", err)
		}
		key, err := loadKey(c.DomainKey.PrivateKeyFile, keys.RSASHA1)
		if err != nil {
			addDomainKeyErrorf("%v", err)
		} else if domainOK && len(errs) == n {
			conf.DomainKey, err = domainkey.NewSigner(key, c.Domain, c.DomainKey.Selector, c.DomainKey.Headers, domainkey.Options{
				Canonicalization: dc,
				Charset:          conf.Charset,
			})
			if err != nil {
				addDomainKeyErrorf("%v", err)
			}
		}
	}

	return errs
}

// Signer returns a composite signer with the configured signers.
func (c *Config) Signer() *sign.Composite {
	var dkimSigner, domainKeySigner sign.EmailSigner
	if c.DKIM != nil {
		dkimSigner = c.DKIM
	}
	if c.DomainKey != nil {
		domainKeySigner = c.DomainKey
	}
	return sign.New(dkimSigner, domainKeySigner)
}
