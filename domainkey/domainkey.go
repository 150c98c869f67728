// Package domainkey creates DomainKeys signatures (RFC 4870) for messages.
//
// DomainKeys is the predecessor of DKIM. The signature is always rsa-sha1 and
// covers the canonicalized headers and body at once. The DomainKey-Signature
// header itself is not signed, so no placeholder pass is needed. When no
// headers are configured, all headers present at signing time are signed,
// including signature headers added earlier, like DKIM-Signature.
package domainkey

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/text/encoding"

	"github.com/mjl-/mailsign/canon"
	"github.com/mjl-/mailsign/charset"
	"github.com/mjl-/mailsign/dns"
	"github.com/mjl-/mailsign/keys"
	"github.com/mjl-/mailsign/message"
	"github.com/mjl-/mailsign/mlog"
)

var xlog = mlog.New("domainkey")

var metricSign = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mailsign_domainkey_sign_total",
		Help: "DomainKeys signatures created, by canonicalization.",
	},
	[]string{
		"canonicalization",
	},
)

// SignatureHeader is the name of the DomainKeys signature header.
const SignatureHeader = "DomainKey-Signature"

var (
	ErrConfig    = errors.New("domainkey: invalid signer configuration")
	ErrAlgorithm = errors.New("domainkey: signing algorithm must be rsa-sha1")
)

// Options for a Signer. The zero value uses simple canonicalization and UTF-8.
type Options struct {
	Canonicalization canon.DomainKeyAlgorithm
	Charset          encoding.Encoding // Nil is UTF-8.
}

// Signer creates DomainKeys signatures. A Signer is immutable and can be used
// concurrently.
type Signer struct {
	key      keys.Signer
	domain   dns.Domain
	selector dns.Domain
	headers  []string // Can be empty, for all headers.
	opts     Options
}

// NewSigner returns a signer for domain with the key published under selector.
// The key must have algorithm rsa-sha1. Headers are the names of headers to
// sign, nil signs all headers.
func NewSigner(key keys.Signer, domain, selector string, headers []string, opts Options) (*Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: missing key", ErrConfig)
	}
	if key.Algorithm() != keys.RSASHA1 {
		return nil, fmt.Errorf("%w: key has algorithm %q", ErrAlgorithm, key.Algorithm())
	}
	d, err := dns.ParseDomain(domain)
	if err != nil {
		return nil, fmt.Errorf("%w: domain %q: %v", ErrConfig, domain, err)
	}
	sel, err := dns.ParseSelector(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: selector %q: %v", ErrConfig, selector, err)
	}
	var hdrs []string
	for _, h := range headers {
		th := strings.TrimSpace(h)
		if th == "" || strings.ContainsAny(th, ": \t;") {
			return nil, fmt.Errorf("%w: invalid header name %q", ErrConfig, h)
		}
		hdrs = append(hdrs, th)
	}
	if opts.Canonicalization, err = canon.ParseDomainKeyAlgorithm(string(opts.Canonicalization)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return &Signer{key, d, sel, hdrs, opts}, nil
}

// Domain returns the signing domain.
func (s *Signer) Domain() dns.Domain {
	return s.domain
}

// Signature returns the base64 signature over the canonicalized message.
func (s *Signer) Signature(e *message.Email) (string, error) {
	text, err := canon.DomainKey(e, s.opts.Canonicalization, s.headers)
	if err != nil {
		return "", err
	}
	xlog.Trace("domainkey canonicalized message", mlog.Field("text", text))
	buf, err := charset.Encode(s.opts.Charset, text)
	if err != nil {
		return "", fmt.Errorf("encoding message: %w", err)
	}
	sig, err := s.key.Sign(buf)
	if err != nil {
		return "", fmt.Errorf("signing message: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// HeaderValue returns the DomainKey-Signature header value for e.
func (s *Signer) HeaderValue(e *message.Email) (string, error) {
	sig, err := s.Signature(e)
	if err != nil {
		return "", err
	}
	tags := []string{
		"a=" + string(keys.RSASHA1),
		"c=" + s.opts.Canonicalization.String(),
		"d=" + s.domain.ASCII,
	}
	if len(s.headers) > 0 {
		tags = append(tags, "h="+strings.Join(s.headers, ":"))
	}
	tags = append(tags,
		"q=dns",
		"s="+s.selector.ASCII,
		"b="+sig,
	)
	return strings.Join(tags, "; ") + ";", nil
}

// SignatureHeader returns the value of the DomainKey-Signature header for
// message text.
func (s *Signer) SignatureHeader(ctx context.Context, text string) (v string, rerr error) {
	log := xlog.WithContext(ctx)
	start := time.Now()
	defer func() {
		log.Debugx("domainkey sign result", rerr,
			mlog.Field("domain", s.domain),
			mlog.Field("selector", s.selector),
			mlog.Field("canonicalization", s.opts.Canonicalization.String()),
			mlog.Field("headers", s.headers),
			mlog.Field("duration", time.Since(start)))
	}()

	e, err := message.Parse(text)
	if err != nil {
		return "", err
	}
	v, err = s.HeaderValue(e)
	if err != nil {
		return "", err
	}
	metricSign.WithLabelValues(s.opts.Canonicalization.String()).Inc()
	return v, nil
}

// Sign returns text with a DomainKey-Signature header prepended.
func (s *Signer) Sign(ctx context.Context, text string) (string, error) {
	v, err := s.SignatureHeader(ctx, text)
	if err != nil {
		return "", err
	}
	return message.PrependHeader(text, SignatureHeader, v), nil
}
