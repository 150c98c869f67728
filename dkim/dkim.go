// Package dkim (DomainKeys Identified Mail signatures, RFC 6376) creates DKIM
// signatures for messages.
//
// Signatures are added to email messages in DKIM-Signature headers. By signing a
// message, a domain takes responsibility for the message. The signature covers
// the canonicalized body through a body hash, and selected canonicalized
// headers including the DKIM-Signature header itself, with its b= tag still
// empty.
//
// The signed form of the DKIM-Signature header must be exactly how it ends up in
// the message, including where it is folded. Signing is done in two passes: a
// header with a placeholder signature is first added to the message, and
// removed again before canonicalizing, so the folds in the signed data match
// the final header.
package dkim

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

var xlog = mlog.New("dkim")

var metricSign = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mailsign_dkim_sign_total",
		Help: "DKIM signatures created, by signing algorithm and header/body canonicalization.",
	},
	[]string{
		"algorithm",
		"canonicalization",
	},
)

var timeNow = time.Now // Replaced during tests.

var (
	ErrConfig    = errors.New("dkim: invalid signer configuration")
	ErrAlgorithm = errors.New("dkim: unsupported signing algorithm")
	ErrFold      = errors.New("dkim: signature header not folded as signed")
)

// Placeholder for the b= tag value during the first pass. Longer than fits on a
// header line, as is a real signature.
var placeholder = strings.Repeat("0", 70)

// Options for a Signer. The zero value uses simple canonicalization and
// UTF-8.
type Options struct {
	HeaderCanonicalization canon.DKIMAlgorithm
	BodyCanonicalization   canon.DKIMAlgorithm

	// Character set for turning canonicalized text into bytes. Nil is UTF-8.
	Charset encoding.Encoding
}

// Signer creates DKIM signatures for a domain and selector. A Signer is
// immutable and can be used concurrently.
type Signer struct {
	key      keys.Signer
	domain   dns.Domain
	selector dns.Domain
	headers  []string
	opts     Options
}

// NewSigner returns a signer for domain with the key published under selector.
// Headers are the names of headers to sign, in order. They must include From.
func NewSigner(key keys.Signer, domain, selector string, headers []string, opts Options) (*Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: missing key", ErrConfig)
	}
	switch key.Algorithm() {
	case keys.RSASHA1, keys.RSASHA256:
	default:
		return nil, fmt.Errorf("%w: %q", ErrAlgorithm, key.Algorithm())
	}
	d, err := dns.ParseDomain(domain)
	if err != nil {
		return nil, fmt.Errorf("%w: domain %q: %v", ErrConfig, domain, err)
	}
	sel, err := dns.ParseSelector(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: selector %q: %v", ErrConfig, selector, err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no headers to sign", ErrConfig)
	}
	var from bool
	hdrs := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" || strings.ContainsAny(h, ": \t;") {
			return nil, fmt.Errorf("%w: invalid header name %q", ErrConfig, headers[i])
		}
		from = from || strings.EqualFold(h, "From")
		hdrs[i] = h
	}
	if !from {
		// RFC 6376 section 5.4.
		return nil, fmt.Errorf("%w: From header must be signed", ErrConfig)
	}
	if opts.HeaderCanonicalization, err = canon.ParseDKIMAlgorithm(string(opts.HeaderCanonicalization)); err != nil {
		return nil, fmt.Errorf("%w: header canonicalization: %v", ErrConfig, err)
	}
	if opts.BodyCanonicalization, err = canon.ParseDKIMAlgorithm(string(opts.BodyCanonicalization)); err != nil {
		return nil, fmt.Errorf("%w: body canonicalization: %v", ErrConfig, err)
	}
	return &Signer{key, d, sel, hdrs, opts}, nil
}

// Domain returns the signing domain.
func (s *Signer) Domain() dns.Domain {
	return s.domain
}

func (s *Signer) canonicalization() string {
	return s.opts.HeaderCanonicalization.String() + "/" + s.opts.BodyCanonicalization.String()
}

// HeaderValue returns the value for a DKIM-Signature header for e, with all tags
// but an empty b= tag. The t= tag is set to the current time.
func (s *Signer) HeaderValue(e *message.Email) (string, error) {
	bh, err := s.BodyHash(e.Body)
	if err != nil {
		return "", err
	}
	tags := []string{
		"v=1",
		"a=" + string(s.key.Algorithm()),
		"c=" + s.canonicalization(),
		"d=" + s.domain.ASCII,
		"h=" + strings.Join(s.headers, ":"),
		"q=dns/txt",
		"s=" + s.selector.ASCII,
		fmt.Sprintf("t=%d", timeNow().Unix()),
		"bh=" + bh,
		"b=",
	}
	return strings.Join(tags, "; "), nil
}

// BodyHash returns the base64 hash of the canonicalized body.
func (s *Signer) BodyHash(body string) (string, error) {
	cb, err := canon.DKIMBody(body, s.opts.BodyCanonicalization)
	if err != nil {
		return "", err
	}
	xlog.Trace("dkim canonicalized body", mlog.Field("body", cb))
	buf, err := charset.Encode(s.opts.Charset, cb)
	if err != nil {
		return "", fmt.Errorf("encoding body: %w", err)
	}
	h, err := s.key.Hash(buf)
	if err != nil {
		return "", fmt.Errorf("hashing body: %w", err)
	}
	return base64.StdEncoding.EncodeToString(h), nil
}

// Signature returns the base64 signature over the canonicalized headers of e,
// including its DKIM-Signature header that must have an empty b= tag.
func (s *Signer) Signature(e *message.Email) (string, error) {
	ch, err := canon.DKIMHeaders(e.Headers, s.opts.HeaderCanonicalization, true, s.headers)
	if err != nil {
		return "", fmt.Errorf("canonicalizing headers: %w", err)
	}
	xlog.Trace("dkim canonicalized headers", mlog.Field("headers", ch))
	buf, err := charset.Encode(s.opts.Charset, ch)
	if err != nil {
		return "", fmt.Errorf("encoding headers: %w", err)
	}
	sig, err := s.key.Sign(buf)
	if err != nil {
		return "", fmt.Errorf("signing headers: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// SignatureHeader returns the value of the DKIM-Signature header for message text.
func (s *Signer) SignatureHeader(ctx context.Context, text string) (string, error) {
	v, _, err := s.signatureHeader(ctx, text)
	return v, err
}

// signatureHeader returns the header value, and the value of the signed
// header as parsed from the message, with the folds it will have when added to
// the message.
func (s *Signer) signatureHeader(ctx context.Context, text string) (value, signed string, rerr error) {
	log := xlog.WithContext(ctx)
	start := time.Now()
	defer func() {
		log.Debugx("dkim sign result", rerr,
			mlog.Field("domain", s.domain),
			mlog.Field("selector", s.selector),
			mlog.Field("algorithm", string(s.key.Algorithm())),
			mlog.Field("canonicalization", s.canonicalization()),
			mlog.Field("duration", time.Since(start)))
	}()

	e, err := message.Parse(text)
	if err != nil {
		return "", "", err
	}

	value, err = s.HeaderValue(e)
	if err != nil {
		return "", "", err
	}

	pe, err := withPlaceholderSignature(e, value)
	if err != nil {
		return "", "", err
	}
	se, err := stripPlaceholder(pe)
	if err != nil {
		return "", "", err
	}
	sig, err := s.Signature(se)
	if err != nil {
		return "", "", err
	}

	metricSign.WithLabelValues(string(s.key.Algorithm()), s.canonicalization()).Inc()
	return value + sig, se.Fields[0].Value, nil
}

// Sign returns text with a DKIM-Signature header prepended.
func (s *Signer) Sign(ctx context.Context, text string) (string, error) {
	v, signed, err := s.signatureHeader(ctx, text)
	if err != nil {
		return "", err
	}
	h := message.RenderHeader(canon.DKIMSignatureHeader, v)
	hv := strings.TrimSuffix(strings.TrimPrefix(h, canon.DKIMSignatureHeader+":"), "\r\n")
	if !strings.HasPrefix(hv, signed) {
		return "", fmt.Errorf("%w: header %q, signed %q", ErrFold, hv, signed)
	}
	return h + text, nil
}

// withPlaceholderSignature returns e with a DKIM-Signature header prepended,
// with value and a placeholder signature, as parsed from the new message text.
func withPlaceholderSignature(e *message.Email, value string) (*message.Email, error) {
	ne, err := message.Parse(message.PrependHeader(e.Raw, canon.DKIMSignatureHeader, value+placeholder))
	if err != nil {
		return nil, fmt.Errorf("parsing message with placeholder signature: %w", err)
	}
	return ne, nil
}

// stripPlaceholder returns a copy of e with the placeholder signature removed
// from its first header, which must be the DKIM-Signature header added by
// withPlaceholderSignature. The header also replaces any DKIM-Signature header
// that was already present in the message for canonicalization.
func stripPlaceholder(e *message.Email) (*message.Email, error) {
	if len(e.Fields) == 0 || !strings.EqualFold(e.Fields[0].Key, canon.DKIMSignatureHeader) || !strings.HasSuffix(e.Fields[0].Value, placeholder) {
		return nil, fmt.Errorf("missing dkim-signature header with placeholder signature")
	}
	ne := e.Clone()
	h := ne.Fields[0]
	h.Value = strings.TrimSuffix(h.Value, placeholder)
	ne.Fields[0] = h
	ne.Headers.Set(h)
	return ne, nil
}
