// Package sign combines a DKIM and a DomainKeys signer.
//
// The DKIM signature is added first. The DomainKeys signature, when it signs
// all headers, then covers the DKIM-Signature header. The other way around, a
// DKIM-Signature header added after a DomainKeys signature over all headers
// would break the DomainKeys signature.
package sign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mjl-/mailsign/mlog"
)

var xlog = mlog.New("sign")

var metricSignDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mailsign_sign_duration_seconds",
		Help:    "Duration of signing a message with all configured signers.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.100, 0.5, 1, 5},
	},
	[]string{
		"result", // ok, error
	},
)

// ErrNoSigner is returned when signing with a Composite without signers.
var ErrNoSigner = errors.New("sign: no signer configured")

// EmailSigner adds a signature header to a message.
type EmailSigner interface {
	Sign(ctx context.Context, text string) (string, error)
}

// Composite signs with DKIM, then with DomainKeys.
type Composite struct {
	dkim      EmailSigner
	domainKey EmailSigner
}

var _ EmailSigner = (*Composite)(nil)

// New returns a composite signer. Either signer can be nil, but not both for
// signing to succeed.
func New(dkim, domainKey EmailSigner) *Composite {
	return &Composite{dkim, domainKey}
}

// Sign returns text with the signature headers prepended, the DomainKeys header
// first.
func (c *Composite) Sign(ctx context.Context, text string) (signed string, rerr error) {
	log := xlog.WithContext(ctx)
	start := time.Now()
	defer func() {
		result := "ok"
		if rerr != nil {
			result = "error"
		}
		metricSignDuration.WithLabelValues(result).Observe(float64(time.Since(start)) / float64(time.Second))
		log.Debugx("composite sign result", rerr, mlog.Field("duration", time.Since(start)))
	}()

	if c.dkim == nil && c.domainKey == nil {
		return "", ErrNoSigner
	}

	signed = text
	if c.dkim != nil {
		var err error
		signed, err = c.dkim.Sign(ctx, signed)
		if err != nil {
			return "", fmt.Errorf("dkim: %w", err)
		}
	}
	if c.domainKey != nil {
		var err error
		signed, err = c.domainKey.Sign(ctx, signed)
		if err != nil {
			return "", fmt.Errorf("domainkey: %w", err)
		}
	}
	return signed, nil
}
