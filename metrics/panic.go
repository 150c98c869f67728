// Package metrics has prometheus metrics shared between packages, and writes
// the collected metrics to a file.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricPanic = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mailsign_panic_total",
		Help: "Number of unhandled panics, by package.",
	},
	[]string{
		"pkg",
	},
)

// PanicInc increases the panic counter for a package, after recovering.
func PanicInc(pkg string) {
	metricPanic.WithLabelValues(pkg).Inc()
}
