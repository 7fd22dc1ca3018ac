// Package metrics holds the Prometheus collectors for flows, gateways and
// the chat transport. Each file declares its collectors and queues them from
// init(); main activates the whole set with one MustRegister call.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister installs every queued collector into the default registry.
// Safe to call more than once; only the first call does anything, which
// keeps repeated wiring in tests from panicking on duplicates.
func MustRegister() {
	registerOnce.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}
