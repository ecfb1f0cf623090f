package client

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK             = "ok"
	outcomeTransportError = "transport_error"
	outcomeHTTPError      = "http_error"
	outcomeFormatError    = "format_error"
	outcomeDecoded        = "decoded"
	outcomeSkipped        = "skipped"
)

// metrics is nil-safe: a client built without WithMetrics records nothing.
type metrics struct {
	requests      *prometheus.CounterVec
	lookupOutputs *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helloworld",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Overlay requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		lookupOutputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helloworld",
			Subsystem: "client",
			Name:      "lookup_outputs_total",
			Help:      "Lookup outputs by decode outcome.",
		}, []string{"outcome"}),
	}

	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.lookupOutputs, err = register(reg, m.lookupOutputs); err != nil {
		return nil, err
	}
	return m, nil
}

// register returns the already registered collector when reg holds an identical one.
func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *metrics) observeRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *metrics) observeOutput(outcome string) {
	if m == nil {
		return
	}
	m.lookupOutputs.WithLabelValues(outcome).Inc()
}
