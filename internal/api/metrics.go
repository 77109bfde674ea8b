package api

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/curvebox/core/crypto/ecerr"
	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/transport/http/metrics"
)

// Metrics counts operations by outcome and times them.
type Metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(r prometheus.Registerer) (*Metrics, error) {
	ops, err := metrics.Register(r, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "curvebox",
		Name:      "operations_total",
		Help:      "Engine operations by result.",
	}, []string{"op", "result"}))
	if err != nil {
		return nil, errors.Wrap(err, 500, "register operations counter")
	}
	duration, err := metrics.Register(r, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "curvebox",
		Name:      "operation_duration_seconds",
		Help:      "Engine operation latency.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"op"}))
	if err != nil {
		return nil, errors.Wrap(err, 500, "register duration histogram")
	}
	return &Metrics{ops: ops, duration: duration}, nil
}

// observe records one call of op that started at start.
func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.ops.WithLabelValues(op, result(err)).Inc()
}

// result is "ok", the lower-case engine error kind, or "error".
func result(err error) string {
	if err == nil {
		return "ok"
	}
	if k := ecerr.KindOf(err); k != ecerr.Unknown {
		return strings.ToLower(k.String())
	}
	return "error"
}
