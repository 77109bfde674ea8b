package metrics

import (
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	Prom = New()
)

type Prometheus struct {
	registry *prometheus.Registry
}

func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
	}

	return p
}

func (p *Prometheus) WithGoCollectorRuntimeMetrics() {
	p.registry.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
	))
}

func (p *Prometheus) WithBuildInfoCollector() {
	p.registry.MustRegister(collectors.NewBuildInfoCollector())
}

// Register registers c on r. When an identical collector is already
// registered the existing one is returned, so handlers can be built more
// than once against the same registry.
func Register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
