package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kochabx/curvebox/log"
	"github.com/kochabx/curvebox/transport"
	"github.com/kochabx/curvebox/transport/http/metrics"
)

var _ transport.Server = (*Server)(nil)

const (
	defaultName = "http"
	defaultAddr = ":8080"
)

// Meta is the metadata of the server.
type Meta struct {
	Name string
}

type Server struct {
	meta    Meta
	options Options
	metrics *metrics.Prometheus
	server  *http.Server
}

type Option func(*Server)

func WithMeta(meta Meta) Option {
	return func(s *Server) {
		s.meta = meta
	}
}

// WithMetrics serves p's registry instead of metrics.Prom.
func WithMetrics(p *metrics.Prometheus) Option {
	return func(s *Server) {
		if p != nil {
			s.metrics = p
		}
	}
}

func WithMetricsOptions(m MetricsOption) Option {
	return func(s *Server) {
		if err := m.init(); err != nil {
			log.Error().Err(err).Send()
			return
		}
		s.options.Metrics = m
	}
}

func WithHealthOptions(health HealthOption) Option {
	return func(s *Server) {
		if err := health.init(); err != nil {
			log.Error().Err(err).Send()
			return
		}
		s.options.Health = health
	}
}

func NewServer(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		metrics: metrics.Prom,
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	additionalHandlers(s)

	return s
}

// Addr returns the listen address after validation.
func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) Run() error {
	if s.meta.Name == "" {
		s.meta.Name = defaultName
	}

	if err := transport.ValidateAddress(s.server.Addr); err != nil {
		log.Warn().Err(err).Msgf("using default address %s", defaultAddr)
		s.server.Addr = defaultAddr
	}
	log.Info().Msgf("%s server listening on %s", s.meta.Name, s.server.Addr)

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func additionalHandlers(s *Server) {
	if r, ok := s.server.Handler.(*gin.Engine); ok {
		handleMetrics(s, r)
		handleHealth(s, r)
	}
}

func handleMetrics(s *Server, r *gin.Engine) {
	if s.options.Metrics.Enabled {
		if s.options.Metrics.EnabledGoCollector {
			s.metrics.WithGoCollectorRuntimeMetrics()
		}
		if s.options.Metrics.EnabledBuildInfoCollector {
			s.metrics.WithBuildInfoCollector()
		}

		r.GET(s.options.Metrics.Path, gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		})))
	}
}

func handleHealth(s *Server, r *gin.Engine) {
	if s.options.Health.Enabled {
		r.GET(s.options.Health.Path, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}
