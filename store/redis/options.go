package redis

import (
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"

	"github.com/kochabx/curvebox/log"
)

// Option 客户端选项，连接参数统一由 Config 提供
type Option func(*clientOptions)

type clientOptions struct {
	enableMetrics bool
	enableTracing bool
	enableDebug   bool
	tracingOpts   []redisotel.TracingOption
	metricsOpts   []redisotel.MetricsOption

	logger          *log.Logger
	slowQueryThresh time.Duration
}

// WithMetrics 通过 redisotel 上报连接池与命令耗时指标
// 指标走全局 OpenTelemetry MeterProvider，未配置时为空操作
func WithMetrics(opts ...redisotel.MetricsOption) Option {
	return func(o *clientOptions) {
		o.enableMetrics = true
		o.metricsOpts = append(o.metricsOpts, opts...)
	}
}

// WithTracing 通过 redisotel 为每条命令生成 span
func WithTracing(opts ...redisotel.TracingOption) Option {
	return func(o *clientOptions) {
		o.enableTracing = true
		o.tracingOpts = append(o.tracingOpts, opts...)
	}
}

// WithDebug 记录每条命令的名称、key 与耗时，超过阈值的记为慢查询
// 阈值为 0 时不检测慢查询
func WithDebug(slowQueryThreshold time.Duration) Option {
	return func(o *clientOptions) {
		o.enableDebug = true
		o.slowQueryThresh = slowQueryThreshold
	}
}

// WithLogger 设置客户端日志
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

func applyOptions(opts []Option) *clientOptions {
	o := &clientOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
