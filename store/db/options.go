package db

import "github.com/kochabx/curvebox/log"

// Option 客户端选项，连接参数统一由 Config 提供
type Option func(*clientOptions)

type clientOptions struct {
	logger *log.Logger
}

// WithLogger SQL 日志与慢查询写入 l，默认 log.G
func WithLogger(l *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}
