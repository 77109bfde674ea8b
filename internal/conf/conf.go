// Package conf 定义 curvebox 的配置文件结构
package conf

import (
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"

	"github.com/kochabx/curvebox/config"
	"github.com/kochabx/curvebox/log"
	"github.com/kochabx/curvebox/store/db"
	"github.com/kochabx/curvebox/store/etcd"
	"github.com/kochabx/curvebox/store/redis"
)

// Backend 公钥目录存储后端
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQL    Backend = "sql"
	BackendRedis  Backend = "redis"
	BackendEtcd   Backend = "etcd"
)

// Config 对应 config.yaml 的顶层结构
type Config struct {
	Server    Server     `json:"server" mapstructure:"server"`
	Log       log.Config `json:"log" mapstructure:"log"`
	Engine    Engine     `json:"engine" mapstructure:"engine"`
	Directory Directory  `json:"directory" mapstructure:"directory"`
	History   History    `json:"history" mapstructure:"history"`
	Database  db.Config  `json:"database" mapstructure:"database"`
	Redis     Redis      `json:"redis" mapstructure:"redis"`
	Etcd      Etcd       `json:"etcd" mapstructure:"etcd"`
}

// Server HTTP 服务配置
type Server struct {
	Name            string        `json:"name" mapstructure:"name" default:"curvebox"`
	Addr            string        `json:"addr" mapstructure:"addr" default:":8080"`
	Mode            string        `json:"mode" mapstructure:"mode" default:"release" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout" default:"30s"`
	Metrics         bool          `json:"metrics" mapstructure:"metrics" default:"true"`
	Cors            bool          `json:"cors" mapstructure:"cors"`
	// CorsOrigins 允许的跨域来源，为空时接受任意来源
	CorsOrigins     []string      `json:"cors_origins" mapstructure:"cors_origins"`
}

// Engine 加密引擎配置
type Engine struct {
	// Curve 未指定曲线时使用的预置曲线
	Curve string `json:"curve" mapstructure:"curve" default:"secp256k1" validate:"curve"`
	// Workers 批量加密协程池大小
	Workers int `json:"workers" mapstructure:"workers" default:"8" validate:"gte=1,lte=1024"`
	// MaxBatch 单次批量加密的最大收件人数
	MaxBatch int `json:"max_batch" mapstructure:"max_batch" default:"100" validate:"gte=1"`
	// MaxMessage 明文最大字节数
	MaxMessage int `json:"max_message" mapstructure:"max_message" default:"1048576" validate:"gte=1"`
}

// Directory 公钥目录配置
type Directory struct {
	Backend Backend `json:"backend" mapstructure:"backend" default:"memory" validate:"oneof=memory sql redis etcd"`
	Prefix  string  `json:"prefix" mapstructure:"prefix" default:"curvebox:pubkey:"`
}

// History 历史记录配置
type History struct {
	Backend         Backend       `json:"backend" mapstructure:"backend" default:"memory" validate:"oneof=memory sql"`
	Limit           int           `json:"limit" mapstructure:"limit" default:"10" validate:"gte=1,lte=1000"`
	Retention       time.Duration `json:"retention" mapstructure:"retention" default:"168h"`
	PruneSpec       string        `json:"prune_spec" mapstructure:"prune_spec" default:"@every 1h"`
	RecordPlaintext bool          `json:"record_plaintext" mapstructure:"record_plaintext"`
}

// Redis 仅在 directory.backend=redis 时使用
type Redis struct {
	redis.Config `mapstructure:",squash"`
	// Debug 记录每条命令，超过 SlowQuery 的记为慢查询
	Debug     bool          `json:"debug" mapstructure:"debug"`
	SlowQuery time.Duration `json:"slow_query" mapstructure:"slow_query" default:"100ms"`
	// Tracing、Metrics 打开 redisotel 埋点，数据走全局 OpenTelemetry provider
	Tracing bool `json:"tracing" mapstructure:"tracing"`
	Metrics bool `json:"metrics" mapstructure:"metrics"`
}

// ClientOptions 按配置生成 Redis 客户端选项
// span 中不记录命令参数，避免 key 之外的内容进入追踪后端
func (r *Redis) ClientOptions(logger *log.Logger) []redis.Option {
	opts := []redis.Option{redis.WithLogger(logger)}
	if r.Debug {
		opts = append(opts, redis.WithDebug(r.SlowQuery))
	}
	if r.Tracing {
		opts = append(opts, redis.WithTracing(redisotel.WithDBStatement(false)))
	}
	if r.Metrics {
		opts = append(opts, redis.WithMetrics())
	}
	return opts
}

// Etcd 仅在 directory.backend=etcd 时使用
type Etcd struct {
	etcd.Config `mapstructure:",squash"`
}

// NeedsDatabase 是否需要打开数据库
func (c *Config) NeedsDatabase() bool {
	return c.Directory.Backend == BackendSQL || c.History.Backend == BackendSQL
}

// Load 读取配置文件；path 为空时读取当前目录下的 config.yaml
func Load(path string, opts ...config.Option) (*Config, *config.Config, error) {
	cfg := new(Config)
	if path != "" {
		opts = append([]config.Option{config.WithFile(path)}, opts...)
	}
	c := config.New(cfg, opts...)
	if err := c.Load(); err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}
