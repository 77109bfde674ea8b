package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/creasty/defaults"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kochabx/curvebox/log"
)

// Client 持有一个 GORM 连接及其底层连接池
type Client struct {
	driver Driver
	db     *gorm.DB
	sqlDB  *sql.DB
}

// Open 打开 cfg.Driver 对应的数据库，并在 ctx 与 ConnectTimeout 内确认可达
// cfg 未填写的字段取默认值
func Open(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, err
	}

	o := &clientOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = log.G
	}

	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(gormWriter{o.logger}, logger.Config{
			SlowThreshold:             cfg.SlowQuery,
			LogLevel:                  gormLevel(cfg.Level),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	pool := cfg.Pool.withDefaults(cfg.Driver)
	sqlDB.SetMaxIdleConns(pool.MaxIdle)
	sqlDB.SetMaxOpenConns(pool.MaxOpen)
	sqlDB.SetConnMaxLifetime(pool.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.MaxIdleTime)

	c := &Client{driver: cfg.Driver, db: gdb, sqlDB: sqlDB}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = c.Close()
		return nil, err
	}

	o.logger.Debug().Str("driver", string(cfg.Driver)).Msg("database opened")
	return c, nil
}

func (c Config) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverSQLite:
		return sqlite.Open(c.SQLite.dsn()), nil
	case DriverPostgres:
		return postgres.Open(c.Postgres.dsn(c.ConnectTimeout)), nil
	case DriverMySQL:
		dsn, err := c.MySQL.dsn(c.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	default:
		return nil, ErrUnsupportedDriver
	}
}

// gormLevel 未知级别按 silent 处理
func gormLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

func (c *Client) DB() *gorm.DB {
	return c.db
}

func (c *Client) Driver() Driver {
	return c.driver
}

func (c *Client) Ping(ctx context.Context) error {
	if c.sqlDB == nil {
		return ErrNotInitialized
	}
	return c.sqlDB.PingContext(ctx)
}

// Close 可重复调用
func (c *Client) Close() error {
	if c.sqlDB == nil {
		return nil
	}
	return c.sqlDB.Close()
}

// gormWriter 把 GORM 的 SQL 日志和慢查询写入 log.Logger
type gormWriter struct {
	logger *log.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.logger.Info().Msgf(format, args...)
}
