package main

import (
	"context"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kochabx/curvebox/app"
	"github.com/kochabx/curvebox/config"
	"github.com/kochabx/curvebox/core/crypto/ecies"
	"github.com/kochabx/curvebox/internal/api"
	"github.com/kochabx/curvebox/internal/conf"
	"github.com/kochabx/curvebox/internal/directory"
	"github.com/kochabx/curvebox/internal/history"
	"github.com/kochabx/curvebox/log"
	"github.com/kochabx/curvebox/store/db"
	"github.com/kochabx/curvebox/store/etcd"
	"github.com/kochabx/curvebox/store/redis"
	"github.com/kochabx/curvebox/transport"
	khttp "github.com/kochabx/curvebox/transport/http"
	"github.com/kochabx/curvebox/transport/http/metrics"
	"github.com/kochabx/curvebox/transport/http/middleware"
)

const connectTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cc, err := conf.Load(path)
			if err != nil {
				return err
			}
			logger, err := log.NewFromConfig(cfg.Log)
			if err != nil {
				return err
			}
			log.SetGlobalLogger(logger)
			middleware.SetLogger(logger)

			application, err := build(cmd.Context(), cfg, cc, logger)
			if err != nil {
				_ = logger.Close()
				return err
			}
			return application.Start()
		},
	}
	cmd.Flags().StringVar(&path, "config", "config.yaml", "configuration file")
	return cmd
}

// closer 记录已打开的资源，构建失败时逆序释放
type closer struct {
	name string
	fn   func(context.Context) error
}

// build 按配置装配存储、引擎、路由和 HTTP 服务
func build(ctx context.Context, cfg *conf.Config, cc *config.Config, logger *log.Logger) (_ *app.Application, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := transport.ValidateAddress(cfg.Server.Addr); err != nil {
		return nil, err
	}

	var closers []closer
	defer func() {
		if err == nil {
			return
		}
		for _, c := range slices.Backward(closers) {
			if cerr := c.fn(context.Background()); cerr != nil {
				logger.Warn().Err(cerr).Str("close", c.name).Msg("release after failed start")
			}
		}
	}()
	track := func(name string, fn func() error) {
		closers = append(closers, closer{name: name, fn: func(context.Context) error { return fn() }})
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var database *db.Client
	if cfg.NeedsDatabase() {
		if database, err = db.Open(connectCtx, cfg.Database, db.WithLogger(logger)); err != nil {
			return nil, err
		}
		track("database", database.Close)
	}

	var dirStore directory.Store
	switch cfg.Directory.Backend {
	case conf.BackendSQL:
		if dirStore, err = directory.NewSQLStore(database); err != nil {
			return nil, err
		}
	case conf.BackendRedis:
		client, rerr := redis.New(connectCtx, &cfg.Redis.Config, cfg.Redis.ClientOptions(logger)...)
		if rerr != nil {
			return nil, rerr
		}
		track("redis", client.Close)
		dirStore = directory.NewRedisStore(client, cfg.Directory.Prefix)
	case conf.BackendEtcd:
		client, eerr := etcd.New(connectCtx, &cfg.Etcd.Config)
		if eerr != nil {
			return nil, eerr
		}
		track("etcd", client.Close)
		dirStore = directory.NewEtcdStore(client, cfg.Directory.Prefix)
	default:
		dirStore = directory.NewMemoryStore()
	}

	var histStore history.Store = history.NewMemoryStore()
	if cfg.History.Backend == conf.BackendSQL {
		if histStore, err = history.NewSQLStore(database); err != nil {
			return nil, err
		}
	}
	pruner, err := history.NewPruner(histStore, cfg.History.Retention, cfg.History.PruneSpec, logger)
	if err != nil {
		return nil, err
	}

	engine := ecies.NewEngine(ecies.WithLogger(logger))
	batcher, err := ecies.NewBatcher(engine, cfg.Engine.Workers)
	if err != nil {
		return nil, err
	}
	track("batcher", func() error { batcher.Close(); return nil })

	apiMetrics, err := api.NewMetrics(metrics.Prom.Registry())
	if err != nil {
		return nil, err
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.GinLogger(), middleware.Recovery())
	if cfg.Server.Cors {
		router.Use(middleware.Cors(cfg.Server.CorsOrigins...))
	}
	api.New(api.Options{
		Engine:    engine,
		Batcher:   batcher,
		Directory: directory.NewService(dirStore, directory.WithLogger(logger)),
		History: history.NewRecorder(histStore,
			history.WithLimit(cfg.History.Limit),
			history.WithPlaintextPreview(cfg.History.RecordPlaintext),
			history.WithLogger(logger),
		),
		Metrics:      apiMetrics,
		Logger:       logger,
		DefaultCurve: cfg.Engine.Curve,
		MaxBatch:     cfg.Engine.MaxBatch,
		MaxMessage:   cfg.Engine.MaxMessage,
	}).Register(router)

	server := khttp.NewServer(cfg.Server.Addr, router,
		khttp.WithMeta(khttp.Meta{Name: cfg.Server.Name}),
		khttp.WithMetrics(metrics.Prom),
		khttp.WithMetricsOptions(khttp.MetricsOption{Enabled: cfg.Server.Metrics}),
		khttp.WithHealthOptions(khttp.HealthOption{Enabled: true}),
	)

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		app.WithServer(server),
		app.WithClose("logger", func(context.Context) error { return logger.Close() }, 0),
	}
	for _, c := range closers {
		opts = append(opts, app.WithClose(c.name, c.fn, 0))
	}
	opts = append(opts,
		app.WithStart("history-pruner", func(context.Context) error {
			pruner.Start()
			return nil
		}),
		app.WithClose("history-pruner", pruner.Stop, 0),
	)
	if cc != nil {
		cc.OnChange(func() {
			var level string
			cc.Read(func() { level = cfg.Log.Level })
			if lvl, perr := zerolog.ParseLevel(level); perr == nil && level != "" {
				log.SetGlobalLevel(lvl)
				logger.Info().Str("level", level).Msg("log level updated")
			}
		})
		opts = append(opts, app.WithStart("config-watch", func(context.Context) error { return cc.Watch() }))
	}

	logger.Info().
		Str("directory", string(cfg.Directory.Backend)).
		Str("history", string(cfg.History.Backend)).
		Str("curve", cfg.Engine.Curve).
		Msg("curvebox assembled")
	return app.New(opts...), nil
}
