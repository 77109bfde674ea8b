package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/curvebox/log"
	"github.com/kochabx/curvebox/transport"
)

var (
	ErrAlreadyStarted = errors.New("application already started")
	ErrClosePanic     = errors.New("close function panicked")
)

// Application 管理服务器、启动钩子和关闭函数的生命周期
type Application struct {
	ctx             context.Context
	cancel          context.CancelFunc
	shutdownTimeout time.Duration
	signals         []os.Signal
	servers         []transport.Server
	startHooks      []Hook
	closeFuncs      []CloseFunc
	closeTimeout    time.Duration
	logger          *log.Logger
	mu              sync.RWMutex
	started         bool
}

// Hook 在服务器启动前执行，返回错误时应用不会启动
type Hook struct {
	Name string
	Fn   func(context.Context) error
}

// CloseFunc 具有可选超时的关闭函数
type CloseFunc struct {
	Name    string
	Fn      func(context.Context) error
	Timeout time.Duration
}

type Option func(*Application)

// WithContext 设置应用的根上下文
func WithContext(ctx context.Context) Option {
	return func(app *Application) {
		if ctx != nil {
			app.ctx, app.cancel = context.WithCancel(ctx)
		}
	}
}

// WithShutdownTimeout 设置服务器关闭的超时时间
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.shutdownTimeout = timeout
		}
	}
}

// WithCloseTimeout 设置关闭函数的默认超时时间
func WithCloseTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.closeTimeout = timeout
		}
	}
}

// WithSignals 设置用于优雅关闭的自定义信号
func WithSignals(signals ...os.Signal) Option {
	return func(app *Application) {
		if len(signals) > 0 {
			app.signals = slices.Clone(signals)
		}
	}
}

// WithLogger 设置应用日志
func WithLogger(l *log.Logger) Option {
	return func(app *Application) {
		if l != nil {
			app.logger = l
		}
	}
}

// WithServer 向应用添加服务器
func WithServer(server transport.Server) Option {
	return WithServers(server)
}

// WithServers 向应用添加多个服务器
func WithServers(servers ...transport.Server) Option {
	return func(app *Application) {
		for _, server := range servers {
			if server != nil {
				app.servers = append(app.servers, server)
			}
		}
	}
}

// WithStart 添加启动钩子，按注册顺序执行
func WithStart(name string, fn func(context.Context) error) Option {
	return func(app *Application) {
		if fn == nil {
			app.logger.Warn().Str("name", name).Msg("nil start hook ignored")
			return
		}
		app.startHooks = append(app.startHooks, Hook{Name: name, Fn: fn})
	}
}

// WithClose 添加在关闭期间执行的关闭函数
// 关闭函数按注册的相反顺序逐个执行，先注册的资源最后释放
func WithClose(name string, fn func(context.Context) error, timeout time.Duration) Option {
	return func(app *Application) {
		if fn == nil {
			app.logger.Warn().Str("name", name).Msg("nil close function ignored")
			return
		}
		app.closeFuncs = append(app.closeFuncs, app.closeFunc(name, fn, timeout))
	}
}

// New 使用给定选项创建新的应用实例
func New(options ...Option) *Application {
	app := &Application{
		shutdownTimeout: 30 * time.Second,
		closeTimeout:    30 * time.Second,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
		logger:          log.G,
	}

	// 设置默认上下文
	app.ctx, app.cancel = context.WithCancel(context.Background())

	for _, opt := range options {
		opt(app)
	}

	return app
}

func (app *Application) closeFunc(name string, fn func(context.Context) error, timeout time.Duration) CloseFunc {
	if timeout <= 0 {
		timeout = app.closeTimeout
	}
	return CloseFunc{Name: name, Fn: fn, Timeout: timeout}
}

// AddServer 在运行时向应用添加服务器
func (app *Application) AddServer(server transport.Server) error {
	if server == nil {
		return errors.New("server cannot be nil")
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if app.started {
		app.logger.Warn().Msg("attempted to add server after application started")
		return ErrAlreadyStarted
	}

	app.servers = append(app.servers, server)
	return nil
}

// RegisterClose 在运行时向应用添加关闭函数
func (app *Application) RegisterClose(name string, fn func(context.Context) error, timeout time.Duration) error {
	if fn == nil {
		return errors.New("close function cannot be nil")
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	app.closeFuncs = append(app.closeFuncs, app.closeFunc(name, fn, timeout))
	return nil
}

// Start 执行启动钩子，启动所有服务器并阻塞直到关闭
// 无论启动是否成功，已注册的关闭函数都会执行
func (app *Application) Start() error {
	app.mu.Lock()
	if app.started {
		app.mu.Unlock()
		return ErrAlreadyStarted
	}
	app.started = true
	servers := slices.Clone(app.servers)
	hooks := slices.Clone(app.startHooks)
	signals := slices.Clone(app.signals)
	app.mu.Unlock()

	defer app.runCloseTasks()

	for _, hook := range hooks {
		if err := hook.Fn(app.ctx); err != nil {
			app.logger.Error().Err(err).Str("hook", hook.Name).Msg("start hook failed")
			return err
		}
	}

	if len(servers) == 0 {
		app.logger.Info().Msg("no servers configured, starting signal handler only")
	}

	// 设置信号处理
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	eg, egCtx := errgroup.WithContext(app.ctx)

	app.startServers(eg, egCtx, servers)

	// 处理关闭信号
	eg.Go(func() error {
		select {
		case sig := <-sigCh:
			app.logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			app.cancel()
			return nil
		case <-egCtx.Done():
			// context.Canceled 是正常的关闭，不应该作为错误返回
			if errors.Is(egCtx.Err(), context.Canceled) {
				return nil
			}
			return egCtx.Err()
		}
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop 优雅地停止应用
func (app *Application) Stop() {
	app.cancel()
}

// startServers 启动所有配置的服务器
func (app *Application) startServers(eg *errgroup.Group, ctx context.Context, servers []transport.Server) {
	for _, server := range servers {
		eg.Go(func() error {
			// http.ErrServerClosed 是正常关闭时的预期错误
			if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		eg.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}
}

// runCloseTasks 按注册的相反顺序执行所有关闭函数
func (app *Application) runCloseTasks() {
	app.mu.RLock()
	closeFuncs := slices.Clone(app.closeFuncs)
	app.mu.RUnlock()

	var failed int
	for _, cf := range slices.Backward(closeFuncs) {
		if err := app.runCloseTask(cf); err != nil {
			failed++
		}
	}
	if failed > 0 {
		app.logger.Error().Int("failed", failed).Msg("some close functions failed")
	}
}

// runCloseTask 执行单个带超时的关闭函数
func (app *Application) runCloseTask(cf CloseFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), cf.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				app.logger.Error().Interface("panic", r).Str("close", cf.Name).Msg("close function panicked")
				done <- ErrClosePanic
			}
		}()
		done <- cf.Fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			app.logger.Error().Err(err).Str("close", cf.Name).Msg("close function failed")
		} else {
			app.logger.Debug().Str("close", cf.Name).Msg("closed")
		}
		return err
	case <-ctx.Done():
		app.logger.Warn().Str("close", cf.Name).Msg("close function timed out")
		return ctx.Err()
	}
}

// Info 返回应用状态信息
func (app *Application) Info() ApplicationInfo {
	app.mu.RLock()
	defer app.mu.RUnlock()

	return ApplicationInfo{
		Started:     app.started,
		ServerCount: len(app.servers),
		HookCount:   len(app.startHooks),
		CloseCount:  len(app.closeFuncs),
	}
}

// ApplicationInfo 提供应用状态信息
type ApplicationInfo struct {
	Started     bool `json:"started"`
	ServerCount int  `json:"server_count"`
	HookCount   int  `json:"hook_count"`
	CloseCount  int  `json:"close_count"`
}
