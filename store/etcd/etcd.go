package etcd

import (
	"context"
	"errors"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

var (
	ErrEtcdNotInitialized = errors.New("etcd client not initialized")
	ErrInvalidConfig      = errors.New("etcd: invalid config")
)

// Etcd ETCD 客户端
type Etcd struct {
	Client *clientv3.Client
	config *Config
}

// Option Etcd 配置选项函数类型
type Option func(*Etcd)

// New 创建新的 Etcd 实例，并用 ctx 检查第一个节点的状态
func New(ctx context.Context, config *Config, opts ...Option) (*Etcd, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	e := &Etcd{config: config}

	if err := e.config.init(); err != nil {
		return nil, err
	}
	if len(e.config.Endpoints) == 0 {
		return nil, ErrInvalidConfig
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	if err := e.connect(); err != nil {
		return nil, err
	}

	if err := e.Ping(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

// connect 创建etcd连接
func (e *Etcd) connect() error {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:            e.config.Endpoints,
		Username:             e.config.Username,
		Password:             e.config.Password,
		DialTimeout:          e.config.DialTimeout,
		DialKeepAliveTime:    e.config.KeepAliveTime,
		DialKeepAliveTimeout: e.config.KeepAliveTimeout,
		AutoSyncInterval:     e.config.AutoSyncInterval,
		MaxCallSendMsgSize:   e.config.MaxSendMsgSize,
		MaxCallRecvMsgSize:   e.config.MaxRecvMsgSize,
		RejectOldCluster:     e.config.RejectOldCluster,
		PermitWithoutStream:  e.config.PermitWithoutStream,
	})
	if err != nil {
		return fmt.Errorf("etcd: connect: %w", err)
	}
	e.Client = client
	return nil
}

// Ping 测试etcd连接是否正常
func (e *Etcd) Ping(ctx context.Context) error {
	if e.Client == nil {
		return ErrEtcdNotInitialized
	}

	ctx, cancel := e.WithTimeout(ctx)
	defer cancel()

	_, err := e.Client.Status(ctx, e.config.Endpoints[0])
	return err
}

// WithTimeout 按 RequestTimeout 派生单次请求的 ctx
func (e *Etcd) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.RequestTimeout)
}

// GetClient 获取原始的etcd客户端
func (e *Etcd) GetClient() *clientv3.Client {
	return e.Client
}

// Close 关闭etcd连接
func (e *Etcd) Close() error {
	if e.Client == nil {
		return nil
	}
	if err := e.Client.Close(); err != nil {
		return err
	}
	e.Client = nil // 清空引用，避免重复关闭
	return nil
}
