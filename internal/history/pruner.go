package history

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/log"
)

// DefaultPruneSpec 默认每小时清理一次
const DefaultPruneSpec = "@every 1h"

// Pruner 按 cron 表达式定期删除超过保留期的历史
type Pruner struct {
	store     Store
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
	logger    *log.Logger
}

// NewPruner 支持标准 5 字段表达式和 @every/@daily 等描述符
func NewPruner(store Store, retention time.Duration, spec string, logger *log.Logger) (*Pruner, error) {
	if retention <= 0 {
		return nil, errors.BadRequest("history retention must be positive")
	}
	if spec == "" {
		spec = DefaultPruneSpec
	}
	if logger == nil {
		logger = log.G
	}

	p := &Pruner{
		store:     store,
		retention: retention,
		now:       time.Now,
		logger:    logger,
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
	if _, err := p.cron.AddFunc(spec, func() { _, _ = p.Run(context.Background()) }); err != nil {
		return nil, errors.Wrap(err, 400, "invalid prune schedule %q", spec)
	}
	return p, nil
}

// Run 立即执行一次清理
func (p *Pruner) Run(ctx context.Context) (int64, error) {
	before := p.now().Add(-p.retention)
	n, err := p.store.Prune(ctx, before)
	if err != nil {
		p.logger.Error().Err(err).Msg("prune history")
		return 0, err
	}
	p.logger.Debug().Int64("deleted", n).Time("before", before).Msg("history pruned")
	return n, nil
}

// Start 启动调度，不阻塞
func (p *Pruner) Start() {
	p.cron.Start()
}

// Stop 停止调度并等待正在执行的清理结束或 ctx 超时
func (p *Pruner) Stop(ctx context.Context) error {
	done := p.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
