// Package poller 通知与动态的轮询循环
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"projecthub/pkg/logger"
	"projecthub/pkg/metrics"
	"projecthub/pkg/trace"
	"projecthub/pkg/util"
)

const DefaultInterval = 30 * time.Second

// Loop 立即执行一次，然后每个 Interval 执行一次，直到 ctx 取消。
// tick 串行执行，慢响应会推迟下一次 tick 而不是重叠
type Loop struct {
	Name        string
	Interval    time.Duration
	TickTimeout time.Duration
	Tick        func(ctx context.Context) error
	Logger      *zap.Logger
}

func (l *Loop) Run(ctx context.Context) {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	l.Logger.Info("Polling loop started", zap.String("loop", l.Name), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		l.runOnce(ctx)

		select {
		case <-ctx.Done():
			l.Logger.Info("Polling loop stopped", zap.String("loop", l.Name))
			return
		case <-ticker.C:
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	tickCtx := trace.WithContext(ctx, trace.GenerateTraceID())
	if l.TickTimeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(tickCtx, l.TickTimeout)
		defer cancel()
	}

	start := time.Now()
	err := l.Tick(tickCtx)
	if err != nil {
		_, errType := util.ClassifyError(err)
		metrics.IncrementPollTick(l.Name, "failed")
		logger.WithTrace(tickCtx, l.Logger).Warn("Polling tick failed",
			zap.String("loop", l.Name),
			zap.String("error_type", errType),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	metrics.IncrementPollTick(l.Name, "success")
}
