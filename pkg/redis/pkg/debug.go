package redis

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logging "interviewai/pkg/logger/pkg"
)

// debugHook logs every command with its latency when enabled.
type debugHook struct {
	enabled bool
}

func (h *debugHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *debugHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if !h.enabled {
			return next(ctx, cmd)
		}
		start := time.Now()
		err := next(ctx, cmd)
		logging.Logger(ctx).Debug("redis command",
			zap.String("cmd", cmd.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return err
	}
}

func (h *debugHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if h.enabled {
			for _, c := range cmds {
				logging.Logger(ctx).Debug("redis pipeline command", zap.String("cmd", c.Name()))
			}
		}

		return next(ctx, cmds)
	}
}
