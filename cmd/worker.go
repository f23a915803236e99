package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"

	"interviewai/internal/features"
)

const consumerRetryDelay = 5 * time.Second

// startConsumer keeps a broker consumer running until ctx is done.
func startConsumer(ctx context.Context, svc *features.InterviewAI, logger *zap.Logger) {
	for {
		logger.Info("Starting event consumer")
		err := svc.Consume(ctx)
		if ctx.Err() != nil {
			logger.Info("Event consumer stopped")
			return
		}
		if err != nil {
			logger.Error("Event consumer failed", zap.Error(err))
		} else {
			logger.Warn("Event consumer channel closed")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(consumerRetryDelay):
		}
	}
}
