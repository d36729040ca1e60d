package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/service"
	"github.com/spec-kit/ticket-dashboard/internal/session"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartSessionSweeper evicts idle sessions in the background until ctx is done.
// The returned channel closes when the sweeper has stopped.
func StartSessionSweeper(ctx context.Context, sessions *session.Store, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sessions.RunSweeper(ctx, interval, logger)
	}()
	return done
}
