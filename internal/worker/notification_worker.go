package worker

import (
	"context"

	"github.com/spec-kit/maintenance-service/internal/service"
)

// StartNotificationWorker runs the notification subscriber loop until
// the context is cancelled.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	go func() {
		_ = notificationService.Run(ctx)
	}()
}
