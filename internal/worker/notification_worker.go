package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/events"
	"github.com/spec-kit/attendance-service/internal/service"
)

// StartNotificationWorker subscribes the notification service to every
// domain event on its dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification worker started", zap.Int("event_types", len(events.AllEventTypes)))
	}
}
