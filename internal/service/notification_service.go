package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/events"
)

// CacheInvalidator drops cached list pages for a resource.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, resource string) error
}

// EventForwarder ships events to an external broker.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

// NotificationService reacts to domain events: it logs them, keeps the list
// cache fresh and forwards them downstream.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cache      CacheInvalidator
	forwarder  EventForwarder
}

// NotificationDependencies bundles collaborators; Cache and Forwarder are optional.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Cache      CacheInvalidator
	Forwarder  EventForwarder
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cache:      deps.Cache,
		forwarder:  deps.Forwarder,
	}
}

// RegisterHandlers subscribes to every domain event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range events.AllEventTypes {
		n.dispatcher.Subscribe(t, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("domain event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("resource_id", event.ResourceID),
		zap.Any("payload", event.Payload))

	var errs []error
	if n.cache != nil {
		for _, resource := range invalidatedResources(event.Type) {
			if err := n.cache.Invalidate(ctx, string(resource)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if n.forwarder != nil {
		if err := n.forwarder.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// invalidatedResources lists the caches an event makes stale. Employee changes
// also stale attendance pages because per-employee listings embed name and code.
func invalidatedResources(t events.EventType) []events.Resource {
	if t.Resource() == events.ResourceAttendance {
		return []events.Resource{events.ResourceAttendance}
	}
	return []events.Resource{events.ResourceEmployee, events.ResourceAttendance}
}
