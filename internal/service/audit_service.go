package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/events"
)

// AuditService records user lifecycle events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sink       events.EventHandler
}

// NewAuditService creates the service. sink may be nil, in which case events
// are only logged.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, sink events.EventHandler) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("service.audit"),
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.SubscribeAll(a.handle)
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("user_id", event.UserID),
		zap.String("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))
	if a.sink == nil {
		return nil
	}
	return a.sink(ctx, event)
}
