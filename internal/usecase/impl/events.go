package impl

import (
	"context"
	"log/slog"
	"time"

	deliveryctx "crm/internal/delivery/context"
	"crm/internal/domain/service"

	"github.com/google/uuid"
)

// publishEvent broadcasts a domain event without failing the operation the
// event describes: consumers are downstream conveniences, the write already
// committed.
func publishEvent(ctx context.Context, publisher service.EventPublisher, logger *slog.Logger,
	eventType string, userID uuid.UUID, entityID string, payload map[string]any,
) {
	if publisher == nil {
		return
	}

	event := &service.DomainEvent{
		RequestID:  deliveryctx.GetRequestIDFromContext(ctx),
		EventID:    uuid.New().String(),
		Type:       eventType,
		UserID:     userID.String(),
		EntityID:   entityID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}

	if err := publisher.PublishDomainEvent(ctx, event); err != nil {
		logger.Warn("Failed to publish domain event",
			slog.String("type", eventType),
			slog.String("entity_id", entityID),
			slog.Any("error", err))
	}
}
