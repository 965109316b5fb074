package service

import (
	"context"
	"time"
)

// Domain event types published to the event pipeline.
const (
	EventClientCreated            = "client.created"
	EventClientDeleted            = "client.deleted"
	EventOpportunityCreated       = "opportunity.created"
	EventOpportunityStatusChanged = "opportunity.status_changed"
	EventActivityCompleted        = "activity.completed"
)

// DomainEvent is a CRM change broadcast for downstream consumers
// (reporting, integrations, audit).
type DomainEvent struct {
	RequestID  string         `json:"request_id,omitempty"` // For distributed tracing.
	EventID    string         `json:"event_id"`
	Type       string         `json:"type"`
	UserID     string         `json:"user_id"`
	EntityID   string         `json:"entity_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing domain events to a
// message queue.
type EventPublisher interface {
	// PublishDomainEvent publishes one event for async processing.
	PublishDomainEvent(ctx context.Context, event *DomainEvent) error

	// Close releases any resources held by the publisher.
	Close() error
}
