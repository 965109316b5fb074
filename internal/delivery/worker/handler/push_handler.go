// Package handler processes Pub/Sub push deliveries for the event worker.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"crm/config"
	deliverycontext "crm/internal/delivery/context"
	"crm/internal/domain/constants"
	"crm/internal/domain/entity"
	"crm/internal/domain/repository"
	"crm/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// retryableError wraps an error to indicate it should trigger a Pub/Sub retry
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.err)
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func newRetryableError(err error) error {
	return &retryableError{err: err}
}

func isRetryableError(err error) bool {
	var re *retryableError

	return errors.As(err, &re)
}

// PushHandler consumes CRM domain events and materializes follow-up work:
// a freshly created client gets a first-contact task, a deal closed as won
// gets a contract task. Everything else is acknowledged and logged.
type PushHandler struct {
	verifyPushAuth bool
	logger         *slog.Logger
	txManager      repository.TransactionManager
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	TxManager repository.TransactionManager
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop

	return &PushHandler{
		verifyPushAuth: verifyPushAuth,
		logger:         params.Logger,
		txManager:      params.TxManager,
	}
}

// HandlePush handles incoming Pub/Sub push messages
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	// Verify Pub/Sub token in production for Google provider
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	var event service.DomainEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to parse domain event", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	requestID := h.extractRequestID(ctx, &pushMsg, &event)
	reqLogger := h.logger.With(slog.String("request_id", requestID))
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Processing domain event",
		slog.String("event_id", event.EventID),
		slog.String("type", event.Type),
		slog.String("entity_id", event.EntityID),
	)

	if err := h.processEvent(ctx, &event); err != nil {
		reqLogger.Error("[Worker] Failed to process domain event",
			slog.String("event_id", event.EventID),
			slog.Any("error", err),
			slog.Bool("retryable", isRetryableError(err)),
		)
		// 503 triggers a Pub/Sub redelivery; anything non-retryable is
		// acknowledged so a poisoned message cannot loop forever.
		if isRetryableError(err) {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	return c.NoContent(http.StatusOK)
}

// extractRequestID takes the request ID from message attributes, then the
// event body, then the transport context, minting a fresh one as last resort.
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *PubSubMessage, event *service.DomainEvent) string {
	if requestID, ok := pushMsg.Message.Attributes["request_id"]; ok && requestID != "" {
		return requestID
	}

	if event.RequestID != "" {
		return event.RequestID
	}

	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.New().String()
}

func (h *PushHandler) processEvent(ctx context.Context, event *service.DomainEvent) error {
	switch event.Type {
	case service.EventClientCreated:
		return h.handleClientCreated(ctx, event)
	case service.EventOpportunityStatusChanged:
		return h.handleStatusChanged(ctx, event)
	default:
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Debug("[Worker] Event needs no follow-up",
			slog.String("type", event.Type))

		return nil
	}
}

// handleClientCreated schedules a first-contact task two days out.
func (h *PushHandler) handleClientCreated(ctx context.Context, event *service.DomainEvent) error {
	userID, clientID, err := parseEventIDs(event)
	if err != nil {
		return err
	}

	scheduledAt := time.Now().Add(48 * time.Hour)
	activity := &entity.Activity{
		ID:          uuid.New(),
		Title:       "Primer contacto",
		Description: "Contactar al nuevo cliente para presentarse y conocer sus necesidades.",
		Type:        entity.ActivityTask,
		ScheduledAt: &scheduledAt,
		ClientID:    &clientID,
		UserID:      userID,
	}

	return h.createFollowUp(ctx, activity)
}

// handleStatusChanged schedules a contract task when a deal closes as won.
func (h *PushHandler) handleStatusChanged(ctx context.Context, event *service.DomainEvent) error {
	to, _ := event.Payload["to"].(string)
	if entity.OpportunityStatus(to) != entity.StatusClosedWon {
		return nil
	}

	userID, opportunityID, err := parseEventIDs(event)
	if err != nil {
		return err
	}

	scheduledAt := time.Now().Add(24 * time.Hour)
	activity := &entity.Activity{
		ID:            uuid.New(),
		Title:         "Enviar contrato",
		Description:   "Preparar y enviar el contrato de la oportunidad ganada.",
		Type:          entity.ActivityTask,
		ScheduledAt:   &scheduledAt,
		OpportunityID: &opportunityID,
		UserID:        userID,
	}

	return h.createFollowUp(ctx, activity)
}

func (h *PushHandler) createFollowUp(ctx context.Context, activity *entity.Activity) error {
	err := h.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.ActivityRepo().Create(ctx, activity)
	})
	if err != nil {
		return newRetryableError(errors.WithStack(err))
	}

	deliverycontext.GetLoggerOrDefault(ctx, h.logger).Info("[Worker] Follow-up activity created",
		slog.String("activity_id", activity.ID.String()),
		slog.String("title", activity.Title),
	)

	return nil
}

func parseEventIDs(event *service.DomainEvent) (userID, entityID uuid.UUID, err error) {
	userID, err = uuid.Parse(event.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.WithStack(err)
	}

	entityID, err = uuid.Parse(event.EntityID)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.WithStack(err)
	}

	return userID, entityID, nil
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	// The audience must be the URL of this push endpoint.
	scheme := "https"
	if req.TLS == nil {
		scheme = "http" // For local development
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	ctx := req.Context()
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
