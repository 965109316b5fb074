package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crm/config"
	"crm/internal/domain/entity"
	"crm/internal/domain/repository"
	"crm/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingActivityRepo captures created activities and optionally fails.
type recordingActivityRepo struct {
	created   []*entity.Activity
	createErr error
}

func (r *recordingActivityRepo) FindByID(context.Context, uuid.UUID, uuid.UUID) (*entity.Activity, error) {
	return nil, repository.ErrActivityNotFound
}

func (r *recordingActivityRepo) FindRecent(context.Context, uuid.UUID, int) ([]*entity.Activity, error) {
	return nil, nil
}

func (r *recordingActivityRepo) FindByClient(context.Context, uuid.UUID, uuid.UUID) ([]*entity.Activity, error) {
	return nil, nil
}

func (r *recordingActivityRepo) CountByUser(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (r *recordingActivityRepo) Create(_ context.Context, activity *entity.Activity) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, activity)

	return nil
}

func (r *recordingActivityRepo) Update(context.Context, *entity.Activity) error { return nil }

func (r *recordingActivityRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubFactory struct {
	activities *recordingActivityRepo
}

func (f *stubFactory) UserRepo() repository.UserRepository               { return nil }
func (f *stubFactory) ClientRepo() repository.ClientRepository           { return nil }
func (f *stubFactory) OpportunityRepo() repository.OpportunityRepository { return nil }
func (f *stubFactory) ActivityRepo() repository.ActivityRepository      { return f.activities }

type stubTxManager struct {
	factory *stubFactory
}

func (m *stubTxManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

func newTestPushHandler(activities *recordingActivityRepo) *PushHandler {
	cfg := &config.Config{}
	cfg.PubSub = &config.PubSubConfig{Provider: "local"}

	return NewPushHandler(PushHandlerParams{
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		TxManager: &stubTxManager{factory: &stubFactory{activities: activities}},
	})
}

func pushRequest(t *testing.T, event *service.DomainEvent) *http.Request {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var msg PubSubMessage
	msg.Message.Data = base64.StdEncoding.EncodeToString(payload)
	msg.Message.MessageID = event.EventID
	msg.Message.Attributes = map[string]string{"request_id": "req-123"}
	msg.Subscription = "projects/local/subscriptions/crm-events-sub"

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/push", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	return req
}

func doPush(t *testing.T, h *PushHandler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.HandlePush(c))

	return rec
}

func TestHandlePush_ClientCreatedSchedulesFirstContact(t *testing.T) {
	activities := &recordingActivityRepo{}
	h := newTestPushHandler(activities)

	userID := uuid.New()
	clientID := uuid.New()
	rec := doPush(t, h, pushRequest(t, &service.DomainEvent{
		EventID:    uuid.New().String(),
		Type:       service.EventClientCreated,
		UserID:     userID.String(),
		EntityID:   clientID.String(),
		OccurredAt: time.Now(),
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, activities.created, 1)

	created := activities.created[0]
	assert.Equal(t, "Primer contacto", created.Title)
	assert.Equal(t, entity.ActivityTask, created.Type)
	assert.Equal(t, userID, created.UserID)
	require.NotNil(t, created.ClientID)
	assert.Equal(t, clientID, *created.ClientID)
	require.NotNil(t, created.ScheduledAt)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), *created.ScheduledAt, time.Minute)
}

func TestHandlePush_ClosedWonSchedulesContractTask(t *testing.T) {
	activities := &recordingActivityRepo{}
	h := newTestPushHandler(activities)

	userID := uuid.New()
	opportunityID := uuid.New()
	rec := doPush(t, h, pushRequest(t, &service.DomainEvent{
		EventID:  uuid.New().String(),
		Type:     service.EventOpportunityStatusChanged,
		UserID:   userID.String(),
		EntityID: opportunityID.String(),
		Payload:  map[string]any{"from": "negotiation", "to": "closed_won"},
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, activities.created, 1)
	assert.Equal(t, "Enviar contrato", activities.created[0].Title)
	require.NotNil(t, activities.created[0].OpportunityID)
	assert.Equal(t, opportunityID, *activities.created[0].OpportunityID)
}

func TestHandlePush_ClosedLostNeedsNoFollowUp(t *testing.T) {
	activities := &recordingActivityRepo{}
	h := newTestPushHandler(activities)

	rec := doPush(t, h, pushRequest(t, &service.DomainEvent{
		EventID:  uuid.New().String(),
		Type:     service.EventOpportunityStatusChanged,
		UserID:   uuid.New().String(),
		EntityID: uuid.New().String(),
		Payload:  map[string]any{"from": "proposal", "to": "closed_lost"},
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, activities.created)
}

func TestHandlePush_RepositoryFailureAsksForRetry(t *testing.T) {
	activities := &recordingActivityRepo{createErr: context.DeadlineExceeded}
	h := newTestPushHandler(activities)

	rec := doPush(t, h, pushRequest(t, &service.DomainEvent{
		EventID:  uuid.New().String(),
		Type:     service.EventClientCreated,
		UserID:   uuid.New().String(),
		EntityID: uuid.New().String(),
	}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlePush_MalformedEventIsAcknowledged(t *testing.T) {
	activities := &recordingActivityRepo{}
	h := newTestPushHandler(activities)

	var msg PubSubMessage
	msg.Message.Data = "not-base64!!"
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/push", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := doPush(t, h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, activities.created)
}

func TestHandlePush_BadEntityIDIsNotRetried(t *testing.T) {
	activities := &recordingActivityRepo{}
	h := newTestPushHandler(activities)

	rec := doPush(t, h, pushRequest(t, &service.DomainEvent{
		EventID:  uuid.New().String(),
		Type:     service.EventClientCreated,
		UserID:   "not-a-uuid",
		EntityID: uuid.New().String(),
	}))

	// Unparseable IDs can never succeed on redelivery, so the message is
	// acknowledged instead of looping.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, activities.created)
}
