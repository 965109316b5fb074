package handler

import (
	"time"

	"crm/internal/delivery/http/response"
	"crm/internal/domain/entity"
	"crm/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ActivityHandler holds dependencies for interaction tracking handlers.
type ActivityHandler struct {
	uc usecase.ActivityUsecase
}

// NewActivityHandler is the constructor for ActivityHandler, injected by Fx.
func NewActivityHandler(uc usecase.ActivityUsecase) *ActivityHandler {
	return &ActivityHandler{uc: uc}
}

type activityRequest struct {
	Title         string     `json:"title" validate:"required"`
	Description   string     `json:"description"`
	Type          string     `json:"type" validate:"required"`
	ScheduledAt   *time.Time `json:"scheduledAt"`
	ClientID      *uuid.UUID `json:"clientId"`
	OpportunityID *uuid.UUID `json:"opportunityId"`
}

func (r *activityRequest) toInput() usecase.ActivityInput {
	return usecase.ActivityInput{
		Title:         r.Title,
		Description:   r.Description,
		Type:          entity.ActivityType(r.Type),
		ScheduledAt:   r.ScheduledAt,
		ClientID:      r.ClientID,
		OpportunityID: r.OpportunityID,
	}
}

// List returns the user's most recent activities.
func (h *ActivityHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	limit, _ := pagination(c)
	activities, err := h.uc.ListRecent(c.Request().Context(), userID, limit)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newActivityViews(activities), "")
}

// ListByClient returns all activities linked to one client.
func (h *ActivityHandler) ListByClient(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	clientID, err := pathID(c)
	if err != nil {
		return err
	}

	activities, err := h.uc.ListByClient(c.Request().Context(), clientID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newActivityViews(activities), "")
}

// Get returns a single activity.
func (h *ActivityHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	activityID, err := pathID(c)
	if err != nil {
		return err
	}

	activity, err := h.uc.GetActivity(c.Request().Context(), activityID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newActivityView(activity), "")
}

// Create handles the activity creation request.
func (h *ActivityHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var input activityRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de la actividad no válidos")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de la actividad no válidos")
	}

	activity, err := h.uc.CreateActivity(c.Request().Context(), userID, input.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Created(c, newActivityView(activity), "Actividad creada")
}

// Update handles the activity update request.
func (h *ActivityHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	activityID, err := pathID(c)
	if err != nil {
		return err
	}

	var input activityRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de la actividad no válidos")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de la actividad no válidos")
	}

	activity, err := h.uc.UpdateActivity(c.Request().Context(), activityID, userID, input.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newActivityView(activity), "Actividad actualizada")
}

// Complete marks an activity done.
func (h *ActivityHandler) Complete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	activityID, err := pathID(c)
	if err != nil {
		return err
	}

	activity, err := h.uc.CompleteActivity(c.Request().Context(), activityID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newActivityView(activity), "Actividad completada")
}

// Reopen puts a completed activity back on the task list.
func (h *ActivityHandler) Reopen(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	activityID, err := pathID(c)
	if err != nil {
		return err
	}

	activity, err := h.uc.ReopenActivity(c.Request().Context(), activityID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newActivityView(activity), "Actividad reabierta")
}

// Delete removes an activity.
func (h *ActivityHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	activityID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.uc.DeleteActivity(c.Request().Context(), activityID, userID); err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, nil, "Actividad eliminada")
}
