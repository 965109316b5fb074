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

// OpportunityHandler holds dependencies for sales pipeline handlers.
type OpportunityHandler struct {
	uc usecase.OpportunityUsecase
}

// NewOpportunityHandler is the constructor for OpportunityHandler, injected by Fx.
func NewOpportunityHandler(uc usecase.OpportunityUsecase) *OpportunityHandler {
	return &OpportunityHandler{uc: uc}
}

type opportunityRequest struct {
	Title             string     `json:"title" validate:"required"`
	Description       string     `json:"description"`
	Value             string     `json:"value" validate:"omitempty,numeric"`
	Currency          string     `json:"currency" validate:"omitempty,iso4217"`
	Status            string     `json:"status"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate"`
	ClientID          uuid.UUID  `json:"clientId"`
}

func (r *opportunityRequest) toInput() usecase.OpportunityInput {
	return usecase.OpportunityInput{
		Title:             r.Title,
		Description:       r.Description,
		Value:             r.Value,
		Currency:          r.Currency,
		Status:            entity.OpportunityStatus(r.Status),
		ExpectedCloseDate: r.ExpectedCloseDate,
		ClientID:          r.ClientID,
	}
}

// List returns one page of the user's opportunities, highest value first.
func (h *OpportunityHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	list, err := h.uc.ListOpportunities(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newOpportunityListView(list), "")
}

// ListByClient returns all opportunities of one client.
func (h *OpportunityHandler) ListByClient(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	clientID, err := pathID(c)
	if err != nil {
		return err
	}

	opportunities, err := h.uc.ListByClient(c.Request().Context(), clientID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newOpportunityViews(opportunities), "")
}

// Pipeline returns the funnel board: every stage with its opportunities.
func (h *OpportunityHandler) Pipeline(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	stages, err := h.uc.Pipeline(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newPipelineView(stages), "")
}

// Get returns a single opportunity with its client.
func (h *OpportunityHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	opportunityID, err := pathID(c)
	if err != nil {
		return err
	}

	opportunity, err := h.uc.GetOpportunity(c.Request().Context(), opportunityID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newOpportunityView(opportunity), "")
}

// Create handles the opportunity creation request.
func (h *OpportunityHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var input opportunityRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de la oportunidad no válidos")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de la oportunidad no válidos")
	}

	opportunity, err := h.uc.CreateOpportunity(c.Request().Context(), userID, input.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Created(c, newOpportunityView(opportunity), "Oportunidad creada")
}

// Update handles the opportunity update request.
func (h *OpportunityHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	opportunityID, err := pathID(c)
	if err != nil {
		return err
	}

	var input opportunityRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de la oportunidad no válidos")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de la oportunidad no válidos")
	}

	opportunity, err := h.uc.UpdateOpportunity(c.Request().Context(), opportunityID, userID, input.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newOpportunityView(opportunity), "Oportunidad actualizada")
}

// Delete removes an opportunity.
func (h *OpportunityHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	opportunityID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.uc.DeleteOpportunity(c.Request().Context(), opportunityID, userID); err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, nil, "Oportunidad eliminada")
}
