package handler

import (
	"net/http"
	"strconv"

	"crm/internal/delivery/http/middleware"
	"crm/internal/delivery/http/response"
	domainerrors "crm/internal/domain/errors"
	"crm/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ClientHandler holds dependencies for client management handlers.
type ClientHandler struct {
	uc usecase.ClientUsecase
}

// NewClientHandler is the constructor for ClientHandler, injected by Fx.
func NewClientHandler(uc usecase.ClientUsecase) *ClientHandler {
	return &ClientHandler{uc: uc}
}

type clientRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

func (r *clientRequest) toInput() usecase.ClientInput {
	return usecase.ClientInput{
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Company:    r.Company,
		Address:    r.Address,
		City:       r.City,
		Country:    r.Country,
		PostalCode: r.PostalCode,
	}
}

// List returns one page of the user's clients.
func (h *ClientHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	list, err := h.uc.ListClients(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newClientListView(list), "")
}

// Get returns a client with its recent opportunities and activities.
func (h *ClientHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	clientID, err := pathID(c)
	if err != nil {
		return err
	}

	client, err := h.uc.GetClient(c.Request().Context(), clientID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newClientView(client), "")
}

// Create handles the client creation request.
func (h *ClientHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var input clientRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos del cliente no válidos")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos del cliente no válidos")
	}

	client, err := h.uc.CreateClient(c.Request().Context(), userID, input.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Created(c, newClientView(client), "Cliente creado")
}

// Update handles the client update request.
func (h *ClientHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	clientID, err := pathID(c)
	if err != nil {
		return err
	}

	var input clientRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos del cliente no válidos")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos del cliente no válidos")
	}

	client, err := h.uc.UpdateClient(c.Request().Context(), clientID, userID, input.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, newClientView(client), "Cliente actualizado")
}

// Delete removes a client and everything hanging off it.
func (h *ClientHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	clientID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.uc.DeleteClient(c.Request().Context(), clientID, userID); err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, nil, "Cliente eliminado")
}

// QRCode answers with a PNG QR code linking to the client's page.
func (h *ClientHandler) QRCode(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	clientID, err := pathID(c)
	if err != nil {
		return err
	}

	png, err := h.uc.GenerateClientQR(c.Request().Context(), clientID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// currentUserID reads the account ID set by the auth middleware. The error
// path only triggers when a route was mounted without Authenticate.
func currentUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, domainerrors.ErrSessionExpired
	}

	return userID, nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails("invalid id: " + c.Param("id"))
	}

	return id, nil
}

// pagination reads limit/offset query parameters, leaving the defaults to
// the use case when absent or malformed.
func pagination(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))

	return limit, offset
}
