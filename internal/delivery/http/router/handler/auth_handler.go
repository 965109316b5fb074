package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"crm/config"
	deliveryctx "crm/internal/delivery/context"
	"crm/internal/delivery/http/middleware"
	"crm/internal/delivery/http/response"
	"crm/internal/domain/constants"
	"crm/internal/domain/service"
	"crm/internal/session"
	"crm/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// refreshCookieMaxAge outlives the access token so the session survives
// browser restarts; the provider enforces the real refresh token lifetime.
const refreshCookieMaxAge = 30 * 24 * time.Hour

// AuthHandler serves the authentication endpoints: credential exchange,
// session cookies, the re-sync endpoint the client polls after a page
// becomes interactive, and the server-sent auth event stream.
type AuthHandler struct {
	uc       usecase.AuthUsecase
	provider service.IdentityProvider
	events   service.AuthEventSource
	logger   *slog.Logger
	secure   bool
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, provider service.IdentityProvider,
	events service.AuthEventSource, cfg *config.Config, logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		uc:       uc,
		provider: provider,
		events:   events,
		logger:   logger,
		secure:   cfg.Env.Env == constants.EnvProd,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// Login handles the credential sign-in request and sets the session cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var input loginRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de acceso no válidos")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de acceso no válidos")
	}

	authSession, err := h.uc.Login(c.Request().Context(), input.Email, input.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	h.setSessionCookies(c, authSession)

	return response.OK(c, sessionView{User: newAuthUserView(authSession.User)}, "Sesión iniciada")
}

// Register handles the account creation request. When the provider requires
// email confirmation the response carries no session cookies and flags the
// pending state instead.
func (h *AuthHandler) Register(c echo.Context) error {
	var input registerRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de registro no válidos")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Datos de registro no válidos")
	}

	authSession, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if authSession.AccessToken == "" {
		return response.Created(c, sessionView{
			User:                newAuthUserView(authSession.User),
			PendingConfirmation: true,
		}, "Cuenta creada, revisa tu correo para confirmarla")
	}

	h.setSessionCookies(c, authSession)

	return response.Created(c, sessionView{User: newAuthUserView(authSession.User)}, "Cuenta creada")
}

// Logout revokes the session and clears the cookies. It always succeeds
// from the caller's point of view: a provider failure must never leave the
// user trapped in an authenticated state.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.uc.Logout(c.Request().Context(), readCookieValue(c, middleware.CookieAccessToken))
	h.clearSessionCookies(c)

	return response.OK(c, nil, "Sesión cerrada")
}

// Refresh exchanges the refresh cookie for a fresh session.
func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken := readCookieValue(c, middleware.CookieRefreshToken)

	authSession, err := h.uc.RefreshSession(c.Request().Context(), refreshToken)
	if err != nil {
		h.clearSessionCookies(c)

		return errors.WithStack(err)
	}

	h.setSessionCookies(c, authSession)

	return response.OK(c, sessionView{User: newAuthUserView(authSession.User)}, "Sesión renovada")
}

// ForgotPassword triggers the provider's recovery email. The response is
// identical whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var input forgotPasswordRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Correo no válido")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Correo no válido")
	}

	if err := h.uc.RequestPasswordReset(c.Request().Context(), input.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, nil, "Si la cuenta existe, recibirás un correo de recuperación")
}

// ResetPassword sets a new password using the recovery session minted by
// the emailed link.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var input resetPasswordRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Contraseña no válida")
	}
	if err := c.Validate(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "La contraseña debe tener al menos 8 caracteres")
	}

	accessToken := readCookieValue(c, middleware.CookieAccessToken)
	if err := h.uc.ResetPassword(c.Request().Context(), accessToken, input.Password); err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, nil, "Contraseña actualizada")
}

// Session is the re-sync endpoint. The client calls it once the page is
// interactive (and on client-side navigations) to reconcile its local auth
// state with the provider. The answer is authoritative: verification failed
// or timed out reads as signed out.
func (h *AuthHandler) Session(c echo.Context) error {
	store := session.NewStore(nil)
	resyncer := session.NewResyncer(store, h.provider, h.events,
		deliveryctx.GetLoggerOrDefault(c.Request().Context(), h.logger))

	snapshot, err := resyncer.Sync(c.Request().Context(), readCookieValue(c, middleware.CookieAccessToken))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, map[string]any{
		"authenticated": snapshot.IsAuthenticated,
		"user":          newAuthUserView(snapshot.User),
	}, "")
}

// Events streams auth state changes as server-sent events so open tabs
// learn about sign-ins and sign-outs without polling. The stream ends when
// the client disconnects.
func (h *AuthHandler) Events(c echo.Context) error {
	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: {\"type\":%q}\n\n", event.Type, event.Type); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func (h *AuthHandler) setSessionCookies(c echo.Context, authSession *service.AuthSession) {
	c.SetCookie(h.sessionCookie(middleware.CookieAccessToken, authSession.AccessToken,
		time.Duration(authSession.ExpiresIn)*time.Second))
	c.SetCookie(h.sessionCookie(middleware.CookieRefreshToken, authSession.RefreshToken,
		refreshCookieMaxAge))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	c.SetCookie(h.sessionCookie(middleware.CookieAccessToken, "", -time.Second))
	c.SetCookie(h.sessionCookie(middleware.CookieRefreshToken, "", -time.Second))
}

func (h *AuthHandler) sessionCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func readCookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}

	return cookie.Value
}
