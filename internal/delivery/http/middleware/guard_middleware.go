package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"crm/config"
	deliveryctx "crm/internal/delivery/context"
	"crm/internal/delivery/http/guard"
	"crm/internal/domain/service"
	"crm/internal/session"

	"github.com/labstack/echo/v4"
)

// Session cookie names, matching the hosted provider's browser SDK so both
// sides of the stack read the same cookies.
const (
	CookieAccessToken  = "sb-access-token"
	CookieRefreshToken = "sb-refresh-token"
)

// queryParamRedirectTo carries the original path+query across the login
// round trip.
const queryParamRedirectTo = "redirectTo"

// GuardMiddleware is the route-level access gate. It runs once per page
// request, before any handler: it classifies the path, verifies the session
// against the identity provider when the class requires it, and either
// issues a redirect or seeds the per-request auth store and continues.
type GuardMiddleware struct {
	classifier *guard.Classifier
	provider   service.IdentityProvider
	events     service.AuthEventSource
	routes     *config.RoutesConfig
	logger     *slog.Logger
}

// NewGuardMiddleware is the constructor for GuardMiddleware.
func NewGuardMiddleware(classifier *guard.Classifier, provider service.IdentityProvider,
	events service.AuthEventSource, cfg *config.Config, logger *slog.Logger,
) *GuardMiddleware {
	return &GuardMiddleware{
		classifier: classifier,
		provider:   provider,
		events:     events,
		routes:     cfg.Routes,
		logger:     logger,
	}
}

// Guard classifies, verifies and decides redirect-or-continue.
//
// Classification is pure and runs first; the provider round trip happens
// only when a session cookie is present or the route is protected, so
// anonymous visitors never pay a network call for public pages. Protected
// routes fail closed: any verification outcome other than a definite user
// reads as signed out and redirects before the handler runs.
func (m *GuardMiddleware) Guard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqPath := c.Request().URL.Path
		class := m.classifier.Classify(reqPath)

		store := session.NewStore(nil)
		resyncer := session.NewResyncer(store, m.provider, m.events,
			deliveryctx.GetLoggerOrDefault(c.Request().Context(), m.logger))

		ctx := deliveryctx.WithAuthSession(c.Request().Context(), store)
		c.SetRequest(c.Request().WithContext(ctx))

		accessToken := readCookie(c, CookieAccessToken)
		if accessToken != "" || class == guard.ClassProtected {
			if _, err := resyncer.Sync(ctx, accessToken); err != nil {
				return err
			}
		}

		switch class {
		case guard.ClassProtected:
			if !store.IsAuthenticated() {
				return c.Redirect(http.StatusFound, m.loginRedirect(c.Request().URL))
			}
		case guard.ClassAuthOnly:
			if store.IsAuthenticated() {
				target, ok := m.resolveAuthPageTarget(c.QueryParam(queryParamRedirectTo))
				if ok {
					return c.Redirect(http.StatusFound, target)
				}
			}
		case guard.ClassPublic:
			// Continue; the seeded store still lets public pages render the
			// signed-in header when a valid session cookie came along.
		}

		return next(c)
	}
}

// loginRedirect builds /login?redirectTo=<encoded original path+query>.
func (m *GuardMiddleware) loginRedirect(reqURL *url.URL) string {
	original := reqURL.Path
	if reqURL.RawQuery != "" {
		original += "?" + reqURL.RawQuery
	}

	query := url.Values{}
	query.Set(queryParamRedirectTo, original)

	return "/login?" + query.Encode()
}

// resolveAuthPageTarget decides where an already-authenticated visitor of an
// auth page goes. Returns ok=false when the visitor should stay on the page,
// which only happens without a redirectTo and with the always-redirect
// switch off.
func (m *GuardMiddleware) resolveAuthPageTarget(redirectTo string) (string, bool) {
	if redirectTo == "" {
		if !m.routes.AlwaysRedirectAuthenticatedFromAuthPages {
			return "", false
		}

		return m.routes.DefaultLanding, true
	}

	return m.sanitizeRedirectTarget(redirectTo), true
}

// sanitizeRedirectTarget keeps the redirect inside the application. Anything
// absolute, protocol-relative or pointing back at an auth page falls back to
// the default landing path, so a crafted redirectTo can neither leak the
// user off-site nor build a redirect loop.
func (m *GuardMiddleware) sanitizeRedirectTarget(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return m.routes.DefaultLanding
	}
	if strings.ContainsAny(target, "\\\r\n") {
		return m.routes.DefaultLanding
	}

	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return m.routes.DefaultLanding
	}
	if m.classifier.Classify(parsed.Path) == guard.ClassAuthOnly {
		return m.routes.DefaultLanding
	}

	return target
}

func readCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}

	return cookie.Value
}
