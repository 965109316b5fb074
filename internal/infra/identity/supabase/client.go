// Package supabase implements the identity provider boundary against the
// Supabase Auth (GoTrue) HTTP API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crm/config"
	"crm/internal/domain/entity"
	domainerrors "crm/internal/domain/errors"
	"crm/internal/domain/service"
	"crm/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const authPath = "/auth/v1"

// Client talks to the Supabase Auth REST endpoints. Every verification is a
// round trip; the only local inspection is an advisory expiry peek that
// short-circuits tokens which the provider would reject anyway.
type Client struct {
	baseURL       string
	anonKey       string
	verifyTimeout time.Duration
	httpClient    *http.Client
	logger        *slog.Logger
	events        *EventBroadcaster
	jwtParser     *jwt.Parser
}

// NewClient creates a Supabase auth client from configuration. It fails fast
// on a missing project URL or anon key so a misconfigured deployment never
// silently falls open.
func NewClient(cfg *config.SupabaseConfig, logger *slog.Logger, events *EventBroadcaster) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("supabase: project URL is required")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, errors.New("supabase: anon key is required")
	}

	timeout := cfg.VerifyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		anonKey:       cfg.AnonKey,
		verifyTimeout: timeout,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
		events:        events,
		jwtParser:     jwt.NewParser(jwt.WithoutClaimsValidation()),
	}, nil
}

// userPayload is the GoTrue user object, reduced to what the application
// reads.
type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (p *userPayload) toEntity() (*entity.AuthUser, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, errors.Wrap(err, "supabase: user id is not a UUID")
	}

	return &entity.AuthUser{
		ID:       id,
		Email:    p.Email,
		Metadata: p.UserMetadata,
	}, nil
}

// sessionPayload is the GoTrue token grant response.
type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         *userPayload `json:"user"`
}

func (p *sessionPayload) toSession() (*service.AuthSession, error) {
	session := &service.AuthSession{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    p.ExpiresIn,
	}
	if p.User != nil && p.User.ID != "" {
		user, err := p.User.toEntity()
		if err != nil {
			return nil, err
		}
		session.User = user
	}

	return session, nil
}

// errorPayload covers the error body shapes GoTrue has used across versions.
type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (p *errorPayload) code() string {
	if p.ErrorCode != "" {
		return p.ErrorCode
	}

	return p.Error
}

func (p *errorPayload) description() string {
	for _, s := range []string{p.ErrorDescription, p.Msg, p.Message, p.Error} {
		if s != "" {
			return s
		}
	}

	return "unknown provider error"
}

// VerifyToken asks the provider who owns the access token. Any failure mode
// that is not a definite "yes" collapses into ErrNoSession for the caller:
// a guard that cannot verify must treat the visitor as signed out.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (*entity.AuthUser, error) {
	if accessToken == "" {
		return nil, service.ErrNoSession
	}
	if c.tokenExpired(accessToken) {
		return nil, service.ErrNoSession
	}

	ctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Outage or timeout: fail closed, but keep the cause for the log.
		return nil, errors.Wrapf(service.ErrNoSession, "verification round trip failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload userPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, errors.Wrapf(service.ErrNoSession, "decoding user response: %v", err)
		}

		return payload.toEntity()
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, service.ErrNoSession
	default:
		return nil, errors.Wrapf(service.ErrNoSession, "provider returned status %d", resp.StatusCode)
	}
}

// SignInWithPassword exchanges credentials for a session and broadcasts a
// SIGNED_IN event on success.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*service.AuthSession, error) {
	body := map[string]string{"email": email, "password": password}

	session, err := c.tokenGrant(ctx, "password", body)
	if err != nil {
		return nil, err
	}

	c.publish(service.AuthEvent{Type: service.AuthEventSignedIn, User: session.User})

	return session, nil
}

// RefreshSession exchanges a refresh token for a fresh session and
// broadcasts a TOKEN_REFRESHED event on success.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*service.AuthSession, error) {
	body := map[string]string{"refresh_token": refreshToken}

	session, err := c.tokenGrant(ctx, "refresh_token", body)
	if err != nil {
		return nil, err
	}

	c.publish(service.AuthEvent{Type: service.AuthEventTokenRefreshed, User: session.User})

	return session, nil
}

// SignUp registers a new account. When email confirmation is enabled the
// returned session carries no tokens yet.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*service.AuthSession, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	resp, err := c.do(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapError(resp)
	}

	// GoTrue answers a signup either with a session or a bare user object,
	// depending on whether confirmation is required.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading signup response")
	}

	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding signup response")
	}
	if payload.AccessToken == "" && payload.User == nil {
		var user userPayload
		if err := json.Unmarshal(raw, &user); err == nil && user.ID != "" {
			payload.User = &user
		}
	}

	session, err := payload.toSession()
	if err != nil {
		return nil, err
	}
	if session.AccessToken != "" {
		c.publish(service.AuthEvent{Type: service.AuthEventSignedIn, User: session.User})
	}

	return session, nil
}

// SignOut revokes the session behind the token and broadcasts SIGNED_OUT.
// The event goes out even when revocation fails: local listeners must drop
// the session regardless.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	defer c.publish(service.AuthEvent{Type: service.AuthEventSignedOut})

	resp, err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return errors.Errorf("supabase: logout returned status %d", resp.StatusCode)
	}

	return nil
}

// UpdatePassword sets a new password on the account behind the token. The
// reset flow calls it with the access token minted by the recovery link.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	resp, err := c.do(ctx, http.MethodPut, "/user", accessToken, map[string]string{"password": newPassword})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.mapError(resp)
	}

	return nil
}

// ResetPasswordForEmail triggers the provider's recovery email.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	resp, err := c.do(ctx, http.MethodPost, "/recover", "", map[string]string{"email": email})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.mapError(resp)
	}

	return nil
}

func (c *Client) tokenGrant(ctx context.Context, grantType string, body any) (*service.AuthSession, error) {
	path := "/token?grant_type=" + url.QueryEscape(grantType)

	resp, err := c.do(ctx, http.MethodPost, path, "", body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapError(resp)
	}

	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decoding token response")
	}

	return payload.toSession()
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return nil, err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrAuthProviderUnavailable, err.Error())
	}

	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+authPath+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "building provider request")
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// mapError translates a GoTrue error response into the application's error
// taxonomy so handlers render localized messages instead of provider text.
func (c *Client) mapError(resp *http.Response) error {
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	code := payload.code()
	description := payload.description()

	c.logger.Debug("Identity provider rejected the request",
		slog.Int("status", resp.StatusCode),
		slog.String("code", code),
		slog.String("description", description))

	switch {
	case code == "invalid_credentials" || code == "invalid_grant":
		return domainerrors.ErrInvalidCredentials
	case code == "email_not_confirmed":
		return domainerrors.ErrEmailNotConfirmed
	case code == "user_already_exists" || code == "email_exists" || resp.StatusCode == http.StatusUnprocessableEntity && strings.Contains(description, "already registered"):
		return domainerrors.ErrUserAlreadyExists
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(description), "invalid login credentials"):
		return domainerrors.ErrInvalidCredentials
	case resp.StatusCode >= http.StatusInternalServerError:
		return domainerrors.ErrAuthProviderUnavailable
	default:
		return errors.Errorf("supabase: %s (status %d)", description, resp.StatusCode)
	}
}

// tokenExpired peeks at the JWT exp claim without verifying the signature.
// It is purely an optimization for the obvious case; a parse failure or a
// live-looking token still goes through the authoritative round trip.
func (c *Client) tokenExpired(accessToken string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := c.jwtParser.ParseUnverified(accessToken, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}

func (c *Client) publish(event service.AuthEvent) {
	if c.events != nil {
		c.events.Publish(event)
	}
}
