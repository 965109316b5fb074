// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"crm/internal/delivery/http/middleware"
	"crm/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler        *handler.AuthHandler
	ClientHandler      *handler.ClientHandler
	OpportunityHandler *handler.OpportunityHandler
	ActivityHandler    *handler.ActivityHandler
	DashboardHandler   *handler.DashboardHandler
	PageHandler        *handler.PageHandler

	GuardMiddleware *middleware.GuardMiddleware
	AuthMiddleware  *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	params RouterParams
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{params: params}
}

// RegisterRoutes sets up all the routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth endpoints: credential exchange and session lifecycle. They sit
	// outside the guard; the login page itself is classified, not these.
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/login", r.params.AuthHandler.Login)
		authGroup.POST("/register", r.params.AuthHandler.Register)
		authGroup.POST("/logout", r.params.AuthHandler.Logout)
		authGroup.POST("/refresh", r.params.AuthHandler.Refresh)
		authGroup.POST("/forgot-password", r.params.AuthHandler.ForgotPassword)
		authGroup.POST("/reset-password", r.params.AuthHandler.ResetPassword)
		authGroup.GET("/session", r.params.AuthHandler.Session)
		authGroup.GET("/events", r.params.AuthHandler.Events)
	}

	// Data API: token-authenticated on every request, never redirected.
	apiGroup := e.Group("/api", r.params.AuthMiddleware.Authenticate)
	{
		clients := apiGroup.Group("/clients")
		clients.GET("", r.params.ClientHandler.List)
		clients.POST("", r.params.ClientHandler.Create)
		clients.GET("/:id", r.params.ClientHandler.Get)
		clients.PUT("/:id", r.params.ClientHandler.Update)
		clients.DELETE("/:id", r.params.ClientHandler.Delete)
		clients.GET("/:id/qr", r.params.ClientHandler.QRCode)
		clients.GET("/:id/opportunities", r.params.OpportunityHandler.ListByClient)
		clients.GET("/:id/activities", r.params.ActivityHandler.ListByClient)

		opportunities := apiGroup.Group("/opportunities")
		opportunities.GET("", r.params.OpportunityHandler.List)
		opportunities.GET("/pipeline", r.params.OpportunityHandler.Pipeline)
		opportunities.POST("", r.params.OpportunityHandler.Create)
		opportunities.GET("/:id", r.params.OpportunityHandler.Get)
		opportunities.PUT("/:id", r.params.OpportunityHandler.Update)
		opportunities.DELETE("/:id", r.params.OpportunityHandler.Delete)

		activities := apiGroup.Group("/activities")
		activities.GET("", r.params.ActivityHandler.List)
		activities.POST("", r.params.ActivityHandler.Create)
		activities.GET("/:id", r.params.ActivityHandler.Get)
		activities.PUT("/:id", r.params.ActivityHandler.Update)
		activities.POST("/:id/complete", r.params.ActivityHandler.Complete)
		activities.POST("/:id/reopen", r.params.ActivityHandler.Reopen)
		activities.DELETE("/:id", r.params.ActivityHandler.Delete)

		dashboard := apiGroup.Group("/dashboard")
		dashboard.GET("/stats", r.params.DashboardHandler.Stats)
		dashboard.GET("/activities", r.params.DashboardHandler.RecentActivities)
	}

	// Every remaining GET is a page request: the guard classifies the path,
	// verifies the session when needed and redirects or lets the app shell
	// render.
	e.GET("/*", r.params.PageHandler.Serve, r.params.GuardMiddleware.Guard)
}
