package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/task-tracker/internal/access"
	"github.com/iliyamo/task-tracker/internal/handler"
	"github.com/iliyamo/task-tracker/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The /healthz endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account surface: register, login and the
// authenticated /v1/me probe. These endpoints issue and verify JWT
// access tokens; the API-token surface is registered separately.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterTokens registers the opaque API-token endpoints. Minting
// authenticates with username/password in the request body, so that
// route skips token middleware; revoking and listing require a token at
// the EVERYTHING_USER tier or above.
func RegisterTokens(e *echo.Echo, h *handler.TokenHandler, tokens middleware.TokenValidator) {
	e.POST("/v1/token/create", h.Create)

	userTier := []echo.MiddlewareFunc{
		middleware.TokenAuth(tokens, false),
		middleware.RequireLevel(access.EverythingUser),
	}
	e.DELETE("/v1/token/revoke", h.Revoke, userTier...)
	e.GET("/v1/tokens", h.List, userTier...)
}

// RegisterTasks registers the task CRUD and tree endpoints. All routes
// run the token middleware; single-task reads additionally allow
// anonymous subjects, with visibility decided per task in the handler.
// The token middleware always precedes the rate limiter so the limiter
// can key its buckets by the authenticated subject. The limiter and the
// anonymous response cache are passed in so callers can disable either
// by handing a pass-through middleware.
func RegisterTasks(e *echo.Echo, h *handler.TaskHandler, tokens middleware.TokenValidator, rate, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/tasks")

	authed := middleware.TokenAuth(tokens, false)
	anon := middleware.TokenAuth(tokens, true)

	g.GET("", h.List, authed, rate)
	g.GET("/tree", h.Tree, authed, rate)
	g.GET("/:id", h.Get, anon, rate, cache)
	g.POST("", h.Create, authed, middleware.RequireLevel(access.ReadCreate), rate)
	g.PUT("/:id", h.Update, authed, rate)
	g.DELETE("/:id", h.Delete, authed, rate)
}

// RegisterUsers registers user management endpoints behind token auth.
// Per-route authorization (self vs admin) lives in the handlers.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, tokens middleware.TokenValidator, rate echo.MiddlewareFunc) {
	g := e.Group("/v1/users", middleware.TokenAuth(tokens, false), rate)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
