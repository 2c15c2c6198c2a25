// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/greenloop/ewaste-pickup/internal/handler"
	"github.com/greenloop/ewaste-pickup/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication. Currently only
// the health check used by load balancers and uptime monitors.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers account routes. Token issuing endpoints live under
// /v1/auth and need no session; profile endpoints live under /v1 behind the
// JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the presented refresh token; the old one is revoked.
	g.POST("/refresh", a.Refresh)
	// Logout takes the refresh token in the body, so no JWT is required.
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("user", "recycler", "admin"))
	auth.GET("/me", a.Me)
	auth.PATCH("/me", a.UpdateMe)
}

// RegisterRequests registers the pickup request lifecycle routes. Creating
// and listing own requests is open to every authenticated account; the
// queue, accept and complete operations are restricted to recyclers.
func RegisterRequests(e *echo.Echo, h *handler.RequestHandler, jwtSecret string) {
	g := e.Group("/v1/requests")
	g.Use(middleware.JWTAuth(jwtSecret))

	submit := g.Group("")
	submit.Use(middleware.RequireRole("user", "recycler", "admin"))
	submit.POST("", h.Create)
	submit.GET("/mine", h.ListMine)

	work := g.Group("")
	work.Use(middleware.RequireRole("recycler"))
	work.GET("/queue", h.Queue)
	work.PATCH("/:id/accept", h.Accept)
	work.PATCH("/:id/complete", h.Complete)
}

// RegisterRecyclers registers recycler profile routes plus the public
// directory. The directory is read-heavy and changes rarely, so it runs
// behind the response cache when one is provided.
func RegisterRecyclers(e *echo.Echo, h *handler.RecyclerHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/v1/recyclers", h.Directory, cache)
	} else {
		e.GET("/v1/recyclers", h.Directory)
	}

	g := e.Group("/v1/recyclers")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("user", "recycler", "admin"))
	g.POST("", h.Register)
	g.GET("/me", h.Me)
	g.PATCH("/me", h.UpdateServices)
}
