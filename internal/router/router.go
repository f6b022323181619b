package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-records/internal/handler"
    "github.com/iliyamo/student-records/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication or
// repositories.  Currently that is just the health check used by load
// balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterStudents registers the student record endpoints.  Reads sit
// behind the response cache; writes are uncached and the handler
// invalidates the affected entry itself.
func RegisterStudents(e *echo.Echo, h *handler.StudentHandler, cache echo.MiddlewareFunc) {
    e.POST("/v1/students", h.Create)
    e.GET("/v1/students/:id", h.Get, cache)
    e.PUT("/v1/students/:id", h.Update)
    e.GET("/v1/students/:id/history", h.History)
}

// RegisterSubmissions registers the public submission log.  The create
// endpoint accepts an optional bearer token (to link the submission to
// a user identity) and is rate limited; the read endpoints are cached.
func RegisterSubmissions(e *echo.Echo, h *handler.SubmissionHandler, optJWT, limiter, cache echo.MiddlewareFunc) {
    e.POST("/v1/submissions", h.Create, optJWT, limiter)
    e.GET("/v1/submissions", h.List, cache)
    e.GET("/v1/submissions/:id", h.Get, cache)
}

// RegisterIdentity registers the session upsert and claims echo
// endpoints.  Both require a valid bearer token.
func RegisterIdentity(e *echo.Echo, h *handler.IdentityHandler, jwtSecret string) {
    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    auth.POST("/auth/session", h.PostSession)
    auth.GET("/me", h.Me)
}

// RegisterAdmin registers the admin submission views behind JWT
// authentication and the ADMIN role gate.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
    admin := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))
    admin.GET("/submissions", h.ListSubmissions)
    admin.GET("/submissions/:id", h.GetSubmission)
}
