package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/funcprovider/auth-service/internal/handler"
	"github.com/funcprovider/auth-service/internal/middleware"
	"github.com/funcprovider/auth-service/internal/model"
	"github.com/funcprovider/auth-service/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires all authentication routes.  Unauthenticated session
// operations live under /v1/auth and run through the rate limiter;
// protected endpoints live under /v1 behind the Bearer middleware, which
// re-fetches the user and requires an active account.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, s *handler.SocialHandler, p *handler.ProfileHandler, users *repository.UserRepo, jwtSecret string, limiter echo.MiddlewareFunc) {
	// Public session operations: registration, credential login, token
	// exchange and the out-of-band verification flows.  All of them are
	// brute-forceable, so the group carries the token-bucket limiter.
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token: the presented token is atomically revoked
	// and a new pair is issued.
	g.POST("/refresh", a.RefreshToken)
	// Accepts the refresh token from cookie or body; unknown tokens still
	// clear the cookie so logout is idempotent.
	g.POST("/logout", a.Logout)
	g.POST("/verify", a.VerifyEmail)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)
	g.POST("/verify-password", a.VerifyPasswordCode)

	// Browser OAuth dance: start redirects to the provider's consent page,
	// the callback exchanges the returned code and logs the user in.
	g.GET("/:provider", s.Start)
	g.GET("/:provider/callback", s.Callback)
	// Apple posts its callback (response_mode=form_post).
	g.POST("/:provider/callback", s.Callback)

	// Protected endpoints.  RequireAuth validates the Bearer token and
	// resolves the current user; handlers never trust token claims for
	// anything beyond locating the account.
	auth := e.Group("/v1")
	auth.Use(middleware.RequireAuth(jwtSecret, users))
	auth.GET("/me", a.Me)
	auth.GET("/user/profile", p.GetProfile)
	auth.PUT("/user/profile", p.UpdateProfile)
	// Role changes are an administrative operation; the role middleware
	// checks the caller's current role, not the token claim.
	auth.PUT("/user/change-role", p.ChangeRole, middleware.RequireRole(model.RoleAdmin))
}
