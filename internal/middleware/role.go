package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user holds one of the specified roles.  It reads the user
// resolved by RequireAuth, so the check runs against the account's current
// role in the database and not the role embedded in the access token.  If
// the role is not in the allowed set the request is aborted with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant‑time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, ok := CurrentUser(c)
            if !ok || !allowed[u.Role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
            }
            return next(c)
        }
    }
}
