package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "database/sql"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/funcprovider/auth-service/internal/model"
    "github.com/funcprovider/auth-service/internal/repository"
    "github.com/funcprovider/auth-service/internal/utils"
)

// ContextUserKey is the echo.Context key under which the authenticated user
// is stored for downstream middleware and handlers.
const ContextUserKey = "user"

// RequireAuth returns an Echo middleware that validates a Bearer access
// token and resolves the authenticated user.  The token's signature and
// expiry are checked first; the user is then re-fetched by the id embedded
// in the token rather than trusting the token's role or status claims,
// since either can change server-side before the token expires.  Requests
// from non-active accounts are rejected.  Handlers read the resolved user
// via CurrentUser.
func RequireAuth(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()

            u, err := users.GetByID(ctx, claims.UserID)
            if err != nil {
                if err == sql.ErrNoRows {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
            }
            if u.Status != model.StatusActive {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account not activated"})
            }

            c.Set(ContextUserKey, u)
            return next(c)
        }
    }
}

// CurrentUser returns the user resolved by RequireAuth, or false when the
// middleware did not run on this route.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(ContextUserKey).(model.User)
    return u, ok
}
