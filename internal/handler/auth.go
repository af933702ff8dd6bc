package handler

import (
    "context"
    "database/sql"
    "log"
    "net/http"
    "net/mail"
    "strings"
    "time"
    "unicode"

    "github.com/labstack/echo/v4"

    "github.com/funcprovider/auth-service/internal/config"
    "github.com/funcprovider/auth-service/internal/middleware"
    "github.com/funcprovider/auth-service/internal/model"
    "github.com/funcprovider/auth-service/internal/queue"
    "github.com/funcprovider/auth-service/internal/repository"
    queue_publisher "github.com/funcprovider/auth-service/internal/service"
    "github.com/funcprovider/auth-service/internal/utils"
)

// refreshCookieName is the cookie carrying the opaque refresh token.
const refreshCookieName = "refreshToken"

// verificationTokenTTL is how long email verification and password reset
// tokens stay redeemable.
const verificationTokenTTL = 24 * time.Hour

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg          config.Config
	Users        *repository.UserRepo
	Profiles     *repository.ProfileRepo
	Refresh      *repository.RefreshTokenRepo
	Verification *repository.VerificationTokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, p *repository.ProfileRepo, r *repository.RefreshTokenRepo, v *repository.VerificationTokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Profiles: p, Refresh: r, Verification: v}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type authResp struct {
	AccessToken string     `json:"accessToken"`
	User        model.User `json:"user"`
}

// ----- cookie helpers -----

func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    raw,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.Cfg.Env == "prod",
		MaxAge:   int(time.Until(exp) / time.Second),
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.Cfg.Env == "prod",
		MaxAge:   -1,
	})
}

// refreshTokenFrom reads the refresh token from the cookie or, failing
// that, from the request body.
func refreshTokenFrom(c echo.Context) string {
	if ck, err := c.Cookie(refreshCookieName); err == nil && ck.Value != "" {
		return strings.TrimSpace(ck.Value)
	}
	var req refreshReq
	_ = c.Bind(&req)
	return strings.TrimSpace(req.RefreshToken)
}

// issueSession mints an access token and a fresh refresh token for the
// user, persists the refresh token hash, and sets the refresh cookie.
func (h *AuthHandler) issueSession(ctx context.Context, c echo.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Refresh.Store(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	h.setRefreshCookie(c, refresh.Raw, refresh.Exp)
	return authResp{AccessToken: access.Token, User: u}, nil
}

// validPassword enforces the password policy: at least 8 characters with
// upper, lower and digit.
func validPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func validEmail(email string) bool {
	a, err := mail.ParseAddress(email)
	return err == nil && a.Address == email
}

// Register: create a pending user with a profile stub and queue a
// verification email. The notification is best-effort; only the data-layer
// outcome decides the response.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	if !validEmail(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email format"})
	}
	if !validPassword(req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters with upper, lower and digit"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	// every account gets a profile row, with or without names
	p := model.Profile{UserID: uid}
	if first := strings.TrimSpace(req.FirstName); first != "" {
		p.FirstName = &first
	}
	if last := strings.TrimSpace(req.LastName); last != "" {
		p.LastName = &last
	}
	if err := h.Profiles.Upsert(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create profile failed"})
	}

	token, err := utils.RandomHex(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	exp := time.Now().UTC().Add(verificationTokenTTL)
	if err := h.Verification.Store(ctx, token, uid, model.TokenEmailVerification, exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	h.publishEmail(queue.EmailRequestedEvent{
		To:    req.Email,
		Kind:  queue.EmailVerification,
		Token: token,
		Link:  h.Cfg.BaseURL + "/auth/verify?token=" + token,
	})

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered; check your email for the verification link",
		"user":    u,
	})
}

// Login: verify credentials, gate on account status, return a new pair.
// Pending and suspended accounts surface distinct error codes; both are
// post-authentication states, so disclosing them leaks nothing.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	switch u.Status {
	case model.StatusPending:
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "account not verified",
			"code":  "ACCOUNT_PENDING",
		})
	case model.StatusSuspended:
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "account suspended",
			"code":  "ACCOUNT_SUSPENDED",
		})
	}

	resp, err := h.issueSession(ctx, c, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshToken: rotate the presented refresh token for a new pair. The
// claim is atomic, so a replayed token always fails even when two refreshes
// race.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	raw := refreshTokenFrom(c)
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token not provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Refresh.Claim(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if err == repository.ErrTokenInvalid {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if u.Status != model.StatusActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account not active"})
	}

	resp, err := h.issueSession(ctx, c, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout: revoke the presented refresh token and clear the cookie.
// Revoking an unknown token is not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := refreshTokenFrom(c)
	if raw != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Refresh.Revoke(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me: return the authenticated user's projection (protected).
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// publishEmail queues a notification without blocking the request; the
// publisher already logs its own failures.
func (h *AuthHandler) publishEmail(ev queue.EmailRequestedEvent) {
	ev.RequestedAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := queue_publisher.PublishEmailRequested(ctx, ev); err != nil {
			log.Printf("auth: email event for %s dropped: %v", ev.To, err)
		}
	}()
}
