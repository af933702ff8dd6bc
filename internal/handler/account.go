package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/funcprovider/auth-service/internal/model"
	"github.com/funcprovider/auth-service/internal/queue"
	"github.com/funcprovider/auth-service/internal/repository"
	"github.com/funcprovider/auth-service/internal/utils"
)

// verifyCodeTTL bounds the short numeric codes of the verify-password flow.
const verifyCodeTTL = 15 * time.Minute

// enumerationSafeMsg is the single response body for the flows that must
// not reveal whether an account exists.
const enumerationSafeMsg = "If an account with that email exists, a password reset link has been sent."

type verifyReq struct {
	Token string `json:"token"`
}
type emailReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// VerifyEmail redeems an email_verification token and promotes the account
// from pending to active. The token is single-use; a second redemption
// fails like any unknown token.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification token is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Verification.Redeem(ctx, strings.TrimSpace(req.Token), model.TokenEmailVerification)
	if err != nil {
		if err == repository.ErrTokenInvalid {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired verification token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Users.UpdateStatus(ctx, userID, model.StatusActive); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activate account failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified; your account is now active"})
}

// ForgotPassword issues a password_reset token for an existing account and
// queues the reset email. The response is identical whether or not the
// account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"message": enumerationSafeMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	token, err := utils.RandomHex(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	exp := time.Now().UTC().Add(verificationTokenTTL)
	if err := h.Verification.Store(ctx, token, u.ID, model.TokenPasswordReset, exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	h.publishEmail(queue.EmailRequestedEvent{
		To:    email,
		Kind:  queue.EmailPasswordReset,
		Token: token,
		Link:  h.Cfg.BaseURL + "/auth/reset-password?token=" + token,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": enumerationSafeMsg})
}

// ResetPassword redeems a password_reset token, rewrites the password hash
// and revokes every live refresh token for the user, so a reset evicts any
// session an attacker may hold. No authentication is required; the token is
// the authorization.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and new password are required"})
	}
	if !validPassword(req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters with upper, lower and digit"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Verification.Redeem(ctx, strings.TrimSpace(req.Token), model.TokenPasswordReset)
	if err != nil {
		if err == repository.ErrTokenInvalid {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Users.UpdatePassword(ctx, userID, req.Password, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	if err := h.Refresh.RevokeAllForUser(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset; you can now sign in with your new password"})
}

// VerifyPasswordCode starts the short-code variant of the reset flow: any
// previous codes for the user are dropped, a fresh 6-digit code is stored
// under the verify_password purpose and mailed. Response is enumeration
// safe like ForgotPassword.
func (h *AuthHandler) VerifyPasswordCode(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"message": enumerationSafeMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	// only the newest code may remain redeemable
	if err := h.Verification.DeleteForUser(ctx, u.ID, model.TokenVerifyPassword); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
	}

	code, err := utils.RandomCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
	}
	exp := time.Now().UTC().Add(verifyCodeTTL)
	if err := h.Verification.Store(ctx, code, u.ID, model.TokenVerifyPassword, exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
	}

	h.publishEmail(queue.EmailRequestedEvent{
		To:    email,
		Kind:  queue.EmailVerifyCode,
		Token: code,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": enumerationSafeMsg})
}
