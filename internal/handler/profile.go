package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/funcprovider/auth-service/internal/middleware"
	"github.com/funcprovider/auth-service/internal/model"
	"github.com/funcprovider/auth-service/internal/repository"
)

// ProfileHandler serves the authenticated user's profile and the
// admin-only role management endpoint.
type ProfileHandler struct {
	Users    *repository.UserRepo
	Profiles *repository.ProfileRepo
}

func NewProfileHandler(u *repository.UserRepo, p *repository.ProfileRepo) *ProfileHandler {
	return &ProfileHandler{Users: u, Profiles: p}
}

type profileUpdateReq struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Title     *string `json:"title"`
	Function  *string `json:"function"`
	GeoID     *uint64 `json:"geoId"`
	AvatarID  *uint64 `json:"avatarId"`
	PenName   *string `json:"penName"`
	Location  *string `json:"location"`
}

type changeRoleReq struct {
	UserID uint64 `json:"userId"`
	Role   string `json:"role"`
}

// GetProfile returns the caller's user projection plus profile, or a null
// profile when none has been written yet.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Profiles.Get(ctx, u.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusOK, echo.Map{"user": u, "profile": nil})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u, "profile": p})
}

// UpdateProfile merges the provided fields into the caller's profile and
// upserts the row. Absent fields keep their current values; the row is
// created on first write.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Profiles.Get(ctx, u.ID)
	if err != nil {
		if err != sql.ErrNoRows {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		p = model.Profile{UserID: u.ID}
	}

	if req.FirstName != nil {
		p.FirstName = req.FirstName
	}
	if req.LastName != nil {
		p.LastName = req.LastName
	}
	if req.Title != nil {
		p.Title = req.Title
	}
	if req.Function != nil {
		p.Function = req.Function
	}
	if req.GeoID != nil {
		p.GeoID = req.GeoID
	}
	if req.AvatarID != nil {
		p.AvatarID = req.AvatarID
	}
	if req.PenName != nil {
		p.PenName = req.PenName
	}
	if req.Location != nil {
		p.Location = req.Location
	}

	if err := h.Profiles.Upsert(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated", "profile": p})
}

// ChangeRole sets another user's role. The route is gated by the role
// middleware, so only admins reach this handler.
func (h *ProfileHandler) ChangeRole(c echo.Context) error {
	var req changeRoleReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and role are required"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, req.UserID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.UpdateRole(ctx, req.UserID, req.Role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated", "newRole": req.Role})
}
