package handler

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/funcprovider/auth-service/internal/config"
	"github.com/funcprovider/auth-service/internal/model"
	"github.com/funcprovider/auth-service/internal/provider"
	"github.com/funcprovider/auth-service/internal/repository"
	"github.com/funcprovider/auth-service/internal/utils"
)

// SocialHandler drives the browser OAuth dance: a start endpoint that
// redirects to the provider with a CSRF state cookie, and a callback that
// exchanges the returned code for a normalized identity and logs the user
// in. The one-shot base64 payload on the final redirect is a boundary
// convention for the browser client, not a persisted format.
type SocialHandler struct {
	Cfg       config.Config
	Auth      *AuthHandler
	Users     *repository.UserRepo
	Profiles  *repository.ProfileRepo
	Providers provider.Registry
}

func NewSocialHandler(cfg config.Config, a *AuthHandler, u *repository.UserRepo, p *repository.ProfileRepo, reg provider.Registry) *SocialHandler {
	return &SocialHandler{Cfg: cfg, Auth: a, Users: u, Profiles: p, Providers: reg}
}

func stateCookieName(providerName string) string { return providerName + "_oauth_state" }

func (h *SocialHandler) errorRedirect(c echo.Context, code string) error {
	return c.Redirect(http.StatusFound, h.Cfg.BaseURL+"/auth/sign-in?error="+url.QueryEscape(code))
}

func (h *SocialHandler) callbackURI(providerName string) string {
	return h.Cfg.BaseURL + "/v1/auth/" + providerName + "/callback"
}

// Start redirects to the provider's consent screen with a fresh state
// value pinned in a short-lived cookie.
func (h *SocialHandler) Start(c echo.Context) error {
	name := c.Param("provider")
	p, ok := h.Providers.Lookup(name)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	state, err := utils.RandomHex(16)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue state failed"})
	}

	authURL, err := p.AuthorizeURL(state, h.callbackURI(name))
	if err != nil {
		log.Printf("social: %s start rejected: %v", name, err)
		return h.errorRedirect(c, name+"_config")
	}

	// SameSite=Lax so the cookie survives the provider's cross-site redirect
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName(name),
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Env == "prod",
		MaxAge:   600,
	})
	return c.Redirect(http.StatusFound, authURL)
}

// Callback verifies the state cookie, exchanges the authorization code,
// finds or creates the local user, and finishes with login's token
// issuance tail. All failures redirect to the sign-in page with an error
// code; nothing provider-specific leaks past this handler.
func (h *SocialHandler) Callback(c echo.Context) error {
	name := c.Param("provider")
	p, ok := h.Providers.Lookup(name)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	// Apple posts the callback (response_mode=form_post); the others use
	// query parameters. FormValue covers both.
	if errParam := c.FormValue("error"); errParam != "" {
		return h.errorRedirect(c, name+"_"+errParam)
	}
	code := c.FormValue("code")
	state := c.FormValue("state")
	if code == "" || state == "" {
		return h.errorRedirect(c, name+"_invalid_response")
	}

	ck, err := c.Cookie(stateCookieName(name))
	if err != nil || ck.Value == "" || ck.Value != state {
		return h.errorRedirect(c, name+"_state_mismatch")
	}
	// one-shot: clear the state cookie regardless of outcome
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName(name),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Env == "prod",
		MaxAge:   -1,
	})

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	identity, err := p.Exchange(ctx, code, h.callbackURI(name))
	if err != nil {
		log.Printf("social: %s exchange failed: %v", name, err)
		switch err {
		case provider.ErrNotConfigured:
			return h.errorRedirect(c, name+"_config")
		case provider.ErrEmailUnavailable:
			return h.errorRedirect(c, name+"_email_missing")
		}
		return h.errorRedirect(c, name+"_token_error")
	}

	u, prof, err := h.findOrCreate(ctx, identity)
	if err != nil {
		if err == errAccountSuspended {
			return h.errorRedirect(c, "account_suspended")
		}
		log.Printf("social: %s sign-in failed: %v", name, err)
		return h.errorRedirect(c, name+"_unknown")
	}

	resp, err := h.Auth.issueSession(ctx, c, u)
	if err != nil {
		log.Printf("social: %s session issue failed: %v", name, err)
		return h.errorRedirect(c, name+"_unknown")
	}

	payload := echo.Map{
		"accessToken": resp.AccessToken,
		"user":        u,
		"profile":     prof,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return h.errorRedirect(c, name+"_unknown")
	}
	encoded := base64.StdEncoding.EncodeToString(buf)
	return c.Redirect(http.StatusFound,
		h.Cfg.BaseURL+"/auth/social-callback?provider="+url.QueryEscape(name)+"&data="+url.QueryEscape(encoded))
}

// errAccountSuspended keeps suspended accounts locked out of social login;
// only pending accounts are promoted (the provider vouched for the email).
var errAccountSuspended = errors.New("account suspended")

// findOrCreate resolves the identity's email to a local user, creating an
// auto-active account with a placeholder password hash when none exists,
// and upserts profile name fields when the provider supplied them.
func (h *SocialHandler) findOrCreate(ctx context.Context, id provider.Identity) (model.User, *model.Profile, error) {
	u, err := h.Users.GetByEmail(ctx, id.Email)
	switch {
	case err == sql.ErrNoRows:
		uid, err := h.Users.CreateSocial(ctx, id.Email, h.Cfg.BcryptCost)
		if err != nil {
			return model.User{}, nil, err
		}
		u, err = h.Users.GetByID(ctx, uid)
		if err != nil {
			return model.User{}, nil, err
		}
	case err != nil:
		return model.User{}, nil, err
	default:
		switch u.Status {
		case model.StatusSuspended:
			return model.User{}, nil, errAccountSuspended
		case model.StatusPending:
			// the provider verified email ownership, which is all local
			// verification would have established
			if err := h.Users.UpdateStatus(ctx, u.ID, model.StatusActive); err != nil {
				return model.User{}, nil, err
			}
			u.Status = model.StatusActive
		}
	}

	p, err := h.Profiles.Get(ctx, u.ID)
	if err != nil && err != sql.ErrNoRows {
		return model.User{}, nil, err
	}
	hasProfile := err == nil
	if !hasProfile {
		p = model.Profile{UserID: u.ID}
	}

	if id.GivenName != "" || id.FamilyName != "" {
		if id.GivenName != "" && p.FirstName == nil {
			v := id.GivenName
			p.FirstName = &v
		}
		if id.FamilyName != "" && p.LastName == nil {
			v := id.FamilyName
			p.LastName = &v
		}
		if err := h.Profiles.Upsert(ctx, p); err != nil {
			return model.User{}, nil, err
		}
		hasProfile = true
	}

	if !hasProfile {
		return u, nil, nil
	}
	return u, &p, nil
}
