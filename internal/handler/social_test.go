package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/funcprovider/auth-service/internal/model"
	"github.com/funcprovider/auth-service/internal/provider"
	"github.com/funcprovider/auth-service/internal/repository"
)

// fakeProvider stands in for an OAuth source and returns a canned identity.
type fakeProvider struct {
	identity provider.Identity
	err      error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) AuthorizeURL(state, redirectURI string) (string, error) {
	return "https://fake.example/consent?state=" + url.QueryEscape(state) +
		"&redirect_uri=" + url.QueryEscape(redirectURI), nil
}

func (f *fakeProvider) Exchange(ctx context.Context, code, redirectURI string) (provider.Identity, error) {
	if f.err != nil {
		return provider.Identity{}, f.err
	}
	return f.identity, nil
}

func newTestSocialHandler(t *testing.T, fp *fakeProvider) (*SocialHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	users := repository.NewUserRepo(db)
	profiles := repository.NewProfileRepo(db)
	auth := NewAuthHandler(testConfig(), users, profiles,
		repository.NewRefreshTokenRepo(db), repository.NewVerificationTokenRepo(db))
	h := NewSocialHandler(testConfig(), auth, users, profiles, provider.NewRegistry(fp))
	return h, mock, func() { db.Close() }
}

func socialContext(method, target string, h *SocialHandler, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("provider")
	c.SetParamValues("fake")
	return c, rec
}

func TestSocialStartSetsStateCookie(t *testing.T) {
	h, _, done := newTestSocialHandler(t, &fakeProvider{})
	defer done()

	c, rec := socialContext(http.MethodGet, "/v1/auth/fake", h)
	if err := h.Start(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	loc := rec.Header().Get(echo.HeaderLocation)
	if !strings.HasPrefix(loc, "https://fake.example/consent?") {
		t.Fatalf("unexpected redirect target %q", loc)
	}
	var state *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "fake_oauth_state" {
			state = ck
		}
	}
	if state == nil {
		t.Fatal("state cookie not set")
	}
	if !strings.Contains(loc, "state="+state.Value) {
		t.Fatalf("redirect state does not match cookie: %q vs %q", loc, state.Value)
	}
	if state.SameSite != http.SameSiteLaxMode {
		t.Fatal("state cookie must be SameSite=Lax to survive the provider redirect")
	}
}

func TestSocialStartUnknownProvider(t *testing.T) {
	h, _, done := newTestSocialHandler(t, &fakeProvider{})
	defer done()

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/nope", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("provider")
	c.SetParamValues("nope")

	if err := h.Start(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSocialCallbackStateMismatch(t *testing.T) {
	h, _, done := newTestSocialHandler(t, &fakeProvider{})
	defer done()

	c, rec := socialContext(http.MethodGet, "/v1/auth/fake/callback?code=abc&state=tampered", h,
		&http.Cookie{Name: "fake_oauth_state", Value: "original"})
	if err := h.Callback(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderLocation), "error=fake_state_mismatch") {
		t.Fatalf("expected state mismatch redirect, got %q", rec.Header().Get(echo.HeaderLocation))
	}
}

func TestSocialCallbackProviderError(t *testing.T) {
	h, _, done := newTestSocialHandler(t, &fakeProvider{})
	defer done()

	c, rec := socialContext(http.MethodGet, "/v1/auth/fake/callback?error=access_denied", h)
	if err := h.Callback(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderLocation), "error=fake_access_denied") {
		t.Fatalf("expected provider error redirect, got %q", rec.Header().Get(echo.HeaderLocation))
	}
}

func TestSocialCallbackCreatesNewUser(t *testing.T) {
	fp := &fakeProvider{identity: provider.Identity{
		Email: "new@x.com", EmailVerified: true, GivenName: "New", FamilyName: "User",
	}}
	h, mock, done := newTestSocialHandler(t, fp)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,role,status,created_at FROM users WHERE email=? LIMIT 1")).
		WithArgs("new@x.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, role, status) VALUES (?,?,?,?)")).
		WithArgs("new@x.com", sqlmock.AnyArg(), model.RoleUser, model.StatusActive).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,role,status,created_at FROM users WHERE id=? LIMIT 1")).
		WithArgs(10).
		WillReturnRows(userRow(10, "new@x.com", "$2a$04$hash", model.RoleUser, model.StatusActive))
	mock.ExpectQuery(regexp.QuoteMeta(profileSelectSQL)).
		WithArgs(10).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO profiles").
		WithArgs(10, "New", "User", nil, nil, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)")).
		WithArgs(10, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := socialContext(http.MethodGet, "/v1/auth/fake/callback?code=abc&state=st1", h,
		&http.Cookie{Name: "fake_oauth_state", Value: "st1"})
	if err := h.Callback(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get(echo.HeaderLocation)
	if !strings.Contains(loc, "/auth/social-callback?provider=fake&data=") {
		t.Fatalf("expected social-callback redirect, got %q", loc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A suspended account stays locked out even when the provider vouches for
// the email.
func TestSocialCallbackSuspendedAccount(t *testing.T) {
	fp := &fakeProvider{identity: provider.Identity{Email: "sus@x.com", EmailVerified: true}}
	h, mock, done := newTestSocialHandler(t, fp)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,role,status,created_at FROM users WHERE email=? LIMIT 1")).
		WithArgs("sus@x.com").
		WillReturnRows(userRow(12, "sus@x.com", "$2a$04$hash", model.RoleUser, model.StatusSuspended))

	c, rec := socialContext(http.MethodGet, "/v1/auth/fake/callback?code=abc&state=st2", h,
		&http.Cookie{Name: "fake_oauth_state", Value: "st2"})
	if err := h.Callback(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderLocation), "error=account_suspended") {
		t.Fatalf("expected suspension redirect, got %q", rec.Header().Get(echo.HeaderLocation))
	}
}
