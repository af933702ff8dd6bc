package provider

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "strings"
)

const (
    googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
    googleTokenURL    = "https://oauth2.googleapis.com/token"
    googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Google implements Provider against Google's OAuth2 endpoints.
type Google struct {
    ClientID     string
    ClientSecret string
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthorizeURL(state, redirectURI string) (string, error) {
    if g.ClientID == "" || g.ClientSecret == "" {
        return "", ErrNotConfigured
    }
    q := url.Values{
        "client_id":     {g.ClientID},
        "redirect_uri":  {redirectURI},
        "response_type": {"code"},
        "scope":         {"openid email profile"},
        "state":         {state},
    }
    return googleAuthURL + "?" + q.Encode(), nil
}

func (g *Google) Exchange(ctx context.Context, code, redirectURI string) (Identity, error) {
    if g.ClientID == "" || g.ClientSecret == "" {
        return Identity{}, ErrNotConfigured
    }

    form := url.Values{
        "code":          {code},
        "client_id":     {g.ClientID},
        "client_secret": {g.ClientSecret},
        "redirect_uri":  {redirectURI},
        "grant_type":    {"authorization_code"},
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTokenURL, strings.NewReader(form.Encode()))
    if err != nil {
        return Identity{}, err
    }
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

    resp, err := httpClient.Do(req)
    if err != nil {
        return Identity{}, err
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        return Identity{}, fmt.Errorf("google token exchange: status %d", resp.StatusCode)
    }

    var token struct {
        AccessToken string `json:"access_token"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
        return Identity{}, err
    }
    if token.AccessToken == "" {
        return Identity{}, fmt.Errorf("google token response missing access_token")
    }

    infoReq, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserinfoURL, nil)
    if err != nil {
        return Identity{}, err
    }
    infoReq.Header.Set("Authorization", "Bearer "+token.AccessToken)

    infoResp, err := httpClient.Do(infoReq)
    if err != nil {
        return Identity{}, err
    }
    defer infoResp.Body.Close()
    if infoResp.StatusCode != http.StatusOK {
        return Identity{}, fmt.Errorf("google userinfo: status %d", infoResp.StatusCode)
    }

    var info struct {
        Email         string `json:"email"`
        VerifiedEmail bool   `json:"verified_email"`
        GivenName     string `json:"given_name"`
        FamilyName    string `json:"family_name"`
    }
    if err := json.NewDecoder(infoResp.Body).Decode(&info); err != nil {
        return Identity{}, err
    }
    if info.Email == "" || !info.VerifiedEmail {
        return Identity{}, ErrEmailUnavailable
    }

    return Identity{
        Email:         strings.ToLower(info.Email),
        EmailVerified: true,
        GivenName:     info.GivenName,
        FamilyName:    info.FamilyName,
    }, nil
}
