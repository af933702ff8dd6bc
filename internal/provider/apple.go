package provider

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "strings"
    "sync"
    "time"

    "github.com/MicahParks/keyfunc/v2"
    "github.com/golang-jwt/jwt/v5"
)

const (
    appleAuthURL  = "https://appleid.apple.com/auth/authorize"
    appleTokenURL = "https://appleid.apple.com/auth/token"
    appleKeysURL  = "https://appleid.apple.com/auth/keys"
    appleAudience = "https://appleid.apple.com"
)

// Apple implements Provider for Sign in with Apple. The code exchange
// requires a short-lived ES256 client secret signed with the developer
// private key; the returned id_token is verified against Apple's published
// JWKS before its email claim is trusted.
type Apple struct {
    ClientID   string // Services ID, audience of the id_token
    TeamID     string
    KeyID      string
    PrivateKey string // PEM-encoded ES256 private key, \n escapes allowed

    jwksOnce sync.Once
    jwks     *keyfunc.JWKS
    jwksErr  error
}

func (a *Apple) Name() string { return "apple" }

func (a *Apple) configured() bool {
    return a.ClientID != "" && a.TeamID != "" && a.KeyID != "" && a.PrivateKey != ""
}

func (a *Apple) AuthorizeURL(state, redirectURI string) (string, error) {
    if !a.configured() {
        return "", ErrNotConfigured
    }
    q := url.Values{
        "client_id":     {a.ClientID},
        "redirect_uri":  {redirectURI},
        "response_type": {"code"},
        "scope":         {"name email"},
        "response_mode": {"form_post"},
        "state":         {state},
    }
    return appleAuthURL + "?" + q.Encode(), nil
}

// clientSecret builds the ES256-signed JWT Apple requires in place of a
// static client secret.
func (a *Apple) clientSecret() (string, error) {
    pem := strings.ReplaceAll(a.PrivateKey, `\n`, "\n")
    key, err := jwt.ParseECPrivateKeyFromPEM([]byte(pem))
    if err != nil {
        return "", fmt.Errorf("apple private key: %w", err)
    }
    now := time.Now()
    tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
        "iss": a.TeamID,
        "iat": now.Unix(),
        "exp": now.Add(time.Hour).Unix(),
        "aud": appleAudience,
        "sub": a.ClientID,
    })
    tok.Header["kid"] = a.KeyID
    return tok.SignedString(key)
}

// keys lazily fetches Apple's JWKS and keeps it refreshing in the
// background for the life of the process.
func (a *Apple) keys() (*keyfunc.JWKS, error) {
    a.jwksOnce.Do(func() {
        a.jwks, a.jwksErr = keyfunc.Get(appleKeysURL, keyfunc.Options{
            RefreshInterval:  time.Hour,
            RefreshRateLimit: 5 * time.Minute,
            RefreshErrorHandler: func(err error) {
                // transient refresh failures keep the previous key set
            },
        })
    })
    return a.jwks, a.jwksErr
}

func (a *Apple) Exchange(ctx context.Context, code, redirectURI string) (Identity, error) {
    if !a.configured() {
        return Identity{}, ErrNotConfigured
    }

    secret, err := a.clientSecret()
    if err != nil {
        return Identity{}, err
    }

    form := url.Values{
        "client_id":     {a.ClientID},
        "client_secret": {secret},
        "code":          {code},
        "grant_type":    {"authorization_code"},
        "redirect_uri":  {redirectURI},
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, appleTokenURL, strings.NewReader(form.Encode()))
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
        return Identity{}, fmt.Errorf("apple token exchange: status %d", resp.StatusCode)
    }

    var token struct {
        IDToken string `json:"id_token"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
        return Identity{}, err
    }
    if token.IDToken == "" {
        return Identity{}, fmt.Errorf("apple token response missing id_token")
    }

    jwks, err := a.keys()
    if err != nil {
        return Identity{}, fmt.Errorf("apple jwks: %w", err)
    }

    var claims struct {
        Email         string `json:"email"`
        EmailVerified any    `json:"email_verified"` // Apple sends bool or "true"
        jwt.RegisteredClaims
    }
    parsed, err := jwt.ParseWithClaims(token.IDToken, &claims, jwks.Keyfunc,
        jwt.WithAudience(a.ClientID), jwt.WithIssuer(appleAudience))
    if err != nil || !parsed.Valid {
        return Identity{}, fmt.Errorf("apple id_token rejected: %w", err)
    }

    verified := false
    switch v := claims.EmailVerified.(type) {
    case bool:
        verified = v
    case string:
        verified = v == "true"
    }
    if claims.Email == "" || !verified {
        return Identity{}, ErrEmailUnavailable
    }

    // Apple only shares name data on the very first authorization, as a
    // separate form field the client may forward; the id_token itself
    // carries no name claims.
    return Identity{
        Email:         strings.ToLower(claims.Email),
        EmailVerified: true,
    }, nil
}
