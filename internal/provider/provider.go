// Package provider abstracts external OAuth identity sources behind a small
// interface. The auth flows depend only on the normalized Identity shape,
// never on provider-specific payloads.
package provider

import (
    "context"
    "errors"
    "net/http"
    "time"
)

// Identity is the normalized result of a provider exchange.
type Identity struct {
    Email         string
    EmailVerified bool
    GivenName     string
    FamilyName    string
}

// Provider exchanges an authorization code for a verified identity.
type Provider interface {
    // Name is the lower-case provider slug used in routes and redirects.
    Name() string
    // AuthorizeURL builds the provider's consent URL for the given CSRF
    // state and callback URI.
    AuthorizeURL(state, redirectURI string) (string, error)
    // Exchange trades the callback's authorization code for a normalized
    // identity. Implementations must only return identities whose email
    // ownership the provider has verified.
    Exchange(ctx context.Context, code, redirectURI string) (Identity, error)
}

// ErrNotConfigured is returned when a provider is missing credentials.
var ErrNotConfigured = errors.New("provider not configured")

// ErrEmailUnavailable is returned when the provider did not supply a
// verified email for the account.
var ErrEmailUnavailable = errors.New("provider returned no verified email")

// httpClient bounds every outbound provider call.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// Registry maps provider slugs to implementations.
type Registry map[string]Provider

// NewRegistry builds a Registry keyed by each provider's Name.
func NewRegistry(providers ...Provider) Registry {
    r := make(Registry, len(providers))
    for _, p := range providers {
        r[p.Name()] = p
    }
    return r
}

// Lookup returns the provider registered under name.
func (r Registry) Lookup(name string) (Provider, bool) {
    p, ok := r[name]
    return p, ok
}
