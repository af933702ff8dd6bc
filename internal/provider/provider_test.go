package provider

import (
	"context"
	"testing"
)

type stubProvider struct{ name string }

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) AuthorizeURL(state, redirectURI string) (string, error) {
	return "https://" + s.name + ".example/consent", nil
}

func (s *stubProvider) Exchange(ctx context.Context, code, redirectURI string) (Identity, error) {
	return Identity{}, ErrNotConfigured
}

func TestRegistryKeysByProviderName(t *testing.T) {
	reg := NewRegistry(&stubProvider{name: "alpha"}, &stubProvider{name: "beta"})

	p, ok := reg.Lookup("alpha")
	if !ok {
		t.Fatal("alpha not registered")
	}
	if p.Name() != "alpha" {
		t.Fatalf("wrong provider under alpha: %q", p.Name())
	}
	if _, ok := reg.Lookup("gamma"); ok {
		t.Fatal("unregistered name should not resolve")
	}
}
