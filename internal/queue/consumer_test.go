package queue

import (
	"strings"
	"testing"
)

func TestRenderVerificationEmail(t *testing.T) {
	subject, body := render(EmailRequestedEvent{
		To:   "a@x.com",
		Kind: EmailVerification,
		Link: "http://localhost:3000/auth/verify?token=tok-1",
	})
	if subject != "Verify your email" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "http://localhost:3000/auth/verify?token=tok-1") {
		t.Fatalf("body missing verification link: %s", body)
	}
}

func TestRenderResetEmail(t *testing.T) {
	subject, body := render(EmailRequestedEvent{
		Kind: EmailPasswordReset,
		Link: "http://localhost:3000/auth/reset-password?token=tok-2",
	})
	if subject != "Reset your password" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "tok-2") {
		t.Fatalf("body missing reset link: %s", body)
	}
}

func TestRenderCodeEmailCarriesCodeNotLink(t *testing.T) {
	_, body := render(EmailRequestedEvent{Kind: EmailVerifyCode, Token: "123456"})
	if !strings.Contains(body, "123456") {
		t.Fatalf("body missing code: %s", body)
	}
	if strings.Contains(body, "http") {
		t.Fatalf("code email should not carry a link: %s", body)
	}
}

func TestRenderUnknownKindFallsBack(t *testing.T) {
	subject, _ := render(EmailRequestedEvent{Kind: "something_else"})
	if subject != "Notification" {
		t.Fatalf("unexpected fallback subject %q", subject)
	}
}
