package auth

import (
	"testing"
)

func TestSession_IsAuthenticated(t *testing.T) {
	if (Session{ID: "s1"}).IsAuthenticated() {
		t.Fatalf("session without token must not be authenticated")
	}
	if (Session{ID: "s1", Username: "artist1"}).IsAuthenticated() {
		t.Fatalf("username alone must not authenticate")
	}
	if !(Session{ID: "s1", Token: "tok123"}).IsAuthenticated() {
		t.Fatalf("expected authenticated with token")
	}
}

func TestCredentials_Normalized(t *testing.T) {
	c := Credentials{Identifier: "  artist1 ", Password: " secret "}.Normalized()
	if c.Identifier != "artist1" {
		t.Fatalf("identifier not trimmed: %q", c.Identifier)
	}
	if c.Password != " secret " {
		t.Fatalf("password must be kept verbatim, got %q", c.Password)
	}
}
