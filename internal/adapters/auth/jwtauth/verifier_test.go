package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"patient-access/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerify_RoundTrip(t *testing.T) {
	v, err := NewVerifier("s3cret", "idp")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	tok, err := v.Sign(auth.Claims{UserID: "patient-1", Email: "ana@example.com", Role: "patient"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	c, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.UserID != "patient-1" || c.Email != "ana@example.com" || c.Role != "patient" {
		t.Fatalf("unexpected claims %+v", c)
	}
}

func TestVerify_Rejects(t *testing.T) {
	v, _ := NewVerifier("s3cret", "idp")
	other, _ := NewVerifier("other", "idp")
	wrongIssuer, _ := NewVerifier("s3cret", "someone-else")

	expired, _ := v.Sign(auth.Claims{UserID: "patient-1"}, -time.Minute)
	foreign, _ := other.Sign(auth.Claims{UserID: "patient-1"}, time.Hour)
	badIss, _ := wrongIssuer.Sign(auth.Claims{UserID: "patient-1"}, time.Hour)
	noSub, _ := v.Sign(auth.Claims{}, time.Hour)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "patient-1",
		Issuer:  "idp",
	}).SignedString([]byte("s3cret"))

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"wrong secret": foreign,
		"wrong issuer": badIss,
		"no subject":   noSub,
		"no exp":       noExp,
	}
	for name, tok := range cases {
		if _, err := v.Verify(context.Background(), tok); !errors.Is(err, auth.ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	if _, err := NewVerifier(" ", ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
