package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", 0)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	if issuer.ttl != DefaultTokenTTL {
		t.Fatalf("expected default ttl, got %v", issuer.ttl)
	}

	token, err := issuer.Generate("64b7f0c2a1b2c3d4e5f60718")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != "64b7f0c2a1b2c3d4e5f60718" {
		t.Fatalf("expected id claim, got %q", id)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer("secret-a", time.Hour)
	b, _ := NewTokenIssuer("secret-b", time.Hour)

	token, err := a.Generate("user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := b.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Generate("user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := issuer.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"id":  "user",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := issuer.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenRequiresIDClaim(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte("secret"))
	if _, err := issuer.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
