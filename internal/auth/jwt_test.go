package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCreateAndVerifyToken(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	tok, err := CreateToken("1234", "conn-1", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	claims, err := VerifyToken(tok, cfg)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != "1234" {
		t.Fatalf("expected 1234, got %q", claims.UserID)
	}
	if claims.SessionID != "conn-1" {
		t.Fatalf("expected conn-1, got %q", claims.SessionID)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
}

func TestIssuerMatchesCreateToken(t *testing.T) {
	cfg := DefaultTokenConfig("secret")
	tok, err := Issuer(cfg)("5678", "conn-2")
	if err != nil {
		t.Fatalf("Issuer: %v", err)
	}
	claims, err := VerifyToken(tok, cfg)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != "5678" || claims.SessionID != "conn-2" || claims.Issuer != "messagecaller" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	tok, err := CreateToken("1234", "conn-1", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	_, err = VerifyToken(tok, TokenConfig{Secret: "wrong", Expiry: time.Hour, Issuer: "test"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestVerifyToken_WrongIssuer(t *testing.T) {
	tok, err := CreateToken("1234", "conn-1", TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "other"})
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	_, err = VerifyToken(tok, TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"})
	if !errors.Is(err, jwt.ErrTokenInvalidIssuer) {
		t.Fatalf("expected invalid issuer, got %v", err)
	}
}

func TestCreateToken_InvalidInput(t *testing.T) {
	if _, err := CreateToken("1234", "c", TokenConfig{Secret: "secret", Expiry: -time.Second}); !errors.Is(err, ErrInvalidExpiry) {
		t.Fatalf("expected ErrInvalidExpiry, got %v", err)
	}
	if _, err := CreateToken("", "c", TokenConfig{Secret: "secret", Expiry: time.Hour}); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
	if _, err := CreateToken("1234", "c", TokenConfig{Expiry: time.Hour}); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
