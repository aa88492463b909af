package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/pkg/config"
	"github.com/pawdx/vetlab-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "vetlab",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.New()
	staffRole := enums.StaffRoleCollector

	payload := AccessTokenPayload{
		UserID:    userID,
		Role:      enums.UserRoleStaff,
		StaffRole: &staffRole,
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.UserRoleStaff {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.StaffRole == nil || *claims.StaffRole != staffRole {
		t.Fatalf("staff role not preserved")
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestMintAccessTokenRejectsBadRole(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "vetlab", ExpirationMinutes: 30}
	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRole("boss")})
	if err == nil || !strings.Contains(err.Error(), "invalid user role") {
		t.Fatalf("expected invalid role error, got %v", err)
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	mintCfg := config.JWTConfig{Secret: "secret", Issuer: "someone-else", ExpirationMinutes: 30}
	token, err := MintAccessToken(mintCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleUser})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	parseCfg := config.JWTConfig{Secret: "secret", Issuer: "vetlab", ExpirationMinutes: 30}
	if _, err := ParseAccessToken(parseCfg, token); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestParseAccessTokenAllowExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "vetlab", ExpirationMinutes: 1}
	past := time.Now().Add(-2 * time.Hour)
	token, err := MintAccessToken(cfg, past, AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleUser, JTI: "fixed-jti"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expiry error from strict parse")
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("parse expired token: %v", err)
	}
	if claims.ID != "fixed-jti" {
		t.Fatalf("unexpected jti %s", claims.ID)
	}
}
