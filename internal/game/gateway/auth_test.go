package gateway

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifyUsernameClaim(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	username, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if username != "alice" {
		t.Errorf("username = %s, want alice", username)
	}
}

func TestVerifyFallsBackToSubject(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "bob",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	username, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if username != "bob" {
		t.Errorf("username = %s, want bob", username)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewTokenVerifier(testSecret)

	wrongSecret := signToken(t, "other-secret", jwt.MapClaims{"username": "mallory"})
	if _, err := v.Verify(wrongSecret); err == nil {
		t.Error("token signed with the wrong secret must be rejected")
	}

	expired := signToken(t, testSecret, jwt.MapClaims{
		"username": "alice",
		"exp":      time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := v.Verify(expired); err == nil {
		t.Error("expired token must be rejected")
	}

	noIdentity := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := v.Verify(noIdentity); err == nil {
		t.Error("token without identity claim must be rejected")
	}
}

func TestVerifyRequestSources(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	r := httptest.NewRequest("GET", "/ws/game", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	if username, err := v.VerifyRequest(r); err != nil || username != "alice" {
		t.Errorf("header auth: username=%s err=%v", username, err)
	}

	r = httptest.NewRequest("GET", "/ws/game?token="+token, nil)
	if username, err := v.VerifyRequest(r); err != nil || username != "alice" {
		t.Errorf("query auth: username=%s err=%v", username, err)
	}

	r = httptest.NewRequest("GET", "/ws/game", nil)
	if _, err := v.VerifyRequest(r); err == nil {
		t.Error("request without token must be rejected")
	}
}
