package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates the connection token and extracts the
// username. Token issuance lives outside this service; the gateway only
// verifies the HS256 signature and reads the identity claim.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the shared signing secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// VerifyRequest extracts and validates the token from the Authorization
// header or the token query parameter (browser WebSocket clients cannot
// set headers). It returns the authenticated username.
func (v *TokenVerifier) VerifyRequest(r *http.Request) (string, error) {
	tokenString := ""
	if auth := r.Header.Get("Authorization"); auth != "" {
		tokenString = strings.TrimPrefix(auth, "Bearer ")
	}
	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		return "", fmt.Errorf("missing token")
	}
	return v.Verify(tokenString)
}

// Verify validates a raw token string and returns the username claim.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}

	if username, ok := claims["username"].(string); ok && username != "" {
		return username, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("token has no username claim")
}
