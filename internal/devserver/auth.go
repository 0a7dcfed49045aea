package devserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const tokenTTL = 24 * time.Hour

type ctxKey int

const userIDKey ctxKey = 0

// tokenIssuer signs and verifies the dev server's bearer tokens.
type tokenIssuer struct {
	secret []byte
}

func (t *tokenIssuer) issue(u *User) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(strconv.FormatInt(u.ID, 10)).
		Claim("username", u.Username).
		IssuedAt(now).
		Expiration(now.Add(tokenTTL)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

func (t *tokenIssuer) verify(raw string) (int64, error) {
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, t.secret), jwt.WithValidate(true))
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}
	id, err := strconv.ParseInt(tok.Subject(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad token subject: %w", err)
	}
	return id, nil
}

// requireAuth extracts and verifies the bearer token, injecting the user ID
// into the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Missing or malformed token.")
			return
		}
		userID, err := s.auth.verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// userIDFrom returns the authenticated user ID injected by requireAuth.
func userIDFrom(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
