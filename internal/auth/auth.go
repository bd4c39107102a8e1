// Package auth verifies Supabase access tokens and enforces the user allowlist.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthorized = errors.New("missing or invalid access token")
	ErrForbidden    = errors.New("user is not authorized")
)

// Claims are the parts of a Supabase access token we read.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// User is the authenticated caller.
type User struct {
	ID    string
	Email string
}

// Allowlist decides which emails may use the application.
type Allowlist interface {
	IsAuthorized(email string) bool
}

type Verifier struct {
	secret   []byte
	audience string
	allow    Allowlist
}

// NewVerifier checks HS256 tokens signed with secret. An empty audience
// skips the aud check; a nil allowlist admits every valid token.
func NewVerifier(secret, audience string, allow Allowlist) *Verifier {
	return &Verifier{secret: []byte(secret), audience: audience, allow: allow}
}

// Verify parses token and returns its user.
func (v *Verifier) Verify(token string) (User, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return User{}, fmt.Errorf("%w: invalid token claims", ErrUnauthorized)
	}
	if claims.Email == "" {
		return User{}, fmt.Errorf("%w: token has no email", ErrUnauthorized)
	}
	if v.allow != nil && !v.allow.IsAuthorized(claims.Email) {
		return User{}, ErrForbidden
	}
	return User{ID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues an HS256 token for email. Used by ledgerctl and tests.
func Sign(secret, email string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Middleware authenticates requests carrying a bearer token. When required
// is false, anonymous requests pass through; a bad token is still rejected.
func Middleware(v *Verifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if required {
					writeError(w, http.StatusUnauthorized, ErrUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := v.Verify(token)
			switch {
			case errors.Is(err, ErrForbidden):
				slog.WarnContext(r.Context(), "Rejected user outside allowlist", "path", r.URL.Path)
				writeError(w, http.StatusForbidden, ErrForbidden)
				return
			case err != nil:
				slog.WarnContext(r.Context(), "Rejected invalid token", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
