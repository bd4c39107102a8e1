package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const secret = "test-secret"

type allowlist []string

func (a allowlist) IsAuthorized(email string) bool {
	for _, e := range a {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func mustSign(t *testing.T, key, email string, ttl time.Duration) string {
	t.Helper()
	tok, err := Sign(key, email, ttl)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier(secret, "authenticated", allowlist{"owner@example.com"})

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "owner@example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid", mustSign(t, secret, "owner@example.com", time.Hour), nil},
		{"case insensitive", mustSign(t, secret, "OWNER@example.com", time.Hour), nil},
		{"not allowlisted", mustSign(t, secret, "stranger@example.com", time.Hour), ErrForbidden},
		{"wrong secret", mustSign(t, "other", "owner@example.com", time.Hour), ErrUnauthorized},
		{"expired", mustSign(t, secret, "owner@example.com", -time.Minute), ErrUnauthorized},
		{"alg none", noneToken, ErrUnauthorized},
		{"garbage", "not.a.token", ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := v.Verify(tt.token)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify: %v", err)
				}
				if !strings.EqualFold(u.Email, "owner@example.com") {
					t.Errorf("email = %q", u.Email)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifier_NoAllowlist(t *testing.T) {
	v := NewVerifier(secret, "", nil)
	if _, err := v.Verify(mustSign(t, secret, "anyone@example.com", time.Hour)); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(secret, "", allowlist{"owner@example.com"})
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := UserFromContext(r.Context()); ok {
			seen = u.Email
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		required   bool
		header     string
		wantStatus int
		wantUser   string
	}{
		{"anonymous optional", false, "", http.StatusNoContent, ""},
		{"anonymous required", true, "", http.StatusUnauthorized, ""},
		{"valid", true, "Bearer " + mustSign(t, secret, "owner@example.com", time.Hour), http.StatusNoContent, "owner@example.com"},
		{"lowercase scheme", true, "bearer " + mustSign(t, secret, "owner@example.com", time.Hour), http.StatusNoContent, "owner@example.com"},
		{"forbidden", true, "Bearer " + mustSign(t, secret, "x@example.com", time.Hour), http.StatusForbidden, ""},
		{"bad token optional", false, "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Middleware(v, tt.required)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if seen != tt.wantUser {
				t.Errorf("user = %q, want %q", seen, tt.wantUser)
			}
		})
	}
}
