package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNotAdmin     = errors.New("token does not grant admin role")
)

// Claims are what the external auth service puts in the bearer tokens it
// issues. The backend only verifies; it never signs.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// Verifier checks bearer credentials against the auth service's shared
// HS256 secret.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyAdmin verifies the credential and requires the admin role claim.
func (v *Verifier) VerifyAdmin(token string) (*Claims, error) {
	claims, err := v.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Role != "admin" {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

type contextKey string

const claimsKey contextKey = "auth_claims"

// Middleware guards admin-only REST endpoints with a bearer credential.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "missing bearer credential", http.StatusUnauthorized)
			return
		}
		claims, err := v.VerifyAdmin(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, "invalid credential", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// ClaimsFromContext retrieves claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
