package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperr "surgepark/internal/errors"
)

type contextKey struct{}

// Admin is the identity carried by a verified token.
type Admin struct {
	ID    int
	Email string
}

// AdminFromContext returns the admin set by the middleware, if any.
func AdminFromContext(ctx context.Context) (Admin, bool) {
	a, ok := ctx.Value(contextKey{}).(Admin)
	return a, ok
}

// AdminAuthMiddleware accepts HS256 bearer tokens signed with secret.
func AdminAuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := verify(r.Header.Get("Authorization"), key)
			if err != nil {
				httpErr := apperr.ErrUnauthorized(err.Error())
				http.Error(w, httpErr.Message, httpErr.Code)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, admin)))
		})
	}
}

func verify(header string, key []byte) (Admin, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return Admin{}, errors.New("missing bearer token")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Admin{}, fmt.Errorf("invalid token: %w", err)
	}

	email, _ := claims["email"].(string)
	// numbers decode from JSON as float64
	id, _ := claims["admin_id"].(float64)
	return Admin{ID: int(id), Email: email}, nil
}
