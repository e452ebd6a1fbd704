package middleware

import (
	"errors"
	"net/http"

	"github.com/mingle-social/server/internal/api/apierr"
	"github.com/mingle-social/server/internal/auth"
)

// RequireAuth rejects requests that do not carry a valid bearer token and
// stores the authenticated user id in the request context.
func RequireAuth(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(tokens, r)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth resolves the bearer token when one is present but lets
// anonymous requests through. A malformed or expired token is still an
// error; silently downgrading it to anonymous would mask client bugs.
func OptionalAuth(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := authenticate(tokens, r)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func authenticate(tokens *auth.JWTManager, r *http.Request) (int64, error) {
	token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return 0, err
	}
	return tokens.Validate(token)
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		apierr.Write(w, r, http.StatusUnauthorized, "Missing or invalid Authorization header", err)
	case errors.Is(err, auth.ErrExpiredToken):
		apierr.Write(w, r, http.StatusUnauthorized, "Token is expired", err)
	default:
		apierr.Write(w, r, http.StatusUnauthorized, "Invalid token", err)
	}
}
