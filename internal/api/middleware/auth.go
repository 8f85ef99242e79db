package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"osworks-api/internal/api/problem"
	"osworks-api/internal/config"
	"osworks-api/internal/pkg/apperrors"
	"osworks-api/internal/pkg/i18n"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

// AuthMiddleware requires a valid HS256 bearer token when auth is enabled.
// Rejections are written as a 401 Problem.
func AuthMiddleware(cfg config.AuthConfig, problems *problem.Writer, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	logger = logger.With("component", "AuthMiddleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := validateJWT(r, cfg.JWTSecret)
			if err != nil {
				logger.WarnContext(r.Context(), "Rejected request", slog.String("path", r.URL.Path), slog.Any("error", err))
				problems.WriteMessage(w, r, http.StatusUnauthorized, i18n.KeyUnauthorized)
				return
			}
			logger.DebugContext(r.Context(), "Authenticated request", slog.String("subject", subject))
			next.ServeHTTP(w, r)
		})
	}
}

// validateJWT returns the token subject. Every failure wraps
// apperrors.ErrUnauthorized.
func validateJWT(r *http.Request, secret string) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("%w: missing Authorization header", apperrors.ErrUnauthorized)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("%w: invalid Authorization header format", apperrors.ErrUnauthorized)
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedSigningMethod
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	if !token.Valid {
		return "", fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
	}

	subject, _ := token.Claims.GetSubject()
	return subject, nil
}
