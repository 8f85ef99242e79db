package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"osworks-api/internal/api/handler/dto"
	"osworks-api/internal/api/problem"
	"osworks-api/internal/config"
	"osworks-api/internal/pkg/i18n"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer     = "osworks-api"
	defaultTokenTTL = 24 * time.Hour
)

type AuthHandler struct {
	cfg      config.AuthConfig
	messages *i18n.MessageSource
	problems *problem.Writer
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthHandler(cfg config.AuthConfig, messages *i18n.MessageSource, problems *problem.Writer, l *slog.Logger) *AuthHandler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		cfg:      cfg,
		messages: messages,
		problems: problems,
		logger:   l.With("component", "AuthHandler"),
		now:      time.Now,
	}
}

// GenerateBearerToken issues an HS256 token for the given username.
//
// @Summary Generate a JWT bearer token
// @Description Signs a token with the configured secret. The response carries the full Authorization header value.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "username"
// @Success 200 {object} dto.TokenResponse "Token successfully generated"
// @Failure 400 {object} problem.Problem "Invalid request parameters"
// @Failure 500 {object} problem.Problem "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode token request body", slog.Any("error", err))
		h.problems.WriteMessage(w, r, http.StatusBadRequest, i18n.KeyMalformedBody)
		return
	}

	if err := h.messages.Validate(req); err != nil {
		h.logger.WarnContext(r.Context(), "Token request failed validation", slog.Any("error", err))
		h.problems.Write(w, r, err)
		return
	}

	issuedAt := h.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   req.Username,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(h.cfg.TokenTTL)),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", slog.Any("error", err))
		h.problems.Write(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	h.logger.InfoContext(r.Context(), "Issued bearer token", slog.String("subject", req.Username))
	respondJSON(w, http.StatusOK, dto.TokenResponse{Token: "Bearer " + tokenString})
}
