package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"VerseClash/config"
	"VerseClash/core/audio"
	"VerseClash/core/auth"
	"VerseClash/core/gen"
	"VerseClash/repository"
)

// APIHandler holds the collaborators every HTTP handler needs.
type APIHandler struct {
	battleRepo repository.BattleRepository
	userRepo   repository.UserRepository
	pipeline   *audio.Pipeline
	generator  *gen.Client // nil when no Gemini key is configured
	cfg        *config.Config
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	battleRepo repository.BattleRepository,
	userRepo repository.UserRepository,
	pipeline *audio.Pipeline,
	generator *gen.Client,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		battleRepo: battleRepo,
		userRepo:   userRepo,
		pipeline:   pipeline,
		generator:  generator,
		cfg:        cfg,
	}
}

type contextKey string

const (
	ctxKeyUserID   contextKey = "userID"
	ctxKeyUsername contextKey = "username"
)

// respondWithJSON writes a JSON response with the given status.
func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError writes a machine-readable error response.
func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, map[string]interface{}{
		"success": false,
		"code":    code,
		"error":   message,
	})
}

// AuthMiddleware checks for a valid JWT token on protected routes.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "unauthorized", "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondWithError(w, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format")
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxKeyUsername, claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(ctxKeyUserID).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
