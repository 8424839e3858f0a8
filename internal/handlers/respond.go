package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/streamr/backend/internal/logging"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// bearerToken extracts the credential from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// viewerID resolves the authenticated user from the request's bearer token.
// It returns false when the token is absent or invalid.
func viewerID(verifier TokenVerifier, r *http.Request) (string, bool) {
	if verifier == nil {
		return "", false
	}
	token := bearerToken(r)
	if token == "" {
		return "", false
	}
	userID, err := verifier.Verify(token)
	if err != nil {
		return "", false
	}
	return userID, true
}
