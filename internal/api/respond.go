package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("[FeedbackAPI] Failed to encode response", slog.String("error", err.Error()))
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, detail string) {
	respondWithJSON(w, statusCode, map[string]string{"detail": detail})
}
