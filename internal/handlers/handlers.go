package handlers

import (
	"encoding/json"
	"net/http"

	"creatorledger/internal/money"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func formatMinorPtr(value *int64) string {
	if value == nil {
		return ""
	}
	return money.FormatMinor(*value)
}
