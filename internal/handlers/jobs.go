package handlers

import (
	"net/http"
	"strings"
	"time"

	"creatorledger/internal/auth"
	"creatorledger/internal/websocket"
)

// parseAsOf reads the optional as_of query parameter so billing and payout
// runs can be replayed for a prior month. Defaults to now.
func parseAsOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (h *Handler) RunPayoutGeneration(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "as_of must be RFC 3339")
		return
	}
	result, err := h.payoutSvc.GenerateMonthly(r.Context(), asOf)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "payout generation failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) RunStorageBilling(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "as_of must be RFC 3339")
		return
	}
	result, err := h.storageSvc.RunMonthlyBilling(r.Context(), asOf)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage billing failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) WSWallet(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
