package handlers

import (
	"encoding/json"
	"net/http"

	"creatorledger/internal/middleware"
	"creatorledger/internal/models"
	"creatorledger/internal/money"
	"creatorledger/internal/services"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListOwnPayouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	payouts, err := h.payouts.ListByUser(r.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load payouts")
		return
	}
	respondJSON(w, http.StatusOK, normalizePayouts(payouts))
}

func (h *Handler) AdminListPayouts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	payouts, err := h.payouts.ListAll(r.Context(), query.Get("status"), limit, (page-1)*limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load payouts")
		return
	}
	respondJSON(w, http.StatusOK, normalizePayouts(payouts))
}

func (h *Handler) MarkPayoutProcessing(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	payoutID := chi.URLParam(r, "id")
	if err := h.payoutSvc.MarkProcessing(r.Context(), payoutID, adminID); err != nil {
		respondPayoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "processing"})
}

type cancelPayoutRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelPayout(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	payoutID := chi.URLParam(r, "id")
	var req cancelPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		respondError(w, http.StatusBadRequest, "reason is required")
		return
	}
	if err := h.payoutSvc.Cancel(r.Context(), payoutID, adminID, req.Reason); err != nil {
		respondPayoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type completePayoutRequest struct {
	SettledAmount string `json:"settled_amount"`
}

func (h *Handler) CompletePayout(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	payoutID := chi.URLParam(r, "id")
	var req completePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	settledMinor, err := money.ParseMinor(req.SettledAmount)
	if err != nil || settledMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if err := h.payoutSvc.Complete(r.Context(), payoutID, adminID, settledMinor); err != nil {
		respondPayoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

func respondPayoutError(w http.ResponseWriter, err error) {
	switch err {
	case services.ErrNotFound:
		respondError(w, http.StatusNotFound, "not_found")
	case services.ErrInvalidState:
		respondError(w, http.StatusConflict, "invalid_state")
	case services.ErrInvalidAmount:
		respondError(w, http.StatusBadRequest, "invalid_amount")
	default:
		respondError(w, http.StatusInternalServerError, "payout_operation_failed")
	}
}

func normalizePayouts(payouts []models.Payout) []map[string]any {
	normalized := make([]map[string]any, 0, len(payouts))
	for _, payout := range payouts {
		normalized = append(normalized, map[string]any{
			"id":                  payout.ID,
			"user_id":             payout.UserID,
			"gross_points":        payout.GrossPoints,
			"locked_points":       payout.LockedPoints,
			"amount":              money.FormatMinor(payout.AmountMinor),
			"status":              payout.Status,
			"scheduled_for":       payout.ScheduledFor,
			"processed_at":        payout.ProcessedAt,
			"processed_by":        payout.ProcessedBy,
			"cancellation_reason": payout.CancellationReason,
			"created_at":          payout.CreatedAt,
		})
	}
	return normalized
}
