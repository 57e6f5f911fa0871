package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"creatorledger/internal/middleware"
	"creatorledger/internal/models"
	"creatorledger/internal/money"
	"creatorledger/internal/services"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	withdrawals, err := h.withdrawals.ListAll(r.Context(), query.Get("status"), limit, (page-1)*limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawals")
		return
	}
	respondJSON(w, http.StatusOK, normalizeWithdrawals(withdrawals))
}

type createWithdrawalRequest struct {
	BankAccountID string `json:"bank_account_id"`
	Amount        string `json:"amount"`
	Notes         string `json:"notes"`
}

func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.BankAccountID == "" {
		respondError(w, http.StatusBadRequest, "bank_account_id is required")
		return
	}
	amountMinor, err := money.ParseMinor(req.Amount)
	if err != nil || amountMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	withdrawalID, err := h.withdrawalSvc.Create(r.Context(), services.WithdrawalRequest{
		BankAccountID: req.BankAccountID,
		AmountMinor:   amountMinor,
		RequestedBy:   adminID,
		Notes:         req.Notes,
	})
	if err != nil {
		respondWithdrawalError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": withdrawalID, "status": models.WithdrawalStatusPending})
}

func (h *Handler) MarkWithdrawalProcessing(w http.ResponseWriter, r *http.Request) {
	h.transitionWithdrawal(w, r, models.WithdrawalStatusProcessing, h.withdrawalSvc.MarkProcessing)
}

func (h *Handler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.transitionWithdrawal(w, r, models.WithdrawalStatusCompleted, h.withdrawalSvc.Complete)
}

type withdrawalNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) CancelWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.finishWithdrawal(w, r, models.WithdrawalStatusCancelled, h.withdrawalSvc.Cancel)
}

func (h *Handler) FailWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.finishWithdrawal(w, r, models.WithdrawalStatusFailed, h.withdrawalSvc.Fail)
}

func (h *Handler) transitionWithdrawal(w http.ResponseWriter, r *http.Request, status string,
	apply func(ctx context.Context, withdrawalID, adminID string) error) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	withdrawalID := chi.URLParam(r, "id")
	if err := apply(r.Context(), withdrawalID, adminID); err != nil {
		respondWithdrawalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) finishWithdrawal(w http.ResponseWriter, r *http.Request, status string,
	apply func(ctx context.Context, withdrawalID, adminID, notes string) error) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	withdrawalID := chi.URLParam(r, "id")
	var req withdrawalNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Notes == "" {
		respondError(w, http.StatusBadRequest, "notes are required")
		return
	}
	if err := apply(r.Context(), withdrawalID, adminID, req.Notes); err != nil {
		respondWithdrawalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

func respondWithdrawalError(w http.ResponseWriter, err error) {
	switch err {
	case services.ErrNotFound:
		respondError(w, http.StatusNotFound, "not_found")
	case services.ErrInvalidState:
		respondError(w, http.StatusConflict, "invalid_state")
	case services.ErrInvalidAmount:
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case services.ErrBankAccountInactive:
		respondError(w, http.StatusConflict, "bank_account_inactive")
	default:
		respondError(w, http.StatusInternalServerError, "withdrawal_operation_failed")
	}
}

func normalizeWithdrawals(withdrawals []models.Withdrawal) []map[string]any {
	normalized := make([]map[string]any, 0, len(withdrawals))
	for _, withdrawal := range withdrawals {
		normalized = append(normalized, map[string]any{
			"id":              withdrawal.ID,
			"bank_account_id": withdrawal.BankAccountID,
			"amount":          money.FormatMinor(withdrawal.AmountMinor),
			"status":          withdrawal.Status,
			"requested_by":    withdrawal.RequestedBy,
			"processed_by":    withdrawal.ProcessedBy,
			"processed_at":    withdrawal.ProcessedAt,
			"notes":           withdrawal.Notes,
			"created_at":      withdrawal.CreatedAt,
		})
	}
	return normalized
}
