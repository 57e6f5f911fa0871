package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"creatorledger/internal/middleware"
	"creatorledger/internal/models"
	"creatorledger/internal/money"
	"creatorledger/internal/services"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	wallet, err := h.ledger.Wallet(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load wallet")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"balance":       wallet.Balance,
		"locked_points": wallet.LockedPoints,
	})
}

type topUpRequest struct {
	Amount         string  `json:"amount"`
	BankAccountRef string  `json:"bank_account_ref"`
	ReceiptRef     *string `json:"receipt_ref"`
}

func (h *Handler) RecordTopUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.BankAccountRef) == "" {
		respondError(w, http.StatusBadRequest, "bank_account_ref is required")
		return
	}
	amountMinor, err := money.ParseMinor(req.Amount)
	if err != nil || amountMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	transactionID, err := h.ledger.RecordTopUp(r.Context(), services.TopUpRequest{
		UserID:         userID,
		AmountMinor:    amountMinor,
		BankAccountRef: req.BankAccountRef,
		ReceiptRef:     req.ReceiptRef,
	})
	if err != nil {
		switch err {
		case services.ErrBelowMinimum:
			respondError(w, http.StatusBadRequest, "below_minimum")
		case services.ErrInvalidAmount:
			respondError(w, http.StatusBadRequest, "invalid_amount")
		default:
			respondError(w, http.StatusInternalServerError, "top_up_failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"transaction_id": transactionID})
}

type spendRequest struct {
	Points      int64   `json:"points"`
	RecipientID *string `json:"recipient_id"`
	Description string  `json:"description"`
}

func (h *Handler) SpendPoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req spendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	transactionID, err := h.ledger.SpendPoints(r.Context(), services.SpendRequest{
		SpenderID:   userID,
		Points:      req.Points,
		RecipientID: req.RecipientID,
		Description: req.Description,
	})
	if err != nil {
		switch err {
		case services.ErrInsufficientFunds:
			respondError(w, http.StatusBadRequest, "insufficient_funds")
		case services.ErrInvalidPoints:
			respondError(w, http.StatusBadRequest, "invalid_points")
		case services.ErrSelfBoost:
			respondError(w, http.StatusBadRequest, "cannot_boost_self")
		default:
			respondError(w, http.StatusInternalServerError, "spend_failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"transaction_id": transactionID})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	query := r.URL.Query()
	txType := query.Get("type")
	if txType != "" && !models.ValidTxType(txType) {
		respondError(w, http.StatusBadRequest, "invalid_type")
		return
	}
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	offset := (page - 1) * limit
	transactions, err := h.transactions.ListByUser(r.Context(), userID, txType, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions(transactions))
}

func (h *Handler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	offset := (page - 1) * limit
	transactions, err := h.transactions.ListAll(r.Context(), query.Get("status"), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions(transactions))
}

func (h *Handler) VerifyTopUp(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	transactionID := chi.URLParam(r, "id")
	credited, err := h.ledger.VerifyTopUp(r.Context(), transactionID, adminID)
	if err != nil {
		if err == services.ErrInvalidState {
			respondError(w, http.StatusConflict, "invalid_state")
			return
		}
		respondError(w, http.StatusInternalServerError, "verify_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transaction_id":  transactionID,
		"points_credited": credited,
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RejectTopUp(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	transactionID := chi.URLParam(r, "id")
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		respondError(w, http.StatusBadRequest, "reason is required")
		return
	}
	if err := h.ledger.RejectTopUp(r.Context(), transactionID, adminID, req.Reason); err != nil {
		if err == services.ErrInvalidState {
			respondError(w, http.StatusConflict, "invalid_state")
			return
		}
		respondError(w, http.StatusInternalServerError, "reject_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func normalizeTransactions(transactions []models.Transaction) []map[string]any {
	normalized := make([]map[string]any, 0, len(transactions))
	for _, tx := range transactions {
		normalized = append(normalized, map[string]any{
			"id":                tx.ID,
			"user_id":           tx.UserID,
			"type":              tx.Type,
			"status":            tx.Status,
			"points_delta":      tx.PointsDelta,
			"amount":            formatMinorPtr(tx.AmountMinor),
			"recipient_user_id": tx.RecipientUserID,
			"bank_account_ref":  tx.BankAccountRef,
			"receipt_ref":       tx.ReceiptRef,
			"billing_period":    tx.BillingPeriod,
			"description":       tx.Description,
			"created_at":        tx.CreatedAt,
		})
	}
	return normalized
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
