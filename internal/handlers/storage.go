package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"creatorledger/internal/middleware"
	"creatorledger/internal/services"
)

func (h *Handler) GetStorage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	account, err := h.storage.Get(r.Context(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "storage account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load storage account")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":             account.UserID,
		"total_used_bytes":    account.TotalUsedBytes,
		"limit_bytes":         account.LimitBytes,
		"monthly_cost_points": account.MonthlyCostPoints,
		"billing_flagged_at":  account.BillingFlaggedAt,
	})
}

type purchaseStorageRequest struct {
	AdditionalGb int64 `json:"additional_gb"`
}

func (h *Handler) PurchaseStorage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req purchaseStorageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.storageSvc.Purchase(r.Context(), userID, req.AdditionalGb); err != nil {
		switch err {
		case services.ErrInsufficientFunds:
			respondError(w, http.StatusBadRequest, "insufficient_funds")
		case services.ErrInvalidAmount:
			respondError(w, http.StatusBadRequest, "invalid_amount")
		default:
			respondError(w, http.StatusInternalServerError, "purchase_failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "purchased"})
}

type downgradeStorageRequest struct {
	NewLimitGb int64 `json:"new_limit_gb"`
}

func (h *Handler) DowngradeStorage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req downgradeStorageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.storageSvc.Downgrade(r.Context(), userID, req.NewLimitGb); err != nil {
		if err == services.ErrInvalidStorageChange {
			respondError(w, http.StatusBadRequest, "invalid_storage_change")
			return
		}
		respondError(w, http.StatusInternalServerError, "downgrade_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "downgraded"})
}
