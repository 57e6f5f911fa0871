package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"creatorledger/internal/middleware"
	"creatorledger/internal/money"
	"creatorledger/internal/store"
	"creatorledger/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var adminRoles = map[string]bool{
	"CanViewTransactions":  true,
	"CanVerifyTopUps":      true,
	"CanManagePayouts":     true,
	"CanManageWithdrawals": true,
	"CanManagePricing":     true,
}

func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	pricing, err := h.pricing.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load pricing")
		return
	}
	respondJSON(w, http.StatusOK, pricing)
}

type updatePricingRequest struct {
	PointBuyPrice             string `json:"point_buy_price"`
	PointUserValue            string `json:"point_user_value"`
	StoragePurchasePricePerGb int64  `json:"storage_purchase_price_per_gb"`
	StorageMonthlyCostPerGb   int64  `json:"storage_monthly_cost_per_gb"`
	MandatoryTopUpMinimum     int64  `json:"mandatory_top_up_minimum"`
}

func (h *Handler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updatePricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if _, err := money.ParseRate(req.PointBuyPrice); err != nil {
		respondError(w, http.StatusBadRequest, "invalid point_buy_price")
		return
	}
	if _, err := money.ParseRate(req.PointUserValue); err != nil {
		respondError(w, http.StatusBadRequest, "invalid point_user_value")
		return
	}
	if req.StoragePurchasePricePerGb <= 0 || req.StorageMonthlyCostPerGb <= 0 {
		respondError(w, http.StatusBadRequest, "storage tariffs must be positive")
		return
	}
	if req.MandatoryTopUpMinimum < 0 {
		respondError(w, http.StatusBadRequest, "mandatory_top_up_minimum must not be negative")
		return
	}
	input := store.PricingInput{
		PointBuyPrice:             req.PointBuyPrice,
		PointUserValue:            req.PointUserValue,
		StoragePurchasePricePerGb: req.StoragePurchasePricePerGb,
		StorageMonthlyCostPerGb:   req.StorageMonthlyCostPerGb,
		MandatoryTopUpMinimum:     req.MandatoryTopUpMinimum,
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.pricing.Update(r.Context(), tx, input, adminID); err != nil {
			return err
		}
		payload, _ := json.Marshal(req)
		return h.audit.Log(r.Context(), tx, adminID, "pricing_updated", "pricing_config", "1", string(payload))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update pricing")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.bankAccounts.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load bank accounts")
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

type createBankAccountRequest struct {
	OwnerScope    string `json:"owner_scope"`
	AccountName   string `json:"account_name"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
}

func (h *Handler) CreateBankAccount(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createBankAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateOwnerScope(req.OwnerScope); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateAccountNumber(req.AccountNumber); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AccountName == "" || req.BankName == "" {
		respondError(w, http.StatusBadRequest, "account_name and bank_name are required")
		return
	}
	accountID := uuid.NewString()
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.bankAccounts.Create(r.Context(), tx, store.BankAccountInput{
			ID:            accountID,
			OwnerScope:    req.OwnerScope,
			AccountName:   req.AccountName,
			BankName:      req.BankName,
			AccountNumber: req.AccountNumber,
			AccountType:   req.AccountType,
		}); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, adminID, "bank_account_created", "bank_account", accountID,
			fmt.Sprintf(`{"owner_scope":%q}`, req.OwnerScope))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create bank account")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": accountID})
}

func (h *Handler) DeactivateBankAccount(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID := chi.URLParam(r, "id")
	var changed int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.bankAccounts.Deactivate(r.Context(), tx, accountID)
		if err != nil {
			return err
		}
		changed = rows
		if rows == 0 {
			return nil
		}
		return h.audit.Log(r.Context(), tx, adminID, "bank_account_deactivated", "bank_account", accountID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to deactivate bank account")
		return
	}
	if changed == 0 {
		respondError(w, http.StatusConflict, "bank account is not active")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 50)
	logs, err := h.audit.List(r.Context(), limit, (page-1)*limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	normalized := make([]map[string]any, 0, len(logs))
	for _, entry := range logs {
		normalized = append(normalized, map[string]any{
			"id":            entry.ID,
			"actor_user_id": entry.ActorUserID,
			"action":        entry.Action,
			"entity_type":   entry.EntityType,
			"entity_id":     entry.EntityID,
			"data":          json.RawMessage(entry.Data),
			"created_at":    entry.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

type promoteAdminRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !h.requireSuper(w, r, adminID) {
		return
	}
	var req promoteAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if _, err := h.users.GetByID(r.Context(), req.UserID); err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.admin.CreateAdmin(r.Context(), tx, req.UserID, false, &adminID); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, adminID, "admin_promoted", "admin", req.UserID, "{}")
	})
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			respondError(w, http.StatusConflict, "user is already an admin")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to promote user")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "promoted"})
}

type grantRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !h.requireSuper(w, r, adminID) {
		return
	}
	var req grantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if !adminRoles[req.Role] {
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}
	isAdmin, _, err := h.admin.IsAdmin(r.Context(), req.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify admin")
		return
	}
	if !isAdmin {
		respondError(w, http.StatusConflict, "user is not an admin")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.admin.GrantRole(r.Context(), tx, req.UserID, req.Role); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, adminID, "role_granted", "admin", req.UserID,
			fmt.Sprintf(`{"role":%q}`, req.Role))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to grant role")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "granted"})
}

func (h *Handler) requireSuper(w http.ResponseWriter, r *http.Request, adminID string) bool {
	_, isSuper, err := h.admin.IsAdmin(r.Context(), adminID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify admin")
		return false
	}
	if !isSuper {
		respondError(w, http.StatusForbidden, "super admin privileges required")
		return false
	}
	return true
}
