package models

import "time"

const (
	TxTypeTopUp            = "top_up"
	TxTypePointSpend       = "point_spend"
	TxTypeBoost            = "boost"
	TxTypeStorageCharge    = "storage_charge"
	TxTypePayoutSettlement = "payout_settlement"

	TxStatusPending  = "pending"
	TxStatusVerified = "verified"
	TxStatusRejected = "rejected"

	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusPaid       = "paid"
	PayoutStatusCancelled  = "cancelled"

	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusCancelled  = "cancelled"
	WithdrawalStatusFailed     = "failed"
)

func ValidTxType(txType string) bool {
	switch txType {
	case TxTypeTopUp, TxTypePointSpend, TxTypeBoost, TxTypeStorageCharge, TxTypePayoutSettlement:
		return true
	}
	return false
}

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Type            string    `db:"type" json:"type"`
	Status          string    `db:"status" json:"status"`
	PointsDelta     int64     `db:"points_delta" json:"points_delta"`
	AmountMinor     *int64    `db:"amount_minor" json:"amount_minor,omitempty"`
	RecipientUserID *string   `db:"recipient_user_id" json:"recipient_user_id,omitempty"`
	BankAccountRef  *string   `db:"bank_account_ref" json:"bank_account_ref,omitempty"`
	ReceiptRef      *string   `db:"receipt_ref" json:"receipt_ref,omitempty"`
	TransferRef     *string   `db:"transfer_ref" json:"transfer_ref,omitempty"`
	BillingPeriod   *string   `db:"billing_period" json:"billing_period,omitempty"`
	Description     string    `db:"description" json:"description"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Wallet is derived from the ledger; it never exists as a stored row.
type Wallet struct {
	UserID       string `json:"user_id"`
	Balance      int64  `json:"balance"`
	LockedPoints int64  `json:"locked_points"`
}

type Payout struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"user_id"`
	GrossPoints        int64      `db:"gross_points" json:"gross_points"`
	LockedPoints       int64      `db:"locked_points" json:"locked_points"`
	AmountMinor        int64      `db:"amount_minor" json:"amount_minor"`
	Status             string     `db:"status" json:"status"`
	ScheduledFor       string     `db:"scheduled_for" json:"scheduled_for"`
	ProcessedAt        *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	ProcessedBy        *string    `db:"processed_by" json:"processed_by,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

type Withdrawal struct {
	ID            string     `db:"id" json:"id"`
	BankAccountID string     `db:"bank_account_id" json:"bank_account_id"`
	AmountMinor   int64      `db:"amount_minor" json:"amount_minor"`
	Status        string     `db:"status" json:"status"`
	RequestedBy   string     `db:"requested_by" json:"requested_by"`
	ProcessedBy   *string    `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt   *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	Notes         string     `db:"notes" json:"notes"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

type BankAccount struct {
	ID            string    `db:"id" json:"id"`
	OwnerScope    string    `db:"owner_scope" json:"owner_scope"`
	AccountName   string    `db:"account_name" json:"account_name"`
	BankName      string    `db:"bank_name" json:"bank_name"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	AccountType   string    `db:"account_type" json:"account_type"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type StorageAccount struct {
	UserID            string     `db:"user_id" json:"user_id"`
	TotalUsedBytes    int64      `db:"total_used_bytes" json:"total_used_bytes"`
	LimitBytes        int64      `db:"limit_bytes" json:"limit_bytes"`
	MonthlyCostPoints int64      `db:"monthly_cost_points" json:"monthly_cost_points"`
	BillingFlaggedAt  *time.Time `db:"billing_flagged_at" json:"billing_flagged_at,omitempty"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

type PricingConfig struct {
	PointBuyPrice             string    `db:"point_buy_price" json:"point_buy_price"`
	PointUserValue            string    `db:"point_user_value" json:"point_user_value"`
	StoragePurchasePricePerGb int64     `db:"storage_purchase_price_per_gb" json:"storage_purchase_price_per_gb"`
	StorageMonthlyCostPerGb   int64     `db:"storage_monthly_cost_per_gb" json:"storage_monthly_cost_per_gb"`
	MandatoryTopUpMinimum     int64     `db:"mandatory_top_up_minimum" json:"mandatory_top_up_minimum"`
	UpdatedAt                 time.Time `db:"updated_at" json:"updated_at"`
	UpdatedBy                 *string   `db:"updated_by" json:"updated_by,omitempty"`
}
