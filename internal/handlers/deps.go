package handlers

import (
	"context"
	"time"

	"creatorledger/internal/models"
	"creatorledger/internal/services"
	"creatorledger/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, bool, error)
	HasRole(ctx context.Context, userID, role string) (bool, error)
	CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
	GrantRole(ctx context.Context, tx store.Execer, adminUserID, role string) error
	HasAnyAdmin(ctx context.Context) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]store.AuditLog, error)
}

type TransactionStore interface {
	GetByID(ctx context.Context, transactionID string) (models.Transaction, error)
	ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]models.Transaction, error)
}

type PayoutStore interface {
	GetByID(ctx context.Context, payoutID string) (models.Payout, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payout, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]models.Payout, error)
}

type WithdrawalStore interface {
	GetByID(ctx context.Context, withdrawalID string) (models.Withdrawal, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]models.Withdrawal, error)
}

type BankAccountStore interface {
	Create(ctx context.Context, tx store.Execer, input store.BankAccountInput) error
	GetByID(ctx context.Context, bankAccountID string) (models.BankAccount, error)
	Deactivate(ctx context.Context, tx store.Execer, bankAccountID string) (int64, error)
	ListAll(ctx context.Context) ([]models.BankAccount, error)
}

type StorageStore interface {
	Create(ctx context.Context, tx store.Execer, userID string, limitBytes int64) error
	Get(ctx context.Context, userID string) (models.StorageAccount, error)
}

type PricingStore interface {
	Get(ctx context.Context) (models.PricingConfig, error)
	Update(ctx context.Context, tx store.Execer, input store.PricingInput, updatedBy string) error
}

type LedgerService interface {
	RecordTopUp(ctx context.Context, req services.TopUpRequest) (string, error)
	VerifyTopUp(ctx context.Context, transactionID, adminID string) (int64, error)
	RejectTopUp(ctx context.Context, transactionID, adminID, reason string) error
	SpendPoints(ctx context.Context, req services.SpendRequest) (string, error)
	Wallet(ctx context.Context, userID string) (models.Wallet, error)
}

type PayoutService interface {
	GenerateMonthly(ctx context.Context, asOf time.Time) (services.GenerateResult, error)
	MarkProcessing(ctx context.Context, payoutID, adminID string) error
	Cancel(ctx context.Context, payoutID, adminID, reason string) error
	Complete(ctx context.Context, payoutID, adminID string, settledAmountMinor int64) error
}

type StorageService interface {
	Purchase(ctx context.Context, userID string, additionalGb int64) error
	Downgrade(ctx context.Context, userID string, newLimitGb int64) error
	RunMonthlyBilling(ctx context.Context, asOf time.Time) (services.BillingResult, error)
}

type WithdrawalService interface {
	Create(ctx context.Context, req services.WithdrawalRequest) (string, error)
	MarkProcessing(ctx context.Context, withdrawalID, adminID string) error
	Complete(ctx context.Context, withdrawalID, adminID string) error
	Cancel(ctx context.Context, withdrawalID, adminID, notes string) error
	Fail(ctx context.Context, withdrawalID, adminID, notes string) error
}
