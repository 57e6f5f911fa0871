package services

import (
	"context"
	"time"

	"creatorledger/internal/models"
	"creatorledger/internal/store"
	"creatorledger/internal/websocket"
)

// Store interfaces are declared here, on the consumer side, so services can
// be exercised against stubs.

type TransactionStore interface {
	Insert(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, transactionID string) (models.Transaction, error)
	MarkVerified(ctx context.Context, tx store.Execer, transactionID string, pointsDelta int64) (int64, error)
	MarkRejected(ctx context.Context, tx store.Execer, transactionID, reason string) (int64, error)
	Wallet(ctx context.Context, q store.Getter, userID string) (models.Wallet, error)
	WalletSnapshot(ctx context.Context, userID string) (models.Wallet, error)
	ExistsStorageCharge(ctx context.Context, q store.Getter, userID, billingPeriod string) (bool, error)
	EligibleForPayout(ctx context.Context) ([]string, error)
}

type PayoutStore interface {
	Create(ctx context.Context, tx store.Execer, input store.PayoutInput) (int64, error)
	GetForUpdate(ctx context.Context, tx store.Getter, payoutID string) (models.Payout, error)
	MarkProcessing(ctx context.Context, tx store.Execer, payoutID string) (int64, error)
	Cancel(ctx context.Context, tx store.Execer, payoutID, processedBy, reason string) (int64, error)
	Complete(ctx context.Context, tx store.Execer, payoutID, processedBy string, settledAmountMinor int64) (int64, error)
}

type StorageStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.StorageAccount, error)
	UpdateLimit(ctx context.Context, tx store.Execer, userID string, limitBytes, monthlyCostPoints int64) error
	ListBillable(ctx context.Context) ([]models.StorageAccount, error)
	SetBillingFlag(ctx context.Context, tx store.Execer, userID string, flagged bool) error
}

type WithdrawalStore interface {
	Create(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error
	GetByID(ctx context.Context, withdrawalID string) (models.Withdrawal, error)
	MarkProcessing(ctx context.Context, tx store.Execer, withdrawalID string) (int64, error)
	Complete(ctx context.Context, tx store.Execer, withdrawalID, processedBy string) (int64, error)
	Cancel(ctx context.Context, tx store.Execer, withdrawalID, processedBy, notes string) (int64, error)
	Fail(ctx context.Context, tx store.Execer, withdrawalID, processedBy, notes string) (int64, error)
}

type BankAccountStore interface {
	GetByID(ctx context.Context, bankAccountID string) (models.BankAccount, error)
}

type PricingStore interface {
	Get(ctx context.Context) (models.PricingConfig, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type WalletHub interface {
	BroadcastWallet(userID string, update websocket.WalletUpdate)
}

// PeriodKey is the calendar-month idempotency key for the scheduled jobs.
// Jobs are keyed on it in the store, not on their trigger time, so a missed
// or repeated trigger self-corrects.
func PeriodKey(asOf time.Time) string {
	return asOf.UTC().Format("2006-01")
}
