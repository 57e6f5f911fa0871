package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"creatorledger/internal/db"
	"creatorledger/internal/models"
	"creatorledger/internal/store"
	"creatorledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	GiB = int64(1) << 30

	// The first GiB of every storage limit is free of recurring cost.
	freeTierGb = int64(1)

	// No storage limit may exceed maxStorageGb GiB; bounding the GB count
	// keeps the byte and cost multiplications inside int64.
	maxStorageGb = int64(1) << 20
)

// StorageService charges one-time storage purchases and the recurring
// monthly storage fee against the points ledger.
type StorageService struct {
	txRunner     db.TxRunner
	storage      StorageStore
	transactions TransactionStore
	pricing      PricingStore
	audit        AuditStore
	hub          WalletHub
}

func NewStorageService(txRunner db.TxRunner, storage StorageStore, transactions TransactionStore, pricing PricingStore, audit AuditStore, hub WalletHub) *StorageService {
	return &StorageService{
		txRunner:     txRunner,
		storage:      storage,
		transactions: transactions,
		pricing:      pricing,
		audit:        audit,
		hub:          hub,
	}
}

// MonthlyCostPoints computes the recurring cost for a storage limit:
// every GiB beyond the free tier is billed at the configured tariff.
func MonthlyCostPoints(limitBytes, costPerGb int64) int64 {
	billableGb := ceilGb(limitBytes) - freeTierGb
	if billableGb <= 0 {
		return 0
	}
	return billableGb * costPerGb
}

func ceilGb(bytes int64) int64 {
	return (bytes + GiB - 1) / GiB
}

// Purchase debits the one-time purchase cost and raises the storage limit in
// a single transaction; if the debit fails the limit is untouched.
func (s *StorageService) Purchase(ctx context.Context, userID string, additionalGb int64) error {
	if additionalGb <= 0 || additionalGb > maxStorageGb {
		return ErrInvalidAmount
	}
	pricing, err := s.pricing.Get(ctx)
	if err != nil {
		return err
	}
	costPoints := additionalGb * pricing.StoragePurchasePricePerGb
	var after models.Wallet
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.storage.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if ceilGb(account.LimitBytes)+additionalGb > maxStorageGb {
			return ErrInvalidAmount
		}
		wallet, err := s.transactions.Wallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if wallet.Balance < costPoints {
			return ErrInsufficientFunds
		}
		if err := s.transactions.Insert(ctx, tx, store.TransactionInput{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        models.TxTypePointSpend,
			Status:      models.TxStatusVerified,
			PointsDelta: -costPoints,
			Description: fmt.Sprintf("storage purchase: %d GB", additionalGb),
		}); err != nil {
			return err
		}
		newLimit := account.LimitBytes + additionalGb*GiB
		newCost := MonthlyCostPoints(newLimit, pricing.StorageMonthlyCostPerGb)
		if err := s.storage.UpdateLimit(ctx, tx, userID, newLimit, newCost); err != nil {
			return err
		}
		after, err = s.transactions.Wallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"additional_gb": additionalGb,
			"points":        costPoints,
		})
		return s.audit.Log(ctx, tx, userID, "storage_purchased", "storage_account", userID, string(data))
	})
	if err != nil {
		return err
	}
	s.hub.BroadcastWallet(userID, websocket.WalletUpdate{
		Balance:      after.Balance,
		LockedPoints: after.LockedPoints,
	})
	return nil
}

// Downgrade lowers the limit and the recurring cost going forward. It never
// refunds the original purchase and never shrinks below current usage.
func (s *StorageService) Downgrade(ctx context.Context, userID string, newLimitGb int64) error {
	if newLimitGb <= 0 || newLimitGb > maxStorageGb {
		return ErrInvalidStorageChange
	}
	pricing, err := s.pricing.Get(ctx)
	if err != nil {
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.storage.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if newLimitGb < ceilGb(account.TotalUsedBytes) {
			return ErrInvalidStorageChange
		}
		newLimit := newLimitGb * GiB
		if newLimit >= account.LimitBytes {
			return ErrInvalidStorageChange
		}
		newCost := MonthlyCostPoints(newLimit, pricing.StorageMonthlyCostPerGb)
		if err := s.storage.UpdateLimit(ctx, tx, userID, newLimit, newCost); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"new_limit_gb": newLimitGb,
		})
		return s.audit.Log(ctx, tx, userID, "storage_downgraded", "storage_account", userID, string(data))
	})
}

type BillingResult struct {
	Period              string `json:"period"`
	Charged             int    `json:"charged"`
	SkippedDuplicate    int    `json:"skipped_duplicate"`
	SkippedInsufficient int    `json:"skipped_insufficient"`
	Failed              int    `json:"failed"`
}

// RunMonthlyBilling charges every account with a recurring cost for the
// month of asOf. The (user_id, billing_period) key on storage_charge rows
// makes re-invocation a per-account no-op; accounts that cannot cover the
// charge are flagged for dunning instead of being overdrawn.
func (s *StorageService) RunMonthlyBilling(ctx context.Context, asOf time.Time) (BillingResult, error) {
	result := BillingResult{Period: PeriodKey(asOf)}
	accounts, err := s.storage.ListBillable(ctx)
	if err != nil {
		return result, err
	}
	for _, account := range accounts {
		outcome, err := s.billAccount(ctx, account, result.Period)
		if err != nil {
			if isUniqueViolation(err) {
				result.SkippedDuplicate++
				continue
			}
			log.Printf("storage billing failed for user %s: %v", account.UserID, err)
			result.Failed++
			continue
		}
		switch outcome {
		case billCharged:
			result.Charged++
		case billDuplicate:
			result.SkippedDuplicate++
		case billInsufficient:
			result.SkippedInsufficient++
		}
	}
	return result, nil
}

type billOutcome int

const (
	billCharged billOutcome = iota
	billDuplicate
	billInsufficient
)

func (s *StorageService) billAccount(ctx context.Context, account models.StorageAccount, period string) (billOutcome, error) {
	outcome := billCharged
	var after models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		charged, err := s.transactions.ExistsStorageCharge(ctx, tx, account.UserID, period)
		if err != nil {
			return err
		}
		if charged {
			outcome = billDuplicate
			return nil
		}
		wallet, err := s.transactions.Wallet(ctx, tx, account.UserID)
		if err != nil {
			return err
		}
		if wallet.Balance < account.MonthlyCostPoints {
			outcome = billInsufficient
			return s.storage.SetBillingFlag(ctx, tx, account.UserID, true)
		}
		outcome = billCharged
		billingPeriod := period
		if err := s.transactions.Insert(ctx, tx, store.TransactionInput{
			ID:            uuid.NewString(),
			UserID:        account.UserID,
			Type:          models.TxTypeStorageCharge,
			Status:        models.TxStatusVerified,
			PointsDelta:   -account.MonthlyCostPoints,
			BillingPeriod: &billingPeriod,
			Description:   "monthly storage charge " + period,
		}); err != nil {
			return err
		}
		if account.BillingFlaggedAt != nil {
			if err := s.storage.SetBillingFlag(ctx, tx, account.UserID, false); err != nil {
				return err
			}
		}
		after, err = s.transactions.Wallet(ctx, tx, account.UserID)
		return err
	})
	if err != nil {
		return outcome, err
	}
	if outcome == billCharged {
		s.hub.BroadcastWallet(account.UserID, websocket.WalletUpdate{
			Balance:      after.Balance,
			LockedPoints: after.LockedPoints,
		})
	}
	return outcome, nil
}
