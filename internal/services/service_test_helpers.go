package services

import (
	"context"

	"creatorledger/internal/models"
	"creatorledger/internal/store"
	"creatorledger/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubTransactionStore struct {
	insertFn         func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	getForUpdateFn   func(ctx context.Context, tx store.Getter, transactionID string) (models.Transaction, error)
	markVerifiedFn   func(ctx context.Context, tx store.Execer, transactionID string, pointsDelta int64) (int64, error)
	markRejectedFn   func(ctx context.Context, tx store.Execer, transactionID, reason string) (int64, error)
	walletFn         func(ctx context.Context, q store.Getter, userID string) (models.Wallet, error)
	walletSnapshotFn func(ctx context.Context, userID string) (models.Wallet, error)
	existsChargeFn   func(ctx context.Context, q store.Getter, userID, billingPeriod string) (bool, error)
	eligibleFn       func(ctx context.Context) ([]string, error)
}

func (s stubTransactionStore) Insert(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, input)
}

func (s stubTransactionStore) GetForUpdate(ctx context.Context, tx store.Getter, transactionID string) (models.Transaction, error) {
	return s.getForUpdateFn(ctx, tx, transactionID)
}

func (s stubTransactionStore) MarkVerified(ctx context.Context, tx store.Execer, transactionID string, pointsDelta int64) (int64, error) {
	if s.markVerifiedFn == nil {
		return 1, nil
	}
	return s.markVerifiedFn(ctx, tx, transactionID, pointsDelta)
}

func (s stubTransactionStore) MarkRejected(ctx context.Context, tx store.Execer, transactionID, reason string) (int64, error) {
	if s.markRejectedFn == nil {
		return 1, nil
	}
	return s.markRejectedFn(ctx, tx, transactionID, reason)
}

func (s stubTransactionStore) Wallet(ctx context.Context, q store.Getter, userID string) (models.Wallet, error) {
	if s.walletFn == nil {
		return models.Wallet{UserID: userID}, nil
	}
	return s.walletFn(ctx, q, userID)
}

func (s stubTransactionStore) WalletSnapshot(ctx context.Context, userID string) (models.Wallet, error) {
	if s.walletSnapshotFn == nil {
		return models.Wallet{UserID: userID}, nil
	}
	return s.walletSnapshotFn(ctx, userID)
}

func (s stubTransactionStore) ExistsStorageCharge(ctx context.Context, q store.Getter, userID, billingPeriod string) (bool, error) {
	if s.existsChargeFn == nil {
		return false, nil
	}
	return s.existsChargeFn(ctx, q, userID, billingPeriod)
}

func (s stubTransactionStore) EligibleForPayout(ctx context.Context) ([]string, error) {
	if s.eligibleFn == nil {
		return nil, nil
	}
	return s.eligibleFn(ctx)
}

type stubPayoutStore struct {
	createFn         func(ctx context.Context, tx store.Execer, input store.PayoutInput) (int64, error)
	getForUpdateFn   func(ctx context.Context, tx store.Getter, payoutID string) (models.Payout, error)
	markProcessingFn func(ctx context.Context, tx store.Execer, payoutID string) (int64, error)
	cancelFn         func(ctx context.Context, tx store.Execer, payoutID, processedBy, reason string) (int64, error)
	completeFn       func(ctx context.Context, tx store.Execer, payoutID, processedBy string, settledAmountMinor int64) (int64, error)
}

func (s stubPayoutStore) Create(ctx context.Context, tx store.Execer, input store.PayoutInput) (int64, error) {
	if s.createFn == nil {
		return 1, nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubPayoutStore) GetForUpdate(ctx context.Context, tx store.Getter, payoutID string) (models.Payout, error) {
	if s.getForUpdateFn == nil {
		return models.Payout{ID: payoutID}, nil
	}
	return s.getForUpdateFn(ctx, tx, payoutID)
}

func (s stubPayoutStore) MarkProcessing(ctx context.Context, tx store.Execer, payoutID string) (int64, error) {
	if s.markProcessingFn == nil {
		return 1, nil
	}
	return s.markProcessingFn(ctx, tx, payoutID)
}

func (s stubPayoutStore) Cancel(ctx context.Context, tx store.Execer, payoutID, processedBy, reason string) (int64, error) {
	if s.cancelFn == nil {
		return 1, nil
	}
	return s.cancelFn(ctx, tx, payoutID, processedBy, reason)
}

func (s stubPayoutStore) Complete(ctx context.Context, tx store.Execer, payoutID, processedBy string, settledAmountMinor int64) (int64, error) {
	if s.completeFn == nil {
		return 1, nil
	}
	return s.completeFn(ctx, tx, payoutID, processedBy, settledAmountMinor)
}

type stubStorageStore struct {
	getForUpdateFn   func(ctx context.Context, tx store.Getter, userID string) (models.StorageAccount, error)
	updateLimitFn    func(ctx context.Context, tx store.Execer, userID string, limitBytes, monthlyCostPoints int64) error
	listBillableFn   func(ctx context.Context) ([]models.StorageAccount, error)
	setBillingFlagFn func(ctx context.Context, tx store.Execer, userID string, flagged bool) error
}

func (s stubStorageStore) GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.StorageAccount, error) {
	return s.getForUpdateFn(ctx, tx, userID)
}

func (s stubStorageStore) UpdateLimit(ctx context.Context, tx store.Execer, userID string, limitBytes, monthlyCostPoints int64) error {
	if s.updateLimitFn == nil {
		return nil
	}
	return s.updateLimitFn(ctx, tx, userID, limitBytes, monthlyCostPoints)
}

func (s stubStorageStore) ListBillable(ctx context.Context) ([]models.StorageAccount, error) {
	if s.listBillableFn == nil {
		return nil, nil
	}
	return s.listBillableFn(ctx)
}

func (s stubStorageStore) SetBillingFlag(ctx context.Context, tx store.Execer, userID string, flagged bool) error {
	if s.setBillingFlagFn == nil {
		return nil
	}
	return s.setBillingFlagFn(ctx, tx, userID, flagged)
}

type stubWithdrawalStore struct {
	createFn         func(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error
	getByIDFn        func(ctx context.Context, withdrawalID string) (models.Withdrawal, error)
	markProcessingFn func(ctx context.Context, tx store.Execer, withdrawalID string) (int64, error)
	completeFn       func(ctx context.Context, tx store.Execer, withdrawalID, processedBy string) (int64, error)
	cancelFn         func(ctx context.Context, tx store.Execer, withdrawalID, processedBy, notes string) (int64, error)
	failFn           func(ctx context.Context, tx store.Execer, withdrawalID, processedBy, notes string) (int64, error)
}

func (s stubWithdrawalStore) Create(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubWithdrawalStore) GetByID(ctx context.Context, withdrawalID string) (models.Withdrawal, error) {
	if s.getByIDFn == nil {
		return models.Withdrawal{ID: withdrawalID}, nil
	}
	return s.getByIDFn(ctx, withdrawalID)
}

func (s stubWithdrawalStore) MarkProcessing(ctx context.Context, tx store.Execer, withdrawalID string) (int64, error) {
	if s.markProcessingFn == nil {
		return 1, nil
	}
	return s.markProcessingFn(ctx, tx, withdrawalID)
}

func (s stubWithdrawalStore) Complete(ctx context.Context, tx store.Execer, withdrawalID, processedBy string) (int64, error) {
	if s.completeFn == nil {
		return 1, nil
	}
	return s.completeFn(ctx, tx, withdrawalID, processedBy)
}

func (s stubWithdrawalStore) Cancel(ctx context.Context, tx store.Execer, withdrawalID, processedBy, notes string) (int64, error) {
	if s.cancelFn == nil {
		return 1, nil
	}
	return s.cancelFn(ctx, tx, withdrawalID, processedBy, notes)
}

func (s stubWithdrawalStore) Fail(ctx context.Context, tx store.Execer, withdrawalID, processedBy, notes string) (int64, error) {
	if s.failFn == nil {
		return 1, nil
	}
	return s.failFn(ctx, tx, withdrawalID, processedBy, notes)
}

type stubBankAccountStore struct {
	getByIDFn func(ctx context.Context, bankAccountID string) (models.BankAccount, error)
}

func (s stubBankAccountStore) GetByID(ctx context.Context, bankAccountID string) (models.BankAccount, error) {
	if s.getByIDFn == nil {
		return models.BankAccount{ID: bankAccountID, IsActive: true}, nil
	}
	return s.getByIDFn(ctx, bankAccountID)
}

type stubPricingStore struct {
	getFn func(ctx context.Context) (models.PricingConfig, error)
}

func (s stubPricingStore) Get(ctx context.Context) (models.PricingConfig, error) {
	if s.getFn == nil {
		return models.PricingConfig{
			PointBuyPrice:             "1",
			PointUserValue:            "1",
			StoragePurchasePricePerGb: 100,
			StorageMonthlyCostPerGb:   10,
			MandatoryTopUpMinimum:     1000,
		}, nil
	}
	return s.getFn(ctx)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	calls map[string][]websocket.WalletUpdate
}

func (s *stubHub) BroadcastWallet(userID string, update websocket.WalletUpdate) {
	if s.calls == nil {
		s.calls = map[string][]websocket.WalletUpdate{}
	}
	s.calls[userID] = append(s.calls[userID], update)
}

func stringPtr(value string) *string {
	return &value
}
