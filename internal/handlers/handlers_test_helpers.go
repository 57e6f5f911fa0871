package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"creatorledger/internal/auth"
	"creatorledger/internal/config"
	"creatorledger/internal/middleware"
	"creatorledger/internal/models"
	"creatorledger/internal/services"
	"creatorledger/internal/store"
	"creatorledger/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByUsernameFn func(ctx context.Context, username string) (models.User, error)
	getByIDFn       func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	if s.getByUsernameFn == nil {
		return models.User{}, nil
	}
	return s.getByUsernameFn(ctx, username)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubAdminStore struct {
	isAdminFn     func(ctx context.Context, userID string) (bool, bool, error)
	hasRoleFn     func(ctx context.Context, userID, role string) (bool, error)
	createAdminFn func(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
	grantRoleFn   func(ctx context.Context, tx store.Execer, adminUserID, role string) error
	hasAnyAdminFn func(ctx context.Context) (bool, error)
}

func (s stubAdminStore) IsAdmin(ctx context.Context, userID string) (bool, bool, error) {
	if s.isAdminFn == nil {
		return false, false, nil
	}
	return s.isAdminFn(ctx, userID)
}

func (s stubAdminStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if s.hasRoleFn == nil {
		return false, nil
	}
	return s.hasRoleFn(ctx, userID, role)
}

func (s stubAdminStore) CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error {
	if s.createAdminFn == nil {
		return nil
	}
	return s.createAdminFn(ctx, tx, userID, isSuper, createdBy)
}

func (s stubAdminStore) GrantRole(ctx context.Context, tx store.Execer, adminUserID, role string) error {
	if s.grantRoleFn == nil {
		return nil
	}
	return s.grantRoleFn(ctx, tx, adminUserID, role)
}

func (s stubAdminStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	if s.hasAnyAdminFn == nil {
		return true, nil
	}
	return s.hasAnyAdminFn(ctx)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]store.AuditLog, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]store.AuditLog, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubTransactionStore struct {
	getByIDFn    func(ctx context.Context, transactionID string) (models.Transaction, error)
	listByUserFn func(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error)
	listAllFn    func(ctx context.Context, status string, limit, offset int) ([]models.Transaction, error)
}

func (s stubTransactionStore) GetByID(ctx context.Context, transactionID string) (models.Transaction, error) {
	if s.getByIDFn == nil {
		return models.Transaction{ID: transactionID}, nil
	}
	return s.getByIDFn(ctx, transactionID)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, txType, limit, offset)
}

func (s stubTransactionStore) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Transaction, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, status, limit, offset)
}

type stubPayoutStore struct {
	getByIDFn    func(ctx context.Context, payoutID string) (models.Payout, error)
	listByUserFn func(ctx context.Context, userID string, limit, offset int) ([]models.Payout, error)
	listAllFn    func(ctx context.Context, status string, limit, offset int) ([]models.Payout, error)
}

func (s stubPayoutStore) GetByID(ctx context.Context, payoutID string) (models.Payout, error) {
	if s.getByIDFn == nil {
		return models.Payout{ID: payoutID}, nil
	}
	return s.getByIDFn(ctx, payoutID)
}

func (s stubPayoutStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payout, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubPayoutStore) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Payout, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, status, limit, offset)
}

type stubWithdrawalStore struct {
	getByIDFn func(ctx context.Context, withdrawalID string) (models.Withdrawal, error)
	listAllFn func(ctx context.Context, status string, limit, offset int) ([]models.Withdrawal, error)
}

func (s stubWithdrawalStore) GetByID(ctx context.Context, withdrawalID string) (models.Withdrawal, error) {
	if s.getByIDFn == nil {
		return models.Withdrawal{ID: withdrawalID}, nil
	}
	return s.getByIDFn(ctx, withdrawalID)
}

func (s stubWithdrawalStore) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Withdrawal, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, status, limit, offset)
}

type stubBankAccountStore struct {
	createFn     func(ctx context.Context, tx store.Execer, input store.BankAccountInput) error
	getByIDFn    func(ctx context.Context, bankAccountID string) (models.BankAccount, error)
	deactivateFn func(ctx context.Context, tx store.Execer, bankAccountID string) (int64, error)
	listAllFn    func(ctx context.Context) ([]models.BankAccount, error)
}

func (s stubBankAccountStore) Create(ctx context.Context, tx store.Execer, input store.BankAccountInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubBankAccountStore) GetByID(ctx context.Context, bankAccountID string) (models.BankAccount, error) {
	if s.getByIDFn == nil {
		return models.BankAccount{ID: bankAccountID, IsActive: true}, nil
	}
	return s.getByIDFn(ctx, bankAccountID)
}

func (s stubBankAccountStore) Deactivate(ctx context.Context, tx store.Execer, bankAccountID string) (int64, error) {
	if s.deactivateFn == nil {
		return 1, nil
	}
	return s.deactivateFn(ctx, tx, bankAccountID)
}

func (s stubBankAccountStore) ListAll(ctx context.Context) ([]models.BankAccount, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx)
}

type stubStorageStore struct {
	createFn func(ctx context.Context, tx store.Execer, userID string, limitBytes int64) error
	getFn    func(ctx context.Context, userID string) (models.StorageAccount, error)
}

func (s stubStorageStore) Create(ctx context.Context, tx store.Execer, userID string, limitBytes int64) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, userID, limitBytes)
}

func (s stubStorageStore) Get(ctx context.Context, userID string) (models.StorageAccount, error) {
	if s.getFn == nil {
		return models.StorageAccount{UserID: userID}, nil
	}
	return s.getFn(ctx, userID)
}

type stubPricingStore struct {
	getFn    func(ctx context.Context) (models.PricingConfig, error)
	updateFn func(ctx context.Context, tx store.Execer, input store.PricingInput, updatedBy string) error
}

func (s stubPricingStore) Get(ctx context.Context) (models.PricingConfig, error) {
	if s.getFn == nil {
		return models.PricingConfig{PointBuyPrice: "1", PointUserValue: "1"}, nil
	}
	return s.getFn(ctx)
}

func (s stubPricingStore) Update(ctx context.Context, tx store.Execer, input store.PricingInput, updatedBy string) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, tx, input, updatedBy)
}

type stubLedgerService struct {
	recordTopUpFn func(ctx context.Context, req services.TopUpRequest) (string, error)
	verifyFn      func(ctx context.Context, transactionID, adminID string) (int64, error)
	rejectFn      func(ctx context.Context, transactionID, adminID, reason string) error
	spendFn       func(ctx context.Context, req services.SpendRequest) (string, error)
	walletFn      func(ctx context.Context, userID string) (models.Wallet, error)
}

func (s stubLedgerService) RecordTopUp(ctx context.Context, req services.TopUpRequest) (string, error) {
	if s.recordTopUpFn == nil {
		return "tx-1", nil
	}
	return s.recordTopUpFn(ctx, req)
}

func (s stubLedgerService) VerifyTopUp(ctx context.Context, transactionID, adminID string) (int64, error) {
	if s.verifyFn == nil {
		return 0, nil
	}
	return s.verifyFn(ctx, transactionID, adminID)
}

func (s stubLedgerService) RejectTopUp(ctx context.Context, transactionID, adminID, reason string) error {
	if s.rejectFn == nil {
		return nil
	}
	return s.rejectFn(ctx, transactionID, adminID, reason)
}

func (s stubLedgerService) SpendPoints(ctx context.Context, req services.SpendRequest) (string, error) {
	if s.spendFn == nil {
		return "tx-1", nil
	}
	return s.spendFn(ctx, req)
}

func (s stubLedgerService) Wallet(ctx context.Context, userID string) (models.Wallet, error) {
	if s.walletFn == nil {
		return models.Wallet{UserID: userID}, nil
	}
	return s.walletFn(ctx, userID)
}

type stubPayoutService struct {
	generateFn       func(ctx context.Context, asOf time.Time) (services.GenerateResult, error)
	markProcessingFn func(ctx context.Context, payoutID, adminID string) error
	cancelFn         func(ctx context.Context, payoutID, adminID, reason string) error
	completeFn       func(ctx context.Context, payoutID, adminID string, settledAmountMinor int64) error
}

func (s stubPayoutService) GenerateMonthly(ctx context.Context, asOf time.Time) (services.GenerateResult, error) {
	if s.generateFn == nil {
		return services.GenerateResult{}, nil
	}
	return s.generateFn(ctx, asOf)
}

func (s stubPayoutService) MarkProcessing(ctx context.Context, payoutID, adminID string) error {
	if s.markProcessingFn == nil {
		return nil
	}
	return s.markProcessingFn(ctx, payoutID, adminID)
}

func (s stubPayoutService) Cancel(ctx context.Context, payoutID, adminID, reason string) error {
	if s.cancelFn == nil {
		return nil
	}
	return s.cancelFn(ctx, payoutID, adminID, reason)
}

func (s stubPayoutService) Complete(ctx context.Context, payoutID, adminID string, settledAmountMinor int64) error {
	if s.completeFn == nil {
		return nil
	}
	return s.completeFn(ctx, payoutID, adminID, settledAmountMinor)
}

type stubStorageService struct {
	purchaseFn  func(ctx context.Context, userID string, additionalGb int64) error
	downgradeFn func(ctx context.Context, userID string, newLimitGb int64) error
	billingFn   func(ctx context.Context, asOf time.Time) (services.BillingResult, error)
}

func (s stubStorageService) Purchase(ctx context.Context, userID string, additionalGb int64) error {
	if s.purchaseFn == nil {
		return nil
	}
	return s.purchaseFn(ctx, userID, additionalGb)
}

func (s stubStorageService) Downgrade(ctx context.Context, userID string, newLimitGb int64) error {
	if s.downgradeFn == nil {
		return nil
	}
	return s.downgradeFn(ctx, userID, newLimitGb)
}

func (s stubStorageService) RunMonthlyBilling(ctx context.Context, asOf time.Time) (services.BillingResult, error) {
	if s.billingFn == nil {
		return services.BillingResult{}, nil
	}
	return s.billingFn(ctx, asOf)
}

type stubWithdrawalService struct {
	createFn         func(ctx context.Context, req services.WithdrawalRequest) (string, error)
	markProcessingFn func(ctx context.Context, withdrawalID, adminID string) error
	completeFn       func(ctx context.Context, withdrawalID, adminID string) error
	cancelFn         func(ctx context.Context, withdrawalID, adminID, notes string) error
	failFn           func(ctx context.Context, withdrawalID, adminID, notes string) error
}

func (s stubWithdrawalService) Create(ctx context.Context, req services.WithdrawalRequest) (string, error) {
	if s.createFn == nil {
		return "w-1", nil
	}
	return s.createFn(ctx, req)
}

func (s stubWithdrawalService) MarkProcessing(ctx context.Context, withdrawalID, adminID string) error {
	if s.markProcessingFn == nil {
		return nil
	}
	return s.markProcessingFn(ctx, withdrawalID, adminID)
}

func (s stubWithdrawalService) Complete(ctx context.Context, withdrawalID, adminID string) error {
	if s.completeFn == nil {
		return nil
	}
	return s.completeFn(ctx, withdrawalID, adminID)
}

func (s stubWithdrawalService) Cancel(ctx context.Context, withdrawalID, adminID, notes string) error {
	if s.cancelFn == nil {
		return nil
	}
	return s.cancelFn(ctx, withdrawalID, adminID, notes)
}

func (s stubWithdrawalService) Fail(ctx context.Context, withdrawalID, adminID, notes string) error {
	if s.failFn == nil {
		return nil
	}
	return s.failFn(ctx, withdrawalID, adminID, notes)
}

// testDeps bundles every handler dependency with working zero values so each
// test overrides only what it exercises.
type testDeps struct {
	txRunner    fakeTxRunner
	users       stubUserStore
	admin       stubAdminStore
	audit       stubAuditStore
	txs         stubTransactionStore
	payouts     stubPayoutStore
	withdrawals stubWithdrawalStore
	banks       stubBankAccountStore
	storage     stubStorageStore
	pricing     stubPricingStore
	ledger      stubLedgerService
	payoutSvc   stubPayoutService
	storageSvc  stubStorageService
	wdSvc       stubWithdrawalService
}

func newTestHandler(deps testDeps) *Handler {
	cfg := config.Config{
		AppEnv:          "test",
		Port:            "0",
		JWTSecret:       "secret",
		TokenTTL:        time.Minute,
		AllowedOrigins:  "*",
		SchedulerSecret: "job-secret",
	}
	return New(cfg, deps.txRunner, deps.users, deps.admin, deps.audit, deps.txs, deps.payouts,
		deps.withdrawals, deps.banks, deps.storage, deps.pricing, deps.ledger, deps.payoutSvc,
		deps.storageSvc, deps.wdSvc, websocket.NewHub())
}

func serveAuthed(t *testing.T, handler http.HandlerFunc, req *http.Request, userID string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}
