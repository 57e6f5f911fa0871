package services

import (
	"context"
	"testing"

	"creatorledger/internal/models"
	"creatorledger/internal/store"
)

func TestRecordTopUpInvalidAmount(t *testing.T) {
	service := NewLedgerService(fakeTxRunner{}, stubTransactionStore{}, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	_, err := service.RecordTopUp(context.Background(), TopUpRequest{UserID: "user-1", AmountMinor: 0})
	if err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRecordTopUpBelowMinimum(t *testing.T) {
	service := NewLedgerService(fakeTxRunner{}, stubTransactionStore{}, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	_, err := service.RecordTopUp(context.Background(), TopUpRequest{UserID: "user-1", AmountMinor: 500})
	if err != ErrBelowMinimum {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
}

func TestRecordTopUpCreatesPendingWithZeroPoints(t *testing.T) {
	var inserted store.TransactionInput
	transactions := stubTransactionStore{
		insertFn: func(_ context.Context, _ store.Execer, input store.TransactionInput) error {
			inserted = input
			return nil
		},
	}
	service := NewLedgerService(fakeTxRunner{}, transactions, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	id, err := service.RecordTopUp(context.Background(), TopUpRequest{
		UserID: "user-1", AmountMinor: 5000, BankAccountRef: "ba-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a transaction id")
	}
	if inserted.Status != models.TxStatusPending {
		t.Fatalf("expected pending status, got %s", inserted.Status)
	}
	if inserted.PointsDelta != 0 {
		t.Fatalf("expected zero points before verification, got %d", inserted.PointsDelta)
	}
	if inserted.AmountMinor == nil || *inserted.AmountMinor != 5000 {
		t.Fatalf("unexpected amount: %#v", inserted.AmountMinor)
	}
}

func TestVerifyTopUpCreditsFlooredPoints(t *testing.T) {
	amount := int64(2550) // 25.50 at a 2.00 point value -> 12 points
	var credited int64
	transactions := stubTransactionStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Transaction, error) {
			return models.Transaction{
				ID: "tx-1", UserID: "user-1",
				Type: models.TxTypeTopUp, Status: models.TxStatusPending,
				AmountMinor: &amount,
			}, nil
		},
		markVerifiedFn: func(_ context.Context, _ store.Execer, _ string, pointsDelta int64) (int64, error) {
			credited = pointsDelta
			return 1, nil
		},
	}
	pricing := stubPricingStore{
		getFn: func(context.Context) (models.PricingConfig, error) {
			return models.PricingConfig{PointUserValue: "2", PointBuyPrice: "1"}, nil
		},
	}
	hub := &stubHub{}
	service := NewLedgerService(fakeTxRunner{}, transactions, pricing, stubAuditStore{}, hub)
	points, err := service.VerifyTopUp(context.Background(), "tx-1", "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points != 12 || credited != 12 {
		t.Fatalf("expected 12 points, got returned=%d written=%d", points, credited)
	}
	if len(hub.calls["user-1"]) != 1 {
		t.Fatalf("expected one wallet push, got %d", len(hub.calls["user-1"]))
	}
}

func TestVerifyTopUpAlreadyVerified(t *testing.T) {
	amount := int64(1000)
	transactions := stubTransactionStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Transaction, error) {
			return models.Transaction{
				Type: models.TxTypeTopUp, Status: models.TxStatusVerified, AmountMinor: &amount,
			}, nil
		},
	}
	service := NewLedgerService(fakeTxRunner{}, transactions, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	_, err := service.VerifyTopUp(context.Background(), "tx-1", "admin-1")
	if err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestVerifyTopUpRacedUpdateAffectsNothing(t *testing.T) {
	amount := int64(1000)
	transactions := stubTransactionStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Transaction, error) {
			return models.Transaction{
				Type: models.TxTypeTopUp, Status: models.TxStatusPending, AmountMinor: &amount,
			}, nil
		},
		markVerifiedFn: func(context.Context, store.Execer, string, int64) (int64, error) {
			return 0, nil
		},
	}
	service := NewLedgerService(fakeTxRunner{}, transactions, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	_, err := service.VerifyTopUp(context.Background(), "tx-1", "admin-1")
	if err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestRejectTopUpIsIdempotent(t *testing.T) {
	transactions := stubTransactionStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Transaction, error) {
			return models.Transaction{Status: models.TxStatusRejected}, nil
		},
		markRejectedFn: func(context.Context, store.Execer, string, string) (int64, error) {
			t.Fatal("rejected row must not be updated again")
			return 0, nil
		},
	}
	service := NewLedgerService(fakeTxRunner{}, transactions, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	if err := service.RejectTopUp(context.Background(), "tx-1", "admin-1", "bad receipt"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestRejectTopUpAfterVerify(t *testing.T) {
	transactions := stubTransactionStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Transaction, error) {
			return models.Transaction{Status: models.TxStatusVerified}, nil
		},
	}
	service := NewLedgerService(fakeTxRunner{}, transactions, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	if err := service.RejectTopUp(context.Background(), "tx-1", "admin-1", "late"); err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestSpendPointsInsufficientFunds(t *testing.T) {
	transactions := stubTransactionStore{
		walletFn: func(_ context.Context, _ store.Getter, userID string) (models.Wallet, error) {
			return models.Wallet{UserID: userID, Balance: 5}, nil
		},
		insertFn: func(context.Context, store.Execer, store.TransactionInput) error {
			t.Fatal("no entry may be written on an insufficient balance")
			return nil
		},
	}
	service := NewLedgerService(fakeTxRunner{}, transactions, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	_, err := service.SpendPoints(context.Background(), SpendRequest{SpenderID: "user-1", Points: 10})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestSpendPointsSelfBoost(t *testing.T) {
	service := NewLedgerService(fakeTxRunner{}, stubTransactionStore{}, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	_, err := service.SpendPoints(context.Background(), SpendRequest{
		SpenderID: "user-1", Points: 10, RecipientID: stringPtr("user-1"),
	})
	if err != ErrSelfBoost {
		t.Fatalf("expected ErrSelfBoost, got %v", err)
	}
}

func TestSpendPointsBoostWritesBalancedPair(t *testing.T) {
	var entries []store.TransactionInput
	transactions := stubTransactionStore{
		walletFn: func(_ context.Context, _ store.Getter, userID string) (models.Wallet, error) {
			return models.Wallet{UserID: userID, Balance: 100}, nil
		},
		insertFn: func(_ context.Context, _ store.Execer, input store.TransactionInput) error {
			entries = append(entries, input)
			return nil
		},
	}
	hub := &stubHub{}
	service := NewLedgerService(fakeTxRunner{}, transactions, stubPricingStore{}, stubAuditStore{}, hub)
	_, err := service.SpendPoints(context.Background(), SpendRequest{
		SpenderID: "user-1", Points: 40, RecipientID: stringPtr("user-2"), Description: "boost",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected a debit/credit pair, got %d entries", len(entries))
	}
	if entries[0].PointsDelta+entries[1].PointsDelta != 0 {
		t.Fatalf("pair does not conserve points: %d and %d", entries[0].PointsDelta, entries[1].PointsDelta)
	}
	if entries[0].TransferRef == nil || entries[1].TransferRef == nil || *entries[0].TransferRef != *entries[1].TransferRef {
		t.Fatal("pair must share a transfer ref")
	}
	if entries[0].Type != models.TxTypeBoost || entries[1].Type != models.TxTypeBoost {
		t.Fatalf("expected boost entries, got %s and %s", entries[0].Type, entries[1].Type)
	}
	if len(hub.calls["user-1"]) != 1 || len(hub.calls["user-2"]) != 1 {
		t.Fatalf("expected wallet pushes for both parties, got %#v", hub.calls)
	}
}

func TestSpendPointsBurnWritesSingleDebit(t *testing.T) {
	var entries []store.TransactionInput
	transactions := stubTransactionStore{
		walletFn: func(_ context.Context, _ store.Getter, userID string) (models.Wallet, error) {
			return models.Wallet{UserID: userID, Balance: 100}, nil
		},
		insertFn: func(_ context.Context, _ store.Execer, input store.TransactionInput) error {
			entries = append(entries, input)
			return nil
		},
	}
	service := NewLedgerService(fakeTxRunner{}, transactions, stubPricingStore{}, stubAuditStore{}, &stubHub{})
	_, err := service.SpendPoints(context.Background(), SpendRequest{SpenderID: "user-1", Points: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single debit, got %d entries", len(entries))
	}
	if entries[0].Type != models.TxTypePointSpend || entries[0].PointsDelta != -25 {
		t.Fatalf("unexpected entry: %#v", entries[0])
	}
}

func TestEnsureTransferBalanced(t *testing.T) {
	entries := []store.TransactionInput{
		{PointsDelta: -40},
		{PointsDelta: 40},
	}
	if err := ensureTransferBalanced(entries); err != nil {
		t.Fatalf("expected balanced pair, got %v", err)
	}
	entries[1].PointsDelta = 41
	if err := ensureTransferBalanced(entries); err == nil {
		t.Fatal("expected imbalance error")
	}
}
