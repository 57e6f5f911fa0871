package services

import (
	"context"
	"encoding/json"
	"fmt"

	"creatorledger/internal/db"
	"creatorledger/internal/models"
	"creatorledger/internal/money"
	"creatorledger/internal/store"
	"creatorledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LedgerService owns every balance-affecting write on the transaction
// ledger. Each operation runs the balance read and the write inside one
// serializable transaction; the TxRunner retries serialization failures.
type LedgerService struct {
	txRunner     db.TxRunner
	transactions TransactionStore
	pricing      PricingStore
	audit        AuditStore
	hub          WalletHub
}

func NewLedgerService(txRunner db.TxRunner, transactions TransactionStore, pricing PricingStore, audit AuditStore, hub WalletHub) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		transactions: transactions,
		pricing:      pricing,
		audit:        audit,
		hub:          hub,
	}
}

type TopUpRequest struct {
	UserID         string
	AmountMinor    int64
	BankAccountRef string
	ReceiptRef     *string
}

// RecordTopUp creates a pending top-up. No points are credited until an
// administrator verifies the receipt.
func (s *LedgerService) RecordTopUp(ctx context.Context, req TopUpRequest) (string, error) {
	if req.AmountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	pricing, err := s.pricing.Get(ctx)
	if err != nil {
		return "", err
	}
	if req.AmountMinor < pricing.MandatoryTopUpMinimum {
		return "", ErrBelowMinimum
	}
	transactionID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.transactions.Insert(ctx, tx, store.TransactionInput{
			ID:             transactionID,
			UserID:         req.UserID,
			Type:           models.TxTypeTopUp,
			Status:         models.TxStatusPending,
			PointsDelta:    0,
			AmountMinor:    &req.AmountMinor,
			BankAccountRef: &req.BankAccountRef,
			ReceiptRef:     req.ReceiptRef,
			Description:    "top-up awaiting verification",
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"amount": money.FormatMinor(req.AmountMinor),
		})
		return s.audit.Log(ctx, tx, req.UserID, "top_up_requested", "transaction", transactionID, string(data))
	})
	if err != nil {
		return "", err
	}
	return transactionID, nil
}

// VerifyTopUp credits floor(amount / pointUserValue) points and moves the
// transaction to verified. The row lock plus the status-guarded update make
// a concurrent double-verify fail with ErrInvalidState instead of crediting
// twice.
func (s *LedgerService) VerifyTopUp(ctx context.Context, transactionID, adminID string) (int64, error) {
	pricing, err := s.pricing.Get(ctx)
	if err != nil {
		return 0, err
	}
	userValue, err := money.ParseRate(pricing.PointUserValue)
	if err != nil {
		return 0, err
	}
	var credited int64
	var userID string
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.transactions.GetForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if row.Type != models.TxTypeTopUp || row.Status != models.TxStatusPending || row.AmountMinor == nil {
			return ErrInvalidState
		}
		userID = row.UserID
		credited = money.PointsFromMinor(*row.AmountMinor, userValue)
		rows, err := s.transactions.MarkVerified(ctx, tx, transactionID, credited)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInvalidState
		}
		data, _ := json.Marshal(map[string]any{
			"points_credited": credited,
		})
		return s.audit.Log(ctx, tx, adminID, "top_up_verified", "transaction", transactionID, string(data))
	})
	if err != nil {
		return 0, err
	}
	s.pushWallet(ctx, userID)
	return credited, nil
}

// RejectTopUp has no balance effect. Rejecting an already-rejected
// transaction is a no-op; rejecting a verified one is an invalid transition.
func (s *LedgerService) RejectTopUp(ctx context.Context, transactionID, adminID, reason string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.transactions.GetForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		switch row.Status {
		case models.TxStatusRejected:
			return nil
		case models.TxStatusVerified:
			return ErrInvalidState
		}
		rows, err := s.transactions.MarkRejected(ctx, tx, transactionID, reason)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInvalidState
		}
		data, _ := json.Marshal(map[string]string{
			"reason": reason,
		})
		return s.audit.Log(ctx, tx, adminID, "top_up_rejected", "transaction", transactionID, string(data))
	})
}

type SpendRequest struct {
	SpenderID   string
	Points      int64
	RecipientID *string
	Description string
}

// SpendPoints debits the spender and, for a boost, credits the recipient in
// the same transaction. Without a recipient the points are burned against
// the platform. The balance check and the inserts share one serializable
// transaction so two concurrent spends cannot both pass against a stale
// balance.
func (s *LedgerService) SpendPoints(ctx context.Context, req SpendRequest) (string, error) {
	if req.Points <= 0 {
		return "", ErrInvalidPoints
	}
	if req.RecipientID != nil && *req.RecipientID == req.SpenderID {
		return "", ErrSelfBoost
	}
	transactionID := uuid.NewString()
	var spenderAfter, recipientAfter models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.transactions.Wallet(ctx, tx, req.SpenderID)
		if err != nil {
			return err
		}
		if wallet.Balance < req.Points {
			return ErrInsufficientFunds
		}
		txType := models.TxTypePointSpend
		var transferRef *string
		if req.RecipientID != nil {
			txType = models.TxTypeBoost
			ref := uuid.NewString()
			transferRef = &ref
		}
		entries := []store.TransactionInput{{
			ID:              transactionID,
			UserID:          req.SpenderID,
			Type:            txType,
			Status:          models.TxStatusVerified,
			PointsDelta:     -req.Points,
			RecipientUserID: req.RecipientID,
			TransferRef:     transferRef,
			Description:     req.Description,
		}}
		if req.RecipientID != nil {
			entries = append(entries, store.TransactionInput{
				ID:              uuid.NewString(),
				UserID:          *req.RecipientID,
				Type:            models.TxTypeBoost,
				Status:          models.TxStatusVerified,
				PointsDelta:     req.Points,
				RecipientUserID: req.RecipientID,
				TransferRef:     transferRef,
				Description:     req.Description,
			})
			if err := ensureTransferBalanced(entries); err != nil {
				return err
			}
		}
		for _, entry := range entries {
			if err := s.transactions.Insert(ctx, tx, entry); err != nil {
				return err
			}
		}
		spenderAfter, err = s.transactions.Wallet(ctx, tx, req.SpenderID)
		if err != nil {
			return err
		}
		if req.RecipientID != nil {
			recipientAfter, err = s.transactions.Wallet(ctx, tx, *req.RecipientID)
			if err != nil {
				return err
			}
		}
		data, _ := json.Marshal(map[string]any{
			"points": req.Points,
		})
		return s.audit.Log(ctx, tx, req.SpenderID, txType, "transaction", transactionID, string(data))
	})
	if err != nil {
		return "", err
	}
	s.hub.BroadcastWallet(req.SpenderID, websocket.WalletUpdate{
		Balance:      spenderAfter.Balance,
		LockedPoints: spenderAfter.LockedPoints,
	})
	if req.RecipientID != nil {
		s.hub.BroadcastWallet(*req.RecipientID, websocket.WalletUpdate{
			Balance:      recipientAfter.Balance,
			LockedPoints: recipientAfter.LockedPoints,
		})
	}
	return transactionID, nil
}

func (s *LedgerService) Wallet(ctx context.Context, userID string) (models.Wallet, error) {
	return s.transactions.WalletSnapshot(ctx, userID)
}

// ensureTransferBalanced asserts the conservation invariant before a boost
// pair is written: the two entries must sum to zero.
func ensureTransferBalanced(entries []store.TransactionInput) error {
	var sum int64
	for _, entry := range entries {
		sum += entry.PointsDelta
	}
	if sum != 0 {
		return fmt.Errorf("%w: sum %d", ErrUnbalancedTransfer, sum)
	}
	return nil
}

func (s *LedgerService) pushWallet(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	wallet, err := s.transactions.WalletSnapshot(ctx, userID)
	if err != nil {
		return
	}
	s.hub.BroadcastWallet(userID, websocket.WalletUpdate{
		Balance:      wallet.Balance,
		LockedPoints: wallet.LockedPoints,
	})
}
