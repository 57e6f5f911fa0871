package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"creatorledger/internal/db"
	"creatorledger/internal/money"
	"creatorledger/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// WithdrawalService moves platform funds out to a bank account. It mirrors
// the payout workflow but never touches any user's point balance.
type WithdrawalService struct {
	txRunner     db.TxRunner
	withdrawals  WithdrawalStore
	bankAccounts BankAccountStore
	audit        AuditStore
}

func NewWithdrawalService(txRunner db.TxRunner, withdrawals WithdrawalStore, bankAccounts BankAccountStore, audit AuditStore) *WithdrawalService {
	return &WithdrawalService{
		txRunner:     txRunner,
		withdrawals:  withdrawals,
		bankAccounts: bankAccounts,
		audit:        audit,
	}
}

type WithdrawalRequest struct {
	BankAccountID string
	AmountMinor   int64
	RequestedBy   string
	Notes         string
}

func (s *WithdrawalService) Create(ctx context.Context, req WithdrawalRequest) (string, error) {
	if req.AmountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	account, err := s.bankAccounts.GetByID(ctx, req.BankAccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !account.IsActive {
		return "", ErrBankAccountInactive
	}
	withdrawalID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.withdrawals.Create(ctx, tx, store.WithdrawalInput{
			ID:            withdrawalID,
			BankAccountID: req.BankAccountID,
			AmountMinor:   req.AmountMinor,
			RequestedBy:   req.RequestedBy,
			Notes:         req.Notes,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"amount": money.FormatMinor(req.AmountMinor),
		})
		return s.audit.Log(ctx, tx, req.RequestedBy, "withdrawal_requested", "withdrawal", withdrawalID, string(data))
	})
	if err != nil {
		return "", err
	}
	return withdrawalID, nil
}

func (s *WithdrawalService) MarkProcessing(ctx context.Context, withdrawalID, adminID string) error {
	return s.transition(ctx, withdrawalID, adminID, "withdrawal_processing", func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
		return s.withdrawals.MarkProcessing(ctx, tx, withdrawalID)
	})
}

func (s *WithdrawalService) Complete(ctx context.Context, withdrawalID, adminID string) error {
	return s.transition(ctx, withdrawalID, adminID, "withdrawal_completed", func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
		return s.withdrawals.Complete(ctx, tx, withdrawalID, adminID)
	})
}

func (s *WithdrawalService) Cancel(ctx context.Context, withdrawalID, adminID, notes string) error {
	return s.transition(ctx, withdrawalID, adminID, "withdrawal_cancelled", func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
		return s.withdrawals.Cancel(ctx, tx, withdrawalID, adminID, notes)
	})
}

func (s *WithdrawalService) Fail(ctx context.Context, withdrawalID, adminID, notes string) error {
	return s.transition(ctx, withdrawalID, adminID, "withdrawal_failed", func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
		return s.withdrawals.Fail(ctx, tx, withdrawalID, adminID, notes)
	})
}

func (s *WithdrawalService) transition(ctx context.Context, withdrawalID, adminID, action string, mutate func(context.Context, *sqlx.Tx) (int64, error)) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := mutate(ctx, tx)
		if err != nil {
			return err
		}
		if rows == 0 {
			if _, err := s.withdrawals.GetByID(ctx, withdrawalID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrNotFound
				}
				return err
			}
			return ErrInvalidState
		}
		return s.audit.Log(ctx, tx, adminID, action, "withdrawal", withdrawalID, "{}")
	})
}
