package store

import (
	"context"

	"creatorledger/internal/models"
)

type WithdrawalStore struct {
	db DB
}

func NewWithdrawalStore(db DB) *WithdrawalStore {
	return &WithdrawalStore{db: db}
}

type WithdrawalInput struct {
	ID            string
	BankAccountID string
	AmountMinor   int64
	RequestedBy   string
	Notes         string
}

func (s *WithdrawalStore) Create(ctx context.Context, tx Execer, input WithdrawalInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO withdrawals (id, bank_account_id, amount_minor, status, requested_by, notes)
		VALUES ($1, $2, $3, 'pending', $4, $5)
	`, input.ID, input.BankAccountID, input.AmountMinor, input.RequestedBy, input.Notes)
	return err
}

func (s *WithdrawalStore) GetByID(ctx context.Context, withdrawalID string) (models.Withdrawal, error) {
	var row models.Withdrawal
	err := s.db.GetContext(ctx, &row, `
		SELECT id, bank_account_id, amount_minor, status, requested_by, processed_by, processed_at, notes, created_at
		FROM withdrawals
		WHERE id = $1
	`, withdrawalID)
	if err != nil {
		return models.Withdrawal{}, err
	}
	return row, nil
}

func (s *WithdrawalStore) MarkProcessing(ctx context.Context, tx Execer, withdrawalID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE withdrawals
		SET status = 'processing'
		WHERE id = $1 AND status = 'pending'
	`, withdrawalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *WithdrawalStore) Complete(ctx context.Context, tx Execer, withdrawalID, processedBy string) (int64, error) {
	return s.finish(ctx, tx, withdrawalID, models.WithdrawalStatusCompleted, processedBy, "")
}

func (s *WithdrawalStore) Cancel(ctx context.Context, tx Execer, withdrawalID, processedBy, notes string) (int64, error) {
	return s.finish(ctx, tx, withdrawalID, models.WithdrawalStatusCancelled, processedBy, notes)
}

func (s *WithdrawalStore) Fail(ctx context.Context, tx Execer, withdrawalID, processedBy, notes string) (int64, error) {
	return s.finish(ctx, tx, withdrawalID, models.WithdrawalStatusFailed, processedBy, notes)
}

func (s *WithdrawalStore) finish(ctx context.Context, tx Execer, withdrawalID, status, processedBy, notes string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE withdrawals
		SET status = $1, processed_at = NOW(), processed_by = $2,
		    notes = CASE WHEN $3 = '' THEN notes ELSE $3 END
		WHERE id = $4 AND status IN ('pending', 'processing')
	`, status, processedBy, notes, withdrawalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *WithdrawalStore) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Withdrawal, error) {
	var rows []models.Withdrawal
	query := `
		SELECT id, bank_account_id, amount_minor, status, requested_by, processed_by, processed_at, notes, created_at
		FROM withdrawals
	`
	args := []any{}
	param := 1
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
		param = 2
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(param) + " OFFSET $" + itoa(param+1)
	args = append(args, limit, offset)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
