package store

import (
	"context"
	"fmt"

	"creatorledger/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID              string
	UserID          string
	Type            string
	Status          string
	PointsDelta     int64
	AmountMinor     *int64
	RecipientUserID *string
	BankAccountRef  *string
	ReceiptRef      *string
	TransferRef     *string
	BillingPeriod   *string
	Description     string
}

func (s *TransactionStore) Insert(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, user_id, type, status, points_delta, amount_minor,
		                          recipient_user_id, bank_account_ref, receipt_ref,
		                          transfer_ref, billing_period, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.Type, input.Status, input.PointsDelta, input.AmountMinor,
		input.RecipientUserID, input.BankAccountRef, input.ReceiptRef,
		input.TransferRef, input.BillingPeriod, input.Description,
	)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, type, status, points_delta, amount_minor, recipient_user_id,
		       bank_account_ref, receipt_ref, transfer_ref, billing_period, description, created_at
		FROM transactions
		WHERE id = $1
	`, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, type, status, points_delta, amount_minor, recipient_user_id,
		       bank_account_ref, receipt_ref, transfer_ref, billing_period, description, created_at
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

// MarkVerified credits the computed points and moves the row out of pending.
// The status guard makes a second concurrent verify affect zero rows.
func (s *TransactionStore) MarkVerified(ctx context.Context, tx Execer, transactionID string, pointsDelta int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = 'verified', points_delta = $1
		WHERE id = $2 AND status = 'pending'
	`, pointsDelta, transactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransactionStore) MarkRejected(ctx context.Context, tx Execer, transactionID, reason string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = 'rejected', description = $1
		WHERE id = $2 AND status = 'pending'
	`, reason, transactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type walletRow struct {
	Earned int64 `db:"earned"`
	Locked int64 `db:"locked"`
}

// Wallet derives the spendable balance: verified point deltas minus points
// frozen inside non-terminal payouts. Callers that debit must run this on
// the same transaction as the write.
func (s *TransactionStore) Wallet(ctx context.Context, q Getter, userID string) (models.Wallet, error) {
	var row walletRow
	err := q.GetContext(ctx, &row, `
		SELECT
			COALESCE((SELECT SUM(points_delta) FROM transactions
			          WHERE user_id = $1 AND status = 'verified'), 0) AS earned,
			COALESCE((SELECT SUM(locked_points) FROM payouts
			          WHERE user_id = $1 AND status IN ('pending', 'processing')), 0) AS locked
	`, userID)
	if err != nil {
		return models.Wallet{}, err
	}
	return models.Wallet{
		UserID:       userID,
		Balance:      row.Earned - row.Locked,
		LockedPoints: row.Locked,
	}, nil
}

// WalletSnapshot reads the derived balance outside any transaction; use
// Wallet with the surrounding tx when the value feeds a write decision.
func (s *TransactionStore) WalletSnapshot(ctx context.Context, userID string) (models.Wallet, error) {
	return s.Wallet(ctx, s.db, userID)
}

// ExistsStorageCharge reports whether the billing job already charged this
// account for the period. The partial unique index on (user_id,
// billing_period) backstops the check under concurrent runs.
func (s *TransactionStore) ExistsStorageCharge(ctx context.Context, q Getter, userID, billingPeriod string) (bool, error) {
	var count int
	err := q.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM transactions
		WHERE user_id = $1 AND type = 'storage_charge' AND billing_period = $2
	`, userID, billingPeriod)
	return count > 0, err
}

// EligibleForPayout lists users whose derived spendable balance is positive.
// The generator re-derives each balance inside its own transaction; this is
// only the candidate scan.
func (s *TransactionStore) EligibleForPayout(ctx context.Context) ([]string, error) {
	var userIDs []string
	err := s.db.SelectContext(ctx, &userIDs, `
		SELECT t.user_id
		FROM transactions t
		WHERE t.status = 'verified'
		GROUP BY t.user_id
		HAVING SUM(t.points_delta) - COALESCE((
			SELECT SUM(p.locked_points) FROM payouts p
			WHERE p.user_id = t.user_id AND p.status IN ('pending', 'processing')
		), 0) > 0
		ORDER BY t.user_id
	`)
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	query := `
		SELECT id, user_id, type, status, points_delta, amount_minor, recipient_user_id,
		       bank_account_ref, receipt_ref, transfer_ref, billing_period, description, created_at
		FROM transactions
		WHERE (user_id = $1 OR recipient_user_id = $1)
	`
	args := []any{userID}
	param := 2
	if txType != "" {
		query += " AND type = $2"
		args = append(args, txType)
		param = 3
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(param) + " OFFSET $" + itoa(param+1)
	args = append(args, limit, offset)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	query := `
		SELECT id, user_id, type, status, points_delta, amount_minor, recipient_user_id,
		       bank_account_ref, receipt_ref, transfer_ref, billing_period, description, created_at
		FROM transactions
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

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}
