package store

import (
	"context"

	"creatorledger/internal/models"
)

type PayoutStore struct {
	db DB
}

func NewPayoutStore(db DB) *PayoutStore {
	return &PayoutStore{db: db}
}

type PayoutInput struct {
	ID           string
	UserID       string
	GrossPoints  int64
	LockedPoints int64
	AmountMinor  int64
	ScheduledFor string
}

// Create inserts a pending payout. The (user_id, scheduled_for) unique
// constraint makes re-runs of the monthly generator no-ops: zero rows
// affected means a payout for that period already exists.
func (s *PayoutStore) Create(ctx context.Context, tx Execer, input PayoutInput) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO payouts (id, user_id, gross_points, locked_points, amount_minor, status, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		ON CONFLICT (user_id, scheduled_for) DO NOTHING
	`, input.ID, input.UserID, input.GrossPoints, input.LockedPoints, input.AmountMinor, input.ScheduledFor)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PayoutStore) GetByID(ctx context.Context, payoutID string) (models.Payout, error) {
	var row models.Payout
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, gross_points, locked_points, amount_minor, status, scheduled_for,
		       processed_at, processed_by, cancellation_reason, created_at
		FROM payouts
		WHERE id = $1
	`, payoutID)
	if err != nil {
		return models.Payout{}, err
	}
	return row, nil
}

func (s *PayoutStore) GetForUpdate(ctx context.Context, tx Getter, payoutID string) (models.Payout, error) {
	var row models.Payout
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, gross_points, locked_points, amount_minor, status, scheduled_for,
		       processed_at, processed_by, cancellation_reason, created_at
		FROM payouts
		WHERE id = $1
		FOR UPDATE
	`, payoutID)
	if err != nil {
		return models.Payout{}, err
	}
	return row, nil
}

func (s *PayoutStore) MarkProcessing(ctx context.Context, tx Execer, payoutID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE payouts
		SET status = 'processing'
		WHERE id = $1 AND status = 'pending'
	`, payoutID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Cancel releases the frozen points implicitly: cancelled payouts drop out
// of the wallet's locked-points subtraction.
func (s *PayoutStore) Cancel(ctx context.Context, tx Execer, payoutID, processedBy, reason string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE payouts
		SET status = 'cancelled', processed_at = NOW(), processed_by = $1, cancellation_reason = $2
		WHERE id = $3 AND status IN ('pending', 'processing')
	`, processedBy, reason, payoutID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Complete records the bank-reconciled amount supplied by the administrator;
// the amount computed at generation time is advisory only.
func (s *PayoutStore) Complete(ctx context.Context, tx Execer, payoutID, processedBy string, settledAmountMinor int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE payouts
		SET status = 'paid', processed_at = NOW(), processed_by = $1, amount_minor = $2
		WHERE id = $3 AND status IN ('pending', 'processing')
	`, processedBy, settledAmountMinor, payoutID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PayoutStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payout, error) {
	var rows []models.Payout
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, gross_points, locked_points, amount_minor, status, scheduled_for,
		       processed_at, processed_by, cancellation_reason, created_at
		FROM payouts
		WHERE user_id = $1
		ORDER BY scheduled_for DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PayoutStore) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Payout, error) {
	var rows []models.Payout
	query := `
		SELECT id, user_id, gross_points, locked_points, amount_minor, status, scheduled_for,
		       processed_at, processed_by, cancellation_reason, created_at
		FROM payouts
	`
	args := []any{}
	param := 1
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
		param = 2
	}
	query += " ORDER BY scheduled_for DESC, created_at DESC LIMIT $" + itoa(param) + " OFFSET $" + itoa(param+1)
	args = append(args, limit, offset)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
