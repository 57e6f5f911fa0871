package store

import (
	"context"

	"creatorledger/internal/models"
)

type StorageStore struct {
	db DB
}

func NewStorageStore(db DB) *StorageStore {
	return &StorageStore{db: db}
}

func (s *StorageStore) Create(ctx context.Context, tx Execer, userID string, limitBytes int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO storage_accounts (user_id, total_used_bytes, limit_bytes, monthly_cost_points)
		VALUES ($1, 0, $2, 0)
	`, userID, limitBytes)
	return err
}

func (s *StorageStore) Get(ctx context.Context, userID string) (models.StorageAccount, error) {
	var row models.StorageAccount
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, total_used_bytes, limit_bytes, monthly_cost_points, billing_flagged_at, updated_at
		FROM storage_accounts
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return models.StorageAccount{}, err
	}
	return row, nil
}

func (s *StorageStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.StorageAccount, error) {
	var row models.StorageAccount
	err := tx.GetContext(ctx, &row, `
		SELECT user_id, total_used_bytes, limit_bytes, monthly_cost_points, billing_flagged_at, updated_at
		FROM storage_accounts
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return models.StorageAccount{}, err
	}
	return row, nil
}

func (s *StorageStore) UpdateLimit(ctx context.Context, tx Execer, userID string, limitBytes, monthlyCostPoints int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE storage_accounts
		SET limit_bytes = $1, monthly_cost_points = $2, updated_at = NOW()
		WHERE user_id = $3
	`, limitBytes, monthlyCostPoints, userID)
	return err
}

// ListBillable scans the accounts the monthly billing job must charge.
func (s *StorageStore) ListBillable(ctx context.Context) ([]models.StorageAccount, error) {
	var rows []models.StorageAccount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT user_id, total_used_bytes, limit_bytes, monthly_cost_points, billing_flagged_at, updated_at
		FROM storage_accounts
		WHERE monthly_cost_points > 0
		ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SetBillingFlag marks an account the dunning pipeline should pick up after
// a skipped charge, or clears the mark after a successful one.
func (s *StorageStore) SetBillingFlag(ctx context.Context, tx Execer, userID string, flagged bool) error {
	query := `UPDATE storage_accounts SET billing_flagged_at = NOW(), updated_at = NOW() WHERE user_id = $1`
	if !flagged {
		query = `UPDATE storage_accounts SET billing_flagged_at = NULL, updated_at = NOW() WHERE user_id = $1`
	}
	_, err := tx.ExecContext(ctx, query, userID)
	return err
}
