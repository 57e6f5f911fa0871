package store

import (
	"context"

	"creatorledger/internal/models"
)

type BankAccountStore struct {
	db DB
}

func NewBankAccountStore(db DB) *BankAccountStore {
	return &BankAccountStore{db: db}
}

type BankAccountInput struct {
	ID            string
	OwnerScope    string
	AccountName   string
	BankName      string
	AccountNumber string
	AccountType   string
}

func (s *BankAccountStore) Create(ctx context.Context, tx Execer, input BankAccountInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bank_accounts (id, owner_scope, account_name, bank_name, account_number, account_type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	`, input.ID, input.OwnerScope, input.AccountName, input.BankName, input.AccountNumber, input.AccountType)
	return err
}

func (s *BankAccountStore) GetByID(ctx context.Context, bankAccountID string) (models.BankAccount, error) {
	var row models.BankAccount
	err := s.db.GetContext(ctx, &row, `
		SELECT id, owner_scope, account_name, bank_name, account_number, account_type, is_active, created_at
		FROM bank_accounts
		WHERE id = $1
	`, bankAccountID)
	if err != nil {
		return models.BankAccount{}, err
	}
	return row, nil
}

func (s *BankAccountStore) Deactivate(ctx context.Context, tx Execer, bankAccountID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE bank_accounts
		SET is_active = FALSE
		WHERE id = $1 AND is_active = TRUE
	`, bankAccountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *BankAccountStore) ListAll(ctx context.Context) ([]models.BankAccount, error) {
	var rows []models.BankAccount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, owner_scope, account_name, bank_name, account_number, account_type, is_active, created_at
		FROM bank_accounts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
