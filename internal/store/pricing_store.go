package store

import (
	"context"

	"creatorledger/internal/models"
)

// PricingStore reads and writes the singleton pricing row. Reads are
// unlocked; the latest committed row is authoritative at the instant any
// computation reads it.
type PricingStore struct {
	db DB
}

func NewPricingStore(db DB) *PricingStore {
	return &PricingStore{db: db}
}

func (s *PricingStore) Get(ctx context.Context) (models.PricingConfig, error) {
	var row models.PricingConfig
	err := s.db.GetContext(ctx, &row, `
		SELECT point_buy_price, point_user_value, storage_purchase_price_per_gb,
		       storage_monthly_cost_per_gb, mandatory_top_up_minimum, updated_at, updated_by
		FROM pricing_config
		WHERE id = 1
	`)
	if err != nil {
		return models.PricingConfig{}, err
	}
	return row, nil
}

type PricingInput struct {
	PointBuyPrice             string
	PointUserValue            string
	StoragePurchasePricePerGb int64
	StorageMonthlyCostPerGb   int64
	MandatoryTopUpMinimum     int64
}

func (s *PricingStore) Update(ctx context.Context, tx Execer, input PricingInput, updatedBy string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE pricing_config
		SET point_buy_price = $1, point_user_value = $2, storage_purchase_price_per_gb = $3,
		    storage_monthly_cost_per_gb = $4, mandatory_top_up_minimum = $5,
		    updated_at = NOW(), updated_by = $6
		WHERE id = 1
	`, input.PointBuyPrice, input.PointUserValue, input.StoragePurchasePricePerGb,
		input.StorageMonthlyCostPerGb, input.MandatoryTopUpMinimum, updatedBy)
	return err
}
