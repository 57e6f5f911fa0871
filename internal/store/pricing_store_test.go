package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"creatorledger/internal/models"
)

func TestPricingStoreGetSingleton(t *testing.T) {
	ctx := context.Background()
	store := NewPricingStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE id = 1") {
				t.Fatalf("unexpected query: %s", query)
			}
			row := dest.(*models.PricingConfig)
			row.PointBuyPrice = "1.5"
			row.PointUserValue = "1"
			return nil
		},
	})
	pricing, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pricing.PointBuyPrice != "1.5" {
		t.Fatalf("unexpected pricing: %+v", pricing)
	}
}

func TestPricingStoreUpdate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE pricing_config") || !strings.Contains(query, "WHERE id = 1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 6 || args[0] != "2" || args[5] != "admin-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewPricingStore(stubDB{})
	err := store.Update(ctx, execer, PricingInput{
		PointBuyPrice:             "2",
		PointUserValue:            "1.5",
		StoragePurchasePricePerGb: 100,
		StorageMonthlyCostPerGb:   10,
		MandatoryTopUpMinimum:     1000,
	}, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
