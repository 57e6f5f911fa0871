package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"creatorledger/internal/models"
	"creatorledger/internal/services"
)

func TestGetStorageReturnsAccount(t *testing.T) {
	handler := newTestHandler(testDeps{
		storage: stubStorageStore{
			getFn: func(ctx context.Context, userID string) (models.StorageAccount, error) {
				return models.StorageAccount{
					UserID:            userID,
					TotalUsedBytes:    1 << 20,
					LimitBytes:        4 * services.GiB,
					MonthlyCostPoints: 30,
				}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/storage", nil)
	rr := serveAuthed(t, handler.GetStorage, req, "user-1")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["limit_bytes"].(float64) != float64(4*services.GiB) {
		t.Fatalf("unexpected limit: %v", body["limit_bytes"])
	}
	if body["monthly_cost_points"].(float64) != 30 {
		t.Fatalf("unexpected monthly cost: %v", body["monthly_cost_points"])
	}
}

func TestGetStorageNotFound(t *testing.T) {
	handler := newTestHandler(testDeps{
		storage: stubStorageStore{
			getFn: func(ctx context.Context, userID string) (models.StorageAccount, error) {
				return models.StorageAccount{}, sql.ErrNoRows
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/storage", nil)
	rr := serveAuthed(t, handler.GetStorage, req, "user-1")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestPurchaseStorage(t *testing.T) {
	handler := newTestHandler(testDeps{
		storageSvc: stubStorageService{
			purchaseFn: func(ctx context.Context, userID string, additionalGb int64) error {
				if userID != "user-1" || additionalGb != 3 {
					t.Fatalf("unexpected purchase: %s %d", userID, additionalGb)
				}
				return nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/storage/purchase", strings.NewReader(`{"additional_gb":3}`))
	rr := serveAuthed(t, handler.PurchaseStorage, req, "user-1")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestPurchaseStorageInsufficientFunds(t *testing.T) {
	handler := newTestHandler(testDeps{
		storageSvc: stubStorageService{
			purchaseFn: func(ctx context.Context, userID string, additionalGb int64) error {
				return services.ErrInsufficientFunds
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/storage/purchase", strings.NewReader(`{"additional_gb":100}`))
	rr := serveAuthed(t, handler.PurchaseStorage, req, "user-1")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "insufficient_funds") {
		t.Fatalf("unexpected error body: %s", rr.Body.String())
	}
}

func TestDowngradeStorageInvalidChange(t *testing.T) {
	handler := newTestHandler(testDeps{
		storageSvc: stubStorageService{
			downgradeFn: func(ctx context.Context, userID string, newLimitGb int64) error {
				return services.ErrInvalidStorageChange
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/storage/downgrade", strings.NewReader(`{"new_limit_gb":100}`))
	rr := serveAuthed(t, handler.DowngradeStorage, req, "user-1")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "invalid_storage_change") {
		t.Fatalf("unexpected error body: %s", rr.Body.String())
	}
}
