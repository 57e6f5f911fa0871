package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"creatorledger/internal/middleware"
	"creatorledger/internal/models"
	"creatorledger/internal/services"
)

func TestGetWalletReturnsBalanceAndLockedPoints(t *testing.T) {
	handler := newTestHandler(testDeps{
		ledger: stubLedgerService{
			walletFn: func(ctx context.Context, userID string) (models.Wallet, error) {
				if userID != "user-1" {
					t.Fatalf("expected wallet lookup for user-1, got %s", userID)
				}
				return models.Wallet{UserID: userID, Balance: 380, LockedPoints: 120}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	rr := serveAuthed(t, handler.GetWallet, req, "user-1")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]int64
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["balance"] != 380 || body["locked_points"] != 120 {
		t.Fatalf("unexpected wallet body: %+v", body)
	}
}

func TestGetWalletRequiresAuth(t *testing.T) {
	handler := newTestHandler(testDeps{})

	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	rr := httptest.NewRecorder()
	// No Authorization header at all.
	middlewareAuthOnly(handler.GetWallet).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRecordTopUpCreated(t *testing.T) {
	handler := newTestHandler(testDeps{
		ledger: stubLedgerService{
			recordTopUpFn: func(ctx context.Context, req services.TopUpRequest) (string, error) {
				if req.UserID != "user-1" {
					t.Fatalf("expected user-1, got %s", req.UserID)
				}
				if req.AmountMinor != 2550 {
					t.Fatalf("expected amount 2550 minor, got %d", req.AmountMinor)
				}
				if req.BankAccountRef != "ba-1" {
					t.Fatalf("expected bank_account_ref ba-1, got %s", req.BankAccountRef)
				}
				return "tx-42", nil
			},
		},
	})

	body := `{"amount":"25.50","bank_account_ref":"ba-1"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions/topup", strings.NewReader(body))
	rr := serveAuthed(t, handler.RecordTopUp, req, "user-1")

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["transaction_id"] != "tx-42" {
		t.Fatalf("expected transaction_id tx-42, got %s", resp["transaction_id"])
	}
}

func TestRecordTopUpValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing bank ref", `{"amount":"25.50"}`, "bank_account_ref is required"},
		{"garbage amount", `{"amount":"not money","bank_account_ref":"ba-1"}`, "invalid_amount"},
		{"zero amount", `{"amount":"0","bank_account_ref":"ba-1"}`, "invalid_amount"},
		{"negative amount", `{"amount":"-5","bank_account_ref":"ba-1"}`, "invalid_amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(testDeps{
				ledger: stubLedgerService{
					recordTopUpFn: func(ctx context.Context, req services.TopUpRequest) (string, error) {
						t.Fatal("service should not be called on invalid input")
						return "", nil
					},
				},
			})
			req := httptest.NewRequest(http.MethodPost, "/transactions/topup", strings.NewReader(tc.body))
			rr := serveAuthed(t, handler.RecordTopUp, req, "user-1")

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tc.want) {
				t.Fatalf("expected error %q, got %s", tc.want, rr.Body.String())
			}
		})
	}
}

func TestRecordTopUpBelowMinimum(t *testing.T) {
	handler := newTestHandler(testDeps{
		ledger: stubLedgerService{
			recordTopUpFn: func(ctx context.Context, req services.TopUpRequest) (string, error) {
				return "", services.ErrBelowMinimum
			},
		},
	})

	body := `{"amount":"0.50","bank_account_ref":"ba-1"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions/topup", strings.NewReader(body))
	rr := serveAuthed(t, handler.RecordTopUp, req, "user-1")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "below_minimum") {
		t.Fatalf("expected below_minimum error, got %s", rr.Body.String())
	}
}

func TestSpendPointsCreated(t *testing.T) {
	handler := newTestHandler(testDeps{
		ledger: stubLedgerService{
			spendFn: func(ctx context.Context, req services.SpendRequest) (string, error) {
				if req.SpenderID != "user-1" || req.Points != 50 {
					t.Fatalf("unexpected spend request: %+v", req)
				}
				if req.RecipientID == nil || *req.RecipientID != "user-2" {
					t.Fatalf("expected recipient user-2, got %v", req.RecipientID)
				}
				return "tx-9", nil
			},
		},
	})

	body := `{"points":50,"recipient_id":"user-2","description":"boost"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions/spend", strings.NewReader(body))
	rr := serveAuthed(t, handler.SpendPoints, req, "user-1")

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSpendPointsErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{"insufficient funds", services.ErrInsufficientFunds, http.StatusBadRequest, "insufficient_funds"},
		{"invalid points", services.ErrInvalidPoints, http.StatusBadRequest, "invalid_points"},
		{"self boost", services.ErrSelfBoost, http.StatusBadRequest, "cannot_boost_self"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(testDeps{
				ledger: stubLedgerService{
					spendFn: func(ctx context.Context, req services.SpendRequest) (string, error) {
						return "", tc.serviceErr
					},
				},
			})
			req := httptest.NewRequest(http.MethodPost, "/transactions/spend", strings.NewReader(`{"points":50}`))
			rr := serveAuthed(t, handler.SpendPoints, req, "user-1")

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tc.wantError) {
				t.Fatalf("expected error %q, got %s", tc.wantError, rr.Body.String())
			}
		})
	}
}

func TestListTransactionsRejectsUnknownType(t *testing.T) {
	handler := newTestHandler(testDeps{
		txs: stubTransactionStore{
			listByUserFn: func(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
				t.Fatal("store should not be queried for an unknown type")
				return nil, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions?type=bogus", nil)
	rr := serveAuthed(t, handler.ListTransactions, req, "user-1")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestListTransactionsPaging(t *testing.T) {
	handler := newTestHandler(testDeps{
		txs: stubTransactionStore{
			listByUserFn: func(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
				if limit != 10 || offset != 20 {
					t.Fatalf("expected limit 10 offset 20, got %d %d", limit, offset)
				}
				if txType != "top_up" {
					t.Fatalf("expected type top_up, got %q", txType)
				}
				return []models.Transaction{{ID: "tx-1", UserID: userID, Type: models.TxTypeTopUp}}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions?type=top_up&page=3&limit=10", nil)
	rr := serveAuthed(t, handler.ListTransactions, req, "user-1")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 1 || body[0]["id"] != "tx-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestVerifyTopUpConflictOnInvalidState(t *testing.T) {
	handler := newTestHandler(testDeps{
		ledger: stubLedgerService{
			verifyFn: func(ctx context.Context, transactionID, adminID string) (int64, error) {
				return 0, services.ErrInvalidState
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/transactions/tx-1/verify", nil)
	rr := serveAuthed(t, handler.VerifyTopUp, req, "admin-1")

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "invalid_state") {
		t.Fatalf("expected invalid_state error, got %s", rr.Body.String())
	}
}

func TestVerifyTopUpReturnsCreditedPoints(t *testing.T) {
	handler := newTestHandler(testDeps{
		ledger: stubLedgerService{
			verifyFn: func(ctx context.Context, transactionID, adminID string) (int64, error) {
				if adminID != "admin-1" {
					t.Fatalf("expected admin-1, got %s", adminID)
				}
				return 12, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/transactions/tx-1/verify", nil)
	rr := serveAuthed(t, handler.VerifyTopUp, req, "admin-1")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["points_credited"].(float64) != 12 {
		t.Fatalf("expected 12 points credited, got %v", body["points_credited"])
	}
}

func TestRejectTopUpRequiresReason(t *testing.T) {
	handler := newTestHandler(testDeps{})

	req := httptest.NewRequest(http.MethodPost, "/admin/transactions/tx-1/reject", strings.NewReader(`{}`))
	rr := serveAuthed(t, handler.RejectTopUp, req, "admin-1")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func middlewareAuthOnly(handler http.HandlerFunc) http.Handler {
	return middleware.Auth("secret")(handler)
}
