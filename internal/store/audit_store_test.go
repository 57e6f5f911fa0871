package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestAuditStoreLog(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO audit_logs") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 5 || args[0] != "admin-1" || args[1] != "payout_completed" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAuditStore(stubDB{})
	err := store.Log(ctx, execer, "admin-1", "payout_completed", "payout", "p-1", `{"points":80}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuditStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewAuditStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "ORDER BY created_at DESC") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != 50 || args[1] != 0 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]AuditLog) = []AuditLog{{ID: "a-1"}}
			return nil
		},
	})
	rows, err := store.List(ctx, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "a-1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
