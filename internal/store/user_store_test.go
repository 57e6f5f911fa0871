package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"creatorledger/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO users") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 4 || args[1] != "maya" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	if err := store.Create(ctx, execer, "user-1", "maya", "maya@example.com", "hash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserStoreGetByUsername(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE username = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			row := dest.(*models.User)
			row.ID = "user-1"
			row.Username = "maya"
			return nil
		},
	})
	user, err := store.GetByUsername(ctx, "maya")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
