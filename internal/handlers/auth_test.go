package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"creatorledger/internal/auth"
	"creatorledger/internal/models"
	"creatorledger/internal/services"
	"creatorledger/internal/store"

	"github.com/lib/pq"
)

func TestRegisterCreatesUserWithFreeStorage(t *testing.T) {
	var createdUserID string
	var storageLimit int64
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			createFn: func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
				if username != "alice_01" || email != "alice@example.com" {
					t.Fatalf("unexpected user: %s %s", username, email)
				}
				if passwordHash == "correct horse battery" {
					t.Fatal("password must be hashed before storage")
				}
				createdUserID = id
				return nil
			},
		},
		storage: stubStorageStore{
			createFn: func(ctx context.Context, tx store.Execer, userID string, limitBytes int64) error {
				storageLimit = limitBytes
				return nil
			},
		},
	})

	body := `{"username":"alice_01","email":"alice@example.com","password":"correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if createdUserID == "" {
		t.Fatal("expected a generated user id")
	}
	if storageLimit != services.GiB {
		t.Fatalf("expected free tier of 1 GiB, got %d bytes", storageLimit)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatal("expected token in response")
	}
}

func TestRegisterFirstUserBecomesSuperAdmin(t *testing.T) {
	var promotedSuper bool
	handler := newTestHandler(testDeps{
		admin: stubAdminStore{
			hasAnyAdminFn: func(ctx context.Context) (bool, error) {
				return false, nil
			},
			createAdminFn: func(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error {
				promotedSuper = isSuper
				if createdBy != nil {
					t.Fatal("bootstrap admin should have no creator")
				}
				return nil
			},
		},
	})

	body := `{"username":"founder","email":"founder@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !promotedSuper {
		t.Fatal("expected the first user to become super admin")
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"short username", `{"username":"ab","email":"a@b.com","password":"longenough"}`},
		{"bad email", `{"username":"alice_01","email":"nope","password":"longenough"}`},
		{"short password", `{"username":"alice_01","email":"a@b.com","password":"short"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(testDeps{
				users: stubUserStore{
					createFn: func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
						t.Fatal("user should not be created on invalid input")
						return nil
					},
				},
			})
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			handler.Register(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			createFn: func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
				return &pq.Error{Code: "23505"}
			},
		},
	})

	body := `{"username":"alice_01","email":"alice@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := auth.HashPassword("longenough")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByUsernameFn: func(ctx context.Context, username string) (models.User, error) {
				return models.User{ID: "user-1", Username: username, PasswordHash: hash}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice_01","password":"longenough"}`))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	claims, err := auth.ParseToken("secret", resp["token"])
	if err != nil {
		t.Fatalf("expected a valid token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected token for user-1, got %s", claims.UserID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("longenough")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByUsernameFn: func(ctx context.Context, username string) (models.User, error) {
				return models.User{ID: "user-1", PasswordHash: hash}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice_01","password":"wrong"}`))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByUsernameFn: func(ctx context.Context, username string) (models.User, error) {
				return models.User{}, sql.ErrNoRows
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ghost","password":"whatever"}`))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "invalid credentials") {
		t.Fatalf("unexpected error body: %s", rr.Body.String())
	}
}

func TestMeReturnsProfile(t *testing.T) {
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByIDFn: func(ctx context.Context, userID string) (models.User, error) {
				return models.User{ID: userID, Username: "alice_01", Email: "alice@example.com"}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rr := serveAuthed(t, handler.Me, req, "user-1")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["id"] != "user-1" || body["username"] != "alice_01" {
		t.Fatalf("unexpected profile: %+v", body)
	}
}
