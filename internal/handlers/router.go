package handlers

import (
	"net/http"

	"creatorledger/internal/config"
	"creatorledger/internal/db"
	"creatorledger/internal/middleware"
	"creatorledger/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg           config.Config
	txRunner      db.TxRunner
	users         UserStore
	admin         AdminStore
	audit         AuditStore
	transactions  TransactionStore
	payouts       PayoutStore
	withdrawals   WithdrawalStore
	bankAccounts  BankAccountStore
	storage       StorageStore
	pricing       PricingStore
	ledger        LedgerService
	payoutSvc     PayoutService
	storageSvc    StorageService
	withdrawalSvc WithdrawalService
	hub           *websocket.Hub
}

func New(cfg config.Config, txRunner db.TxRunner, users UserStore, admin AdminStore, audit AuditStore,
	transactions TransactionStore, payouts PayoutStore, withdrawals WithdrawalStore,
	bankAccounts BankAccountStore, storage StorageStore, pricing PricingStore,
	ledger LedgerService, payoutSvc PayoutService, storageSvc StorageService,
	withdrawalSvc WithdrawalService, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:           cfg,
		txRunner:      txRunner,
		users:         users,
		admin:         admin,
		audit:         audit,
		transactions:  transactions,
		payouts:       payouts,
		withdrawals:   withdrawals,
		bankAccounts:  bankAccounts,
		storage:       storage,
		pricing:       pricing,
		ledger:        ledger,
		payoutSvc:     payoutSvc,
		storageSvc:    storageSvc,
		withdrawalSvc: withdrawalSvc,
		hub:           hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Scheduler-Secret"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/wallet", h.GetWallet)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/transactions", h.ListTransactions)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/transactions/topup", h.RecordTopUp)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/transactions/spend", h.SpendPoints)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/storage", h.GetStorage)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/storage/purchase", h.PurchaseStorage)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/storage/downgrade", h.DowngradeStorage)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/payouts", h.ListOwnPayouts)
	router.Get("/ws/wallet", h.WSWallet)

	router.Route("/jobs", func(r chi.Router) {
		r.Use(middleware.Scheduler(h.cfg.SchedulerSecret))
		r.Post("/payouts", h.RunPayoutGeneration)
		r.Post("/storage-billing", h.RunStorageBilling)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.With(middleware.RequireAdmin(h.admin, "CanViewTransactions")).Get("/transactions", h.AdminListTransactions)
		r.With(middleware.RequireAdmin(h.admin, "CanVerifyTopUps")).Post("/transactions/{id}/verify", h.VerifyTopUp)
		r.With(middleware.RequireAdmin(h.admin, "CanVerifyTopUps")).Post("/transactions/{id}/reject", h.RejectTopUp)
		r.With(middleware.RequireAdmin(h.admin, "CanManagePayouts")).Get("/payouts", h.AdminListPayouts)
		r.With(middleware.RequireAdmin(h.admin, "CanManagePayouts")).Post("/payouts/{id}/processing", h.MarkPayoutProcessing)
		r.With(middleware.RequireAdmin(h.admin, "CanManagePayouts")).Post("/payouts/{id}/cancel", h.CancelPayout)
		r.With(middleware.RequireAdmin(h.admin, "CanManagePayouts")).Post("/payouts/{id}/complete", h.CompletePayout)
		r.With(middleware.RequireAdmin(h.admin, "CanManageWithdrawals")).Get("/withdrawals", h.ListWithdrawals)
		r.With(middleware.RequireAdmin(h.admin, "CanManageWithdrawals")).Post("/withdrawals", h.CreateWithdrawal)
		r.With(middleware.RequireAdmin(h.admin, "CanManageWithdrawals")).Post("/withdrawals/{id}/processing", h.MarkWithdrawalProcessing)
		r.With(middleware.RequireAdmin(h.admin, "CanManageWithdrawals")).Post("/withdrawals/{id}/complete", h.CompleteWithdrawal)
		r.With(middleware.RequireAdmin(h.admin, "CanManageWithdrawals")).Post("/withdrawals/{id}/cancel", h.CancelWithdrawal)
		r.With(middleware.RequireAdmin(h.admin, "CanManageWithdrawals")).Post("/withdrawals/{id}/fail", h.FailWithdrawal)
		r.With(middleware.RequireAdmin(h.admin, "")).Get("/pricing", h.GetPricing)
		r.With(middleware.RequireAdmin(h.admin, "CanManagePricing")).Put("/pricing", h.UpdatePricing)
		r.With(middleware.RequireAdmin(h.admin, "CanManageWithdrawals")).Get("/bank-accounts", h.ListBankAccounts)
		r.With(middleware.RequireAdmin(h.admin, "CanManageWithdrawals")).Post("/bank-accounts", h.CreateBankAccount)
		r.With(middleware.RequireAdmin(h.admin, "CanManageWithdrawals")).Post("/bank-accounts/{id}/deactivate", h.DeactivateBankAccount)
		r.With(middleware.RequireAdmin(h.admin, "CanViewTransactions")).Get("/audit", h.ListAuditLogs)
		r.With(middleware.RequireAdmin(h.admin, "")).Post("/promote", h.PromoteAdmin)
		r.With(middleware.RequireAdmin(h.admin, "")).Post("/roles/grant", h.GrantRole)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
