package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creatorledger/internal/config"
	"creatorledger/internal/db"
	"creatorledger/internal/handlers"
	"creatorledger/internal/services"
	"creatorledger/internal/store"
	"creatorledger/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	admin := store.NewAdminStore(database)
	audit := store.NewAuditStore(database)
	transactions := store.NewTransactionStore(database)
	payouts := store.NewPayoutStore(database)
	withdrawals := store.NewWithdrawalStore(database)
	bankAccounts := store.NewBankAccountStore(database)
	storage := store.NewStorageStore(database)
	pricing := store.NewPricingStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	ledgerSvc := services.NewLedgerService(txRunner, transactions, pricing, audit, hub)
	payoutSvc := services.NewPayoutService(txRunner, payouts, transactions, pricing, audit, hub)
	storageSvc := services.NewStorageService(txRunner, storage, transactions, pricing, audit, hub)
	withdrawalSvc := services.NewWithdrawalService(txRunner, withdrawals, bankAccounts, audit)

	handler := handlers.New(cfg, txRunner, users, admin, audit, transactions, payouts, withdrawals,
		bankAccounts, storage, pricing, ledgerSvc, payoutSvc, storageSvc, withdrawalSvc, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("ledger API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
