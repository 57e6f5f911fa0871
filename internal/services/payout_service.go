package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"creatorledger/internal/db"
	"creatorledger/internal/models"
	"creatorledger/internal/money"
	"creatorledger/internal/store"
	"creatorledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const schedulerActor = "scheduler"

// PayoutService generates the monthly creator payouts and advances them
// through the administrative workflow.
type PayoutService struct {
	txRunner     db.TxRunner
	payouts      PayoutStore
	transactions TransactionStore
	pricing      PricingStore
	audit        AuditStore
	hub          WalletHub
}

func NewPayoutService(txRunner db.TxRunner, payouts PayoutStore, transactions TransactionStore, pricing PricingStore, audit AuditStore, hub WalletHub) *PayoutService {
	return &PayoutService{
		txRunner:     txRunner,
		payouts:      payouts,
		transactions: transactions,
		pricing:      pricing,
		audit:        audit,
		hub:          hub,
	}
}

type GenerateResult struct {
	Period  string `json:"period"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// GenerateMonthly freezes each eligible user's spendable balance into a
// pending payout for the month of asOf. The (user_id, scheduled_for)
// uniqueness makes the whole job safely re-triggerable: a second run for the
// same month skips every user it already covered.
func (s *PayoutService) GenerateMonthly(ctx context.Context, asOf time.Time) (GenerateResult, error) {
	result := GenerateResult{Period: PeriodKey(asOf)}
	pricing, err := s.pricing.Get(ctx)
	if err != nil {
		return result, err
	}
	buyPrice, err := money.ParseRate(pricing.PointBuyPrice)
	if err != nil {
		return result, err
	}
	userIDs, err := s.transactions.EligibleForPayout(ctx)
	if err != nil {
		return result, err
	}
	for _, userID := range userIDs {
		created, err := s.generateForUser(ctx, userID, result.Period, buyPrice)
		if err != nil {
			log.Printf("payout generation failed for user %s: %v", userID, err)
			result.Failed++
			continue
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

func (s *PayoutService) generateForUser(ctx context.Context, userID, period string, buyPrice decimal.Decimal) (bool, error) {
	var created bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		created = false
		// Re-derive the balance on this transaction; the candidate scan ran
		// outside it and may be stale.
		wallet, err := s.transactions.Wallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if wallet.Balance <= 0 {
			return nil
		}
		rows, err := s.payouts.Create(ctx, tx, store.PayoutInput{
			ID:           uuid.NewString(),
			UserID:       userID,
			GrossPoints:  wallet.Balance,
			LockedPoints: wallet.Balance,
			AmountMinor:  money.MinorFromPoints(wallet.Balance, buyPrice),
			ScheduledFor: period,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		created = true
		data, _ := json.Marshal(map[string]any{
			"period": period,
			"points": wallet.Balance,
		})
		return s.audit.Log(ctx, tx, schedulerActor, "payout_generated", "payout", userID, string(data))
	})
	if err != nil {
		return false, err
	}
	if created {
		s.pushWallet(ctx, userID)
	}
	return created, nil
}

func (s *PayoutService) MarkProcessing(ctx context.Context, payoutID, adminID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.payouts.MarkProcessing(ctx, tx, payoutID)
		if err != nil {
			return err
		}
		if rows == 0 {
			if _, err := s.payouts.GetForUpdate(ctx, tx, payoutID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrNotFound
				}
				return err
			}
			return ErrInvalidState
		}
		return s.audit.Log(ctx, tx, adminID, "payout_processing", "payout", payoutID, "{}")
	})
}

// Cancel releases the locked points back into the spendable balance; the
// wallet derivation stops subtracting a payout once it leaves the
// pending/processing states.
func (s *PayoutService) Cancel(ctx context.Context, payoutID, adminID, reason string) error {
	var userID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		payout, err := s.payouts.GetForUpdate(ctx, tx, payoutID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		userID = payout.UserID
		rows, err := s.payouts.Cancel(ctx, tx, payoutID, adminID, reason)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInvalidState
		}
		data, _ := json.Marshal(map[string]string{
			"reason": reason,
		})
		return s.audit.Log(ctx, tx, adminID, "payout_cancelled", "payout", payoutID, string(data))
	})
	if err != nil {
		return err
	}
	s.pushWallet(ctx, userID)
	return nil
}

// Complete settles the payout at the administrator-reconciled amount and
// writes the settlement debit in the same transaction, so the locked points
// are consumed permanently instead of thawing back into the balance.
func (s *PayoutService) Complete(ctx context.Context, payoutID, adminID string, settledAmountMinor int64) error {
	if settledAmountMinor <= 0 {
		return ErrInvalidAmount
	}
	var userID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		payout, err := s.payouts.GetForUpdate(ctx, tx, payoutID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		userID = payout.UserID
		rows, err := s.payouts.Complete(ctx, tx, payoutID, adminID, settledAmountMinor)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInvalidState
		}
		if err := s.transactions.Insert(ctx, tx, store.TransactionInput{
			ID:          uuid.NewString(),
			UserID:      payout.UserID,
			Type:        models.TxTypePayoutSettlement,
			Status:      models.TxStatusVerified,
			PointsDelta: -payout.LockedPoints,
			AmountMinor: &settledAmountMinor,
			Description: "payout " + payoutID + " settled",
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"settled_amount": money.FormatMinor(settledAmountMinor),
			"points":         payout.LockedPoints,
		})
		return s.audit.Log(ctx, tx, adminID, "payout_completed", "payout", payoutID, string(data))
	})
	if err != nil {
		return err
	}
	s.pushWallet(ctx, userID)
	return nil
}

func (s *PayoutService) pushWallet(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	wallet, err := s.transactions.WalletSnapshot(ctx, userID)
	if err != nil {
		return
	}
	s.hub.BroadcastWallet(userID, websocket.WalletUpdate{
		Balance:      wallet.Balance,
		LockedPoints: wallet.LockedPoints,
	})
}
