package services

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state transition")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrBelowMinimum         = errors.New("top-up below mandatory minimum")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidPoints        = errors.New("invalid points amount")
	ErrSelfBoost            = errors.New("cannot boost yourself")
	ErrInvalidStorageChange = errors.New("invalid storage limit change")
	ErrBankAccountInactive  = errors.New("bank account inactive")
	ErrUnbalancedTransfer   = errors.New("transfer entries are not balanced")
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}
