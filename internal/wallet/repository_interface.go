package wallet

import (
	"context"

	"eventix/internal/db"
	"eventix/internal/money"
)

type Repository interface {
	// LockWallets creates any missing wallets for userIDs and returns all of
	// them row-locked, ordered by ascending user id.
	LockWallets(ctx context.Context, q db.Querier, userIDs []int) ([]Wallet, error)
	GetOrCreate(ctx context.Context, q db.Querier, userID int) (*Wallet, error)
	UpdateBalance(ctx context.Context, q db.Querier, walletID int, balance money.Amount) error
	InsertTransaction(ctx context.Context, q db.Querier, tx *Transaction) error
	ListTransactions(ctx context.Context, q db.Querier, userID, limit, offset int) ([]Transaction, error)
	FindTransactionByIntent(ctx context.Context, q db.Querier, intentID string) (*Transaction, error)
	// BookingHoldings nets the admin_earning and refund rows of bookingID per
	// account other than ownerID and returns the positive balances in
	// ascending user id order.
	BookingHoldings(ctx context.Context, q db.Querier, bookingID, ownerID int) ([]Holding, error)
	InsertIssue(ctx context.Context, q db.Querier, issue *ReconciliationIssue) error
	ListIssues(ctx context.Context, q db.Querier, limit, offset int) ([]ReconciliationIssue, error)
}
