package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventix/internal/apperr"
	"eventix/internal/db"
	"eventix/internal/money"

	"github.com/lib/pq"
)

// ErrDuplicateIntent is returned when a payment intent was already credited.
var ErrDuplicateIntent = fmt.Errorf("%w: payment intent already applied", apperr.ErrConflict)

const (
	walletColumns      = `id, user_id, balance, currency, created_at, updated_at`
	transactionColumns = `id, wallet_id, user_id, kind, amount, balance_after, description,
		related_event_id, related_booking_id, payment_intent_id, created_at`
	issueColumns = `id, kind, admin_user_id, expected_amount, applied_amount,
		related_event_id, related_booking_id, note, created_at`
)

type repository struct {
	currency string
}

func NewRepository(currency string) Repository {
	return &repository{currency: strings.ToUpper(currency)}
}

func (r *repository) LockWallets(ctx context.Context, q db.Querier, userIDs []int) ([]Wallet, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO wallets (user_id, currency)
		SELECT unnest($1::int[]), $2
		ON CONFLICT (user_id) DO NOTHING
	`, pq.Array(userIDs), r.currency)
	if err != nil {
		return nil, fmt.Errorf("ensure wallets: %w", err)
	}

	var wallets []Wallet
	err = q.SelectContext(ctx, &wallets, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = ANY($1)
		ORDER BY user_id
		FOR UPDATE
	`, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	return wallets, nil
}

func (r *repository) GetOrCreate(ctx context.Context, q db.Querier, userID int) (*Wallet, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO wallets (user_id, currency) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		userID, r.currency,
	)
	if err != nil {
		return nil, err
	}

	w := &Wallet{}
	if err := q.GetContext(ctx, w, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repository) UpdateBalance(ctx context.Context, q db.Querier, walletID int, balance money.Amount) error {
	_, err := q.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`,
		balance, walletID,
	)
	return err
}

func (r *repository) InsertTransaction(ctx context.Context, q db.Querier, t *Transaction) error {
	err := q.QueryRowxContext(ctx, `
		INSERT INTO wallet_transactions
			(wallet_id, user_id, kind, amount, balance_after, description, related_event_id, related_booking_id, payment_intent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`,
		t.WalletID, t.UserID, t.Kind, t.Amount, t.BalanceAfter, t.Description,
		t.RelatedEventID, t.RelatedBookingID, t.PaymentIntentID,
	).Scan(&t.ID, &t.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateIntent
	}
	return err
}

func (r *repository) ListTransactions(ctx context.Context, q db.Querier, userID, limit, offset int) ([]Transaction, error) {
	txs := []Transaction{}
	err := q.SelectContext(ctx, &txs, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// FindTransactionByIntent returns nil without error when the intent has not
// been credited yet.
func (r *repository) FindTransactionByIntent(ctx context.Context, q db.Querier, intentID string) (*Transaction, error) {
	t := &Transaction{}
	err := q.GetContext(ctx, t, `SELECT `+transactionColumns+` FROM wallet_transactions WHERE payment_intent_id = $1`, intentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repository) BookingHoldings(ctx context.Context, q db.Querier, bookingID, ownerID int) ([]Holding, error) {
	holdings := []Holding{}
	err := q.SelectContext(ctx, &holdings, `
		SELECT user_id, SUM(amount)::BIGINT AS amount
		FROM wallet_transactions
		WHERE related_booking_id = $1 AND user_id <> $2 AND kind IN ('admin_earning', 'refund')
		GROUP BY user_id
		HAVING SUM(amount) > 0
		ORDER BY user_id
	`, bookingID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("booking holdings: %w", err)
	}
	return holdings, nil
}

func (r *repository) InsertIssue(ctx context.Context, q db.Querier, issue *ReconciliationIssue) error {
	return q.QueryRowxContext(ctx, `
		INSERT INTO reconciliation_issues
			(kind, admin_user_id, expected_amount, applied_amount, related_event_id, related_booking_id, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`,
		issue.Kind, issue.AdminUserID, issue.ExpectedAmount, issue.AppliedAmount,
		issue.RelatedEventID, issue.RelatedBookingID, issue.Note,
	).Scan(&issue.ID, &issue.CreatedAt)
}

func (r *repository) ListIssues(ctx context.Context, q db.Querier, limit, offset int) ([]ReconciliationIssue, error) {
	issues := []ReconciliationIssue{}
	err := q.SelectContext(ctx, &issues, `
		SELECT `+issueColumns+`
		FROM reconciliation_issues
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return issues, nil
}
