package wallet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"eventix/internal/apperr"
	"eventix/internal/db"
	"eventix/internal/logger"
	"eventix/internal/metrics"
	"eventix/internal/money"
	"eventix/internal/payment"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var ErrCurrencyMismatch = fmt.Errorf("%w: payment intent currency does not match wallet", apperr.ErrInvalidInput)

// Ledger owns every balance mutation. Credit, Debit and TryDebit run on the
// caller's querier so they join the caller's transaction; each one updates
// exactly one wallet and appends exactly one transaction row.
type Ledger struct {
	repo    Repository
	db      db.Querier
	tx      db.TxRunner
	gateway payment.Gateway
}

func NewLedger(repo Repository, q db.Querier, tx db.TxRunner, gateway payment.Gateway) *Ledger {
	return &Ledger{
		repo:    repo,
		db:      q,
		tx:      tx,
		gateway: gateway,
	}
}

func (l *Ledger) GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error) {
	return l.repo.GetOrCreate(ctx, l.db, userID)
}

// LockWallets row-locks the wallets of userIDs in ascending user id order,
// creating missing ones. Every settlement path locks through here, which keeps
// lock acquisition order identical across concurrent operations.
func (l *Ledger) LockWallets(ctx context.Context, q db.Querier, userIDs ...int) (map[int]*Wallet, error) {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	wallets, err := l.repo.LockWallets(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int]*Wallet, len(wallets))
	for i := range wallets {
		out[wallets[i].UserID] = &wallets[i]
	}
	return out, nil
}

func (l *Ledger) lockOne(ctx context.Context, q db.Querier, userID int) (*Wallet, error) {
	wallets, err := l.LockWallets(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	w, ok := wallets[userID]
	if !ok {
		return nil, fmt.Errorf("wallet for user %d not locked", userID)
	}
	return w, nil
}

func (l *Ledger) Credit(ctx context.Context, q db.Querier, e Entry) (*Transaction, error) {
	if !e.Amount.IsPositive() {
		return nil, apperr.ErrInvalidAmount
	}
	w, err := l.lockOne(ctx, q, e.UserID)
	if err != nil {
		return nil, err
	}
	return l.apply(ctx, q, w, e, e.Amount)
}

func (l *Ledger) Debit(ctx context.Context, q db.Querier, e Entry) (*Transaction, error) {
	t, applied, err := l.TryDebit(ctx, q, e)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperr.ErrInsufficientFunds
	}
	return t, nil
}

// TryDebit debits like Debit but reports applied=false instead of failing when
// the balance is short. Nothing is written in that case.
func (l *Ledger) TryDebit(ctx context.Context, q db.Querier, e Entry) (*Transaction, bool, error) {
	if !e.Amount.IsPositive() {
		return nil, false, apperr.ErrInvalidAmount
	}
	w, err := l.lockOne(ctx, q, e.UserID)
	if err != nil {
		return nil, false, err
	}
	if w.Balance < e.Amount {
		return nil, false, nil
	}
	t, err := l.apply(ctx, q, w, e, -e.Amount)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (l *Ledger) apply(ctx context.Context, q db.Querier, w *Wallet, e Entry, signed money.Amount) (*Transaction, error) {
	newBalance := w.Balance + signed
	if err := l.repo.UpdateBalance(ctx, q, w.ID, newBalance); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	t := &Transaction{
		WalletID:         w.ID,
		UserID:           w.UserID,
		Kind:             e.Kind,
		Amount:           signed,
		BalanceAfter:     newBalance,
		Description:      e.Description,
		RelatedEventID:   optionalID(e.EventID),
		RelatedBookingID: optionalID(e.BookingID),
		PaymentIntentID:  optionalString(e.PaymentIntentID),
	}
	if err := l.repo.InsertTransaction(ctx, q, t); err != nil {
		return nil, err
	}
	w.Balance = newBalance

	metrics.RecordLedgerMovement(string(e.Kind), int64(signed))
	return t, nil
}

func (l *Ledger) ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	limit, offset = page(limit, offset)
	return l.repo.ListTransactions(ctx, l.db, userID, limit, offset)
}

// BookingHoldings returns what each admin still holds from bookingID's
// revenue split.
func (l *Ledger) BookingHoldings(ctx context.Context, q db.Querier, bookingID, ownerID int) ([]Holding, error) {
	return l.repo.BookingHoldings(ctx, q, bookingID, ownerID)
}

func (l *Ledger) RecordIssue(ctx context.Context, q db.Querier, issue *ReconciliationIssue) error {
	if err := l.repo.InsertIssue(ctx, q, issue); err != nil {
		return fmt.Errorf("record reconciliation issue: %w", err)
	}
	return nil
}

func (l *Ledger) ListIssues(ctx context.Context, limit, offset int) ([]ReconciliationIssue, error) {
	limit, offset = page(limit, offset)
	return l.repo.ListIssues(ctx, l.db, limit, offset)
}

func (l *Ledger) CreateTopUpIntent(ctx context.Context, userID int, amount money.Amount) (*TopUpIntentResponse, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", apperr.ErrInvalidAmount)
	}
	in, err := l.gateway.CreateIntent(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	return &TopUpIntentResponse{ClientSecret: in.ClientSecret, PaymentIntentID: in.ID}, nil
}

// ConfirmTopUp credits the wallet once the processor reports the intent as
// succeeded. The wallet is never touched before that. Confirming the same
// intent again returns the current wallet with AlreadyApplied set.
func (l *Ledger) ConfirmTopUp(ctx context.Context, userID int, intentID string) (*ConfirmTopUpResponse, error) {
	in, err := l.gateway.GetIntent(ctx, intentID)
	if err != nil {
		metrics.RecordTopUp("gateway_error")
		return nil, err
	}
	if in.UserID != userID {
		return nil, fmt.Errorf("%w: payment intent", apperr.ErrNotFound)
	}
	if !in.Succeeded() {
		metrics.RecordTopUp("not_completed")
		return nil, apperr.ErrPaymentNotCompleted
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.ErrInvalidAmount
	}

	method := in.PaymentMethod
	if method == "" {
		method = "card"
	}

	resp := &ConfirmTopUpResponse{Amount: in.Amount}
	err = l.tx.InTx(ctx, func(q db.Querier) error {
		w, err := l.lockOne(ctx, q, userID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(in.Currency, w.Currency) {
			return fmt.Errorf("%w: intent %s, wallet %s", ErrCurrencyMismatch, in.Currency, w.Currency)
		}
		existing, err := l.repo.FindTransactionByIntent(ctx, q, intentID)
		if err != nil {
			return err
		}
		if existing != nil {
			resp.Wallet = w
			resp.AlreadyApplied = true
			return nil
		}
		if _, err := l.apply(ctx, q, w, Entry{
			UserID:          userID,
			Amount:          in.Amount,
			Kind:            KindTopUp,
			Description:     "Wallet topup via " + method,
			PaymentIntentID: intentID,
		}, in.Amount); err != nil {
			return err
		}
		resp.Wallet = w
		return nil
	})
	if errors.Is(err, ErrDuplicateIntent) {
		w, werr := l.GetOrCreateWallet(ctx, userID)
		if werr != nil {
			return nil, werr
		}
		resp = &ConfirmTopUpResponse{Wallet: w, Amount: in.Amount, AlreadyApplied: true}
		err = nil
	}
	if errors.Is(err, ErrCurrencyMismatch) {
		metrics.RecordTopUp("currency_mismatch")
		logger.Warn("top-up currency mismatch", "user_id", userID, "payment_intent_id", intentID, "currency", in.Currency)
	}
	if err != nil {
		return nil, err
	}

	if resp.AlreadyApplied {
		metrics.RecordTopUp("already_applied")
		logger.Info("top-up already applied", "user_id", userID, "payment_intent_id", intentID)
	} else {
		metrics.RecordTopUp("credited")
		logger.Info("wallet topped up", "user_id", userID, "amount", in.Amount.String(), "payment_intent_id", intentID)
	}
	return resp, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
