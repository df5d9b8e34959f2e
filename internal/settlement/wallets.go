package settlement

import (
	"context"

	"eventix/internal/wallet"
)

// Wallets is the ledger as served over HTTP: it adds the post-commit top-up
// receipt to ConfirmTopUp and passes everything else through.
type Wallets struct {
	*wallet.Ledger
	notifier *Notifier
}

func NewWallets(ledger *wallet.Ledger, notifier *Notifier) *Wallets {
	return &Wallets{Ledger: ledger, notifier: notifier}
}

func (w *Wallets) ConfirmTopUp(ctx context.Context, userID int, intentID string) (*wallet.ConfirmTopUpResponse, error) {
	resp, err := w.Ledger.ConfirmTopUp(ctx, userID, intentID)
	if err != nil {
		return nil, err
	}
	if !resp.AlreadyApplied {
		w.notifier.TopUpConfirmed(ctx, userID, resp.Amount, resp.Wallet)
	}
	return resp, nil
}
