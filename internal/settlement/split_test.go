package settlement

import (
	"testing"

	"eventix/internal/money"
	"eventix/internal/wallet"

	"github.com/stretchr/testify/assert"
)

func TestReclaim(t *testing.T) {
	held := func(pairs ...int) []wallet.Holding {
		var out []wallet.Holding
		for i := 0; i < len(pairs); i += 2 {
			out = append(out, wallet.Holding{UserID: pairs[i], Amount: money.Amount(pairs[i+1])})
		}
		return out
	}

	tests := []struct {
		name          string
		refund        money.Amount
		held          []wallet.Holding
		wantShares    []share
		wantUncovered money.Amount
	}{
		{
			name:       "whole holding comes back exactly",
			refund:     10001,
			held:       held(1, 5000, 2, 5001),
			wantShares: []share{{AdminID: 1, Amount: 5000}, {AdminID: 2, Amount: 5001}},
		},
		{
			name:       "partial refund splits evenly",
			refund:     10001,
			held:       held(1, 10001, 2, 10001),
			wantShares: []share{{AdminID: 1, Amount: 5001}, {AdminID: 2, Amount: 5000}},
		},
		{
			name:       "short holder passes the rest on",
			refund:     100,
			held:       held(1, 10, 2, 200),
			wantShares: []share{{AdminID: 1, Amount: 10}, {AdminID: 2, Amount: 90}},
		},
		{
			name:          "refund beyond holdings",
			refund:        500,
			held:          held(1, 100, 2, 100),
			wantShares:    []share{{AdminID: 1, Amount: 100}, {AdminID: 2, Amount: 100}},
			wantUncovered: 300,
		},
		{
			name:          "nobody holds anything",
			refund:        50,
			wantUncovered: 50,
		},
		{
			name:   "nothing to refund",
			refund: 0,
			held:   held(1, 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, uncovered := reclaim(tt.refund, tt.held)
			assert.Equal(t, tt.wantShares, shares)
			assert.Equal(t, tt.wantUncovered, uncovered)

			var sum money.Amount
			for _, s := range shares {
				sum += s.Amount
			}
			assert.Equal(t, tt.refund, sum+uncovered)
		})
	}
}
