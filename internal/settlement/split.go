package settlement

import (
	"context"
	"fmt"
	"slices"

	"eventix/internal/db"
	"eventix/internal/logger"
	"eventix/internal/money"
	"eventix/internal/wallet"
)

type share struct {
	AdminID int
	Amount  money.Amount
}

// allocate splits total across admins in ascending id order. Each admin gets
// total/n minor units and the remainder goes one unit each to the first
// admins, so the shares always sum to total and a reversal of the same total
// hits the same admins with the same amounts.
func allocate(total money.Amount, admins []int) []share {
	if len(admins) == 0 {
		return nil
	}
	ids := slices.Clone(admins)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	parts := total.Split(len(ids))
	out := make([]share, 0, len(ids))
	for i, id := range ids {
		out = append(out, share{AdminID: id, Amount: parts[i]})
	}
	return out
}

// refs ties ledger rows and issues to the booking that caused them.
type refs struct {
	EventID     int
	BookingID   int
	Description string
}

// creditAdmins pays each admin its share as admin_earning. With no admin
// accounts the money has nowhere to go; that is recorded as an issue and the
// operation carries on.
func (c *Coordinator) creditAdmins(ctx context.Context, q db.Querier, admins []int, total money.Amount, r refs) ([]wallet.ReconciliationIssue, error) {
	if !total.IsPositive() {
		return nil, nil
	}
	shares := allocate(total, admins)
	if len(shares) == 0 {
		issue, err := c.recordIssue(ctx, q, wallet.IssueNoAdminAccounts, 0, total, r, "no admin accounts to receive booking revenue")
		if err != nil {
			return nil, err
		}
		return []wallet.ReconciliationIssue{*issue}, nil
	}

	for _, s := range shares {
		if !s.Amount.IsPositive() {
			continue
		}
		if _, err := c.ledger.Credit(ctx, q, wallet.Entry{
			UserID:      s.AdminID,
			Amount:      s.Amount,
			Kind:        wallet.KindAdminEarning,
			Description: "Earning from event booking: " + r.Description,
			EventID:     r.EventID,
			BookingID:   r.BookingID,
		}); err != nil {
			return nil, fmt.Errorf("credit admin %d: %w", s.AdminID, err)
		}
	}
	return nil, nil
}

// reclaim picks the shares of refund to take back from the admins that hold a
// booking's revenue. held must be in ascending user id order. refund is split
// evenly in that order and no admin gives back more than it holds; whatever
// the holdings cannot cover is returned as uncovered. When refund is the whole
// holding every admin returns exactly what it received.
func reclaim(refund money.Amount, held []wallet.Holding) ([]share, money.Amount) {
	if !refund.IsPositive() {
		return nil, 0
	}
	if len(held) == 0 {
		return nil, refund
	}

	var total money.Amount
	out := make([]share, len(held))
	for i, h := range held {
		total += h.Amount
		out[i] = share{AdminID: h.UserID, Amount: h.Amount}
	}
	if refund >= total {
		return out, refund - total
	}

	var carry money.Amount
	for i, part := range refund.Split(len(held)) {
		if part > held[i].Amount {
			carry += part - held[i].Amount
			part = held[i].Amount
		}
		out[i].Amount = part
	}
	for i := range out {
		if carry == 0 {
			break
		}
		take := min(held[i].Amount-out[i].Amount, carry)
		out[i].Amount += take
		carry -= take
	}
	return out, 0
}

// reverseAdmins takes each current admin's share of total back. It serves
// refunds that are not tied to a booking's settlement rows.
func (c *Coordinator) reverseAdmins(ctx context.Context, q db.Querier, admins []int, total money.Amount, r refs) ([]wallet.ReconciliationIssue, error) {
	if !total.IsPositive() {
		return nil, nil
	}
	shares := allocate(total, admins)
	if len(shares) == 0 {
		return c.takeBack(ctx, q, nil, total, r, "no admin accounts to reverse booking revenue from")
	}
	return c.takeBack(ctx, q, shares, 0, r, "")
}

// lockReclaim works out which admins give back refund for bookingID and locks
// their wallets together with the owner's. It must run before the owner is
// credited so wallets are still locked in ascending user id order.
func (c *Coordinator) lockReclaim(ctx context.Context, q db.Querier, bookingID, owner int, refund money.Amount) ([]share, money.Amount, error) {
	held, err := c.ledger.BookingHoldings(ctx, q, bookingID, owner)
	if err != nil {
		return nil, 0, err
	}
	shares, uncovered := reclaim(refund, held)

	ids := []int{owner}
	for _, s := range shares {
		ids = append(ids, s.AdminID)
	}
	if _, err := c.ledger.LockWallets(ctx, q, ids...); err != nil {
		return nil, 0, err
	}
	return shares, uncovered, nil
}

// takeBack debits each share from its admin. An admin whose balance cannot
// cover its share is skipped and an issue is recorded instead of failing the
// refund. A positive uncovered amount is recorded as one issue with note.
func (c *Coordinator) takeBack(ctx context.Context, q db.Querier, shares []share, uncovered money.Amount, r refs, note string) ([]wallet.ReconciliationIssue, error) {
	var issues []wallet.ReconciliationIssue
	if uncovered.IsPositive() {
		issue, err := c.recordIssue(ctx, q, wallet.IssueNoAdminAccounts, 0, uncovered, r, note)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}

	for _, s := range shares {
		if !s.Amount.IsPositive() {
			continue
		}
		_, applied, err := c.ledger.TryDebit(ctx, q, wallet.Entry{
			UserID:      s.AdminID,
			Amount:      s.Amount,
			Kind:        wallet.KindRefund,
			Description: "Refund for cancelled booking: " + r.Description,
			EventID:     r.EventID,
			BookingID:   r.BookingID,
		})
		if err != nil {
			return nil, fmt.Errorf("reverse admin %d: %w", s.AdminID, err)
		}
		if applied {
			continue
		}
		issue, err := c.recordIssue(ctx, q, wallet.IssueAdminUnderfunded, s.AdminID, s.Amount, r,
			"admin balance below refund share; share not reversed")
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, nil
}

func (c *Coordinator) recordIssue(ctx context.Context, q db.Querier, kind string, adminID int, expected money.Amount, r refs, note string) (*wallet.ReconciliationIssue, error) {
	issue := &wallet.ReconciliationIssue{
		Kind:           kind,
		ExpectedAmount: expected,
		Note:           note,
	}
	if adminID != 0 {
		issue.AdminUserID = &adminID
	}
	if r.EventID != 0 {
		issue.RelatedEventID = &r.EventID
	}
	if r.BookingID != 0 {
		issue.RelatedBookingID = &r.BookingID
	}
	if err := c.ledger.RecordIssue(ctx, q, issue); err != nil {
		return nil, err
	}

	logger.Warn("partial settlement",
		"kind", kind,
		"admin_user_id", adminID,
		"expected", expected.String(),
		"event_id", r.EventID,
		"booking_id", r.BookingID,
	)
	return issue, nil
}
