package settlement_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"eventix/internal/apperr"
	"eventix/internal/auth"
	"eventix/internal/booking"
	"eventix/internal/db"
	"eventix/internal/event"
	"eventix/internal/money"
	"eventix/internal/payment"
	"eventix/internal/settlement"
	"eventix/internal/user"
	"eventix/internal/wallet"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to the database named by TEST_DSN and migrates it.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("TEST_DSN")
	if dsn == "" {
		t.Skip("TEST_DSN not set")
	}

	database, err := db.Connect(dsn)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	_, err = db.RunMigrations(database, "../../migrations")
	require.NoError(t, err)

	_, err = database.Exec(`TRUNCATE reconciliation_issues, wallet_transactions, wallets, bookings, events, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	t.Cleanup(func() { database.Close() })
	return database
}

type stack struct {
	db      *sqlx.DB
	ledger  *wallet.Ledger
	coord   *settlement.Coordinator
	gateway *payment.Sandbox
}

func newStack(t *testing.T) *stack {
	database := setupTestDB(t)
	tx := db.NewTxRunner(database)
	gateway := payment.NewSandbox()

	ledger := wallet.NewLedger(wallet.NewRepository("thb"), database, tx, gateway)
	engine := booking.NewEngine(booking.NewRepository(), event.NewRepository(), database)
	coord := settlement.NewCoordinator(tx, engine, ledger, user.NewRepository(database), nil)

	return &stack{db: database, ledger: ledger, coord: coord, gateway: gateway}
}

func (s *stack) createUser(t *testing.T, email, role string) int {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	var id int
	require.NoError(t, s.db.QueryRow(`
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, email, email, hash, role).Scan(&id))
	return id
}

func (s *stack) createEvent(t *testing.T, capacity int, price string) int {
	t.Helper()
	var id int
	require.NoError(t, s.db.QueryRow(`
		INSERT INTO events (name, event_date, venue, organizer, capacity, available_ticket, price)
		VALUES ('Jazz Night', $1, 'Hall A', 'Eventix', $2, $2, $3)
		RETURNING id
	`, time.Now().Add(72*time.Hour), capacity, int64(money.MustParse(price))).Scan(&id))
	return id
}

func (s *stack) topUp(t *testing.T, userID int, amount string) {
	t.Helper()
	ctx := context.Background()
	intent, err := s.ledger.CreateTopUpIntent(ctx, userID, money.MustParse(amount))
	require.NoError(t, err)
	_, err = s.ledger.ConfirmTopUp(ctx, userID, intent.PaymentIntentID)
	require.NoError(t, err)
}

func (s *stack) balance(t *testing.T, userID int) money.Amount {
	t.Helper()
	w, err := s.ledger.GetOrCreateWallet(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func (s *stack) assertConsistent(t *testing.T) {
	t.Helper()

	var drift int
	require.NoError(t, s.db.Get(&drift, `
		SELECT COUNT(*) FROM wallets w
		WHERE w.balance <> COALESCE((SELECT SUM(amount) FROM wallet_transactions t WHERE t.wallet_id = w.id), 0)
	`))
	assert.Zero(t, drift, "wallet balances drifted from their transaction sums")

	var oversold int
	require.NoError(t, s.db.Get(&oversold, `
		SELECT COUNT(*) FROM events e
		WHERE e.available_ticket + COALESCE((SELECT SUM(quantity) FROM bookings b WHERE b.event_id = e.id), 0) <> e.capacity
	`))
	assert.Zero(t, oversold, "inventory does not add up to capacity")
}

func TestSettlement_BookResizeCancel_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	adminID := s.createUser(t, "admin@eventix.test", auth.RoleAdmin)
	memberID := s.createUser(t, "member@eventix.test", auth.RoleMember)
	member := auth.Principal{UserID: memberID, Role: auth.RoleMember}
	eventID := s.createEvent(t, 10, "300.00")
	s.topUp(t, memberID, "1000.00")

	res, err := s.coord.BookAndPay(ctx, memberID, eventID, 2)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("600.00"), res.Charged)
	assert.Equal(t, money.MustParse("400.00"), s.balance(t, memberID))
	assert.Equal(t, money.MustParse("600.00"), s.balance(t, adminID))

	res, err = s.coord.ResizeAndReconcile(ctx, res.Booking.ID, 1, member)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("300.00"), res.Refunded)
	assert.Equal(t, money.MustParse("700.00"), s.balance(t, memberID))

	_, err = s.coord.CancelAndRefund(ctx, res.Booking.ID, member)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("1000.00"), s.balance(t, memberID))
	assert.Equal(t, money.Amount(0), s.balance(t, adminID))

	s.assertConsistent(t)
}

func TestSettlement_InsufficientFundsRollsBack_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	s.createUser(t, "admin@eventix.test", auth.RoleAdmin)
	memberID := s.createUser(t, "member@eventix.test", auth.RoleMember)
	eventID := s.createEvent(t, 10, "300.00")
	s.topUp(t, memberID, "100.00")

	_, err := s.coord.BookAndPay(ctx, memberID, eventID, 1)
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	var available, bookings int
	require.NoError(t, s.db.Get(&available, `SELECT available_ticket FROM events WHERE id = $1`, eventID))
	require.NoError(t, s.db.Get(&bookings, `SELECT COUNT(*) FROM bookings`))
	assert.Equal(t, 10, available)
	assert.Zero(t, bookings)
	assert.Equal(t, money.MustParse("100.00"), s.balance(t, memberID))

	s.assertConsistent(t)
}

func TestSettlement_ConcurrentBookingsNeverOversell_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	s.createUser(t, "admin@eventix.test", auth.RoleAdmin)
	eventID := s.createEvent(t, 10, "50.00")

	const buyers = 8
	ids := make([]int, buyers)
	for i := range ids {
		ids[i] = s.createUser(t, "buyer"+string(rune('a'+i))+"@eventix.test", auth.RoleMember)
		s.topUp(t, ids[i], "500.00")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		soldOut int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, err := s.coord.BookAndPay(ctx, userID, eventID, 2)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrSoldOut):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 3, soldOut)
	s.assertConsistent(t)
}

func TestSettlement_ConfirmTopUpIsIdempotent_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	memberID := s.createUser(t, "member@eventix.test", auth.RoleMember)
	intent, err := s.ledger.CreateTopUpIntent(ctx, memberID, money.MustParse("250.00"))
	require.NoError(t, err)

	first, err := s.ledger.ConfirmTopUp(ctx, memberID, intent.PaymentIntentID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyApplied)

	second, err := s.ledger.ConfirmTopUp(ctx, memberID, intent.PaymentIntentID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyApplied)

	assert.Equal(t, money.MustParse("250.00"), s.balance(t, memberID))
	s.assertConsistent(t)
}
