package settlement

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"eventix/internal/booking"
	"eventix/internal/db"
	"eventix/internal/event"
	"eventix/internal/money"
	"eventix/internal/user"
	"eventix/internal/wallet"
)

var errCheckViolation = errors.New("check constraint violated")

// memState is the in-memory database the fakes operate on. Values are stored
// by value so a snapshot is a shallow clone of each map.
type memState struct {
	events       map[int]event.Event
	bookings     map[int]booking.Booking
	wallets      map[int]wallet.Wallet // keyed by user id
	transactions []wallet.Transaction
	issues       []wallet.ReconciliationIssue
	nextID       int
}

func (s memState) clone() memState {
	return memState{
		events:       maps.Clone(s.events),
		bookings:     maps.Clone(s.bookings),
		wallets:      maps.Clone(s.wallets),
		transactions: slices.Clone(s.transactions),
		issues:       slices.Clone(s.issues),
		nextID:       s.nextID,
	}
}

// memStore serializes transactions with one mutex, which is a stricter form
// of the row locks the real store takes, and restores the snapshot taken at
// begin when fn fails.
type memStore struct {
	mu    sync.Mutex
	state memState
	users map[int]user.User
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			events:   map[int]event.Event{},
			bookings: map[int]booking.Booking{},
			wallets:  map[int]wallet.Wallet{},
			nextID:   1,
		},
		users: map[int]user.User{},
	}
}

func (m *memStore) InTx(ctx context.Context, fn func(q db.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(nil); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memStore) id() int {
	id := m.state.nextID
	m.state.nextID++
	return id
}

func (m *memStore) addUser(name, role string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.users[id] = user.User{ID: id, Name: name, Email: name + "@example.com", Role: role}
	return id
}

func (m *memStore) setRole(id int, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.Role = role
	m.users[id] = u
}

func (m *memStore) addEvent(name string, capacity int, price money.Amount) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.state.events[id] = event.Event{
		ID:              id,
		Name:            name,
		Venue:           "Impact Arena",
		EventDate:       time.Date(2026, 12, 1, 19, 0, 0, 0, time.UTC),
		Capacity:        capacity,
		AvailableTicket: capacity,
		Price:           price,
	}
	return id
}

func (m *memStore) seedBalance(userID int, amount money.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.wallet(userID)
	if amount.IsPositive() {
		w.Balance += amount
		m.state.transactions = append(m.state.transactions, wallet.Transaction{
			ID: m.id(), WalletID: w.ID, UserID: userID, Kind: wallet.KindTopUp, Amount: amount, BalanceAfter: w.Balance,
		})
	}
	m.state.wallets[userID] = w
}

func (m *memStore) wallet(userID int) wallet.Wallet {
	w, ok := m.state.wallets[userID]
	if !ok {
		w = wallet.Wallet{ID: m.id(), UserID: userID, Currency: "THB"}
		m.state.wallets[userID] = w
	}
	return w
}

func (m *memStore) balance(userID int) money.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.wallets[userID].Balance
}

func (m *memStore) ledgerSum(userID int) money.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum money.Amount
	for _, t := range m.state.transactions {
		if t.UserID == userID {
			sum += t.Amount
		}
	}
	return sum
}

func (m *memStore) event(id int) event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.events[id]
}

func (m *memStore) held(eventID int) (total int, perUser map[int]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	perUser = map[int]int{}
	for _, b := range m.state.bookings {
		if b.EventID == eventID {
			total += b.Quantity
			perUser[b.UserID] += b.Quantity
		}
	}
	return total, perUser
}

func (m *memStore) counts() (bookings, transactions, issues int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.bookings), len(m.state.transactions), len(m.state.issues)
}

// memEvents implements event.Repository.
type memEvents struct{ m *memStore }

func (r memEvents) Create(ctx context.Context, q db.Querier, e *event.Event) error {
	e.ID = r.m.id()
	r.m.state.events[e.ID] = *e
	return nil
}

func (r memEvents) List(ctx context.Context, q db.Querier) ([]event.Event, error) {
	return slices.Collect(maps.Values(r.m.state.events)), nil
}

func (r memEvents) GetByID(ctx context.Context, q db.Querier, id int) (*event.Event, error) {
	e, ok := r.m.state.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	return &e, nil
}

func (r memEvents) GetForUpdate(ctx context.Context, q db.Querier, id int) (*event.Event, error) {
	return r.GetByID(ctx, q, id)
}

func (r memEvents) Update(ctx context.Context, q db.Querier, e *event.Event) error {
	r.m.state.events[e.ID] = *e
	return nil
}

func (r memEvents) UpdateAvailable(ctx context.Context, q db.Querier, id, available int) error {
	e, ok := r.m.state.events[id]
	if !ok {
		return event.ErrEventNotFound
	}
	if available < 0 || available > e.Capacity {
		return errCheckViolation
	}
	e.AvailableTicket = available
	r.m.state.events[id] = e
	return nil
}

func (r memEvents) Delete(ctx context.Context, q db.Querier, id int) error {
	delete(r.m.state.events, id)
	return nil
}

func (r memEvents) HasBookings(ctx context.Context, q db.Querier, id int) (bool, error) {
	for _, b := range r.m.state.bookings {
		if b.EventID == id {
			return true, nil
		}
	}
	return false, nil
}

// memBookings implements booking.Repository.
type memBookings struct{ m *memStore }

func (r memBookings) Create(ctx context.Context, q db.Querier, b *booking.Booking) error {
	if b.Quantity < booking.MinQuantity || b.Quantity > booking.MaxPerUserEvent {
		return errCheckViolation
	}
	b.ID = r.m.id()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.m.state.bookings[b.ID] = *b
	return nil
}

func (r memBookings) GetForUpdate(ctx context.Context, q db.Querier, id int) (*booking.Booking, error) {
	b, ok := r.m.state.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return &b, nil
}

func (r memBookings) GetDetails(ctx context.Context, q db.Querier, id int) (*booking.BookingDetails, error) {
	b, ok := r.m.state.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	e := r.m.state.events[b.EventID]
	return &booking.BookingDetails{
		Booking: b,
		Event:   booking.EventSummary{ID: e.ID, Name: e.Name, Venue: e.Venue, EventDate: e.EventDate, AvailableTicket: e.AvailableTicket},
	}, nil
}

func (r memBookings) ListDetails(ctx context.Context, q db.Querier, userID int) ([]booking.BookingDetails, error) {
	out := []booking.BookingDetails{}
	for _, b := range r.m.state.bookings {
		if userID == 0 || b.UserID == userID {
			d, _ := r.GetDetails(ctx, q, b.ID)
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r memBookings) SumQuantity(ctx context.Context, q db.Querier, userID, eventID int) (int, error) {
	total := 0
	for _, b := range r.m.state.bookings {
		if b.UserID == userID && b.EventID == eventID {
			total += b.Quantity
		}
	}
	return total, nil
}

func (r memBookings) UpdateQuantity(ctx context.Context, q db.Querier, id, quantity int) error {
	b, ok := r.m.state.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if quantity < booking.MinQuantity || quantity > booking.MaxPerUserEvent {
		return errCheckViolation
	}
	b.Quantity = quantity
	r.m.state.bookings[id] = b
	return nil
}

func (r memBookings) Delete(ctx context.Context, q db.Querier, id int) error {
	if _, ok := r.m.state.bookings[id]; !ok {
		return booking.ErrBookingNotFound
	}
	delete(r.m.state.bookings, id)
	return nil
}

// memWallets implements wallet.Repository.
type memWallets struct{ m *memStore }

func (r memWallets) LockWallets(ctx context.Context, q db.Querier, userIDs []int) ([]wallet.Wallet, error) {
	out := make([]wallet.Wallet, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, r.m.wallet(id))
	}
	return out, nil
}

func (r memWallets) GetOrCreate(ctx context.Context, q db.Querier, userID int) (*wallet.Wallet, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	w := r.m.wallet(userID)
	return &w, nil
}

func (r memWallets) UpdateBalance(ctx context.Context, q db.Querier, walletID int, balance money.Amount) error {
	if balance < 0 {
		return errCheckViolation
	}
	for uid, w := range r.m.state.wallets {
		if w.ID == walletID {
			w.Balance = balance
			r.m.state.wallets[uid] = w
			return nil
		}
	}
	return errors.New("wallet not found")
}

func (r memWallets) InsertTransaction(ctx context.Context, q db.Querier, t *wallet.Transaction) error {
	if t.PaymentIntentID != nil {
		for _, existing := range r.m.state.transactions {
			if existing.PaymentIntentID != nil && *existing.PaymentIntentID == *t.PaymentIntentID {
				return wallet.ErrDuplicateIntent
			}
		}
	}
	t.ID = r.m.id()
	t.CreatedAt = time.Now()
	r.m.state.transactions = append(r.m.state.transactions, *t)
	return nil
}

func (r memWallets) ListTransactions(ctx context.Context, q db.Querier, userID, limit, offset int) ([]wallet.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []wallet.Transaction
	for i := len(r.m.state.transactions) - 1; i >= 0; i-- {
		if t := r.m.state.transactions[i]; t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memWallets) FindTransactionByIntent(ctx context.Context, q db.Querier, intentID string) (*wallet.Transaction, error) {
	for _, t := range r.m.state.transactions {
		if t.PaymentIntentID != nil && *t.PaymentIntentID == intentID {
			return &t, nil
		}
	}
	return nil, nil
}

func (r memWallets) BookingHoldings(ctx context.Context, q db.Querier, bookingID, ownerID int) ([]wallet.Holding, error) {
	net := map[int]money.Amount{}
	for _, t := range r.m.state.transactions {
		if t.RelatedBookingID == nil || *t.RelatedBookingID != bookingID || t.UserID == ownerID {
			continue
		}
		if t.Kind == wallet.KindAdminEarning || t.Kind == wallet.KindRefund {
			net[t.UserID] += t.Amount
		}
	}
	var out []wallet.Holding
	for _, uid := range slices.Sorted(maps.Keys(net)) {
		if net[uid].IsPositive() {
			out = append(out, wallet.Holding{UserID: uid, Amount: net[uid]})
		}
	}
	return out, nil
}

func (r memWallets) InsertIssue(ctx context.Context, q db.Querier, issue *wallet.ReconciliationIssue) error {
	issue.ID = r.m.id()
	issue.CreatedAt = time.Now()
	r.m.state.issues = append(r.m.state.issues, *issue)
	return nil
}

func (r memWallets) ListIssues(ctx context.Context, q db.Querier, limit, offset int) ([]wallet.ReconciliationIssue, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return slices.Clone(r.m.state.issues), nil
}

// memDirectory implements Directory over the store's users.
type memDirectory struct{ m *memStore }

func (d memDirectory) ListAdminIDs(ctx context.Context) ([]int, error) {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	var ids []int
	for id, u := range d.m.users {
		if u.Role == "admin" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (d memDirectory) FindByID(ctx context.Context, id int) (*user.User, error) {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	u, ok := d.m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}
