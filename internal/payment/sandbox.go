package payment

import (
	"context"
	"fmt"
	"sync"

	"eventix/internal/apperr"
	"eventix/internal/money"

	"github.com/google/uuid"
)

// Sandbox is an in-process gateway for local runs and tests. Intents are
// created in the succeeded state unless Hold is set, so it must only be
// enabled explicitly.
type Sandbox struct {
	mu       sync.Mutex
	intents  map[string]*Intent
	Hold     bool
	Currency string
}

func NewSandbox() *Sandbox {
	return &Sandbox{intents: make(map[string]*Intent), Currency: "thb"}
}

func (s *Sandbox) CreateIntent(_ context.Context, userID int, amount money.Amount) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := "pi_sandbox_" + uuid.NewString()
	status := StatusSucceeded
	if s.Hold {
		status = StatusRequiresAction
	}
	in := &Intent{
		ID:            id,
		ClientSecret:  id + "_secret",
		Amount:        amount,
		Currency:      s.Currency,
		Status:        status,
		UserID:        userID,
		PaymentMethod: "card",
	}
	s.intents[id] = in
	cp := *in
	return &cp, nil
}

func (s *Sandbox) GetIntent(_ context.Context, intentID string) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment intent", apperr.ErrNotFound)
	}
	cp := *in
	return &cp, nil
}

// Complete marks a held intent as succeeded.
func (s *Sandbox) Complete(intentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, ok := s.intents[intentID]; ok {
		in.Status = StatusSucceeded
	}
}
