package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryLedger is an in-process CurrencyLedger for tests and
// database-less runs.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]int64)}
}

// Seed sets a participant's starting balance.
func (l *MemoryLedger) Seed(participant string, balance int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[participant] = balance
}

// Credit adds amount to the participant's balance.
func (l *MemoryLedger) Credit(_ context.Context, participant string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[participant] += amount
	return nil
}

// Debit subtracts amount, rejecting overdraws like the SQL ledger does.
func (l *MemoryLedger) Debit(_ context.Context, participant string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[participant] < amount {
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, participant)
	}
	l.balances[participant] -= amount
	return nil
}

// Balance returns the participant's current balance.
func (l *MemoryLedger) Balance(_ context.Context, participant string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[participant], nil
}
