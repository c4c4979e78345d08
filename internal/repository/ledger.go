package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrInsufficientFunds rejects a debit that would take a balance below
// zero.
var ErrInsufficientFunds = errors.New("repository: insufficient funds")

// LedgerRepository implements the escrow's CurrencyLedger contract over
// a balances table.
type LedgerRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewLedgerRepository creates a ledger over the given pool.
func NewLedgerRepository(pool *pgxpool.Pool, logger *zap.Logger) *LedgerRepository {
	return &LedgerRepository{pool: pool, logger: logger}
}

// Credit adds amount to the participant's balance, creating the row on
// first contact.
func (r *LedgerRepository) Credit(ctx context.Context, participant string, amount int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO balances (participant_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (participant_id)
		DO UPDATE SET balance = balances.balance + EXCLUDED.balance
	`, participant, amount)
	if err != nil {
		return fmt.Errorf("repository: credit %s: %w", participant, err)
	}
	return nil
}

// Debit subtracts amount from the participant's balance. The guard is
// in the statement itself so concurrent debits cannot overdraw.
func (r *LedgerRepository) Debit(ctx context.Context, participant string, amount int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE balances
		SET balance = balance - $2
		WHERE participant_id = $1 AND balance >= $2
	`, participant, amount)
	if err != nil {
		return fmt.Errorf("repository: debit %s: %w", participant, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, participant)
	}
	return nil
}

// Balance returns the participant's current balance; unknown
// participants read as zero.
func (r *LedgerRepository) Balance(ctx context.Context, participant string) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`SELECT balance FROM balances WHERE participant_id = $1`, participant,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("repository: balance %s: %w", participant, err)
	}
	return balance, nil
}
