// Package repository provides the PostgreSQL-backed implementations of
// the engine's storage contracts: the currency ledger behind the stake
// escrow, and the card catalog / deck source used at match setup. An
// in-memory ledger covers tests and database-less deployments.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// NewPool connects to PostgreSQL and verifies the connection.
func NewPool(ctx context.Context, url string, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("repository: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping: %w", err)
	}
	logger.Info("database connection established")
	return pool, nil
}
