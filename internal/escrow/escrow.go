// Package escrow holds participants' stakes for the duration of a
// match. It owns no money itself: balances live behind the
// CurrencyLedger contract, and the escrow tracks who has what locked.
// A lock that outlives its TTL is stale, not gone: the debited stake is
// credited back, either when the slot is next contended or by the
// periodic sweep. Money never silently vanishes with an expired entry.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/gwentfree/gwent-server-go/internal/expiry"
	"github.com/gwentfree/gwent-server-go/internal/game"
)

// DefaultLockTTL is how long a stake lock survives without settlement
// before it is considered stale and its debit is credited back.
const DefaultLockTTL = 2 * time.Hour

var (
	ErrStakeOutOfBounds = errors.New("escrow: stake out of bounds")
	ErrAlreadyLocked    = errors.New("escrow: live stake lock exists")
	ErrActiveMatch      = errors.New("escrow: participant already in a match")
)

// CurrencyLedger is the credit/debit contract of the external economy.
// Implementations must be safe for concurrent use.
type CurrencyLedger interface {
	Credit(ctx context.Context, participant string, amount int64) error
	Debit(ctx context.Context, participant string, amount int64) error
}

// ActiveFunc reports whether the participant is currently in a match.
type ActiveFunc func(id game.ParticipantID) bool

type lockEntry struct {
	amount   int64
	lockedAt time.Time
}

// Escrow manages stake locks over a CurrencyLedger.
type Escrow struct {
	logger   *zap.Logger
	ledger   CurrencyLedger
	active   ActiveFunc
	min, max int64
	lockTTL  time.Duration
	now      func() time.Time

	// Zero map TTL: entries hold debited money and may only leave
	// through a settlement or a reclaim, never by silent expiry.
	locks *expiry.Map[game.ParticipantID, lockEntry]
}

// Option configures an Escrow.
type Option func(*Escrow)

// WithBounds sets the accepted stake range. Zero max means unbounded.
func WithBounds(min, max int64) Option {
	return func(e *Escrow) { e.min, e.max = min, max }
}

// WithActiveCheck wires the active-match lookup used to reject locking
// for a participant who is already playing.
func WithActiveCheck(fn ActiveFunc) Option {
	return func(e *Escrow) { e.active = fn }
}

// WithLockTTL overrides the stale-lock timeout.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Escrow) { e.lockTTL = ttl }
}

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Escrow) { e.now = now }
}

// New creates an Escrow over the given ledger.
func New(ledger CurrencyLedger, logger *zap.Logger, opts ...Option) *Escrow {
	e := &Escrow{
		logger:  logger,
		ledger:  ledger,
		min:     1,
		lockTTL: DefaultLockTTL,
		now:     time.Now,
		locks:   expiry.New[game.ParticipantID, lockEntry](0),
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lock debits the stake and records a live lock for the participant.
// Rejected when the amount is out of bounds, the participant is in an
// active match, or a live lock already exists. A stale lock occupying
// the slot is credited back first, then replaced.
func (e *Escrow) Lock(ctx context.Context, participant game.ParticipantID, amount int64) error {
	if amount < e.min || (e.max > 0 && amount > e.max) {
		return fmt.Errorf("%w: %d", ErrStakeOutOfBounds, amount)
	}
	if e.active != nil && e.active(participant) {
		return fmt.Errorf("%w: %s", ErrActiveMatch, participant)
	}

	if entry, ok := e.locks.Get(participant); ok && e.isStale(entry) {
		if _, err := e.reclaim(ctx, participant); err != nil {
			return err
		}
	}

	// Reserve the slot atomically before touching the ledger so a
	// concurrent Lock cannot double-debit; the ledger call must not run
	// under the map lock.
	reserved := false
	e.locks.Update(participant, func(cur lockEntry, exists bool) (lockEntry, bool) {
		if exists {
			return cur, true
		}
		reserved = true
		return lockEntry{amount: amount, lockedAt: e.now()}, true
	})
	if !reserved {
		return fmt.Errorf("%w: %s", ErrAlreadyLocked, participant)
	}

	if err := e.ledger.Debit(ctx, string(participant), amount); err != nil {
		e.locks.Delete(participant)
		return fmt.Errorf("escrow: debit %s: %w", participant, err)
	}
	return nil
}

// LockBoth locks the same stake for both participants, unwinding the
// first lock (including its debit) if the second fails.
func (e *Escrow) LockBoth(ctx context.Context, a, b game.ParticipantID, amount int64) error {
	if err := e.Lock(ctx, a, amount); err != nil {
		return err
	}
	if err := e.Lock(ctx, b, amount); err != nil {
		if uerr := e.release(ctx, a); uerr != nil {
			e.logger.Error("unwind after failed lock",
				zap.String("participant", string(a)), zap.Error(uerr))
		}
		return err
	}
	return nil
}

// isStale reports whether the lock outlived the TTL without settling.
func (e *Escrow) isStale(entry lockEntry) bool {
	return e.lockTTL > 0 && !e.now().Before(entry.lockedAt.Add(e.lockTTL))
}

// reclaim removes the participant's lock and credits the stake back,
// but only while it is still stale: a concurrent settlement or relock
// wins the race and the reclaim becomes a no-op.
func (e *Escrow) reclaim(ctx context.Context, participant game.ParticipantID) (bool, error) {
	var entry lockEntry
	taken := false
	e.locks.Update(participant, func(cur lockEntry, exists bool) (lockEntry, bool) {
		if exists && e.isStale(cur) {
			entry = cur
			taken = true
			return lockEntry{}, false
		}
		return cur, exists
	})
	if !taken {
		return false, nil
	}
	if err := e.ledger.Credit(ctx, string(participant), entry.amount); err != nil {
		return false, fmt.Errorf("escrow: reclaim %s: %w", participant, err)
	}
	e.logger.Warn("reclaimed stale stake lock",
		zap.String("participant", string(participant)),
		zap.Int64("amount", entry.amount),
		zap.Time("locked_at", entry.lockedAt),
	)
	return true, nil
}

// SweepStale credits back every lock that outlived the TTL and returns
// how many were reclaimed.
func (e *Escrow) SweepStale(ctx context.Context) int {
	var stale []game.ParticipantID
	e.locks.Range(func(p game.ParticipantID, entry lockEntry) bool {
		if e.isStale(entry) {
			stale = append(stale, p)
		}
		return true
	})

	reclaimed := 0
	for _, p := range stale {
		ok, err := e.reclaim(ctx, p)
		if err != nil {
			e.logger.Error("stale stake reclaim failed",
				zap.String("participant", string(p)), zap.Error(err))
			continue
		}
		if ok {
			reclaimed++
		}
	}
	return reclaimed
}

// Run sweeps stale locks until ctx is cancelled.
func (e *Escrow) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.SweepStale(ctx)
		}
	}
}

// release unlocks and credits the stake back. Used for unwinds.
func (e *Escrow) release(ctx context.Context, participant game.ParticipantID) error {
	entry, ok := e.takeLock(participant)
	if !ok {
		return nil
	}
	return e.ledger.Credit(ctx, string(participant), entry.amount)
}

// takeLock removes and returns the participant's live lock.
func (e *Escrow) takeLock(participant game.ParticipantID) (lockEntry, bool) {
	var entry lockEntry
	found := false
	e.locks.Update(participant, func(cur lockEntry, exists bool) (lockEntry, bool) {
		if exists {
			entry = cur
			found = true
		}
		return lockEntry{}, false
	})
	return entry, found
}

// Locked reports whether a live lock exists and its amount.
func (e *Escrow) Locked(participant game.ParticipantID) (int64, bool) {
	entry, ok := e.locks.Get(participant)
	return entry.amount, ok
}

// Unlock drops a lock without any ledger movement. Idempotent; every
// match start/end path may call it defensively.
func (e *Escrow) Unlock(participant game.ParticipantID) {
	e.locks.Delete(participant)
}

// Payout settles a decided match: the winner is credited twice the
// stake (overflow-clamped) and both locks are cleared. Settlement is
// keyed on the winner's live lock, so a second call finds nothing to
// pay and only repeats the harmless unlocks.
func (e *Escrow) Payout(ctx context.Context, winner, loser game.ParticipantID, amount int64) error {
	defer e.Unlock(loser)

	if _, ok := e.takeLock(winner); !ok {
		return nil
	}
	if err := e.ledger.Credit(ctx, string(winner), winnings(amount)); err != nil {
		return fmt.Errorf("escrow: payout %s: %w", winner, err)
	}
	return nil
}

// Refund settles a draw: each side with a live lock is credited its
// stake back; both locks are cleared.
func (e *Escrow) Refund(ctx context.Context, a, b game.ParticipantID, amount int64) error {
	var firstErr error
	for _, p := range []game.ParticipantID{a, b} {
		if _, ok := e.takeLock(p); !ok {
			continue
		}
		if err := e.ledger.Credit(ctx, string(p), amount); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("escrow: refund %s: %w", p, err)
		}
	}
	return firstErr
}

// winnings doubles the stake, clamping instead of overflowing.
func winnings(amount int64) int64 {
	if amount > math.MaxInt64/2 {
		return math.MaxInt64
	}
	return amount * 2
}
