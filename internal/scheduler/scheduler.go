// Package scheduler enforces turn time limits across live matches. A
// periodic tick forces a pass on any turn holder who exceeded the
// match's turn limit; three forced passes in one match forfeit it.
// Strike counters and the remaining-time read cache live in TTL maps,
// so abandoned entries age out without a dedicated cleanup pass.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gwentfree/gwent-server-go/internal/expiry"
	"github.com/gwentfree/gwent-server-go/internal/game"
	"github.com/gwentfree/gwent-server-go/internal/rules"
)

// DefaultMaxStrikes is how many timeout-forced passes forfeit a match.
const DefaultMaxStrikes = 3

const (
	remainingCacheTTL = time.Second
	strikeTTL         = time.Hour
)

// ErrUnknownMatch is returned for IDs the scheduler is not tracking.
var ErrUnknownMatch = errors.New("scheduler: unknown match")

// Match is the slice of the match surface the scheduler drives.
// Satisfied by *game.MatchState.
type Match interface {
	ID() string
	Config() game.MatchConfig
	TurnHolder() game.ParticipantID
	Complete() bool
	Pass(id game.ParticipantID) error
	ForceComplete(loser game.ParticipantID, kind game.OutcomeKind) error
	Events() *rules.EventBus
}

type tracked struct {
	match        Match
	holder       game.ParticipantID
	turnStarted  time.Time
	subscription int
}

type strikeKey struct {
	matchID     string
	participant game.ParticipantID
}

// Scheduler owns the turn clocks of all tracked matches.
type Scheduler struct {
	logger     *zap.Logger
	maxStrikes int
	now        func() time.Time

	mu      sync.Mutex
	matches map[string]*tracked

	strikes   *expiry.Map[strikeKey, int]
	remaining *expiry.Map[string, time.Duration]
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
		s.strikes.SetClock(now)
		s.remaining.SetClock(now)
	}
}

// WithMaxStrikes overrides the forfeiture threshold.
func WithMaxStrikes(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxStrikes = n
		}
	}
}

// New creates a Scheduler.
func New(logger *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:     logger,
		maxStrikes: DefaultMaxStrikes,
		now:        time.Now,
		matches:    make(map[string]*tracked),
		strikes:    expiry.New[strikeKey, int](strikeTTL),
		remaining:  expiry.New[string, time.Duration](remainingCacheTTL),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Track starts the turn clock for a match. The clock restarts on every
// accepted move and round transition; tracking ends when the match
// completes.
func (s *Scheduler) Track(m Match) {
	t := &tracked{
		match:       m,
		holder:      m.TurnHolder(),
		turnStarted: s.now(),
	}
	t.subscription = m.Events().Subscribe(func(ev rules.Event) {
		s.onEvent(m.ID(), ev)
	})

	s.mu.Lock()
	s.matches[m.ID()] = t
	s.mu.Unlock()
}

// Untrack stops the clock and drops the read cache for a match. Strike
// counters are left to age out.
func (s *Scheduler) Untrack(matchID string) {
	s.mu.Lock()
	t, ok := s.matches[matchID]
	if ok {
		delete(s.matches, matchID)
	}
	s.mu.Unlock()

	if ok {
		t.match.Events().Unsubscribe(t.subscription)
	}
	s.remaining.Delete(matchID)
}

func (s *Scheduler) onEvent(matchID string, ev rules.Event) {
	switch ev.Type {
	case rules.EventMatchEnded:
		s.Untrack(matchID)
		return
	case rules.EventTurnSwitched, rules.EventTurnHeld, rules.EventRoundStarted,
		rules.EventCardPlayed, rules.EventAbilityResolved,
		rules.EventAbilityDeclined, rules.EventLeaderUsed, rules.EventPass:
	default:
		return
	}

	s.mu.Lock()
	if t, ok := s.matches[matchID]; ok {
		t.holder = t.match.TurnHolder()
		t.turnStarted = s.now()
	}
	s.mu.Unlock()
	s.remaining.Delete(matchID)
}

// Remaining returns the time left on the current turn. Reads are cached
// briefly: the UI polls this far more often than it changes
// meaningfully.
func (s *Scheduler) Remaining(matchID string) (time.Duration, error) {
	if d, ok := s.remaining.Get(matchID); ok {
		return d, nil
	}

	s.mu.Lock()
	t, ok := s.matches[matchID]
	if !ok {
		s.mu.Unlock()
		return 0, ErrUnknownMatch
	}
	limit := t.match.Config().TurnLimit
	d := limit - s.now().Sub(t.turnStarted)
	s.mu.Unlock()

	if d < 0 {
		d = 0
	}
	s.remaining.Set(matchID, d)
	return d, nil
}

// Strikes returns the timeout count for a participant in a match.
func (s *Scheduler) Strikes(matchID string, participant game.ParticipantID) int {
	n, _ := s.strikes.Get(strikeKey{matchID: matchID, participant: participant})
	return n
}

// Tick checks every tracked match once, forcing passes and forfeits as
// needed. Returns the number of forced actions taken.
func (s *Scheduler) Tick() int {
	type due struct {
		match  Match
		holder game.ParticipantID
	}

	now := s.now()
	var overdue []due

	s.mu.Lock()
	for id, t := range s.matches {
		if t.match.Complete() {
			// Completed outside the event path; drop it next cycle.
			delete(s.matches, id)
			continue
		}
		limit := t.match.Config().TurnLimit
		if limit > 0 && now.Sub(t.turnStarted) >= limit {
			overdue = append(overdue, due{match: t.match, holder: t.holder})
			// Restart so the next tick does not double-punish before
			// the forced pass's own event resets the clock.
			t.turnStarted = now
		}
	}
	s.mu.Unlock()

	forced := 0
	for _, d := range overdue {
		s.punish(d.match, d.holder)
		forced++
	}
	return forced
}

// punish records a strike and forces a pass, or a forfeit on the final
// strike.
func (s *Scheduler) punish(m Match, holder game.ParticipantID) {
	key := strikeKey{matchID: m.ID(), participant: holder}
	count := s.strikes.Update(key, func(cur int, _ bool) (int, bool) {
		return cur + 1, true
	})

	s.logger.Info("turn timeout",
		zap.String("match_id", m.ID()),
		zap.String("participant", string(holder)),
		zap.Int("strike", count),
	)

	if count >= s.maxStrikes {
		if err := m.ForceComplete(holder, game.OutcomeForfeit); err != nil {
			s.logger.Warn("forfeit failed", zap.String("match_id", m.ID()), zap.Error(err))
		}
		return
	}

	ev := rules.NewEvent(rules.EventTimeoutPass, m.ID(), string(holder))
	ev.Amount = count
	ev.Description = fmt.Sprintf("%s timed out, pass forced (strike %d of %d)", holder, count, s.maxStrikes)
	m.Events().Publish(ev)

	if err := m.Pass(holder); err != nil {
		s.logger.Warn("forced pass failed", zap.String("match_id", m.ID()), zap.Error(err))
	}
}

// Run ticks at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}
