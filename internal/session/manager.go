// Package session owns all active matches. The manager is the single
// place that knows a participant is playing: it locks stakes before a
// match starts, registers the turn clock, schedules AI turns after
// mutating calls return, settles the escrow on completion and tears the
// match down. Nothing here is reachable through ambient globals; every
// collaborator arrives through the constructor.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gwentfree/gwent-server-go/internal/escrow"
	"github.com/gwentfree/gwent-server-go/internal/game"
	"github.com/gwentfree/gwent-server-go/internal/game/ai"
	"github.com/gwentfree/gwent-server-go/internal/rules"
	"github.com/gwentfree/gwent-server-go/internal/scheduler"
)

var (
	ErrUnknownMatch    = errors.New("session: unknown match")
	ErrParticipantBusy = errors.New("session: participant already in a match")
)

// session tracks one live match plus the flag that serializes AI-turn
// goroutines for it.
type session struct {
	match *game.MatchState

	mu        sync.Mutex
	aiRunning bool
}

// Manager owns active matches keyed by match ID and by participant.
type Manager struct {
	logger  *zap.Logger
	catalog game.Catalog
	decks   game.DeckSource
	aiDecks game.DeckSource
	escrow  *escrow.Escrow
	sched   *scheduler.Scheduler
	engine  *ai.Engine

	mu            sync.RWMutex
	matches       map[string]*session
	byParticipant map[game.ParticipantID]string
}

// NewManager creates a session manager. escrow, sched and engine may be
// nil when the corresponding concern is not wired (tests, tools).
func NewManager(logger *zap.Logger, catalog game.Catalog, decks game.DeckSource, esc *escrow.Escrow, sched *scheduler.Scheduler, engine *ai.Engine) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:        logger,
		catalog:       catalog,
		decks:         decks,
		escrow:        esc,
		sched:         sched,
		engine:        engine,
		matches:       make(map[string]*session),
		byParticipant: make(map[game.ParticipantID]string),
	}
}

// ProvisionAIDecks supplies the deck source for AI-controlled seats.
// AI opponents get generated identities that no player deck store
// knows, so their decks come from here; human seats keep drawing from
// the primary source. Set at wire-up time, before matches are created.
func (mgr *Manager) ProvisionAIDecks(src game.DeckSource) {
	mgr.aiDecks = src
}

// HasActiveMatch reports whether the participant is in a live match.
// Wired into the escrow's active check.
func (mgr *Manager) HasActiveMatch(id game.ParticipantID) bool {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	_, ok := mgr.byParticipant[id]
	return ok
}

// MatchFor returns the match ID the participant is playing in.
func (mgr *Manager) MatchFor(id game.ParticipantID) (string, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	matchID, ok := mgr.byParticipant[id]
	return matchID, ok
}

// Match returns the live match with the given ID.
func (mgr *Manager) Match(matchID string) (*game.MatchState, bool) {
	s, ok := mgr.lookup(matchID)
	if !ok {
		return nil, false
	}
	return s.match, true
}

func (mgr *Manager) lookup(matchID string) (*session, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	s, ok := mgr.matches[matchID]
	return s, ok
}

// CreateMatch locks stakes, constructs the match and starts its clock.
// The caller's outcome callback still fires on completion; settlement
// and teardown run first.
func (mgr *Manager) CreateMatch(ctx context.Context, cfg game.MatchConfig, a, b game.ParticipantSpec, collab game.Collaborators, opts ...game.Option) (*game.MatchState, error) {
	// Stakes are locked before the seats are reserved: the escrow's
	// active-match check must not see this match's own reservation, and
	// its per-participant lock already serializes concurrent staked
	// creates.
	staked := mgr.escrow != nil && cfg.Stake > 0
	if staked {
		if err := mgr.escrow.LockBoth(ctx, a.ID, b.ID, cfg.Stake); err != nil {
			return nil, err
		}
	}

	mgr.mu.Lock()
	for _, spec := range []game.ParticipantSpec{a, b} {
		if _, busy := mgr.byParticipant[spec.ID]; busy {
			mgr.mu.Unlock()
			if staked {
				mgr.unlockBoth(ctx, a.ID, b.ID, cfg.Stake)
			}
			return nil, fmt.Errorf("%w: %s", ErrParticipantBusy, spec.ID)
		}
	}
	// Reserve both seats so a concurrent create cannot race them into
	// two matches.
	mgr.byParticipant[a.ID] = ""
	mgr.byParticipant[b.ID] = ""
	mgr.mu.Unlock()

	unreserve := func() {
		mgr.mu.Lock()
		delete(mgr.byParticipant, a.ID)
		delete(mgr.byParticipant, b.ID)
		mgr.mu.Unlock()
	}

	callerOutcome := collab.Outcome
	collab.Outcome = func(out game.Outcome) {
		mgr.settle(out, a.ID, b.ID)
		if callerOutcome != nil {
			callerOutcome(out)
		}
	}

	m, err := game.NewMatch(cfg, a, b, mgr.catalog, mgr.deckSourceFor(a, b), collab, opts...)
	if err != nil {
		if staked {
			mgr.unlockBoth(ctx, a.ID, b.ID, cfg.Stake)
		}
		unreserve()
		return nil, err
	}

	s := &session{match: m}
	mgr.mu.Lock()
	mgr.matches[m.ID()] = s
	mgr.byParticipant[a.ID] = m.ID()
	mgr.byParticipant[b.ID] = m.ID()
	mgr.mu.Unlock()

	if mgr.sched != nil {
		mgr.sched.Track(m)
	}

	// Forced passes and timeouts move the turn without going through
	// the manager's move methods; pick those up from the bus.
	m.Events().Subscribe(func(ev rules.Event) {
		switch ev.Type {
		case rules.EventTurnSwitched, rules.EventTurnHeld, rules.EventRoundStarted:
			mgr.scheduleAI(s)
		}
	})

	mgr.logger.Info("match created",
		zap.String("match_id", m.ID()),
		zap.String("participant_a", string(a.ID)),
		zap.String("participant_b", string(b.ID)),
		zap.Int64("stake", cfg.Stake),
		zap.String("difficulty", cfg.Difficulty.String()),
	)

	mgr.scheduleAI(s)
	return m, nil
}

// PlayCard submits a play on behalf of a participant.
func (mgr *Manager) PlayCard(matchID string, participant game.ParticipantID, instanceID string, lane game.Lane) error {
	s, ok := mgr.lookup(matchID)
	if !ok {
		return ErrUnknownMatch
	}
	err := s.match.PlayCard(participant, instanceID, lane)
	mgr.scheduleAI(s)
	return err
}

// Pass submits a pass (or ability decline).
func (mgr *Manager) Pass(matchID string, participant game.ParticipantID) error {
	s, ok := mgr.lookup(matchID)
	if !ok {
		return ErrUnknownMatch
	}
	err := s.match.Pass(participant)
	mgr.scheduleAI(s)
	return err
}

// UseLeader submits a leader-ability use.
func (mgr *Manager) UseLeader(matchID string, participant game.ParticipantID) error {
	s, ok := mgr.lookup(matchID)
	if !ok {
		return ErrUnknownMatch
	}
	err := s.match.UseLeader(participant)
	mgr.scheduleAI(s)
	return err
}

// ForceComplete ends a match as a loss for the given participant, for
// disconnects and administrative aborts.
func (mgr *Manager) ForceComplete(matchID string, loser game.ParticipantID, kind game.OutcomeKind) error {
	s, ok := mgr.lookup(matchID)
	if !ok {
		return ErrUnknownMatch
	}
	return s.match.ForceComplete(loser, kind)
}

// Remaining returns the time left on the current turn of a match.
func (mgr *Manager) Remaining(matchID string) (time.Duration, error) {
	if mgr.sched == nil {
		return 0, ErrUnknownMatch
	}
	d, err := mgr.sched.Remaining(matchID)
	if errors.Is(err, scheduler.ErrUnknownMatch) {
		return 0, ErrUnknownMatch
	}
	return d, err
}

// scheduleAI starts (at most) one goroutine that plays all consecutive
// AI turns for the match. The AI runs strictly after the mutating call
// that handed it the turn has returned.
func (mgr *Manager) scheduleAI(s *session) {
	if mgr.engine == nil {
		return
	}
	s.mu.Lock()
	if s.aiRunning {
		s.mu.Unlock()
		return
	}
	s.aiRunning = true
	s.mu.Unlock()

	go mgr.runAI(s)
}

func (mgr *Manager) runAI(s *session) {
	for {
		for !s.match.Complete() {
			holder := s.match.TurnHolder()
			if !s.match.IsAIControlled(holder) {
				break
			}
			if err := mgr.engine.TakeTurn(s.match, holder); err != nil {
				mgr.logger.Warn("ai turn failed",
					zap.String("match_id", s.match.ID()),
					zap.String("participant", string(holder)),
					zap.Error(err),
				)
				break
			}
		}

		// Clear the flag, then re-check: an event that arrived while we
		// were finishing must not be lost.
		s.mu.Lock()
		if s.match.Complete() || !s.match.IsAIControlled(s.match.TurnHolder()) {
			s.aiRunning = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

// settle pays out or refunds the stake and removes the match from the
// registries. Runs on the outcome callback, outside the match lock.
func (mgr *Manager) settle(out game.Outcome, a, b game.ParticipantID) {
	ctx := context.Background()

	if mgr.escrow != nil && out.Stake > 0 {
		var err error
		if out.Winner != "" {
			err = mgr.escrow.Payout(ctx, out.Winner, out.Loser, out.Stake)
		} else {
			err = mgr.escrow.Refund(ctx, a, b, out.Stake)
		}
		if err != nil {
			mgr.logger.Error("stake settlement failed",
				zap.String("match_id", out.MatchID),
				zap.String("kind", out.Kind.String()),
				zap.Error(err),
			)
		}
	}
	if mgr.escrow != nil {
		// Defensive: every end path unlocks both sides.
		mgr.escrow.Unlock(a)
		mgr.escrow.Unlock(b)
	}

	mgr.teardown(out.MatchID, a, b)

	mgr.logger.Info("match settled",
		zap.String("match_id", out.MatchID),
		zap.String("kind", out.Kind.String()),
		zap.String("winner", string(out.Winner)),
		zap.Int64("stake", out.Stake),
	)
}

func (mgr *Manager) teardown(matchID string, participants ...game.ParticipantID) {
	mgr.mu.Lock()
	delete(mgr.matches, matchID)
	for _, p := range participants {
		if mgr.byParticipant[p] == matchID {
			delete(mgr.byParticipant, p)
		}
	}
	mgr.mu.Unlock()

	if mgr.sched != nil {
		mgr.sched.Untrack(matchID)
	}
}

// deckSourceFor picks the deck source for a match: the primary source,
// split per seat when an AI participant is present and AI decks are
// provisioned.
func (mgr *Manager) deckSourceFor(a, b game.ParticipantSpec) game.DeckSource {
	if mgr.aiDecks == nil || (!a.AIControlled && !b.AIControlled) {
		return mgr.decks
	}
	split := &splitDecks{
		primary: mgr.decks,
		ai:      mgr.aiDecks,
		aiSeats: make(map[game.ParticipantID]bool, 1),
	}
	for _, spec := range []game.ParticipantSpec{a, b} {
		if spec.AIControlled {
			split.aiSeats[spec.ID] = true
		}
	}
	return split
}

// splitDecks routes AI seats to the provisioned AI source and everyone
// else to the primary one.
type splitDecks struct {
	primary game.DeckSource
	ai      game.DeckSource
	aiSeats map[game.ParticipantID]bool
}

func (s *splitDecks) CreateDeck(p game.ParticipantID) (*game.Deck, error) {
	if s.aiSeats[p] {
		return s.ai.CreateDeck(p)
	}
	return s.primary.CreateDeck(p)
}

func (s *splitDecks) LeaderFor(p game.ParticipantID) (game.Leader, error) {
	if s.aiSeats[p] {
		return s.ai.LeaderFor(p)
	}
	return s.primary.LeaderFor(p)
}

// unlockBoth credits both stakes back. Used when match construction
// fails after the locks were taken.
func (mgr *Manager) unlockBoth(ctx context.Context, a, b game.ParticipantID, stake int64) {
	if err := mgr.escrow.Refund(ctx, a, b, stake); err != nil {
		mgr.logger.Error("stake unwind failed", zap.Error(err))
	}
}

// ActiveMatches returns the number of live matches.
func (mgr *Manager) ActiveMatches() int {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return len(mgr.matches)
}

// Run sweeps completed matches that missed their outcome teardown (a
// crashed collaborator, a panic in a callback) until ctx is cancelled.
func (mgr *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mgr.sweep()
		}
	}
}

func (mgr *Manager) sweep() {
	mgr.mu.RLock()
	var stale []*session
	for _, s := range mgr.matches {
		if s.match.Complete() {
			stale = append(stale, s)
		}
	}
	mgr.mu.RUnlock()

	for _, s := range stale {
		ids := s.match.ParticipantIDs()
		mgr.teardown(s.match.ID(), ids[0], ids[1])
		mgr.logger.Warn("swept completed match that missed teardown",
			zap.String("match_id", s.match.ID()))
	}
}
