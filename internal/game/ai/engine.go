// Package ai drives AI-controlled participants through the public move
// API of a match. Strategies see only snapshots, exactly like a remote
// client: they never touch engine internals, and every candidate move
// goes through the shared legality checker before it is submitted.
package ai

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gwentfree/gwent-server-go/internal/game"
	"github.com/gwentfree/gwent-server-go/internal/rules"
)

// Mover is the slice of the match surface the engine needs. Satisfied
// by *game.MatchState.
type Mover interface {
	Snapshot() game.Snapshot
	Config() game.MatchConfig
	PlayCard(id game.ParticipantID, instanceID string, lane game.Lane) error
	Pass(id game.ParticipantID) error
	UseLeader(id game.ParticipantID) error
}

// MoveKind enumerates the moves a strategy can choose.
type MoveKind int

const (
	MovePass MoveKind = iota
	MovePlay
	MoveLeader
)

// Move is a strategy's decision for one turn.
type Move struct {
	Kind       MoveKind
	InstanceID string
	IsAbility  bool
	Lane       game.Lane
}

// Engine executes one AI turn at a time. Safe for concurrent use across
// matches; the shared random source is mutex-guarded.
type Engine struct {
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRand sets the random source used by strategies.
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = rng }
}

// NewEngine creates an AI engine.
func NewEngine(logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// TakeTurn makes one move for the participant: no-op when the match is
// over or the turn belongs to someone else (the scheduler may race a
// human move). An illegal or rejected choice degrades to a pass rather
// than stalling the match.
func (e *Engine) TakeTurn(m Mover, self game.ParticipantID) error {
	snap := m.Snapshot()
	if snap.Complete || snap.TurnHolder != self {
		return nil
	}

	cfg := m.Config()
	strategy := StrategyFor(cfg.Difficulty)

	e.mu.Lock()
	move := strategy.ChooseMove(snap, self, e.rng)
	e.mu.Unlock()

	checker := rules.NewLegalityChecker(snapshotState{snap: snap, allowLeader: cfg.AllowLeader})
	if res := e.check(checker, move, self); !res.Legal {
		e.logger.Warn("strategy chose an illegal move, passing instead",
			zap.String("match_id", snap.MatchID),
			zap.String("participant", string(self)),
			zap.String("strategy", strategy.Name()),
			zap.String("reason", res.Reason),
		)
		return m.Pass(self)
	}

	var err error
	switch move.Kind {
	case MovePlay:
		err = m.PlayCard(self, move.InstanceID, move.Lane)
	case MoveLeader:
		err = m.UseLeader(self)
	default:
		err = m.Pass(self)
	}
	if err != nil && move.Kind != MovePass {
		e.logger.Warn("move rejected by engine, passing instead",
			zap.String("match_id", snap.MatchID),
			zap.String("participant", string(self)),
			zap.Error(err),
		)
		return m.Pass(self)
	}
	return err
}

func (e *Engine) check(checker *rules.LegalityChecker, move Move, self game.ParticipantID) rules.Result {
	switch move.Kind {
	case MovePlay:
		return checker.CheckPlay(string(self), move.InstanceID, move.IsAbility)
	case MoveLeader:
		return checker.CheckLeader(string(self))
	default:
		return checker.CheckPass(string(self))
	}
}

// snapshotState adapts an immutable snapshot to the legality checker's
// state view.
type snapshotState struct {
	snap        game.Snapshot
	allowLeader bool
}

func (s snapshotState) MatchComplete() bool { return s.snap.Complete }

func (s snapshotState) TurnHolder() string { return string(s.snap.TurnHolder) }

func (s snapshotState) view(participant string) (game.ParticipantView, bool) {
	return s.snap.Participant(game.ParticipantID(participant))
}

func (s snapshotState) HasPassed(participant string) bool {
	pv, ok := s.view(participant)
	return ok && pv.Passed
}

func (s snapshotState) PlayedNormal(participant string) bool {
	pv, ok := s.view(participant)
	return ok && pv.PlayedNormal
}

func (s snapshotState) PlayedAbility(participant string) bool {
	pv, ok := s.view(participant)
	return ok && pv.PlayedAbility
}

func (s snapshotState) HandContains(participant, instanceID string) bool {
	pv, ok := s.view(participant)
	if !ok {
		return false
	}
	for _, cv := range pv.Hand {
		if cv.InstanceID == instanceID {
			return true
		}
	}
	return false
}

func (s snapshotState) LeaderAvailable(participant string) bool {
	if !s.allowLeader {
		return false
	}
	pv, ok := s.view(participant)
	return ok && !pv.LeaderUsed
}
