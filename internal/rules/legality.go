package rules

import "fmt"

// StateAccessor provides the match-state view needed for legality checks.
type StateAccessor interface {
	// MatchComplete reports whether the match reached a terminal state.
	MatchComplete() bool
	// TurnHolder returns the participant currently holding the turn.
	TurnHolder() string
	// HasPassed reports whether the participant set their round-pass flag.
	HasPassed(participant string) bool
	// PlayedNormal reports whether the participant played a creature
	// this exchange.
	PlayedNormal(participant string) bool
	// PlayedAbility reports whether the participant played a spell or
	// special card this exchange.
	PlayedAbility(participant string) bool
	// HandContains reports whether the instance is in the hand.
	HandContains(participant, instanceID string) bool
	// LeaderAvailable reports whether the leader ability is still unused
	// and enabled for the participant.
	LeaderAvailable(participant string) bool
}

// Result represents the outcome of a legality check.
type Result struct {
	Legal  bool
	Reason string
}

func legal() Result { return Result{Legal: true} }

func illegal(format string, args ...any) Result {
	return Result{Legal: false, Reason: fmt.Sprintf(format, args...)}
}

// LegalityChecker validates moves before the engine mutates any state.
type LegalityChecker struct {
	state StateAccessor
}

// NewLegalityChecker creates a new legality checker.
func NewLegalityChecker(state StateAccessor) *LegalityChecker {
	return &LegalityChecker{state: state}
}

// CheckPlay validates a card play. isAbility marks Spell/Special cards,
// which have their own per-exchange budget.
func (lc *LegalityChecker) CheckPlay(participant, instanceID string, isAbility bool) Result {
	if lc == nil || lc.state == nil {
		return legal()
	}
	if lc.state.MatchComplete() {
		return illegal("match is complete")
	}
	if lc.state.TurnHolder() != participant {
		return illegal("not %s's turn", participant)
	}
	if lc.state.HasPassed(participant) {
		return illegal("%s has already passed this round", participant)
	}
	if isAbility {
		if lc.state.PlayedAbility(participant) {
			return illegal("%s already played an ability card this exchange", participant)
		}
	} else {
		if lc.state.PlayedNormal(participant) {
			return illegal("%s already played a creature this exchange", participant)
		}
	}
	if !lc.state.HandContains(participant, instanceID) {
		return illegal("card %s is not in %s's hand", instanceID, participant)
	}
	return legal()
}

// CheckPass validates a pass (or ability decline).
func (lc *LegalityChecker) CheckPass(participant string) Result {
	if lc == nil || lc.state == nil {
		return legal()
	}
	if lc.state.MatchComplete() {
		return illegal("match is complete")
	}
	if lc.state.TurnHolder() != participant {
		return illegal("not %s's turn", participant)
	}
	return legal()
}

// CheckLeader validates a leader-ability use.
func (lc *LegalityChecker) CheckLeader(participant string) Result {
	if lc == nil || lc.state == nil {
		return legal()
	}
	if lc.state.MatchComplete() {
		return illegal("match is complete")
	}
	if lc.state.TurnHolder() != participant {
		return illegal("not %s's turn", participant)
	}
	if lc.state.HasPassed(participant) {
		return illegal("%s has already passed this round", participant)
	}
	if !lc.state.LeaderAvailable(participant) {
		return illegal("%s's leader ability is not available", participant)
	}
	return legal()
}
