package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeState struct {
	complete      bool
	turnHolder    string
	passed        map[string]bool
	playedNormal  map[string]bool
	playedAbility map[string]bool
	hand          map[string]bool // participant+"/"+instance
	leader        map[string]bool
}

func newFakeState() *fakeState {
	return &fakeState{
		turnHolder:    "alice",
		passed:        map[string]bool{},
		playedNormal:  map[string]bool{},
		playedAbility: map[string]bool{},
		hand:          map[string]bool{},
		leader:        map[string]bool{"alice": true, "bob": true},
	}
}

func (f *fakeState) MatchComplete() bool                  { return f.complete }
func (f *fakeState) TurnHolder() string                   { return f.turnHolder }
func (f *fakeState) HasPassed(p string) bool              { return f.passed[p] }
func (f *fakeState) PlayedNormal(p string) bool           { return f.playedNormal[p] }
func (f *fakeState) PlayedAbility(p string) bool          { return f.playedAbility[p] }
func (f *fakeState) HandContains(p, inst string) bool     { return f.hand[p+"/"+inst] }
func (f *fakeState) LeaderAvailable(p string) bool        { return f.leader[p] }

func TestCheckPlayLegal(t *testing.T) {
	st := newFakeState()
	st.hand["alice/c1"] = true
	lc := NewLegalityChecker(st)

	res := lc.CheckPlay("alice", "c1", false)
	assert.True(t, res.Legal)
	assert.Empty(t, res.Reason)
}

func TestCheckPlayWrongTurn(t *testing.T) {
	st := newFakeState()
	st.hand["bob/c1"] = true
	lc := NewLegalityChecker(st)

	res := lc.CheckPlay("bob", "c1", false)
	assert.False(t, res.Legal)
	assert.Contains(t, res.Reason, "turn")
}

func TestCheckPlayMatchComplete(t *testing.T) {
	st := newFakeState()
	st.complete = true
	lc := NewLegalityChecker(st)

	assert.False(t, lc.CheckPlay("alice", "c1", false).Legal)
	assert.False(t, lc.CheckPass("alice").Legal)
	assert.False(t, lc.CheckLeader("alice").Legal)
}

func TestCheckPlayAlreadyPassed(t *testing.T) {
	st := newFakeState()
	st.passed["alice"] = true
	st.hand["alice/c1"] = true
	lc := NewLegalityChecker(st)

	assert.False(t, lc.CheckPlay("alice", "c1", false).Legal)
}

func TestCheckPlayExchangeBudgets(t *testing.T) {
	st := newFakeState()
	st.hand["alice/c1"] = true
	st.playedNormal["alice"] = true
	lc := NewLegalityChecker(st)

	// Second creature in the same exchange is rejected.
	assert.False(t, lc.CheckPlay("alice", "c1", false).Legal)
	// An ability card is still allowed.
	assert.True(t, lc.CheckPlay("alice", "c1", true).Legal)

	st.playedAbility["alice"] = true
	assert.False(t, lc.CheckPlay("alice", "c1", true).Legal)
}

func TestCheckPlayCardNotInHand(t *testing.T) {
	st := newFakeState()
	lc := NewLegalityChecker(st)

	res := lc.CheckPlay("alice", "ghost", false)
	assert.False(t, res.Legal)
	assert.Contains(t, res.Reason, "hand")
}

func TestCheckLeaderUnavailable(t *testing.T) {
	st := newFakeState()
	st.leader["alice"] = false
	lc := NewLegalityChecker(st)

	assert.False(t, lc.CheckLeader("alice").Legal)

	st.leader["alice"] = true
	assert.True(t, lc.CheckLeader("alice").Legal)
}

func TestNilCheckerDefaultsLegal(t *testing.T) {
	var lc *LegalityChecker
	assert.True(t, lc.CheckPlay("alice", "c1", false).Legal)
	assert.True(t, lc.CheckPass("alice").Legal)
	assert.True(t, lc.CheckLeader("alice").Legal)
}
