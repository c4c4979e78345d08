package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gwentfree/gwent-server-go/internal/game"
	"github.com/gwentfree/gwent-server-go/internal/rules"
)

// fakeMatch records forced actions and lets tests move the turn by
// publishing engine-style events.
type fakeMatch struct {
	mu       sync.Mutex
	id       string
	cfg      game.MatchConfig
	holder   game.ParticipantID
	complete bool
	bus      *rules.EventBus

	passes   []game.ParticipantID
	forfeits []game.ParticipantID
}

func newFakeMatch(id string, limit time.Duration) *fakeMatch {
	cfg := game.DefaultMatchConfig()
	cfg.TurnLimit = limit
	return &fakeMatch{
		id:     id,
		cfg:    cfg,
		holder: "hero",
		bus:    rules.NewEventBus(),
	}
}

func (f *fakeMatch) ID() string               { return f.id }
func (f *fakeMatch) Config() game.MatchConfig { return f.cfg }
func (f *fakeMatch) Events() *rules.EventBus  { return f.bus }

func (f *fakeMatch) TurnHolder() game.ParticipantID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holder
}

func (f *fakeMatch) Complete() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.complete
}

func (f *fakeMatch) Pass(id game.ParticipantID) error {
	f.mu.Lock()
	f.passes = append(f.passes, id)
	f.holder = opponentOf(id)
	f.mu.Unlock()
	f.bus.Publish(rules.NewEvent(rules.EventTurnSwitched, f.id, string(f.holder)))
	return nil
}

func (f *fakeMatch) ForceComplete(loser game.ParticipantID, _ game.OutcomeKind) error {
	f.mu.Lock()
	f.forfeits = append(f.forfeits, loser)
	f.complete = true
	f.mu.Unlock()
	f.bus.Publish(rules.NewEvent(rules.EventMatchEnded, f.id, string(opponentOf(loser))))
	return nil
}

// setHolder moves the turn without recording a pass, simulating a
// normal move by the other side.
func (f *fakeMatch) setHolder(id game.ParticipantID) {
	f.mu.Lock()
	f.holder = id
	f.mu.Unlock()
	f.bus.Publish(rules.NewEvent(rules.EventTurnSwitched, f.id, string(id)))
}

func opponentOf(id game.ParticipantID) game.ParticipantID {
	if id == "hero" {
		return "rival"
	}
	return "hero"
}

// testClock is a controllable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTickForcesPassOnTimeout(t *testing.T) {
	clock := newTestClock()
	s := New(zap.NewNop(), WithClock(clock.Now))
	m := newFakeMatch("m1", 30*time.Second)
	s.Track(m)

	assert.Equal(t, 0, s.Tick(), "no timeout yet")

	clock.Advance(31 * time.Second)
	require.Equal(t, 1, s.Tick())
	assert.Equal(t, []game.ParticipantID{"hero"}, m.passes)
	assert.Equal(t, 1, s.Strikes("m1", "hero"))
	assert.Equal(t, game.ParticipantID("rival"), m.TurnHolder())
}

func TestTimeoutPassEventPublished(t *testing.T) {
	clock := newTestClock()
	s := New(zap.NewNop(), WithClock(clock.Now))
	m := newFakeMatch("m1", 30*time.Second)

	var timeouts []rules.Event
	m.Events().SubscribeTyped(rules.EventTimeoutPass, func(ev rules.Event) {
		timeouts = append(timeouts, ev)
	})

	s.Track(m)
	clock.Advance(time.Minute)
	s.Tick()

	require.Len(t, timeouts, 1)
	assert.Equal(t, "hero", timeouts[0].Participant)
	assert.Equal(t, 1, timeouts[0].Amount)
}

func TestThirdStrikeForfeits(t *testing.T) {
	clock := newTestClock()
	s := New(zap.NewNop(), WithClock(clock.Now))
	m := newFakeMatch("m1", 30*time.Second)
	s.Track(m)

	for i := 0; i < 2; i++ {
		clock.Advance(31 * time.Second)
		require.Equal(t, 1, s.Tick())
		// Hand the turn back so the same side times out again.
		m.setHolder("hero")
	}
	require.Empty(t, m.forfeits)
	assert.Equal(t, 2, s.Strikes("m1", "hero"))

	clock.Advance(31 * time.Second)
	require.Equal(t, 1, s.Tick())
	assert.Equal(t, []game.ParticipantID{"hero"}, m.forfeits)
	assert.Equal(t, []game.ParticipantID{"hero", "hero"}, m.passes, "final strike forfeits instead of passing")
	assert.True(t, m.Complete())
}

func TestForfeitedMatchIsUntracked(t *testing.T) {
	clock := newTestClock()
	s := New(zap.NewNop(), WithClock(clock.Now), WithMaxStrikes(1))
	m := newFakeMatch("m1", 30*time.Second)
	s.Track(m)

	clock.Advance(31 * time.Second)
	require.Equal(t, 1, s.Tick())
	require.True(t, m.Complete())

	_, err := s.Remaining("m1")
	assert.ErrorIs(t, err, ErrUnknownMatch)

	clock.Advance(time.Minute)
	assert.Equal(t, 0, s.Tick(), "no further punishment after forfeit")
}

func TestMoveEventsResetClock(t *testing.T) {
	clock := newTestClock()
	s := New(zap.NewNop(), WithClock(clock.Now))
	m := newFakeMatch("m1", 30*time.Second)
	s.Track(m)

	clock.Advance(20 * time.Second)
	m.Events().Publish(rules.NewEvent(rules.EventCardPlayed, "m1", "hero"))

	clock.Advance(20 * time.Second)
	assert.Equal(t, 0, s.Tick(), "clock restarted 20s ago")

	clock.Advance(11 * time.Second)
	assert.Equal(t, 1, s.Tick())
}

func TestRemainingIsCachedBriefly(t *testing.T) {
	clock := newTestClock()
	s := New(zap.NewNop(), WithClock(clock.Now))
	m := newFakeMatch("m1", 30*time.Second)
	s.Track(m)

	clock.Advance(10 * time.Second)
	d, err := s.Remaining("m1")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, d)

	// Within the cache TTL the stale value is served.
	clock.Advance(500 * time.Millisecond)
	d, err = s.Remaining("m1")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, d)

	// Past the TTL the read recomputes.
	clock.Advance(time.Second)
	d, err = s.Remaining("m1")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second-11500*time.Millisecond, d)

	// A move invalidates the cache immediately.
	m.Events().Publish(rules.NewEvent(rules.EventTurnSwitched, "m1", "rival"))
	d, err = s.Remaining("m1")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestRemainingFloorsAtZero(t *testing.T) {
	clock := newTestClock()
	s := New(zap.NewNop(), WithClock(clock.Now))
	m := newFakeMatch("m1", 30*time.Second)
	s.Track(m)

	clock.Advance(time.Hour)
	d, err := s.Remaining("m1")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestZeroLimitDisablesTimeouts(t *testing.T) {
	clock := newTestClock()
	s := New(zap.NewNop(), WithClock(clock.Now))
	m := newFakeMatch("m1", 0)
	s.Track(m)

	clock.Advance(24 * time.Hour)
	assert.Equal(t, 0, s.Tick())
}
