package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gwentfree/gwent-server-go/internal/game/battle"
	"github.com/gwentfree/gwent-server-go/internal/game/power"
	"github.com/gwentfree/gwent-server-go/internal/rules"
)

// MatchState is the core state machine for one match: two participants,
// three lanes each, hands, graveyards, round and score counters,
// weather, turn ownership and pass/play flags. All moves are serialized
// through the match mutex; collaborators are invoked only after the
// mutating section releases it, so a callback can never re-enter the
// match from inside a move.
type MatchState struct {
	mu  sync.Mutex
	id  string
	cfg MatchConfig

	catalog Catalog
	rng     *rand.Rand
	logger  *zap.Logger
	collab  Collaborators
	events  *rules.EventBus

	participants [2]*participant
	round        int
	weather      Weather
	turnHolder   ParticipantID

	ledger       *power.Ledger
	standoffDone bool

	complete    bool
	winner      ParticipantID
	outcomeKind OutcomeKind

	// Deferred collaborator work, drained after the lock is released.
	pending        []rules.Event
	pendingOutcome *Outcome
}

// Option configures a MatchState at construction time.
type Option func(*MatchState)

// WithRand sets the random source used for shuffling and the opening
// coin flip. Defaults to a time-seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(m *MatchState) { m.rng = rng }
}

// WithMatchID overrides the generated match ID.
func WithMatchID(id string) Option {
	return func(m *MatchState) { m.id = id }
}

// NewMatch validates the configuration, deals both sides and returns a
// ready match with round 1 underway. Setup problems (missing deck or
// leader, cards absent from the catalog) are hard failures: no match is
// constructed half-configured.
func NewMatch(cfg MatchConfig, a, b ParticipantSpec, catalog Catalog, decks DeckSource, collab Collaborators, opts ...Option) (*MatchState, error) {
	normalized, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: nil catalog", ErrBadConfig)
	}
	if decks == nil {
		return nil, fmt.Errorf("%w: nil deck source", ErrBadConfig)
	}
	if a.ID == "" || b.ID == "" || a.ID == b.ID {
		return nil, fmt.Errorf("%w: participants %q vs %q", ErrBadConfig, a.ID, b.ID)
	}

	m := &MatchState{
		id:      uuid.NewString(),
		cfg:     normalized,
		catalog: catalog,
		collab:  collab.withDefaults(),
		events:  rules.NewEventBus(),
		ledger:  power.NewLedger(),
		round:   1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	for i, spec := range []ParticipantSpec{a, b} {
		deck, err := decks.CreateDeck(spec.ID)
		if err != nil || deck == nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMissingDeck, spec.ID, err)
		}
		leader, err := decks.LeaderFor(spec.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMissingLeader, spec.ID, err)
		}
		deck.Shuffle(m.rng)
		m.participants[i] = newParticipant(spec, deck, leader)
	}

	for _, p := range m.participants {
		if err := m.dealInitial(p); err != nil {
			return nil, err
		}
	}

	if m.rng.Intn(2) == 0 {
		m.turnHolder = a.ID
	} else {
		m.turnHolder = b.ID
	}

	ev := rules.NewEvent(rules.EventRoundStarted, m.id, string(m.turnHolder))
	ev.Amount = 1
	ev.Description = fmt.Sprintf("round 1 begins, %s opens", m.turnHolder)
	m.pending = append(m.pending, ev)
	m.flush(m.drainPending(), m.snapshotUnlockedInit(), true)
	return m, nil
}

// WithLogger sets the logger used for invariant warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(m *MatchState) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func (m *MatchState) dealInitial(p *participant) error {
	for i := 0; i < m.cfg.HandSize; i++ {
		id, ok := p.deck.Draw()
		if !ok {
			break
		}
		card, ok := m.catalog.Card(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCard, id)
		}
		p.hand = append(p.hand, &CardInstance{InstanceID: uuid.NewString(), Card: card})
	}
	return nil
}

// snapshotUnlockedInit is used only during construction, before the
// match is shared.
func (m *MatchState) snapshotUnlockedInit() Snapshot {
	return m.snapshotLocked()
}

// ID returns the match identifier.
func (m *MatchState) ID() string { return m.id }

// Config returns the immutable match configuration.
func (m *MatchState) Config() MatchConfig { return m.cfg }

// Events returns the bus engine events are published on.
func (m *MatchState) Events() *rules.EventBus { return m.events }

// ParticipantIDs returns both participant IDs in seat order.
func (m *MatchState) ParticipantIDs() [2]ParticipantID {
	return [2]ParticipantID{m.participants[0].id, m.participants[1].id}
}

// IsAIControlled reports whether the participant is driven by the AI
// engine.
func (m *MatchState) IsAIControlled(id ParticipantID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.participantByID(id)
	return p != nil && p.aiControlled
}

// TurnHolder returns the participant currently holding the turn.
func (m *MatchState) TurnHolder() ParticipantID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turnHolder
}

// Complete reports whether the match reached a terminal state. Once
// true it never becomes false again.
func (m *MatchState) Complete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.complete
}

// Snapshot returns an immutable copy of the current state.
func (m *MatchState) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *MatchState) participantByID(id ParticipantID) *participant {
	for _, p := range m.participants {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (m *MatchState) opponentOf(id ParticipantID) *participant {
	for _, p := range m.participants {
		if p.id != id {
			return p
		}
	}
	return nil
}

// PlayCard plays the identified card instance from the participant's
// hand. Creatures are appended to the chosen lane; Spell/Special cards
// resolve their effect and go straight to the graveyard. A creature
// play holds the turn when an unplayed ability card remains in hand so
// the participant may follow up or decline; an ability play always ends
// the turn.
func (m *MatchState) PlayCard(id ParticipantID, instanceID string, lane Lane) error {
	m.mu.Lock()
	err := m.playCardLocked(id, instanceID, lane)
	events, snap := m.drainPendingLocked(err == nil)
	outcome := m.takeOutcomeLocked()
	m.mu.Unlock()

	m.flush(events, snap, err == nil)
	m.fireOutcome(outcome)
	return err
}

func (m *MatchState) playCardLocked(id ParticipantID, instanceID string, lane Lane) error {
	p := m.participantByID(id)
	if p == nil {
		return ErrUnknownParticipant
	}
	if m.complete {
		return m.reject(id, ErrMatchComplete)
	}
	if m.turnHolder != id {
		return m.reject(id, ErrNotYourTurn)
	}
	if p.passed {
		return m.reject(id, ErrAlreadyPassed)
	}

	idx := p.handIndex(instanceID)
	if idx < 0 {
		return m.reject(id, ErrCardNotInHand)
	}
	inst := p.hand[idx]

	if inst.Card.Type.IsAbility() {
		if p.playedAbility {
			return m.reject(id, ErrCardBudgetExceeded)
		}
		p.removeFromHand(idx)
		p.playedAbility = true
		p.playedCard = true
		p.usedCards[inst.Card.ID] = true
		p.revealed[inst.Card.ID] = true
		p.graveyard = append(p.graveyard, inst)

		m.collab.Effects.Resolve(&EffectContext{m: m, owner: id}, inst.Card)

		ev := rules.NewEvent(rules.EventAbilityResolved, m.id, string(id))
		ev.CardID = string(inst.Card.ID)
		ev.InstanceID = inst.InstanceID
		ev.Description = fmt.Sprintf("%s plays %s", p.name, inst.Card.Name)
		m.queueEventLocked(ev)

		m.endTurnLocked(p)
	} else {
		if !lane.Valid() {
			return m.reject(id, ErrInvalidLane)
		}
		if p.playedNormal {
			return m.reject(id, ErrCardBudgetExceeded)
		}
		p.removeFromHand(idx)
		p.playedNormal = true
		p.playedCard = true
		p.usedCards[inst.Card.ID] = true
		p.revealed[inst.Card.ID] = true
		p.lanes[lane] = append(p.lanes[lane], inst)

		m.collab.Effects.Resolve(&EffectContext{m: m, owner: id}, inst.Card)
		m.collectCombosLocked(p, lane)

		ev := rules.NewEvent(rules.EventCardPlayed, m.id, string(id))
		ev.CardID = string(inst.Card.ID)
		ev.InstanceID = inst.InstanceID
		ev.Lane = lane.String()
		ev.Description = fmt.Sprintf("%s plays %s to %s", p.name, inst.Card.Name, lane)
		m.queueEventLocked(ev)

		if p.holdsAbilityCard() {
			// Hold the turn for an optional ability follow-up.
			held := rules.NewEvent(rules.EventTurnHeld, m.id, string(id))
			m.queueEventLocked(held)
		} else {
			m.endTurnLocked(p)
		}
	}

	m.recomputeScoresLocked()
	m.checkTerminationLocked()
	return nil
}

// Pass either declines a pending ability follow-up (when a creature was
// played this exchange and an unplayed ability card remains in hand) or
// sets the participant's round-pass flag. When both flags are set the
// round resolves, preceded by a stand-off battle if neither side played
// a card since the flags were last cleared.
func (m *MatchState) Pass(id ParticipantID) error {
	m.mu.Lock()
	err := m.passLocked(id)
	events, snap := m.drainPendingLocked(err == nil)
	outcome := m.takeOutcomeLocked()
	m.mu.Unlock()

	m.flush(events, snap, err == nil)
	m.fireOutcome(outcome)
	return err
}

func (m *MatchState) passLocked(id ParticipantID) error {
	p := m.participantByID(id)
	if p == nil {
		return ErrUnknownParticipant
	}
	if m.complete {
		return m.reject(id, ErrMatchComplete)
	}
	if m.turnHolder != id {
		return m.reject(id, ErrNotYourTurn)
	}

	if p.playedNormal && !p.playedAbility && p.holdsAbilityCard() {
		// Decline the ability follow-up: ends the turn only, the
		// round-pass flag stays clear.
		ev := rules.NewEvent(rules.EventAbilityDeclined, m.id, string(id))
		ev.Description = fmt.Sprintf("%s declines the follow-up", p.name)
		m.queueEventLocked(ev)
		m.endTurnLocked(p)
		return nil
	}

	if p.passed {
		return m.reject(id, ErrAlreadyPassed)
	}
	p.passed = true

	ev := rules.NewEvent(rules.EventPass, m.id, string(id))
	ev.Description = fmt.Sprintf("%s passes", p.name)
	m.queueEventLocked(ev)

	opp := m.opponentOf(id)
	if opp.passed {
		m.resolveRoundLocked()
		return nil
	}
	m.endTurnLocked(p)
	return nil
}

// UseLeader applies the participant's single-use leader ability and
// ends the turn.
func (m *MatchState) UseLeader(id ParticipantID) error {
	m.mu.Lock()
	err := m.useLeaderLocked(id)
	events, snap := m.drainPendingLocked(err == nil)
	outcome := m.takeOutcomeLocked()
	m.mu.Unlock()

	m.flush(events, snap, err == nil)
	m.fireOutcome(outcome)
	return err
}

func (m *MatchState) useLeaderLocked(id ParticipantID) error {
	p := m.participantByID(id)
	if p == nil {
		return ErrUnknownParticipant
	}
	if m.complete {
		return m.reject(id, ErrMatchComplete)
	}
	if m.turnHolder != id {
		return m.reject(id, ErrNotYourTurn)
	}
	if p.passed {
		return m.reject(id, ErrAlreadyPassed)
	}
	if !m.cfg.AllowLeader {
		return m.reject(id, ErrLeaderDisabled)
	}
	if p.leaderUsed {
		return m.reject(id, ErrLeaderUsed)
	}

	p.leaderUsed = true
	if p.leader.Apply != nil {
		p.leader.Apply(&EffectContext{m: m, owner: id})
	}

	ev := rules.NewEvent(rules.EventLeaderUsed, m.id, string(id))
	ev.Description = fmt.Sprintf("%s uses leader %s", p.name, p.leader.Name)
	m.queueEventLocked(ev)

	m.recomputeScoresLocked()
	m.endTurnLocked(p)
	m.checkTerminationLocked()
	return nil
}

// ForceComplete terminates the match as a loss for the given
// participant, outside the normal scoring path. Used for timeout
// forfeiture and disconnects.
func (m *MatchState) ForceComplete(loser ParticipantID, kind OutcomeKind) error {
	m.mu.Lock()
	err := m.forceCompleteLocked(loser, kind)
	events, snap := m.drainPendingLocked(err == nil)
	outcome := m.takeOutcomeLocked()
	m.mu.Unlock()

	m.flush(events, snap, err == nil)
	m.fireOutcome(outcome)
	return err
}

func (m *MatchState) forceCompleteLocked(loser ParticipantID, kind OutcomeKind) error {
	if m.complete {
		return ErrMatchComplete
	}
	p := m.participantByID(loser)
	if p == nil {
		return ErrUnknownParticipant
	}
	winner := m.opponentOf(loser)

	if kind == OutcomeForfeit {
		ev := rules.NewEvent(rules.EventTimeoutForfeit, m.id, string(loser))
		ev.Description = fmt.Sprintf("%s forfeits the match", p.name)
		m.queueEventLocked(ev)
	}
	m.completeLocked(winner, kind)
	return nil
}

// --- internal flow -----------------------------------------------------

// endTurnLocked hands the turn to the opponent unless they have already
// passed, in which case the current holder keeps playing.
func (m *MatchState) endTurnLocked(p *participant) {
	p.clearExchange()
	if m.complete {
		return
	}
	opp := m.opponentOf(p.id)
	if opp.passed {
		return
	}
	m.turnHolder = opp.id
	ev := rules.NewEvent(rules.EventTurnSwitched, m.id, string(opp.id))
	m.queueEventLocked(ev)
}

// resolveRoundLocked runs when both pass flags are set: optional
// stand-off battle, then scoring, then round or match transition.
func (m *MatchState) resolveRoundLocked() {
	a, b := m.participants[0], m.participants[1]

	if !m.standoffDone && !a.playedCard && !b.playedCard {
		m.standoffDone = true
		m.runStandoffBattleLocked()
	}

	m.recomputeScoresLocked()
	winner := m.roundWinnerLocked()

	ev := rules.NewEvent(rules.EventRoundEnded, m.id, "")
	ev.Amount = m.round
	if winner != nil {
		ev.Participant = string(winner.id)
		ev.Description = fmt.Sprintf("round %d goes to %s (%d - %d)", m.round, winner.name, a.roundScore, b.roundScore)
	} else {
		ev.Description = fmt.Sprintf("round %d is a draw (%d - %d)", m.round, a.roundScore, b.roundScore)
	}
	m.queueEventLocked(ev)

	if winner != nil {
		winner.roundsWon++
		if winner.roundsWon >= m.cfg.WinsNeeded() {
			m.completeLocked(winner, OutcomeScore)
			return
		}
	}

	if m.round >= m.cfg.MaxRounds {
		// Final round resolved: decide on rounds won, even if nobody
		// reached the majority.
		switch {
		case a.roundsWon > b.roundsWon:
			m.completeLocked(a, OutcomeScore)
		case b.roundsWon > a.roundsWon:
			m.completeLocked(b, OutcomeScore)
		default:
			m.completeLocked(nil, OutcomeDraw)
		}
		return
	}

	m.startNextRoundLocked(winner)
}

// runStandoffBattleLocked resolves all three lanes and applies the
// damage assignments to the live board.
func (m *MatchState) runStandoffBattleLocked() {
	a, b := m.participants[0], m.participants[1]

	ev := rules.NewEvent(rules.EventStandoffBattle, m.id, "")
	ev.Amount = m.round
	ev.Description = "stand-off: lanes resolve by battle"
	m.queueEventLocked(ev)

	for _, lane := range Lanes() {
		res := battle.Resolve(m.combatantsLocked(a, lane), m.combatantsLocked(b, lane))
		m.applyAssignmentLocked(a, lane, res.SideA)
		m.applyAssignmentLocked(b, lane, res.SideB)
	}
}

func (m *MatchState) combatantsLocked(p *participant, lane Lane) []battle.Combatant {
	out := make([]battle.Combatant, 0, len(p.lanes[lane]))
	for _, inst := range p.lanes[lane] {
		out = append(out, battle.Combatant{
			InstanceID: inst.InstanceID,
			Power:      m.effectivePowerLocked(p, inst),
		})
	}
	return out
}

func (m *MatchState) applyAssignmentLocked(p *participant, lane Lane, a battle.Assignment) {
	for _, instanceID := range a.Destroyed {
		inst := p.removeFromLane(lane, instanceID)
		if inst == nil {
			m.warnInvariantLocked("battle destroyed a card not on the lane: " + instanceID)
			continue
		}
		m.ledger.Purge(string(p.id), instanceID)
		p.graveyard = append(p.graveyard, inst)

		ev := rules.NewEvent(rules.EventCardDestroyed, m.id, string(p.id))
		ev.CardID = string(inst.Card.ID)
		ev.InstanceID = instanceID
		ev.Lane = lane.String()
		ev.Description = fmt.Sprintf("%s loses %s in the stand-off", p.name, inst.Card.Name)
		m.queueEventLocked(ev)
	}
	if a.AbsorbedBy != "" {
		m.ledger.Add(string(p.id), a.AbsorbedBy, a.AbsorbedDelta)

		ev := rules.NewEvent(rules.EventCardWeakened, m.id, string(p.id))
		ev.InstanceID = a.AbsorbedBy
		ev.Lane = lane.String()
		ev.Amount = a.AbsorbedDelta
		m.queueEventLocked(ev)
	}
}

// roundWinnerLocked applies lane-majority comparison, falling back to
// total round score, then to a full tie (nil).
func (m *MatchState) roundWinnerLocked() *participant {
	a, b := m.participants[0], m.participants[1]

	lanesA, lanesB := 0, 0
	for _, lane := range Lanes() {
		va := m.laneMajorityValueLocked(a, lane)
		vb := m.laneMajorityValueLocked(b, lane)
		if va > vb {
			lanesA++
		} else if vb > va {
			lanesB++
		}
	}

	switch {
	case lanesA > lanesB:
		return a
	case lanesB > lanesA:
		return b
	}
	switch {
	case a.roundScore > b.roundScore:
		return a
	case b.roundScore > a.roundScore:
		return b
	}
	return nil
}

// laneMajorityValueLocked is the lane's contribution to the majority
// comparison: card count when the active weather flattens the lane,
// effective-power sum otherwise. Ledger entries on flattened cards are
// left untouched and still feed a later stand-off battle.
func (m *MatchState) laneMajorityValueLocked(p *participant, lane Lane) int {
	if affected, ok := m.weather.AffectedLane(); ok && affected == lane {
		return len(p.lanes[lane])
	}
	total := 0
	for _, inst := range p.lanes[lane] {
		total += m.effectivePowerLocked(p, inst)
	}
	return total
}

func (m *MatchState) effectivePowerLocked(p *participant, inst *CardInstance) int {
	return power.Effective(
		inst.Card.BasePower,
		m.collab.Buffs.Delta(p.id, inst.Card),
		m.collab.Environment.Bonus(p.id, inst.Card),
		m.ledger.Delta(string(p.id), inst.InstanceID),
	)
}

// recomputeScoresLocked rebuilds each participant's round score: the
// sum over lanes of the lane-majority values.
func (m *MatchState) recomputeScoresLocked() {
	for _, p := range m.participants {
		score := 0
		for _, lane := range Lanes() {
			score += m.laneMajorityValueLocked(p, lane)
		}
		p.roundScore = score
	}
}

// startNextRoundLocked clears the round-scoped substructures, sweeps
// lanes to graveyards, rebuilds hands from decks and opens the next
// round. The round winner opens; on a drawn round the holder stands.
func (m *MatchState) startNextRoundLocked(winner *participant) {
	m.round++
	m.weather = WeatherNone
	m.ledger.Reset()
	m.standoffDone = false

	for _, p := range m.participants {
		for lane := range p.lanes {
			p.graveyard = append(p.graveyard, p.lanes[lane]...)
			p.lanes[lane] = nil
		}
		p.clearRoundState()
		m.drawLocked(p, m.cfg.RoundDraw)
	}

	if winner != nil {
		m.turnHolder = winner.id
	}

	ev := rules.NewEvent(rules.EventRoundStarted, m.id, string(m.turnHolder))
	ev.Amount = m.round
	ev.Description = fmt.Sprintf("round %d begins, %s opens", m.round, m.turnHolder)
	m.queueEventLocked(ev)
}

// checkTerminationLocked is the defensive termination check run after
// every accepted move. Round resolution normally handles termination;
// this catches a passed-flag state reached through effect hooks.
func (m *MatchState) checkTerminationLocked() {
	if m.complete {
		return
	}
	a, b := m.participants[0], m.participants[1]
	if a.passed && b.passed {
		m.resolveRoundLocked()
	}
}

// completeLocked transitions the match to its terminal state. Monotonic:
// once complete, never undone.
func (m *MatchState) completeLocked(winner *participant, kind OutcomeKind) {
	if m.complete {
		return
	}
	m.complete = true
	m.outcomeKind = kind

	out := Outcome{
		MatchID: m.id,
		Kind:    kind,
		Stake:   m.cfg.Stake,
		RoundsWon: map[ParticipantID]int{
			m.participants[0].id: m.participants[0].roundsWon,
			m.participants[1].id: m.participants[1].roundsWon,
		},
	}
	ev := rules.NewEvent(rules.EventMatchEnded, m.id, "")
	if winner != nil {
		m.winner = winner.id
		out.Winner = winner.id
		out.Loser = m.opponentOf(winner.id).id
		ev.Participant = string(winner.id)
		ev.Description = fmt.Sprintf("match over: %s wins by %s", winner.name, kind)
	} else {
		ev.Description = "match over: draw"
	}
	m.queueEventLocked(ev)
	m.pendingOutcome = &out
}

func (m *MatchState) drawLocked(p *participant, n int) int {
	drawn := 0
	for i := 0; i < n; i++ {
		id, ok := p.deck.Draw()
		if !ok {
			break
		}
		card, ok := m.catalog.Card(id)
		if !ok {
			m.warnInvariantLocked("deck card missing from catalog: " + string(id))
			continue
		}
		p.hand = append(p.hand, &CardInstance{InstanceID: uuid.NewString(), Card: card})
		drawn++
	}
	return drawn
}

// --- collaborator plumbing ---------------------------------------------

func (m *MatchState) queueEventLocked(ev rules.Event) {
	m.pending = append(m.pending, ev)
}

// reject records an action-rejected notice and returns err unchanged.
func (m *MatchState) reject(id ParticipantID, err error) error {
	ev := rules.NewEvent(rules.EventMoveRejected, m.id, string(id))
	ev.Description = err.Error()
	m.pending = append(m.pending, ev)
	return err
}

func (m *MatchState) warnInvariantLocked(msg string) {
	m.logger.Warn("invariant violation recovered",
		zap.String("match_id", m.id),
		zap.String("detail", msg),
	)
	ev := rules.NewEvent(rules.EventInvariantWarning, m.id, "")
	ev.Description = msg
	m.queueEventLocked(ev)
}

// drainPendingLocked returns the queued events plus a snapshot when the
// move was accepted.
func (m *MatchState) drainPendingLocked(accepted bool) ([]rules.Event, Snapshot) {
	events := m.pending
	m.pending = nil
	var snap Snapshot
	if accepted {
		snap = m.snapshotLocked()
	}
	return events, snap
}

func (m *MatchState) drainPending() []rules.Event {
	events := m.pending
	m.pending = nil
	return events
}

func (m *MatchState) takeOutcomeLocked() *Outcome {
	out := m.pendingOutcome
	m.pendingOutcome = nil
	return out
}

// flush delivers queued events and the snapshot to collaborators. Runs
// with no locks held.
func (m *MatchState) flush(events []rules.Event, snap Snapshot, accepted bool) {
	for _, ev := range events {
		if ev.Description != "" {
			m.collab.ActionLog.Log(m.id, ev.Description)
		}
		m.events.Publish(ev)
	}
	if accepted {
		m.collab.Notifier.Notify(snap)
	}
}

func (m *MatchState) fireOutcome(out *Outcome) {
	if out == nil {
		return
	}
	m.collab.Outcome(*out)
}
