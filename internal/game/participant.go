package game

// Leader is a single-use, per-match special action independent of the
// hand/lane system. Apply runs against an EffectContext so leaders can
// only touch the match through audited mutators.
type Leader struct {
	ID    string
	Name  string
	Apply func(ctx *EffectContext)
}

// ParticipantSpec describes a participant joining a match.
type ParticipantSpec struct {
	ID           ParticipantID
	Name         string
	AIControlled bool
}

// participant is one side of a match. All fields are owned exclusively
// by the match; external systems only ever see snapshot copies.
type participant struct {
	id           ParticipantID
	name         string
	aiControlled bool

	hand      []*CardInstance
	lanes     [laneCount][]*CardInstance
	graveyard []*CardInstance
	deck      *Deck

	leader     Leader
	leaderUsed bool

	// Telemetry only: catalog IDs this participant has played.
	usedCards map[CardID]bool

	// Round-scoped flags.
	passed        bool
	playedNormal  bool // played a creature this exchange
	playedAbility bool // played a spell/special this exchange
	playedCard    bool // played any card since pass flags were cleared

	roundScore int
	roundsWon  int
	revealed   map[CardID]bool
	combos     map[string]bool
}

func newParticipant(spec ParticipantSpec, deck *Deck, leader Leader) *participant {
	return &participant{
		id:           spec.ID,
		name:         spec.Name,
		aiControlled: spec.AIControlled,
		deck:         deck,
		leader:       leader,
		usedCards:    make(map[CardID]bool),
		revealed:     make(map[CardID]bool),
		combos:       make(map[string]bool),
	}
}

// handIndex returns the position of instanceID in the hand, or -1.
func (p *participant) handIndex(instanceID string) int {
	for i, inst := range p.hand {
		if inst.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// removeFromHand removes and returns the instance at index i.
func (p *participant) removeFromHand(i int) *CardInstance {
	inst := p.hand[i]
	p.hand = append(p.hand[:i], p.hand[i+1:]...)
	return inst
}

// holdsAbilityCard reports whether an unplayed Spell/Special card
// remains in hand.
func (p *participant) holdsAbilityCard() bool {
	for _, inst := range p.hand {
		if inst.Card.Type.IsAbility() {
			return true
		}
	}
	return false
}

// removeFromLane detaches instanceID from the given lane, returning the
// instance or nil.
func (p *participant) removeFromLane(lane Lane, instanceID string) *CardInstance {
	cards := p.lanes[lane]
	for i, inst := range cards {
		if inst.InstanceID == instanceID {
			p.lanes[lane] = append(cards[:i], cards[i+1:]...)
			return inst
		}
	}
	return nil
}

// clearRoundState resets the round-scoped substructures at round start.
func (p *participant) clearRoundState() {
	p.passed = false
	p.playedNormal = false
	p.playedAbility = false
	p.playedCard = false
	p.roundScore = 0
	p.revealed = make(map[CardID]bool)
	p.combos = make(map[string]bool)
}

// clearExchange resets the per-exchange play flags when the turn moves
// away from this participant.
func (p *participant) clearExchange() {
	p.playedNormal = false
	p.playedAbility = false
}
