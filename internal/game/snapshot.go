package game

import "time"

// CardView is a read-only projection of a card instance with its
// effective power at snapshot time.
type CardView struct {
	InstanceID     string
	CardID         CardID
	Name           string
	Type           CardType
	Rarity         Rarity
	Faction        string
	BasePower      int
	EffectivePower int
}

// ParticipantView is a read-only projection of one side of the match.
type ParticipantView struct {
	ID            ParticipantID
	Name          string
	AIControlled  bool
	Hand          []CardView
	Lanes         [3][]CardView
	Graveyard     []CardView
	DeckCount     int
	LeaderName    string
	LeaderUsed    bool
	Passed        bool
	PlayedNormal  bool
	PlayedAbility bool
	RoundScore    int
	RoundsWon     int
}

// Snapshot is an immutable copy of match state handed to collaborators.
// It shares no memory with the live match.
type Snapshot struct {
	MatchID      string
	Round        int
	MaxRounds    int
	Weather      Weather
	TurnHolder   ParticipantID
	Complete     bool
	Winner       ParticipantID
	Outcome      OutcomeKind
	Participants [2]ParticipantView
	CapturedAt   time.Time
}

// Participant returns the view for the given participant ID.
func (s Snapshot) Participant(id ParticipantID) (ParticipantView, bool) {
	for _, pv := range s.Participants {
		if pv.ID == id {
			return pv, true
		}
	}
	return ParticipantView{}, false
}

// Opponent returns the view of the other participant.
func (s Snapshot) Opponent(id ParticipantID) (ParticipantView, bool) {
	for _, pv := range s.Participants {
		if pv.ID != id {
			return pv, true
		}
	}
	return ParticipantView{}, false
}

// LaneTotal sums the effective power committed to one lane.
func (pv ParticipantView) LaneTotal(lane Lane) int {
	total := 0
	for _, cv := range pv.Lanes[lane] {
		total += cv.EffectivePower
	}
	return total
}

// HoldsAbilityCard reports whether the hand contains an unplayed
// Spell/Special card.
func (pv ParticipantView) HoldsAbilityCard() bool {
	for _, cv := range pv.Hand {
		if cv.Type.IsAbility() {
			return true
		}
	}
	return false
}

// snapshotLocked builds a deep copy of the current state. Caller holds
// the match lock.
func (m *MatchState) snapshotLocked() Snapshot {
	snap := Snapshot{
		MatchID:    m.id,
		Round:      m.round,
		MaxRounds:  m.cfg.MaxRounds,
		Weather:    m.weather,
		TurnHolder: m.turnHolder,
		Complete:   m.complete,
		Winner:     m.winner,
		Outcome:    m.outcomeKind,
		CapturedAt: time.Now(),
	}
	for i, p := range m.participants {
		snap.Participants[i] = m.participantViewLocked(p)
	}
	return snap
}

func (m *MatchState) participantViewLocked(p *participant) ParticipantView {
	pv := ParticipantView{
		ID:            p.id,
		Name:          p.name,
		AIControlled:  p.aiControlled,
		DeckCount:     p.deck.Len(),
		LeaderName:    p.leader.Name,
		LeaderUsed:    p.leaderUsed,
		Passed:        p.passed,
		PlayedNormal:  p.playedNormal,
		PlayedAbility: p.playedAbility,
		RoundScore:    p.roundScore,
		RoundsWon:     p.roundsWon,
	}
	pv.Hand = m.cardViewsLocked(p, p.hand)
	for lane := range p.lanes {
		pv.Lanes[lane] = m.cardViewsLocked(p, p.lanes[lane])
	}
	pv.Graveyard = m.cardViewsLocked(p, p.graveyard)
	return pv
}

func (m *MatchState) cardViewsLocked(p *participant, cards []*CardInstance) []CardView {
	views := make([]CardView, 0, len(cards))
	for _, inst := range cards {
		views = append(views, CardView{
			InstanceID:     inst.InstanceID,
			CardID:         inst.Card.ID,
			Name:           inst.Card.Name,
			Type:           inst.Card.Type,
			Rarity:         inst.Card.Rarity,
			Faction:        inst.Card.Faction,
			BasePower:      inst.Card.BasePower,
			EffectivePower: m.effectivePowerLocked(p, inst),
		})
	}
	return views
}
