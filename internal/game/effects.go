package game

import (
	"github.com/google/uuid"

	"github.com/gwentfree/gwent-server-go/internal/rules"
)

// EffectContext is the audited mutation surface handed to card-effect
// resolvers and leader abilities. It runs inside the move that triggered
// it, so effects are atomic with the play that caused them.
type EffectContext struct {
	m     *MatchState
	owner ParticipantID
}

// Owner returns the participant whose card or leader is resolving.
func (ec *EffectContext) Owner() ParticipantID { return ec.owner }

// Opponent returns the other participant.
func (ec *EffectContext) Opponent() ParticipantID {
	return ec.m.opponentOf(ec.owner).id
}

// Weather returns the active weather.
func (ec *EffectContext) Weather() Weather { return ec.m.weather }

// SetWeather changes the active weather. Ignored when the match config
// disables weather effects.
func (ec *EffectContext) SetWeather(w Weather) {
	if !ec.m.cfg.AllowWeather {
		return
	}
	if ec.m.weather == w {
		return
	}
	ec.m.weather = w
	ev := rules.NewEvent(rules.EventWeatherChanged, ec.m.id, string(ec.owner))
	ev.Description = "weather changed to " + w.String()
	ec.m.queueEventLocked(ev)
}

// ClearWeather resets the weather to none.
func (ec *EffectContext) ClearWeather() { ec.SetWeather(WeatherNone) }

// Boost adds a power-ledger delta to a card instance currently on the
// field for the given participant. No-op if the instance is not fielded
// (defensive: effects must never create ledger entries for off-field
// cards).
func (ec *EffectContext) Boost(owner ParticipantID, instanceID string, delta int) {
	p := ec.m.participantByID(owner)
	if p == nil {
		return
	}
	for lane := range p.lanes {
		for _, inst := range p.lanes[lane] {
			if inst.InstanceID == instanceID {
				ec.m.ledger.Add(string(owner), instanceID, delta)
				return
			}
		}
	}
	ec.m.warnInvariantLocked("boost targeted off-field card " + instanceID)
}

// BoostLane adds a ledger delta to every card the participant has in
// the lane.
func (ec *EffectContext) BoostLane(owner ParticipantID, lane Lane, delta int) {
	p := ec.m.participantByID(owner)
	if p == nil || !lane.Valid() {
		return
	}
	for _, inst := range p.lanes[lane] {
		ec.m.ledger.Add(string(owner), inst.InstanceID, delta)
	}
}

// Summon places a catalog card directly onto the owner's lane without
// touching the hand. Used by leader abilities.
func (ec *EffectContext) Summon(owner ParticipantID, card Card, lane Lane) string {
	p := ec.m.participantByID(owner)
	if p == nil || !lane.Valid() {
		return ""
	}
	inst := &CardInstance{InstanceID: uuid.NewString(), Card: card}
	p.lanes[lane] = append(p.lanes[lane], inst)
	return inst.InstanceID
}

// DrawCards draws up to n cards from the owner's deck into their hand
// and returns how many were actually drawn.
func (ec *EffectContext) DrawCards(owner ParticipantID, n int) int {
	p := ec.m.participantByID(owner)
	if p == nil {
		return 0
	}
	return ec.m.drawLocked(p, n)
}
