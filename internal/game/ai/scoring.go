package ai

import "github.com/gwentfree/gwent-server-go/internal/game"

// laneValue is a lane's contribution under the active weather: card
// count on a flattened lane, effective-power sum otherwise. Mirrors how
// the engine scores rounds so strategies optimize the real objective.
func laneValue(pv game.ParticipantView, lane game.Lane, w game.Weather) int {
	if affected, ok := w.AffectedLane(); ok && affected == lane {
		return len(pv.Lanes[lane])
	}
	return pv.LaneTotal(lane)
}

// boardScore sums all lane values for one side.
func boardScore(pv game.ParticipantView, w game.Weather) int {
	total := 0
	for _, lane := range game.Lanes() {
		total += laneValue(pv, lane, w)
	}
	return total
}

// marginalValue is what a creature would add to the lane's value if
// played there now.
func marginalValue(card game.CardView, lane game.Lane, w game.Weather) int {
	if affected, ok := w.AffectedLane(); ok && affected == lane {
		return 1
	}
	return card.EffectivePower
}

// laneMajority counts lanes won by self and by the opponent, with an
// optional hypothetical extra contribution on one of self's lanes.
func laneMajority(snap game.Snapshot, self game.ParticipantID, hypoLane game.Lane, hypoAdd int) (mine, theirs int) {
	me, ok := snap.Participant(self)
	if !ok {
		return 0, 0
	}
	opp, ok := snap.Opponent(self)
	if !ok {
		return 0, 0
	}
	for _, lane := range game.Lanes() {
		myVal := laneValue(me, lane, snap.Weather)
		if hypoAdd > 0 && lane == hypoLane {
			myVal += hypoAdd
		}
		theirVal := laneValue(opp, lane, snap.Weather)
		if myVal > theirVal {
			mine++
		} else if theirVal > myVal {
			theirs++
		}
	}
	return mine, theirs
}

// winningNow reports whether self currently takes the round: lane
// majority first, total score as the tiebreak.
func winningNow(snap game.Snapshot, self game.ParticipantID) bool {
	mine, theirs := laneMajority(snap, self, 0, 0)
	if mine != theirs {
		return mine > theirs
	}
	me, _ := snap.Participant(self)
	opp, _ := snap.Opponent(self)
	return boardScore(me, snap.Weather) > boardScore(opp, snap.Weather)
}

func creaturesInHand(pv game.ParticipantView) []game.CardView {
	var out []game.CardView
	for _, cv := range pv.Hand {
		if cv.Type == game.CardTypeCreature {
			out = append(out, cv)
		}
	}
	return out
}

func abilitiesInHand(pv game.ParticipantView) []game.CardView {
	var out []game.CardView
	for _, cv := range pv.Hand {
		if cv.Type.IsAbility() {
			out = append(out, cv)
		}
	}
	return out
}

func strongest(cards []game.CardView) (game.CardView, bool) {
	if len(cards) == 0 {
		return game.CardView{}, false
	}
	best := cards[0]
	for _, cv := range cards[1:] {
		if cv.EffectivePower > best.EffectivePower {
			best = cv
		}
	}
	return best, true
}

func weakest(cards []game.CardView) (game.CardView, bool) {
	if len(cards) == 0 {
		return game.CardView{}, false
	}
	best := cards[0]
	for _, cv := range cards[1:] {
		if cv.EffectivePower < best.EffectivePower {
			best = cv
		}
	}
	return best, true
}

// bestLaneFor picks the lane where the card contributes most toward
// taking lane majority: a contested lane it can flip beats an already
// won or hopeless one, and weather-flattened lanes are avoided when any
// alternative exists.
func bestLaneFor(card game.CardView, snap game.Snapshot, self game.ParticipantID) game.Lane {
	bestLane := game.LaneMelee
	bestGain := -1
	for _, lane := range game.Lanes() {
		add := marginalValue(card, lane, snap.Weather)
		before, _ := laneMajority(snap, self, lane, 0)
		after, _ := laneMajority(snap, self, lane, add)
		gain := (after - before) * 1000 // flipping a lane dominates
		gain += add
		if gain > bestGain {
			bestGain = gain
			bestLane = lane
		}
	}
	return bestLane
}
