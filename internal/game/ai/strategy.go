package ai

import (
	"math/rand"
	"sort"

	"github.com/gwentfree/gwent-server-go/internal/game"
)

// Strategy picks one move from a snapshot. Implementations must be
// stateless; all randomness comes from the supplied source, so two
// engines seeded alike replay the same match.
type Strategy interface {
	Name() string
	ChooseMove(snap game.Snapshot, self game.ParticipantID, rng *rand.Rand) Move
}

// StrategyFor maps a difficulty tier to its strategy.
func StrategyFor(tier game.DifficultyTier) Strategy {
	switch tier {
	case game.DifficultyEasy:
		return easyStrategy{}
	case game.DifficultyHard:
		return hardStrategy{}
	case game.DifficultyExpert:
		return hardStrategy{economy: true}
	default:
		return mediumStrategy{}
	}
}

// strategyTag biases the open part of a turn: which card to commit and
// how eager the side is to keep spending. Forced moves (winning pass,
// cheapest winning card, concession) ignore the tag.
type strategyTag int

const (
	tagBalanced strategyTag = iota
	tagAggressive
	tagDefensive
	tagTempo
)

// Tag weights per tier, indexed by strategyTag.
var (
	mediumTagWeights = [4]int{30, 25, 15, 30}
	hardTagWeights   = [4]int{40, 30, 20, 10}
	expertTagWeights = [4]int{50, 20, 20, 10}
)

func pickTag(rng *rand.Rand, weights [4]int) strategyTag {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := rng.Intn(total)
	for tag, w := range weights {
		if roll < w {
			return strategyTag(tag)
		}
		roll -= w
	}
	return tagBalanced
}

// leaderFires rolls the single-use leader against a probability that
// scales with the current board deficit: the further behind, the more
// likely the ability is worth burning now.
func leaderFires(rng *rand.Rand, deficit, pctPerPoint, capPct int) bool {
	if deficit <= 0 {
		return false
	}
	p := deficit * pctPerPoint
	if p > capPct {
		p = capPct
	}
	return rng.Intn(100) < p
}

func rarityBonus(r game.Rarity) int {
	switch r {
	case game.RarityLegendary:
		return 3
	case game.RarityEpic:
		return 2
	case game.RarityRare:
		return 1
	default:
		return 0
	}
}

// laneSynergy rewards stacking copies of the same card in one lane,
// where the next copy collects the bond combo.
func laneSynergy(cv game.CardView, pv game.ParticipantView, lane game.Lane) int {
	copies := 0
	for _, fielded := range pv.Lanes[lane] {
		if fielded.CardID == cv.CardID {
			copies++
		}
	}
	return 2 * copies
}

// topByPower returns up to n cards, strongest first.
func topByPower(cards []game.CardView, n int) []game.CardView {
	ordered := make([]game.CardView, len(cards))
	copy(ordered, cards)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EffectivePower > ordered[j].EffectivePower
	})
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

func passMove() Move { return Move{Kind: MovePass} }

func playMove(cv game.CardView, lane game.Lane) Move {
	return Move{
		Kind:       MovePlay,
		InstanceID: cv.InstanceID,
		IsAbility:  cv.Type.IsAbility(),
		Lane:       lane,
	}
}

// easyStrategy plays random cards to random lanes and passes on a
// whim. It is meant to be beatable, not sensible.
type easyStrategy struct{}

func (easyStrategy) Name() string { return "easy" }

func (easyStrategy) ChooseMove(snap game.Snapshot, self game.ParticipantID, rng *rand.Rand) Move {
	me, ok := snap.Participant(self)
	if !ok {
		return passMove()
	}

	if me.PlayedNormal {
		// Held turn: flip a coin on the follow-up.
		abilities := abilitiesInHand(me)
		if len(abilities) > 0 && rng.Intn(2) == 0 {
			return playMove(abilities[rng.Intn(len(abilities))], game.LaneMelee)
		}
		return passMove()
	}

	creatures := creaturesInHand(me)
	if len(creatures) == 0 {
		if abilities := abilitiesInHand(me); len(abilities) > 0 {
			return playMove(abilities[rng.Intn(len(abilities))], game.LaneMelee)
		}
		return passMove()
	}
	if rng.Intn(100) < 15 {
		return passMove()
	}
	lanes := game.Lanes()
	return playMove(creatures[rng.Intn(len(creatures))], lanes[rng.Intn(len(lanes))])
}

// mediumStrategy samples from the top of its power curve and stops
// committing cards once the round is already won. A per-turn tag roll
// keeps equal boards from replaying identically.
type mediumStrategy struct{}

func (mediumStrategy) Name() string { return "medium" }

func (mediumStrategy) ChooseMove(snap game.Snapshot, self game.ParticipantID, rng *rand.Rand) Move {
	me, ok := snap.Participant(self)
	if !ok {
		return passMove()
	}
	opp, _ := snap.Opponent(self)

	if me.PlayedNormal {
		if abilities := abilitiesInHand(me); len(abilities) > 0 {
			return playMove(abilities[0], game.LaneMelee)
		}
		return passMove()
	}

	if opp.Passed && winningNow(snap, self) {
		return passMove()
	}

	creatures := creaturesInHand(me)
	if len(creatures) == 0 {
		if abilities := abilitiesInHand(me); len(abilities) > 0 {
			return playMove(abilities[0], game.LaneMelee)
		}
		return passMove()
	}

	tag := pickTag(rng, mediumTagWeights)

	deficit := boardScore(opp, snap.Weather) - boardScore(me, snap.Weather)
	if !me.LeaderUsed && leaderFires(rng, deficit, 2, 40) {
		return Move{Kind: MoveLeader}
	}

	// A defensive turn sometimes banks the lead instead of extending it.
	if tag == tagDefensive && winningNow(snap, self) && rng.Intn(100) < 25 {
		return passMove()
	}

	pick := topByPower(creatures, 2)
	cv := pick[rng.Intn(len(pick))]
	return playMove(cv, bestLaneFor(cv, snap, self))
}

// hardStrategy plays for lane majority with minimal spend: against a
// passed opponent it commits the cheapest creature that takes the
// round, concedes when no single card can, and holds the leader for
// positions it cannot win on cards alone. Open turns pick by a rolled
// tag: aggressive commits strength, defensive conserves it, and the
// rest maximize utility (power plus rarity and bond synergy). With
// economy set (the expert tier) it additionally concedes lost rounds
// early to bank cards for the next one.
type hardStrategy struct {
	economy bool
}

func (s hardStrategy) Name() string {
	if s.economy {
		return "expert"
	}
	return "hard"
}

func (s hardStrategy) tagWeights() [4]int {
	if s.economy {
		return expertTagWeights
	}
	return hardTagWeights
}

func (s hardStrategy) leaderCap() int {
	if s.economy {
		return 40
	}
	return 60
}

func (s hardStrategy) ChooseMove(snap game.Snapshot, self game.ParticipantID, rng *rand.Rand) Move {
	me, ok := snap.Participant(self)
	if !ok {
		return passMove()
	}
	opp, _ := snap.Opponent(self)

	if me.PlayedNormal {
		if abilities := abilitiesInHand(me); len(abilities) > 0 {
			return playMove(abilities[0], game.LaneMelee)
		}
		return passMove()
	}

	creatures := creaturesInHand(me)

	if opp.Passed {
		if winningNow(snap, self) {
			return passMove()
		}
		if move, ok := s.cheapestWinningPlay(snap, self, creatures); ok {
			return move
		}
		if !me.LeaderUsed {
			// Last resort before conceding.
			return Move{Kind: MoveLeader}
		}
		// No single card takes the round; further spend is waste.
		return passMove()
	}

	if s.economy && s.unwinnable(snap, self, creatures) {
		return passMove()
	}

	tag := pickTag(rng, s.tagWeights())

	deficit := boardScore(opp, snap.Weather) - boardScore(me, snap.Weather)
	if !me.LeaderUsed && leaderFires(rng, deficit, 3, s.leaderCap()) {
		return Move{Kind: MoveLeader}
	}

	if move, ok := s.cheapestWinningPlay(snap, self, creatures); ok {
		return move
	}

	if cv, ok := s.pickByTag(tag, snap, self, me, creatures); ok {
		return playMove(cv, bestLaneFor(cv, snap, self))
	}
	if abilities := abilitiesInHand(me); len(abilities) > 0 {
		return playMove(abilities[0], game.LaneMelee)
	}
	return passMove()
}

func (s hardStrategy) pickByTag(tag strategyTag, snap game.Snapshot, self game.ParticipantID, me game.ParticipantView, creatures []game.CardView) (game.CardView, bool) {
	switch tag {
	case tagAggressive:
		return strongest(creatures)
	case tagDefensive:
		return weakest(creatures)
	}

	var best game.CardView
	bestScore := 0
	found := false
	for _, cv := range creatures {
		lane := bestLaneFor(cv, snap, self)
		score := cv.EffectivePower + rarityBonus(cv.Rarity) + laneSynergy(cv, me, lane)
		if !found || score > bestScore {
			best, bestScore, found = cv, score, true
		}
	}
	return best, found
}

// cheapestWinningPlay finds the lowest-power creature whose play would
// put self ahead of the opponent right now.
func (s hardStrategy) cheapestWinningPlay(snap game.Snapshot, self game.ParticipantID, creatures []game.CardView) (Move, bool) {
	var best game.CardView
	var bestLane game.Lane
	found := false
	for _, cv := range creatures {
		lane := bestLaneFor(cv, snap, self)
		if !s.wouldWin(snap, self, cv, lane) {
			continue
		}
		if !found || cv.EffectivePower < best.EffectivePower {
			best, bestLane, found = cv, lane, true
		}
	}
	if !found {
		return Move{}, false
	}
	return playMove(best, bestLane), true
}

func (hardStrategy) wouldWin(snap game.Snapshot, self game.ParticipantID, cv game.CardView, lane game.Lane) bool {
	add := marginalValue(cv, lane, snap.Weather)
	mine, theirs := laneMajority(snap, self, lane, add)
	if mine != theirs {
		return mine > theirs
	}
	me, _ := snap.Participant(self)
	opp, _ := snap.Opponent(self)
	return boardScore(me, snap.Weather)+add > boardScore(opp, snap.Weather)
}

// unwinnable reports that even committing the whole hand to the
// weakest deficit cannot catch the opponent's current board.
func (hardStrategy) unwinnable(snap game.Snapshot, self game.ParticipantID, creatures []game.CardView) bool {
	me, ok := snap.Participant(self)
	if !ok {
		return true
	}
	opp, _ := snap.Opponent(self)
	deficit := boardScore(opp, snap.Weather) - boardScore(me, snap.Weather)
	if deficit <= 0 {
		return false
	}
	remaining := 0
	for _, cv := range creatures {
		remaining += cv.EffectivePower
	}
	return remaining < deficit
}
