// Package battle resolves a mutual stand-off: both participants passed
// without playing a card, so each lane fights instead of being scored
// directly.
package battle

import "sort"

// Combatant is a card committed to a lane, captured with the effective
// power it had when the stand-off triggered.
type Combatant struct {
	InstanceID string
	Power      int
}

// Assignment describes how damage was consumed by one side of a lane.
type Assignment struct {
	// Destroyed lists instance IDs removed, weakest first.
	Destroyed []string
	// AbsorbedBy is the surviving instance that soaked the remainder,
	// with AbsorbedDelta as the negative power delta it takes. Empty
	// when the damage consumed cards exactly or destroyed everything.
	AbsorbedBy    string
	AbsorbedDelta int
	// Damage is the total damage this side received.
	Damage int
}

// Result describes the outcome of one lane's stand-off battle.
type Result struct {
	SideA Assignment
	SideB Assignment
}

// Resolve computes the outcome of one lane's stand-off battle.
// The side with strictly lower total power receives damage equal to the
// opposing total; on an exact tie both sides take damage equal to their
// own total (mutual destruction).
func Resolve(sideA, sideB []Combatant) Result {
	totalA := total(sideA)
	totalB := total(sideB)

	var res Result
	switch {
	case totalA < totalB:
		res.SideA = Consume(sideA, totalB)
	case totalB < totalA:
		res.SideB = Consume(sideB, totalA)
	default:
		// Tie: mutual destruction, each side eats its own total.
		res.SideA = Consume(sideA, totalA)
		res.SideB = Consume(sideB, totalB)
	}
	return res
}

// Consume applies damage to one side, weakest card first. A card whose
// power fits within the remaining damage is destroyed and its power
// subtracted; the first card whose power exceeds the remainder absorbs
// it as a negative delta and survives weakened. This front-loads
// destruction onto weak cards.
func Consume(side []Combatant, damage int) Assignment {
	ordered := make([]Combatant, len(side))
	copy(ordered, side)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Power < ordered[j].Power
	})

	out := Assignment{Damage: damage}
	remaining := damage
	for _, c := range ordered {
		if remaining <= 0 {
			break
		}
		if c.Power <= remaining {
			out.Destroyed = append(out.Destroyed, c.InstanceID)
			remaining -= c.Power
			continue
		}
		out.AbsorbedBy = c.InstanceID
		out.AbsorbedDelta = -remaining
		break
	}
	return out
}

func total(side []Combatant) int {
	sum := 0
	for _, c := range side {
		sum += c.Power
	}
	return sum
}
