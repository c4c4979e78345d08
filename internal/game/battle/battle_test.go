package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLowerSideTakesOpposingTotal(t *testing.T) {
	// Totals 10 vs 6: the 6-side takes the full opposing total, losing
	// all six points of effective power it had, weakest cards first.
	res := Resolve(
		[]Combatant{{InstanceID: "a1", Power: 4}, {InstanceID: "a2", Power: 6}},
		[]Combatant{{InstanceID: "b1", Power: 1}, {InstanceID: "b2", Power: 2}, {InstanceID: "b3", Power: 3}},
	)

	assert.Equal(t, 0, res.SideA.Damage)
	assert.Empty(t, res.SideA.Destroyed)
	require.Equal(t, 10, res.SideB.Damage)
	assert.Equal(t, []string{"b1", "b2", "b3"}, res.SideB.Destroyed)
	assert.Empty(t, res.SideB.AbsorbedBy)
}

func TestResolveTieMutualDestruction(t *testing.T) {
	// Exact tie: both sides take damage equal to their own total, which
	// consumes every card with nothing left over to absorb.
	res := Resolve(
		[]Combatant{{InstanceID: "a1", Power: 3}, {InstanceID: "a2", Power: 4}},
		[]Combatant{{InstanceID: "b1", Power: 7}},
	)

	assert.Equal(t, 7, res.SideA.Damage)
	assert.Equal(t, 7, res.SideB.Damage)
	assert.Equal(t, []string{"a1", "a2"}, res.SideA.Destroyed)
	assert.Equal(t, []string{"b1"}, res.SideB.Destroyed)
	assert.Empty(t, res.SideA.AbsorbedBy)
	assert.Empty(t, res.SideB.AbsorbedBy)
}

func TestResolveEmptyLanes(t *testing.T) {
	res := Resolve(nil, nil)
	assert.Empty(t, res.SideA.Destroyed)
	assert.Empty(t, res.SideB.Destroyed)
	assert.Equal(t, 0, res.SideA.Damage)
	assert.Equal(t, 0, res.SideB.Damage)
}

func TestResolveEmptyVersusOccupied(t *testing.T) {
	// The empty lane is the strictly lower side: it receives the damage
	// but has nothing to destroy; the occupied side is untouched.
	res := Resolve(nil, []Combatant{{InstanceID: "b1", Power: 4}})
	assert.Equal(t, 4, res.SideA.Damage)
	assert.Empty(t, res.SideA.Destroyed)
	assert.Empty(t, res.SideB.Destroyed)
	assert.Equal(t, 0, res.SideB.Damage)
}

func TestConsumeWeakestFirstWithAbsorber(t *testing.T) {
	// Damage 12 against [4, 9]: the 4 dies, 8 remain, the 9 exceeds the
	// remainder so it absorbs -8 and survives weakened.
	out := Consume([]Combatant{
		{InstanceID: "w2", Power: 9},
		{InstanceID: "w1", Power: 4},
	}, 12)

	assert.Equal(t, []string{"w1"}, out.Destroyed)
	assert.Equal(t, "w2", out.AbsorbedBy)
	assert.Equal(t, -8, out.AbsorbedDelta)
}

func TestConsumeDamageBelowWeakestCard(t *testing.T) {
	// Damage 6 against [8, 11]: nothing dies, the 8 soaks all of it.
	out := Consume([]Combatant{
		{InstanceID: "w1", Power: 8},
		{InstanceID: "w2", Power: 11},
	}, 6)

	assert.Empty(t, out.Destroyed)
	assert.Equal(t, "w1", out.AbsorbedBy)
	assert.Equal(t, -6, out.AbsorbedDelta)
}

func TestConsumeExactFitLeavesNoAbsorber(t *testing.T) {
	out := Consume([]Combatant{
		{InstanceID: "w1", Power: 2},
		{InstanceID: "w2", Power: 4},
	}, 6)

	assert.Equal(t, []string{"w1", "w2"}, out.Destroyed)
	assert.Empty(t, out.AbsorbedBy)
}

func TestConsumeStableOrderForEqualPower(t *testing.T) {
	// Equal-power cards die in insertion order so replays stay
	// deterministic.
	out := Consume([]Combatant{
		{InstanceID: "first", Power: 3},
		{InstanceID: "second", Power: 3},
	}, 9)

	assert.Equal(t, []string{"first", "second"}, out.Destroyed)
}

func TestConsumeZeroPowerCardsDieForFree(t *testing.T) {
	out := Consume([]Combatant{
		{InstanceID: "z1", Power: 0},
		{InstanceID: "w1", Power: 5},
	}, 3)

	assert.Equal(t, []string{"z1"}, out.Destroyed)
	assert.Equal(t, "w1", out.AbsorbedBy)
	assert.Equal(t, -3, out.AbsorbedDelta)
}
