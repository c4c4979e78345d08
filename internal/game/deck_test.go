package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckDrawOrder(t *testing.T) {
	d := NewDeck([]CardID{"a", "b", "c"})

	id, ok := d.Draw()
	require.True(t, ok)
	assert.Equal(t, CardID("a"), id)

	id, ok = d.Draw()
	require.True(t, ok)
	assert.Equal(t, CardID("b"), id)

	assert.Equal(t, 1, d.Len())
	assert.False(t, d.Empty())
}

func TestDeckDrawEmpty(t *testing.T) {
	d := NewDeck(nil)
	_, ok := d.Draw()
	assert.False(t, ok)
	assert.True(t, d.Empty())
}

func TestDeckReturnGoesToBottom(t *testing.T) {
	d := NewDeck([]CardID{"a", "b"})
	d.Return("c")

	var drawn []CardID
	for {
		id, ok := d.Draw()
		if !ok {
			break
		}
		drawn = append(drawn, id)
	}
	assert.Equal(t, []CardID{"a", "b", "c"}, drawn)
}

func TestDeckShuffleDeterministicWithSeed(t *testing.T) {
	cards := []CardID{"a", "b", "c", "d", "e", "f"}

	d1 := NewDeck(cards)
	d1.Shuffle(rand.New(rand.NewSource(42)))
	d2 := NewDeck(cards)
	d2.Shuffle(rand.New(rand.NewSource(42)))

	for !d1.Empty() {
		id1, _ := d1.Draw()
		id2, _ := d2.Draw()
		assert.Equal(t, id1, id2)
	}
	assert.True(t, d2.Empty())
}

func TestDeckNewDeckCopiesInput(t *testing.T) {
	cards := []CardID{"a", "b"}
	d := NewDeck(cards)
	cards[0] = "mutated"

	id, ok := d.Draw()
	require.True(t, ok)
	assert.Equal(t, CardID("a"), id, "deck must not alias caller slice")
}
