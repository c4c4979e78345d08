package game

import "math/rand"

// Deck is an ordered, shufflable, drawable bag of card identifiers.
// A deck is owned exclusively by one participant for the lifetime of a
// match; it is mutated only through Draw, Return and Shuffle.
type Deck struct {
	cards []CardID
}

// NewDeck creates a deck holding the given cards in order.
func NewDeck(cards []CardID) *Deck {
	d := &Deck{cards: make([]CardID, len(cards))}
	copy(d.cards, cards)
	return d
}

// Draw removes and returns the top card. The second return is false when
// the deck is empty.
func (d *Deck) Draw() (CardID, bool) {
	if len(d.cards) == 0 {
		return "", false
	}
	top := d.cards[0]
	d.cards = d.cards[1:]
	return top, true
}

// Return places a card on the bottom of the deck.
func (d *Deck) Return(id CardID) {
	d.cards = append(d.cards, id)
}

// Shuffle randomizes the deck order using rng.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Empty reports whether the deck has no cards left.
func (d *Deck) Empty() bool {
	return len(d.cards) == 0
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int {
	return len(d.cards)
}
