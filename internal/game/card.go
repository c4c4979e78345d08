package game

import "fmt"

// CardID identifies a card in the external catalog.
type CardID string

// CardType classifies how a card is played and where it ends up.
type CardType int

const (
	CardTypeCreature CardType = iota
	CardTypeSpell
	CardTypeSpecial
)

var cardTypeNames = map[CardType]string{
	CardTypeCreature: "CREATURE",
	CardTypeSpell:    "SPELL",
	CardTypeSpecial:  "SPECIAL",
}

func (t CardType) String() string {
	if name, ok := cardTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CARD_TYPE_%d", int(t))
}

// IsAbility reports whether the card type is played as a one-shot ability
// (resolved to the graveyard without occupying a lane).
func (t CardType) IsAbility() bool {
	return t == CardTypeSpell || t == CardTypeSpecial
}

// Rarity is the catalog rarity tier of a card.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityRare
	RarityEpic
	RarityLegendary
)

var rarityNames = map[Rarity]string{
	RarityCommon:    "COMMON",
	RarityRare:      "RARE",
	RarityEpic:      "EPIC",
	RarityLegendary: "LEGENDARY",
}

func (r Rarity) String() string {
	if name, ok := rarityNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RARITY_%d", int(r))
}

// Card is an immutable catalog entry. The engine consumes cards from a
// Catalog and never mutates them.
type Card struct {
	ID        CardID
	Name      string
	BasePower int
	Type      CardType
	Rarity    Rarity
	Faction   string
}

// Catalog is the external card lookup consumed by the engine.
type Catalog interface {
	// Card returns the static attributes for id.
	Card(id CardID) (Card, bool)
}

// CardInstance is a catalog card bound to a single per-match instance ID.
// Instances are the unit tracked by hands, lanes, graveyards and the
// power ledger.
type CardInstance struct {
	InstanceID string
	Card       Card
}

// Lane is one of the three independent battle categories a creature is
// committed to.
type Lane int

const (
	LaneMelee Lane = iota
	LaneRanged
	LaneSiege
)

// laneCount is the number of lanes per participant.
const laneCount = 3

var laneNames = map[Lane]string{
	LaneMelee:  "MELEE",
	LaneRanged: "RANGED",
	LaneSiege:  "SIEGE",
}

func (l Lane) String() string {
	if name, ok := laneNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LANE_%d", int(l))
}

// Valid reports whether l names a real lane.
func (l Lane) Valid() bool {
	return l >= LaneMelee && l <= LaneSiege
}

// Lanes lists all lanes in resolution order.
func Lanes() []Lane {
	return []Lane{LaneMelee, LaneRanged, LaneSiege}
}

// Weather is the active weather condition of a match.
type Weather int

const (
	WeatherNone Weather = iota
	WeatherFrost
	WeatherFog
	WeatherRain
)

var weatherNames = map[Weather]string{
	WeatherNone:  "NONE",
	WeatherFrost: "FROST",
	WeatherFog:   "FOG",
	WeatherRain:  "RAIN",
}

func (w Weather) String() string {
	if name, ok := weatherNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WEATHER_%d", int(w))
}

// AffectedLane returns the lane flattened by this weather, if any.
// Frost grips melee, fog blinds ranged, rain floods siege.
func (w Weather) AffectedLane() (Lane, bool) {
	switch w {
	case WeatherFrost:
		return LaneMelee, true
	case WeatherFog:
		return LaneRanged, true
	case WeatherRain:
		return LaneSiege, true
	default:
		return 0, false
	}
}
