package repository

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/gwentfree/gwent-server-go/internal/game"
)

// ErrEmptyCatalog means the catalog holds no creature cards to deal.
var ErrEmptyCatalog = errors.New("repository: catalog has no creature cards")

// DemoCatalog is the built-in card set used when the server runs
// without a database.
func DemoCatalog() StaticCatalog {
	return StaticCatalog{
		"footman":   {ID: "footman", Name: "Footman", BasePower: 3, Type: game.CardTypeCreature, Rarity: game.RarityCommon, Faction: "crown"},
		"pikeman":   {ID: "pikeman", Name: "Pikeman", BasePower: 4, Type: game.CardTypeCreature, Rarity: game.RarityCommon, Faction: "crown"},
		"archer":    {ID: "archer", Name: "Longbow Archer", BasePower: 4, Type: game.CardTypeCreature, Rarity: game.RarityCommon, Faction: "crown"},
		"crossbow":  {ID: "crossbow", Name: "Crossbowman", BasePower: 5, Type: game.CardTypeCreature, Rarity: game.RarityCommon, Faction: "crown"},
		"knight":    {ID: "knight", Name: "Knight Errant", BasePower: 6, Type: game.CardTypeCreature, Rarity: game.RarityRare, Faction: "crown"},
		"trebuchet": {ID: "trebuchet", Name: "Trebuchet", BasePower: 6, Type: game.CardTypeCreature, Rarity: game.RarityRare, Faction: "crown"},
		"ballista":  {ID: "ballista", Name: "Ballista", BasePower: 5, Type: game.CardTypeCreature, Rarity: game.RarityCommon, Faction: "crown"},
		"champion":  {ID: "champion", Name: "Tourney Champion", BasePower: 9, Type: game.CardTypeCreature, Rarity: game.RarityEpic, Faction: "crown"},
		"giant":     {ID: "giant", Name: "Hill Giant", BasePower: 10, Type: game.CardTypeCreature, Rarity: game.RarityEpic, Faction: "wild"},
		"militia":   {ID: "militia", Name: "Town Militia", BasePower: 2, Type: game.CardTypeCreature, Rarity: game.RarityCommon, Faction: "crown"},
		"rally":     {ID: "rally", Name: "Rallying Horn", BasePower: 0, Type: game.CardTypeSpell, Rarity: game.RarityRare, Faction: "crown"},
		"frost":     {ID: "frost", Name: "Biting Frost", BasePower: 0, Type: game.CardTypeSpell, Rarity: game.RarityRare, Faction: "wild"},
	}
}

// DemoDecks deals every participant a shuffled deck drawn from the demo
// catalog, so a database-less server can still start matches.
type DemoDecks struct {
	rng *rand.Rand
}

// NewDemoDecks creates a demo deck source.
func NewDemoDecks() *DemoDecks {
	return &DemoDecks{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (d *DemoDecks) CreateDeck(game.ParticipantID) (*game.Deck, error) {
	ids := []game.CardID{
		"footman", "footman", "pikeman", "pikeman", "archer", "archer",
		"crossbow", "knight", "trebuchet", "ballista", "champion",
		"militia", "militia", "rally", "frost", "giant",
	}
	deck := game.NewDeck(ids)
	deck.Shuffle(d.rng)
	return deck, nil
}

func (d *DemoDecks) LeaderFor(game.ParticipantID) (game.Leader, error) {
	return game.Leader{
		ID:   "marshal",
		Name: "Field Marshal",
		Apply: func(ctx *game.EffectContext) {
			ctx.DrawCards(ctx.Owner(), 1)
		},
	}, nil
}

const catalogDeckSize = 16

// CatalogDecks deals decks sampled from a loaded catalog. It serves AI
// seats, whose generated identities have no rows in the deck store.
type CatalogDecks struct {
	creatures []game.CardID

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCatalogDecks creates a deck source over the given catalog.
func NewCatalogDecks(catalog StaticCatalog) *CatalogDecks {
	var creatures []game.CardID
	for id, card := range catalog {
		if card.Type == game.CardTypeCreature {
			creatures = append(creatures, id)
		}
	}
	sort.Slice(creatures, func(i, j int) bool { return creatures[i] < creatures[j] })
	return &CatalogDecks{
		creatures: creatures,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (d *CatalogDecks) CreateDeck(game.ParticipantID) (*game.Deck, error) {
	if len(d.creatures) == 0 {
		return nil, ErrEmptyCatalog
	}
	ids := make([]game.CardID, 0, catalogDeckSize)
	for len(ids) < catalogDeckSize {
		ids = append(ids, d.creatures[len(ids)%len(d.creatures)])
	}
	deck := game.NewDeck(ids)
	d.mu.Lock()
	deck.Shuffle(d.rng)
	d.mu.Unlock()
	return deck, nil
}

func (d *CatalogDecks) LeaderFor(game.ParticipantID) (game.Leader, error) {
	return game.Leader{
		ID:   "warlord",
		Name: "Wandering Warlord",
		Apply: func(ctx *game.EffectContext) {
			ctx.DrawCards(ctx.Owner(), 1)
		},
	}, nil
}

// DemoEffects resolves the demo catalog's ability cards.
type DemoEffects struct{}

func (DemoEffects) Resolve(ctx *game.EffectContext, card game.Card) {
	switch card.ID {
	case "rally":
		ctx.BoostLane(ctx.Owner(), game.LaneMelee, 2)
	case "frost":
		ctx.SetWeather(game.WeatherFrost)
	}
}
