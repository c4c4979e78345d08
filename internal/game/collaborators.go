package game

// ParticipantID identifies a match participant.
type ParticipantID string

// DeckSource supplies decks and leaders at match setup.
type DeckSource interface {
	CreateDeck(participant ParticipantID) (*Deck, error)
	LeaderFor(participant ParticipantID) (Leader, error)
}

// BuffProvider supplies externally managed buff/debuff contributions to
// effective power.
type BuffProvider interface {
	Delta(participant ParticipantID, card Card) int
}

// EnvironmentProvider supplies the location/biome bonus used in
// effective power.
type EnvironmentProvider interface {
	Bonus(participant ParticipantID, card Card) int
}

// EffectResolver resolves card effects when a Spell or Special card is
// played. The engine itself attaches no behavior to catalog cards.
type EffectResolver interface {
	Resolve(ctx *EffectContext, card Card)
}

// StateNotificationSink receives an immutable snapshot after every
// accepted move and every round/match transition.
type StateNotificationSink interface {
	Notify(snapshot Snapshot)
}

// ActionLogSink receives human-readable event strings for collaborator
// side logging and chat.
type ActionLogSink interface {
	Log(matchID, message string)
}

// OutcomeKind distinguishes how a match ended. Forfeits must be
// distinguishable from score losses so collaborators award full-loss
// semantics rather than "ahead on score".
type OutcomeKind int

const (
	OutcomeScore OutcomeKind = iota
	OutcomeForfeit
	OutcomeDraw
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeScore:
		return "SCORE"
	case OutcomeForfeit:
		return "FORFEIT"
	case OutcomeDraw:
		return "DRAW"
	default:
		return "UNKNOWN"
	}
}

// Outcome is delivered once on match completion.
type Outcome struct {
	MatchID   string
	Kind      OutcomeKind
	Winner    ParticipantID // empty on draw
	Loser     ParticipantID // empty on draw
	RoundsWon map[ParticipantID]int
	Stake     int64
}

// OutcomeFunc is the match-outcome callback for progression, economy
// and statistics collaborators.
type OutcomeFunc func(Outcome)

// Collaborators bundles the injected external systems a match talks to.
// Nil fields are replaced with no-ops; the engine never does I/O itself.
type Collaborators struct {
	Buffs       BuffProvider
	Environment EnvironmentProvider
	Effects     EffectResolver
	Notifier    StateNotificationSink
	ActionLog   ActionLogSink
	Outcome     OutcomeFunc
}

type nopBuffs struct{}

func (nopBuffs) Delta(ParticipantID, Card) int { return 0 }

type nopEnvironment struct{}

func (nopEnvironment) Bonus(ParticipantID, Card) int { return 0 }

type nopEffects struct{}

func (nopEffects) Resolve(*EffectContext, Card) {}

type nopNotifier struct{}

func (nopNotifier) Notify(Snapshot) {}

type nopActionLog struct{}

func (nopActionLog) Log(string, string) {}

func (c Collaborators) withDefaults() Collaborators {
	if c.Buffs == nil {
		c.Buffs = nopBuffs{}
	}
	if c.Environment == nil {
		c.Environment = nopEnvironment{}
	}
	if c.Effects == nil {
		c.Effects = nopEffects{}
	}
	if c.Notifier == nil {
		c.Notifier = nopNotifier{}
	}
	if c.ActionLog == nil {
		c.ActionLog = nopActionLog{}
	}
	if c.Outcome == nil {
		c.Outcome = func(Outcome) {}
	}
	return c
}
