package game

import (
	"fmt"
	"time"
)

// DifficultyTier selects how strong the AI opponent plays.
type DifficultyTier int

const (
	DifficultyEasy DifficultyTier = iota
	DifficultyMedium
	DifficultyHard
	DifficultyExpert
)

var difficultyNames = map[DifficultyTier]string{
	DifficultyEasy:   "EASY",
	DifficultyMedium: "MEDIUM",
	DifficultyHard:   "HARD",
	DifficultyExpert: "EXPERT",
}

func (d DifficultyTier) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DIFFICULTY_%d", int(d))
}

// MatchConfig fixes the rules of one match. Immutable once the match
// starts.
type MatchConfig struct {
	Difficulty  DifficultyTier
	Stake       int64
	MaxRounds   int
	TurnLimit   time.Duration
	HandSize    int
	RoundDraw   int
	AllowLeader bool
	AllowWeather bool
}

// DefaultMatchConfig returns the standard best-of-three ruleset.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Difficulty:   DifficultyMedium,
		MaxRounds:    3,
		TurnLimit:    60 * time.Second,
		HandSize:     10,
		RoundDraw:    2,
		AllowLeader:  true,
		AllowWeather: true,
	}
}

// normalized fills zero values with defaults and validates the rest.
func (c MatchConfig) normalized() (MatchConfig, error) {
	def := DefaultMatchConfig()
	if c.MaxRounds == 0 {
		c.MaxRounds = def.MaxRounds
	}
	if c.TurnLimit == 0 {
		c.TurnLimit = def.TurnLimit
	}
	if c.HandSize == 0 {
		c.HandSize = def.HandSize
	}
	if c.RoundDraw == 0 {
		c.RoundDraw = def.RoundDraw
	}

	if c.MaxRounds < 1 {
		return c, fmt.Errorf("%w: max rounds %d", ErrBadConfig, c.MaxRounds)
	}
	if c.HandSize < 1 {
		return c, fmt.Errorf("%w: hand size %d", ErrBadConfig, c.HandSize)
	}
	if c.Stake < 0 {
		return c, fmt.Errorf("%w: negative stake %d", ErrBadConfig, c.Stake)
	}
	if c.TurnLimit < 0 {
		return c, fmt.Errorf("%w: negative turn limit", ErrBadConfig)
	}
	return c, nil
}

// WinsNeeded returns the round-win majority that completes the match.
func (c MatchConfig) WinsNeeded() int {
	return c.MaxRounds/2 + 1
}
