// Package config loads the server configuration from YAML.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gwentfree/gwent-server-go/internal/game"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Escrow   EscrowConfig   `mapstructure:"escrow"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// URL is a pgx connection string. Empty runs the server on the
	// in-memory ledger with no card persistence.
	URL string `mapstructure:"url"`
}

type GameConfig struct {
	Difficulty   string        `mapstructure:"difficulty"`
	MaxRounds    int           `mapstructure:"max_rounds"`
	TurnLimit    time.Duration `mapstructure:"turn_limit"`
	HandSize     int           `mapstructure:"hand_size"`
	RoundDraw    int           `mapstructure:"round_draw"`
	AllowLeader  bool          `mapstructure:"allow_leader"`
	AllowWeather bool          `mapstructure:"allow_weather"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

type EscrowConfig struct {
	MinStake int64         `mapstructure:"min_stake"`
	MaxStake int64         `mapstructure:"max_stake"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Tier parses the configured difficulty name; unknown names fall back
// to medium.
func (g GameConfig) Tier() game.DifficultyTier {
	switch strings.ToUpper(strings.TrimSpace(g.Difficulty)) {
	case "EASY":
		return game.DifficultyEasy
	case "HARD":
		return game.DifficultyHard
	case "EXPERT":
		return game.DifficultyExpert
	default:
		return game.DifficultyMedium
	}
}

// MatchConfig translates the game section into a MatchConfig with the
// stake filled in per match.
func (g GameConfig) MatchConfig(stake int64) game.MatchConfig {
	cfg := game.DefaultMatchConfig()
	cfg.Difficulty = g.Tier()
	cfg.Stake = stake
	if g.MaxRounds > 0 {
		cfg.MaxRounds = g.MaxRounds
	}
	if g.TurnLimit > 0 {
		cfg.TurnLimit = g.TurnLimit
	}
	if g.HandSize > 0 {
		cfg.HandSize = g.HandSize
	}
	if g.RoundDraw > 0 {
		cfg.RoundDraw = g.RoundDraw
	}
	cfg.AllowLeader = g.AllowLeader
	cfg.AllowWeather = g.AllowWeather
	return cfg
}

// Load reads the YAML file at configPath.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("game.difficulty", "medium")
	v.SetDefault("game.max_rounds", 3)
	v.SetDefault("game.turn_limit", "60s")
	v.SetDefault("game.hand_size", 10)
	v.SetDefault("game.round_draw", 2)
	v.SetDefault("game.allow_leader", true)
	v.SetDefault("game.allow_weather", true)
	v.SetDefault("game.tick_interval", "1s")
	v.SetDefault("escrow.min_stake", 1)
	v.SetDefault("escrow.max_stake", 10000)
	v.SetDefault("escrow.lock_ttl", "2h")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
