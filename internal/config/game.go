package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// GameConfig carries every tunable the gameplay core reads. It is built once
// at startup and passed by value; nothing in the core reads the environment.
type GameConfig struct {
	TurnTimeout       time.Duration `env:"TURN_TIMEOUT" envDefault:"30s"`
	RollAnnounceDelay time.Duration `env:"ROLL_ANNOUNCE_DELAY" envDefault:"2s"`
	ReadyTimeout      time.Duration `env:"READY_TIMEOUT" envDefault:"20s"`

	MatchingWindow     time.Duration `env:"MATCHING_WINDOW" envDefault:"15s"`
	MatchSweepInterval time.Duration `env:"MATCH_SWEEP_INTERVAL" envDefault:"5s"`
	IPRestriction      bool          `env:"MATCH_IP_RESTRICTION" envDefault:"false"`
	BigTableFee        int64         `env:"BIG_TABLE_FEE" envDefault:"10000"`

	TournamentStartDelay time.Duration `env:"TOURNAMENT_START_DELAY" envDefault:"10s"`
	RoundDuration        time.Duration `env:"ROUND_DURATION" envDefault:"8m"`
	AttritionEndDelay    time.Duration `env:"ATTRITION_END_DELAY" envDefault:"1m"`

	SixRule      bool          `env:"SIX_RULE" envDefault:"true"`
	LockTTL      time.Duration `env:"LOCK_TTL" envDefault:"5s"`
	DefaultLives int           `env:"DEFAULT_LIVES" envDefault:"2"`
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	err := env.Parse(&cfg)
	return cfg, err
}
