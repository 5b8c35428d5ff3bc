package env

import (
	"errors"
	"fmt"
	"numbers_backend/internal/config"
	"numbers_backend/internal/model"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const gameConfigPathEnvName = "GAME_CONFIG_PATH"

type gameYAML struct {
	Schedule struct {
		Timezone          string `yaml:"timezone"`
		SlotMinutes       int    `yaml:"slot_minutes"`
		BettingMinutes    int    `yaml:"betting_minutes"`
		SystemOnlyMinutes int    `yaml:"system_only_minutes"`
	} `yaml:"schedule"`
	Locks struct {
		SingleFraction float64 `yaml:"single_fraction"`
		TripleFraction float64 `yaml:"triple_fraction"`
	} `yaml:"locks"`
	Payouts map[string]int64 `yaml:"payouts"`
	Wagers  struct {
		MinStake   int64  `yaml:"min_stake"`
		MaxStake   int64  `yaml:"max_stake"`
		RateLimit  int    `yaml:"rate_limit"`
		RateWindow string `yaml:"rate_window"`
	} `yaml:"wagers"`
	Scheduler struct {
		Interval      string `yaml:"interval"`
		LeaseTTL      string `yaml:"lease_ttl"`
		DrainInterval string `yaml:"drain_interval"`
	} `yaml:"scheduler"`
	Settlement struct {
		BatchSize int `yaml:"batch_size"`
	} `yaml:"settlement"`
}

type gameConfig struct {
	loc           *time.Location
	slot          time.Duration
	betting       time.Duration
	systemOnly    time.Duration
	fractions     map[model.Space]float64
	multipliers   map[model.GameClass]int64
	minStake      int64
	maxStake      int64
	rateLimit     int
	rateWindow    time.Duration
	interval      time.Duration
	leaseTTL      time.Duration
	drainInterval time.Duration
	batchSize     int
}

// GameConfigPath - путь к yaml с правилами игры, по умолчанию config.yaml
func GameConfigPath() string {
	if p := os.Getenv(gameConfigPathEnvName); len(p) > 0 {
		return p
	}
	return "config.yaml"
}

// NewGameConfigFromYAML - читает и валидирует правила игры
func NewGameConfigFromYAML(path string) (config.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game config: %w", err)
	}
	return ParseGameConfig(data)
}

func ParseGameConfig(data []byte) (config.GameConfig, error) {
	var raw gameYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse game config: %w", err)
	}

	tz := raw.Schedule.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	cfg := &gameConfig{
		loc:         loc,
		slot:        minutesOr(raw.Schedule.SlotMinutes, 60),
		betting:     minutesOr(raw.Schedule.BettingMinutes, 50),
		systemOnly:  minutesOr(raw.Schedule.SystemOnlyMinutes, 1),
		fractions:   map[model.Space]float64{model.SpaceSingle: raw.Locks.SingleFraction, model.SpaceTriple: raw.Locks.TripleFraction},
		multipliers: make(map[model.GameClass]int64, len(raw.Payouts)),
		minStake:    raw.Wagers.MinStake,
		maxStake:    raw.Wagers.MaxStake,
		rateLimit:   raw.Wagers.RateLimit,
		batchSize:   raw.Settlement.BatchSize,
	}

	for space, f := range cfg.fractions {
		if f < 0 || f > 1 {
			return nil, fmt.Errorf("lock fraction for %s must be within [0, 1], got %v", space, f)
		}
	}

	for name, m := range raw.Payouts {
		class := model.GameClass(name)
		if !class.Valid() {
			return nil, fmt.Errorf("unknown game class %q in payouts", name)
		}
		if m <= 0 {
			return nil, fmt.Errorf("payout for %s must be positive", name)
		}
		cfg.multipliers[class] = m
	}
	for _, class := range model.Classes {
		if _, ok := cfg.multipliers[class]; !ok {
			return nil, fmt.Errorf("payout for %s not found", class)
		}
	}

	if cfg.minStake <= 0 {
		cfg.minStake = 1
	}
	if cfg.maxStake != 0 && cfg.maxStake < cfg.minStake {
		return nil, errors.New("max stake is below min stake")
	}
	if cfg.batchSize <= 0 {
		cfg.batchSize = 500
	}

	durations := []struct {
		dst *time.Duration
		raw string
		def time.Duration
	}{
		{&cfg.rateWindow, raw.Wagers.RateWindow, time.Minute},
		{&cfg.interval, raw.Scheduler.Interval, time.Minute},
		{&cfg.leaseTTL, raw.Scheduler.LeaseTTL, 55 * time.Second},
		{&cfg.drainInterval, raw.Scheduler.DrainInterval, 10 * time.Second},
	}
	for _, d := range durations {
		if d.raw == "" {
			*d.dst = d.def
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("duration %q must be positive", d.raw)
		}
		*d.dst = v
	}

	return cfg, nil
}

func minutesOr(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Minute
}

func (c *gameConfig) Location() *time.Location        { return c.loc }
func (c *gameConfig) SlotLength() time.Duration       { return c.slot }
func (c *gameConfig) BettingWindow() time.Duration    { return c.betting }
func (c *gameConfig) SystemOnlyWindow() time.Duration { return c.systemOnly }

func (c *gameConfig) LockFraction(space model.Space) float64 {
	return c.fractions[space]
}

func (c *gameConfig) Multiplier(class model.GameClass) int64 {
	return c.multipliers[class]
}

func (c *gameConfig) MinStake() int64 { return c.minStake }

// MaxStake - 0 означает отсутствие верхнего лимита
func (c *gameConfig) MaxStake() int64 { return c.maxStake }

func (c *gameConfig) RateLimit() (int, time.Duration) {
	return c.rateLimit, c.rateWindow
}

func (c *gameConfig) SchedulerInterval() time.Duration { return c.interval }
func (c *gameConfig) LeaseTTL() time.Duration          { return c.leaseTTL }
func (c *gameConfig) DrainInterval() time.Duration     { return c.drainInterval }
func (c *gameConfig) SettlementBatchSize() int         { return c.batchSize }
