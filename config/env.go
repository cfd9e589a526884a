package config

import (
	game_constants "Nhauzo/constants/game"
	"Nhauzo/services/game"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Room store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// PostgresConfig locates the ledger database. An empty Host disables the
// ledger.
type PostgresConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
	Verbose  bool
	Migrate  bool
}

// Enabled reports whether a database was configured
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// Config is everything the server reads from the environment
type Config struct {
	Port        string
	Prod        bool
	Debug       bool
	Store       string
	RedisURL    string
	Postgres    PostgresConfig
	SessionKey  string
	TokenSecret string
	TokenMaxAge time.Duration
	Game        game.Settings
}

// Load reads .env when present and then the process environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Could not read .env: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:        orDefault(getenv("PORT"), "8080"),
		Prod:        getenv("PROD") == "true",
		Debug:       getenv("DEBUG_SOCKETS") == "true",
		Store:       strings.ToLower(getenv("STORE")),
		RedisURL:    getenv("REDIS_URL"),
		SessionKey:  getenv("KEY"),
		TokenSecret: getenv("TOKEN_SECRET"),
		TokenMaxAge: 24 * time.Hour,
		Postgres: PostgresConfig{
			User:     getenv("POSTGRES_USER"),
			Password: getenv("POSTGRES_PASSWORD"),
			Host:     getenv("POSTGRES_HOST"),
			Port:     orDefault(getenv("POSTGRES_PORT"), "5432"),
			Database: getenv("POSTGRES_DATABASE"),
			Verbose:  getenv("VERBOSE_POSTGRES") == "true",
			Migrate:  getenv("MIGRATE_POSTGRES") == "true",
		},
		Game: game.DefaultSettings(),
	}

	switch cfg.Store {
	case "":
		cfg.Store = StoreMemory
		if cfg.RedisURL != "" {
			cfg.Store = StoreRedis
		}
	case StoreMemory, StoreRedis:
	default:
		return Config{}, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
	if cfg.Store == StoreRedis && cfg.RedisURL == "" {
		cfg.RedisURL = "localhost:6379"
	}

	if cfg.TokenSecret == "" {
		if cfg.Prod {
			return Config{}, fmt.Errorf("TOKEN_SECRET is required in production")
		}
		log.Warn("TOKEN_SECRET not set, using a development secret")
		cfg.TokenSecret = "nhauzo-dev-secret"
	}
	if cfg.SessionKey == "" {
		cfg.SessionKey = cfg.TokenSecret
	}

	durations := []struct {
		name   string
		target *time.Duration
	}{
		{"PREP_WINDOW", &cfg.Game.PrepWindow},
		{"TAP_WINDOW", &cfg.Game.TapWindow},
		{"SPIN_DURATION", &cfg.Game.SpinDuration},
		{"TIE_REPLAY_DELAY", &cfg.Game.TieReplayDelay},
		{"REVEAL_DELAY", &cfg.Game.RevealDelay},
	}
	for _, d := range durations {
		raw := getenv(d.name)
		if raw == "" {
			continue
		}
		v, err := parseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.target = v
	}

	if raw := getenv("STAKES"); raw != "" {
		stakes, err := parseStakes(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STAKES: %w", err)
		}
		cfg.Game.Stakes = stakes
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// parseDuration accepts Go durations ("3s") or plain milliseconds ("3000")
func parseDuration(raw string) (time.Duration, error) {
	if ms, err := strconv.Atoi(raw); err == nil {
		if ms <= 0 {
			return 0, fmt.Errorf("must be positive")
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

// parseStakes reads a comma separated list, e.g. "0.1,0.2,0.3"
func parseStakes(raw string) ([]float64, error) {
	var stakes []float64
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		if v <= 0 || v > game_constants.MaxStake {
			return nil, fmt.Errorf("stake %v out of range", v)
		}
		stakes = append(stakes, v)
	}
	return stakes, nil
}
