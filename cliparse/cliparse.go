// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/now-showing/db"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Secrets
	AdminKey        string
	LogSalt         string
	TwilioAuthToken string

	// PublicURL is the externally visible base URL, used to verify
	// webhook signatures behind a proxy
	PublicURL string

	RotationPeriod time.Duration
	Grace          time.Duration
	CheckInTTL     time.Duration
	PostThrottle   time.Duration
	AdvanceEvery   time.Duration
}

// LoadDotEnv loads a .env file into the environment if one exists.
// Variables already set are left alone.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load env file", "path", path, "error", err)
	}
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("now-showing", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or SQLite file")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or memory)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "Public base URL of the server")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Key for board admin endpoints (prefer env)")
	fs.StringVar(&cfg.LogSalt, "log-salt", "", "Salt for phone number fingerprints in logs (prefer env)")
	fs.StringVar(&cfg.TwilioAuthToken, "twilio-token", "", "Twilio auth token for webhook signatures (prefer env)")

	// Timing
	fs.DurationVar(&cfg.RotationPeriod, "rotation", 10*time.Minute, "SMS code rotation period")
	fs.DurationVar(&cfg.Grace, "grace", 10*time.Minute, "How long the previous SMS code stays valid")
	fs.DurationVar(&cfg.CheckInTTL, "checkin-ttl", time.Hour, "How long a check-in lasts")
	fs.DurationVar(&cfg.PostThrottle, "throttle", 5*time.Minute, "Minimum time between posts per user")
	fs.DurationVar(&cfg.AdvanceEvery, "advance-every", 0, "Advance the board on this interval (0 disables)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Fall back to environment variables
	for _, d := range []struct {
		flag, env string
		dst       *time.Duration
	}{
		{"rotation", "ROTATION_PERIOD", &cfg.RotationPeriod},
		{"grace", "GRACE", &cfg.Grace},
		{"checkin-ttl", "CHECKIN_TTL", &cfg.CheckInTTL},
		{"throttle", "POST_THROTTLE", &cfg.PostThrottle},
		{"advance-every", "ADVANCE_EVERY", &cfg.AdvanceEvery},
	} {
		if set[d.flag] {
			continue
		}
		if str := os.Getenv(d.env); str != "" {
			v, err := time.ParseDuration(str)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s env variable", d.env)
			}
			*d.dst = v
		}
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = db.TypeSQLite
		}
	}
	switch cfg.DatabaseType {
	case db.TypeSQLite, db.TypePostgres, db.TypeMemory:
	default:
		return Config{}, fmt.Errorf("unknown database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		switch cfg.DatabaseType {
		case db.TypeSQLite:
			cfg.DatabaseURL = "now-showing.db"
		case db.TypePostgres:
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = os.Getenv("PUBLIC_URL")
	}
	if cfg.TwilioAuthToken == "" {
		cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.TwilioAuthToken != "" && cfg.PublicURL == "" {
		return Config{}, errors.New("PUBLIC_URL required to verify Twilio signatures")
	}

	// Secrets - MUST be provided
	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}
	if cfg.AdminKey == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	if cfg.LogSalt == "" {
		cfg.LogSalt = os.Getenv("LOG_SALT")
	}
	if cfg.LogSalt == "" {
		return Config{}, errors.New("LOG_SALT required")
	}

	for name, d := range map[string]time.Duration{
		"rotation":    cfg.RotationPeriod,
		"checkin-ttl": cfg.CheckInTTL,
	} {
		if d <= 0 {
			return Config{}, fmt.Errorf("-%s must be positive", name)
		}
	}
	if cfg.Grace < 0 || cfg.PostThrottle < 0 || cfg.AdvanceEvery < 0 {
		return Config{}, errors.New("durations must not be negative")
	}

	return cfg, nil
}
