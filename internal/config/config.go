package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const envPrefix = "CALLBRIDGE_"

type Config struct {
	Addr             string
	LogLevel         zerolog.Level
	LogFormat        string
	MetricsEnabled   bool
	FinishedSessions int
	SubscriberQueue  int
	ShutdownTimeout  time.Duration
}

func Default() Config {
	return Config{
		Addr:             ":8080",
		LogLevel:         zerolog.InfoLevel,
		LogFormat:        "console",
		MetricsEnabled:   true,
		FinishedSessions: 128,
		SubscriberQueue:  64,
		ShutdownTimeout:  5 * time.Second,
	}
}

// Load reads the optional env files (".env" when none are given) and then
// the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, starting from Default.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		lvl, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return Config{}, fmt.Errorf("%sLOG_LEVEL: %w", envPrefix, err)
		}
		cfg.LogLevel = lvl
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := get("METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%sMETRICS_ENABLED: %w", envPrefix, err)
		}
		cfg.MetricsEnabled = b
	}
	if v, ok := get("FINISHED_SESSIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%sFINISHED_SESSIONS: %w", envPrefix, err)
		}
		cfg.FinishedSessions = n
	}
	if v, ok := get("SUBSCRIBER_QUEUE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%sSUBSCRIBER_QUEUE: %w", envPrefix, err)
		}
		cfg.SubscriberQueue = n
	}
	if v, ok := get("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%sSHUTDOWN_TIMEOUT: %w", envPrefix, err)
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.FinishedSessions <= 0 {
		return errors.New("finished sessions must be positive")
	}
	if c.SubscriberQueue <= 0 {
		return errors.New("subscriber queue must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}
