package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	BoltPath    string

	PostgresMaxConns        int
	PostgresConnMaxLifetime time.Duration

	MaxPolls    uint64
	CreationFee uint64
	Authorities []string

	// BlockInterval drives the wall-clock height source of the API.
	BlockInterval time.Duration
	GenesisTime   time.Time

	OutboxBatchSize    int
	OutboxPollInterval time.Duration

	MetricsEnabled bool
}

// Load reads configuration from the environment. Unknown or malformed
// numeric values are reported; malformed booleans fall back to defaults.
func Load() (Config, error) {
	return LoadFrom(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_NAME", "pollgov")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("BOLT_PATH", "pollgov.db")
	v.SetDefault("MAX_POLLS", 1000)
	v.SetDefault("CREATION_FEE", 1000)
	v.SetDefault("AUTHORITY_PRINCIPALS", "")
	v.SetDefault("BLOCK_INTERVAL", "10s")
	v.SetDefault("GENESIS_TIME", "")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("OUTBOX_POLL_INTERVAL", "2s")
	v.SetDefault("METRICS_ENABLED", "true")
	return v
}

// LoadFrom builds a Config from an already populated viper instance.
func LoadFrom(v *viper.Viper) (Config, error) {
	maxPolls, err := uintValue(v, "MAX_POLLS")
	if err != nil {
		return Config{}, err
	}
	fee, err := uintValue(v, "CREATION_FEE")
	if err != nil {
		return Config{}, err
	}
	interval, err := durationValue(v, "BLOCK_INTERVAL")
	if err != nil {
		return Config{}, err
	}
	if interval <= 0 {
		return Config{}, fmt.Errorf("BLOCK_INTERVAL must be positive")
	}
	pollInterval, err := durationValue(v, "OUTBOX_POLL_INTERVAL")
	if err != nil {
		return Config{}, err
	}
	connLifetime, err := durationValue(v, "POSTGRES_CONN_MAX_LIFETIME")
	if err != nil {
		return Config{}, err
	}

	genesis := time.Now().UTC()
	if raw := strings.TrimSpace(v.GetString("GENESIS_TIME")); raw != "" {
		genesis, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse GENESIS_TIME: %w", err)
		}
	}

	batch := v.GetInt("OUTBOX_BATCH_SIZE")
	if batch <= 0 {
		batch = 100
	}

	return Config{
		ServiceName: v.GetString("SERVICE_NAME"),
		HTTPPort:    v.GetString("HTTP_PORT"),
		PostgresDSN: v.GetString("POSTGRES_DSN"),
		BoltPath:    v.GetString("BOLT_PATH"),

		PostgresMaxConns:        v.GetInt("POSTGRES_MAX_CONNS"),
		PostgresConnMaxLifetime: connLifetime,

		MaxPolls:    maxPolls,
		CreationFee: fee,
		Authorities: splitList(v.GetString("AUTHORITY_PRINCIPALS")),

		BlockInterval: interval,
		GenesisTime:   genesis,

		OutboxBatchSize:    batch,
		OutboxPollInterval: pollInterval,

		MetricsEnabled: envBool(v, "METRICS_ENABLED", true),
	}, nil
}

func uintValue(v *viper.Viper, name string) (uint64, error) {
	raw := strings.TrimSpace(v.GetString(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", name, raw, err)
	}
	return value, nil
}

func durationValue(v *viper.Viper, name string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(name))
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", name, raw, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var items []string
	for _, value := range strings.Split(raw, ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

func envBool(v *viper.Viper, name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(v.GetString(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
