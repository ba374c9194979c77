package notifyhub

import (
	"fmt"
	"os"
	"time"

	"github.com/platformkit/notifyhub/pkg/config"
	"github.com/platformkit/notifyhub/pkg/ratelimit"
)

// Config carries the engine's deployment tunables, loadable from the
// environment via pkg/config.
type Config struct {
	// TiersPath points to an optional YAML tier table; empty keeps the
	// built-in defaults.
	TiersPath string `env:"NOTIFYHUB_TIERS_PATH"`

	ConnectionBuffer int           `env:"NOTIFYHUB_CONNECTION_BUFFER" envDefault:"64"`
	OfflineTTL       time.Duration `env:"NOTIFYHUB_OFFLINE_TTL" envDefault:"72h"`

	BurstRate      float64 `env:"NOTIFYHUB_BURST_RATE" envDefault:"2"`
	BurstAllowance int     `env:"NOTIFYHUB_BURST_ALLOWANCE" envDefault:"5"`

	AbuseHalfLife        time.Duration `env:"NOTIFYHUB_ABUSE_HALF_LIFE" envDefault:"10m"`
	SuppressionThreshold float64       `env:"NOTIFYHUB_SUPPRESSION_THRESHOLD" envDefault:"100"`
	SuppressionTTL       time.Duration `env:"NOTIFYHUB_SUPPRESSION_TTL" envDefault:"15m"`
}

// LoadConfig reads the engine config from the environment (and an
// optional .env file) via pkg/config.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Options expands the config into engine options, reading the tier table
// when one is configured.
func (c Config) Options() ([]Option, error) {
	opts := []Option{
		WithConnectionBuffer(c.ConnectionBuffer),
		WithOfflineTTL(c.OfflineTTL),
		WithBurstThreshold(c.BurstRate, c.BurstAllowance),
		WithAbuseHalfLife(c.AbuseHalfLife),
		WithSuppressionThreshold(c.SuppressionThreshold),
		WithSuppressionTTL(c.SuppressionTTL),
	}

	if c.TiersPath != "" {
		f, err := os.Open(c.TiersPath)
		if err != nil {
			return nil, fmt.Errorf("open tier table: %w", err)
		}
		defer f.Close()

		tiers, err := ratelimit.LoadTiers(f)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTiers(tiers))
	}

	return opts, nil
}
