// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Every tunable of the delivery engine - rate-limit ceilings, abuse
// thresholds, queue TTLs, store connection URLs - is declared as a struct
// field with `env` tags and loaded through Load:
//
//	type AbuseConfig struct {
//		RiskHalfLife         time.Duration `env:"ABUSE_RISK_HALF_LIFE" envDefault:"10m"`
//		SuppressionThreshold float64       `env:"ABUSE_SUPPRESSION_THRESHOLD" envDefault:"100"`
//	}
//
//	var cfg AbuseConfig
//	config.MustLoad(&cfg)
//
// Parsed values are cached per struct type, so configuration can be loaded
// close to where it is used without repeated environment scans.
package config
