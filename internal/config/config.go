package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"battery_sizer/internal/sizing"
)

// Config is the server configuration read from SIZER_* environment
// variables. Command-line flags override it.
type Config struct {
	Address     string  `envconfig:"SIZER_ADDR" default:":8080"`
	TablesFile  string  `envconfig:"SIZER_TABLES_FILE" default:""`
	NotesFile   string  `envconfig:"SIZER_NOTES_FILE" default:""`
	WatchTables bool    `envconfig:"SIZER_WATCH_TABLES" default:"true"`
	LogLevel    string  `envconfig:"SIZER_LOG_LEVEL" default:"info"`
	PeakRate    float64 `envconfig:"SIZER_PEAK_RATE" default:"0.30"`
	OffPeakRate float64 `envconfig:"SIZER_OFF_PEAK_RATE" default:"0.075"`
}

func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("invalid SIZER_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

func (c *Config) Tariff() sizing.Tariff {
	return sizing.Tariff{PeakRate: c.PeakRate, OffPeakRate: c.OffPeakRate}
}
