package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/maloquacious/goobtool/internal/store"
)

// Config holds the paths and settings used by the migrate commands.
type Config struct {
	DBPath        string `env:"DB" envDefault:"goobtool.db"`
	RecordsPath   string `env:"RECORDS"`
	MigrationsDir string `env:"MIGRATIONS" envDefault:"migrations"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// EnvPrefix is prepended to every variable name, e.g. GOOB_DB.
const EnvPrefix = "GOOB_"

// Load reads the configuration from the environment.
// RecordsPath defaults to the record file in the store directory.
func Load() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: EnvPrefix})
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.RecordsPath == "" {
		cfg.RecordsPath = store.GetRecordPath(store.GetStorePath())
	}
	return cfg, nil
}
