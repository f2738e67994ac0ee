// Package settings reads runtime settings from the environment. An optional
// .env file in the working directory is loaded first.
package settings

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings configures the console binary.
type Settings struct {
	ConfigPath string `env:"DEATHPENALTY_CONFIG"   envDefault:"config/deathpenalty.lua"`
	LedgerPath string `env:"DEATHPENALTY_LEDGER"`
	Currency   string `env:"DEATHPENALTY_CURRENCY" envDefault:"coins"`
	LogLevel   string `env:"DEATHPENALTY_LOG_LEVEL" envDefault:"info"`
	LogFile    string `env:"DEATHPENALTY_LOG_FILE"`
}

// Load reads settings. A missing .env file is not an error.
func Load(dotenv ...string) (Settings, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("load .env: %w", err)
	}
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// UseLedger reports whether balances are kept in a SQLite ledger rather
// than in memory.
func (s Settings) UseLedger() bool {
	return s.LedgerPath != ""
}
