// Package gmtoken mints game-master credential tokens for the sheet service.
package gmtoken

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	entrypoint "github.com/louisbranch/dungeonsheet/internal/platform/cmd"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/app"
)

// Config holds token minting configuration.
type Config struct {
	Secret string `env:"DUNGEONSHEET_GM_SECRET"`
	TTL    time.Duration
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{TTL: 24 * time.Hour}
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Secret, "secret", cfg.Secret, "gm signing secret (default: DUNGEONSHEET_GM_SECRET)")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "token lifetime (default: 24h)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run mints the token and writes it to out.
func Run(cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}

	token, err := app.MintGMToken(cfg.Secret, cfg.TTL, nil)
	if err != nil {
		return fmt.Errorf("mint gm token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
