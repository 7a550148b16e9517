// Package sheet parses sheet service flags and composes the HTTP entrypoint.
package sheet

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"

	entrypoint "github.com/louisbranch/dungeonsheet/internal/platform/cmd"
	"github.com/louisbranch/dungeonsheet/internal/platform/timeouts"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/app"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/push"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/service"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/storage/sqlite"
)

// Config holds sheet command configuration.
type Config struct {
	HTTPAddr string `env:"DUNGEONSHEET_HTTP_ADDR" envDefault:":8080"`
	DBPath   string `env:"DUNGEONSHEET_DB_PATH"   envDefault:"dungeonsheet.db"`
	GMSecret string `env:"DUNGEONSHEET_GM_SECRET"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "sheet HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "character record database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the sheet app and serves it until ctx is canceled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSheet, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open record store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("sheet: close record store: %v", err)
			}
		}()

		hub := push.NewHub()
		broadcaster := push.NewBroadcaster(hub)
		engine := service.New(store, broadcaster, nil)

		auth := app.NewGMAuthorizer(cfg.GMSecret)
		if auth == nil {
			log.Printf("sheet: DUNGEONSHEET_GM_SECRET is not set; privileged routes are disabled")
		}

		server := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           app.NewServer(engine, hub, auth).Handler(),
			ReadHeaderTimeout: timeouts.ReadHeader,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("sheet: listening on %s", cfg.HTTPAddr)
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve sheet: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown sheet: %w", err)
		}
		return nil
	})
}
