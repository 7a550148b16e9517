// Package seedchar resets the demo character record to a known-good state.
package seedchar

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	entrypoint "github.com/louisbranch/dungeonsheet/internal/platform/cmd"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/storage/sqlite"
	"github.com/louisbranch/dungeonsheet/internal/sheet/domain"
)

// Config holds seed command configuration.
type Config struct {
	DBPath      string `env:"DUNGEONSHEET_DB_PATH" envDefault:"dungeonsheet.db"`
	CharacterID string `env:"DUNGEONSHEET_SEED_CHARACTER_ID" envDefault:"carl_001"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "character record database path")
	fs.StringVar(&cfg.CharacterID, "id", cfg.CharacterID, "character id to seed")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run writes the clean demo record, overwriting any previous state.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("seed: close record store: %v", err)
		}
	}()

	if err := store.Put(ctx, CleanRecord(cfg.CharacterID)); err != nil {
		return fmt.Errorf("write seed record: %w", err)
	}
	_, err = fmt.Fprintf(out, "seeded character %s in %s\n", cfg.CharacterID, cfg.DBPath)
	return err
}

// CleanRecord is the reference demo character, fully specified so a reset
// clears any fields a previous session added.
func CleanRecord(characterID string) domain.RawCharacter {
	name := "Carl"
	race := "Human"
	class := "Dungeon Crawler"
	level := 5
	gold := 0
	hp := 40
	return domain.RawCharacter{
		ID:    characterID,
		Name:  &name,
		Race:  &race,
		Class: &class,
		Level: &level,
		Gold:  &gold,
		HP:    domain.RawHitPoints{Current: &hp, Max: &hp},
		Stats: &domain.Stats{
			Strength:     18,
			Dexterity:    14,
			Constitution: 16,
			Intelligence: 10,
			Charisma:     12,
		},
		Skills:    map[string]int{"brawling": 5},
		Feats:     []string{},
		Inventory: []domain.Item{},
		Equipment: map[string]*domain.EquipmentSlot{
			"right_hand": nil,
			"body":       nil,
		},
	}
}
