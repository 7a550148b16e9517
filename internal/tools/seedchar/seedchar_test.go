package seedchar

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/dungeonsheet/internal/services/sheet/storage/sqlite"
	"github.com/louisbranch/dungeonsheet/internal/sheet/domain"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.CharacterID != "carl_001" || cfg.DBPath != "dungeonsheet.db" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-id", "donut_001", "-db-path", "other.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.CharacterID != "donut_001" || cfg.DBPath != "other.db" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestRunWritesCleanRecord(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sheet.db")
	buf := &bytes.Buffer{}

	if err := Run(context.Background(), Config{DBPath: dbPath, CharacterID: "carl_001"}, buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "carl_001") {
		t.Fatalf("expected confirmation output, got %q", buf.String())
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	raw, err := store.Get(context.Background(), "carl_001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got := domain.Project(raw)
	if got.Name != "Carl" || got.Class != "Dungeon Crawler" || got.Level != 5 {
		t.Fatalf("unexpected seeded record %+v", got)
	}
	if got.HP.Current != 40 || got.HP.Max != 40 {
		t.Fatalf("unexpected hp %+v", got.HP)
	}
	if got.Skills["brawling"] != 5 {
		t.Fatalf("expected brawling +5, got %d", got.Skills["brawling"])
	}
	if len(got.Inventory) != 0 {
		t.Fatalf("expected empty inventory, got %+v", got.Inventory)
	}
}

func TestRunResetsPreviousState(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sheet.db")
	cfg := Config{DBPath: dbPath, CharacterID: "carl_001"}

	if err := Run(context.Background(), cfg, &bytes.Buffer{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.IncrementField(context.Background(), "carl_001", "gold", 500); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := store.UpdateInventory(context.Background(), "carl_001",
		[]domain.Item{{Name: "Boots", Type: "General", Count: 1}}); err != nil {
		t.Fatalf("update inventory: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := Run(context.Background(), cfg, &bytes.Buffer{}); err != nil {
		t.Fatalf("second run: %v", err)
	}

	store, err = sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	raw, err := store.Get(context.Background(), "carl_001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got := domain.Project(raw)
	if got.Gold != 0 || len(got.Inventory) != 0 {
		t.Fatalf("expected reset record, got gold=%d inventory=%+v", got.Gold, got.Inventory)
	}
}

func TestRunNilOutput(t *testing.T) {
	if err := Run(context.Background(), Config{DBPath: "x.db"}, nil); err == nil {
		t.Fatal("expected error for nil output")
	}
}
