// Package sqlite provides a SQLite-backed character record store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/dungeonsheet/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/storage"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/storage/sqlite/migrations"
	"github.com/louisbranch/dungeonsheet/internal/sheet/domain"
	_ "modernc.org/sqlite"
)

// Store persists character records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite record store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get loads one raw character record. Absent rows return storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, characterID string) (domain.RawCharacter, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawCharacter{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.RawCharacter{}, fmt.Errorf("storage is not configured")
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return domain.RawCharacter{}, fmt.Errorf("character id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT name, race, class, level, gold,
		        hp_current, hp_max, hp_temp,
		        stats, skills, feats, inventory, equipment
		 FROM characters WHERE id = ?`,
		characterID,
	)

	var (
		name, race, class                          sql.NullString
		level, gold                                sql.NullInt64
		hpCurrent, hpMax, hpTemp                   sql.NullInt64
		stats, skills, feats, inventory, equipment sql.NullString
	)
	err := row.Scan(
		&name, &race, &class, &level, &gold,
		&hpCurrent, &hpMax, &hpTemp,
		&stats, &skills, &feats, &inventory, &equipment,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RawCharacter{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.RawCharacter{}, fmt.Errorf("scan character %s: %w", characterID, err)
	}

	raw := domain.RawCharacter{
		ID:    characterID,
		Name:  nullString(name),
		Race:  nullString(race),
		Class: nullString(class),
		Level: nullInt(level),
		Gold:  nullInt(gold),
		HP: domain.RawHitPoints{
			Current: nullInt(hpCurrent),
			Max:     nullInt(hpMax),
			Temp:    nullInt(hpTemp),
		},
	}
	if err := unmarshalColumn(stats, &raw.Stats); err != nil {
		return domain.RawCharacter{}, fmt.Errorf("decode stats for %s: %w", characterID, err)
	}
	if err := unmarshalColumn(skills, &raw.Skills); err != nil {
		return domain.RawCharacter{}, fmt.Errorf("decode skills for %s: %w", characterID, err)
	}
	if err := unmarshalColumn(feats, &raw.Feats); err != nil {
		return domain.RawCharacter{}, fmt.Errorf("decode feats for %s: %w", characterID, err)
	}
	if err := unmarshalColumn(inventory, &raw.Inventory); err != nil {
		return domain.RawCharacter{}, fmt.Errorf("decode inventory for %s: %w", characterID, err)
	}
	if err := unmarshalColumn(equipment, &raw.Equipment); err != nil {
		return domain.RawCharacter{}, fmt.Errorf("decode equipment for %s: %w", characterID, err)
	}
	return raw, nil
}

// Put writes one full character record, replacing any previous row.
func (s *Store) Put(ctx context.Context, record domain.RawCharacter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	characterID := strings.TrimSpace(record.ID)
	if characterID == "" {
		return fmt.Errorf("character id is required")
	}

	stats, err := marshalColumn(record.Stats)
	if err != nil {
		return fmt.Errorf("encode stats for %s: %w", characterID, err)
	}
	skills, err := marshalColumn(record.Skills)
	if err != nil {
		return fmt.Errorf("encode skills for %s: %w", characterID, err)
	}
	feats, err := marshalColumn(record.Feats)
	if err != nil {
		return fmt.Errorf("encode feats for %s: %w", characterID, err)
	}
	inventory, err := marshalColumn(record.Inventory)
	if err != nil {
		return fmt.Errorf("encode inventory for %s: %w", characterID, err)
	}
	equipment, err := marshalColumn(record.Equipment)
	if err != nil {
		return fmt.Errorf("encode equipment for %s: %w", characterID, err)
	}

	now := time.Now().UTC().UnixMilli()
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO characters (
		   id, name, race, class, level, gold,
		   hp_current, hp_max, hp_temp,
		   stats, skills, feats, inventory, equipment,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   race = excluded.race,
		   class = excluded.class,
		   level = excluded.level,
		   gold = excluded.gold,
		   hp_current = excluded.hp_current,
		   hp_max = excluded.hp_max,
		   hp_temp = excluded.hp_temp,
		   stats = excluded.stats,
		   skills = excluded.skills,
		   feats = excluded.feats,
		   inventory = excluded.inventory,
		   equipment = excluded.equipment,
		   updated_at = excluded.updated_at`,
		characterID,
		nullStringArg(record.Name),
		nullStringArg(record.Race),
		nullStringArg(record.Class),
		nullIntArg(record.Level),
		nullIntArg(record.Gold),
		nullIntArg(record.HP.Current),
		nullIntArg(record.HP.Max),
		nullIntArg(record.HP.Temp),
		stats,
		skills,
		feats,
		inventory,
		equipment,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("put character %s: %w", characterID, err)
	}
	return nil
}

// IncrementField atomically adds delta to a whitelisted numeric field and
// returns the new value. A NULL stored value counts as the field's
// projection default before the add. Serialization is delegated to SQLite,
// so concurrent increments never lose an update.
func (s *Store) IncrementField(ctx context.Context, characterID string, field storage.Field, delta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return 0, fmt.Errorf("character id is required")
	}

	var column string
	var fallback int
	switch field {
	case storage.FieldGold:
		column, fallback = "gold", domain.DefaultGold
	case storage.FieldHPCurrent:
		column, fallback = "hp_current", domain.DefaultHPCurrent
	case storage.FieldLevel:
		column, fallback = "level", domain.DefaultLevel
	default:
		return 0, fmt.Errorf("%w: %s", storage.ErrUnknownField, field)
	}

	query := fmt.Sprintf(
		`UPDATE characters
		 SET %s = COALESCE(%s, ?) + ?, updated_at = ?
		 WHERE id = ?
		 RETURNING %s`,
		column, column, column,
	)

	var value int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		query,
		fallback,
		delta,
		time.Now().UTC().UnixMilli(),
		characterID,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment %s for %s: %w", column, characterID, err)
	}
	return int(value), nil
}

// UpdateInventory overwrites the inventory column for one character. Other
// columns are untouched, so a concurrent atomic increment on the same row
// is never clobbered.
func (s *Store) UpdateInventory(ctx context.Context, characterID string, inventory []domain.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return fmt.Errorf("character id is required")
	}

	if inventory == nil {
		inventory = []domain.Item{}
	}
	encoded, err := json.Marshal(inventory)
	if err != nil {
		return fmt.Errorf("encode inventory for %s: %w", characterID, err)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE characters SET inventory = ?, updated_at = ? WHERE id = ?`,
		string(encoded),
		time.Now().UTC().UnixMilli(),
		characterID,
	)
	if err != nil {
		return fmt.Errorf("update inventory for %s: %w", characterID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update inventory for %s: %w", characterID, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func nullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func nullStringArg(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullIntArg(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func marshalColumn(value any) (any, error) {
	if isNilish(value) {
		return nil, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func unmarshalColumn(column sql.NullString, target any) error {
	if !column.Valid || strings.TrimSpace(column.String) == "" {
		return nil
	}
	return json.Unmarshal([]byte(column.String), target)
}

func isNilish(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case *domain.Stats:
		return v == nil
	case map[string]int:
		return v == nil
	case []string:
		return v == nil
	case []domain.Item:
		return v == nil
	case map[string]*domain.EquipmentSlot:
		return v == nil
	default:
		return false
	}
}
