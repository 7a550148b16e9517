// Package storage defines the persistence contract for character records.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/dungeonsheet/internal/sheet/domain"
)

// ErrNotFound indicates a requested character record is missing. Stores
// return it distinctly from infrastructure failures so callers can map the
// two to different error codes.
var ErrNotFound = errors.New("record not found")

// Field addresses a numeric record field eligible for atomic increments.
type Field string

const (
	// FieldGold addresses the gold total.
	FieldGold Field = "gold"
	// FieldHPCurrent addresses the current hit points.
	FieldHPCurrent Field = "hp.current"
	// FieldLevel addresses the character level.
	FieldLevel Field = "level"
)

// ErrUnknownField indicates a field path outside the increment whitelist.
var ErrUnknownField = errors.New("unknown increment field")

// RecordStore persists character records.
//
// IncrementField must be a true atomic addition: concurrent increments on
// the same field never lose an update. A missing stored value is treated as
// the field's projection default before the add, so a first-ever adjustment
// initializes correctly. UpdateInventory overwrites only the list-shaped
// inventory column, leaving concurrent increments on the same record
// untouched.
type RecordStore interface {
	Get(ctx context.Context, characterID string) (domain.RawCharacter, error)
	Put(ctx context.Context, record domain.RawCharacter) error
	IncrementField(ctx context.Context, characterID string, field Field, delta int) (int, error)
	UpdateInventory(ctx context.Context, characterID string, inventory []domain.Item) error
}
