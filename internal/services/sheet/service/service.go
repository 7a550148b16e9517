// Package service implements the mutation engine: the operations that read
// or change a character record and fan the outcome out to its observers.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/louisbranch/dungeonsheet/internal/platform/errors"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/storage"
	"github.com/louisbranch/dungeonsheet/internal/sheet/dice"
	"github.com/louisbranch/dungeonsheet/internal/sheet/domain"
	"github.com/louisbranch/dungeonsheet/internal/sheet/event"
)

// Broadcaster delivers one event to every current observer of a character.
// Delivery is best-effort and never reports failure to the mutation path.
type Broadcaster interface {
	Broadcast(characterID string, envelope event.Envelope)
}

// Service orchestrates the character-sheet operations. Every successful
// mutation broadcasts exactly one update event (the fresh projected record)
// followed by exactly one log event; skill rolls broadcast a log followed
// by a roll_result and persist nothing.
type Service struct {
	store       storage.RecordStore
	broadcaster Broadcaster
	roll        dice.Roller
	tracer      trace.Tracer
	titler      cases.Caser

	// locksMu guards locks; each character's inventory mutations are
	// serialized through its own mutex so concurrent read-modify-write
	// cycles cannot silently drop a change.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates a sheet service. A nil roll falls back to a time-seeded d20.
func New(store storage.RecordStore, broadcaster Broadcaster, roll dice.Roller) *Service {
	if roll == nil {
		roll = dice.NewRoller()
	}
	return &Service{
		store:       store,
		broadcaster: broadcaster,
		roll:        roll,
		tracer:      otel.Tracer("github.com/louisbranch/dungeonsheet/internal/services/sheet/service"),
		titler:      cases.Title(language.English),
		locks:       make(map[string]*sync.Mutex),
	}
}

// GetCharacter returns the projected record for one character.
func (s *Service) GetCharacter(ctx context.Context, characterID string) (domain.Character, error) {
	ctx, span := s.tracer.Start(ctx, "sheet.GetCharacter")
	defer span.End()

	return s.load(ctx, characterID)
}

// RollSkill resolves a d20 skill check against the stored record. Unknown
// skills roll at +0; the record is never mutated. Observers receive a log
// event followed by a roll_result event.
func (s *Service) RollSkill(ctx context.Context, characterID, skillName string) (dice.Check, error) {
	ctx, span := s.tracer.Start(ctx, "sheet.RollSkill")
	defer span.End()

	skillName = strings.TrimSpace(skillName)
	if skillName == "" {
		return dice.Check{}, apperrors.New(apperrors.CodeSkillEmptyName, "skill name is required")
	}

	character, err := s.load(ctx, characterID)
	if err != nil {
		return dice.Check{}, err
	}

	modifier := character.Skills[strings.ToLower(skillName)]
	check, err := dice.Evaluate(skillName, s.roll(), modifier)
	if err != nil {
		return dice.Check{}, apperrors.Wrap(apperrors.CodeUnknown, "resolve skill check", err)
	}

	narration := fmt.Sprintf("Rolled %s: %d + %d = %d",
		s.titler.String(skillName), check.Die, check.Modifier, check.Total)
	if check.CriticalSuccess {
		narration += " [CRITICAL SUCCESS!]"
	} else if check.CriticalFailure {
		narration += " [CRITICAL FAILURE!]"
	}

	s.broadcaster.Broadcast(characterID, event.Log(narration))
	s.broadcaster.Broadcast(characterID, event.RollResult(check))
	return check, nil
}

// AdjustHP atomically adds amount to current hit points. The result is
// deliberately unclamped in both directions; interpreting negative or
// above-max values is the game master's call.
func (s *Service) AdjustHP(ctx context.Context, characterID string, amount int) (domain.HitPoints, error) {
	ctx, span := s.tracer.Start(ctx, "sheet.AdjustHP")
	defer span.End()

	if _, err := s.increment(ctx, characterID, storage.FieldHPCurrent, amount); err != nil {
		return domain.HitPoints{}, err
	}

	character, err := s.publishUpdate(ctx, characterID)
	if err != nil {
		return domain.HitPoints{}, err
	}

	action := "Took Damage"
	if amount > 0 {
		action = "Healed"
	}
	s.broadcaster.Broadcast(characterID, event.Log(fmt.Sprintf(
		"%s (%d). HP is now %d.", action, abs(amount), character.HP.Current)))
	return character.HP, nil
}

// AdjustGold atomically adds amount to the gold total; a record that never
// held gold starts from zero.
func (s *Service) AdjustGold(ctx context.Context, characterID string, amount int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "sheet.AdjustGold")
	defer span.End()

	if _, err := s.increment(ctx, characterID, storage.FieldGold, amount); err != nil {
		return 0, err
	}

	character, err := s.publishUpdate(ctx, characterID)
	if err != nil {
		return 0, err
	}

	action := "Paid"
	if amount > 0 {
		action = "Received"
	}
	s.broadcaster.Broadcast(characterID, event.Log(fmt.Sprintf(
		"FINANCE: %s %d Gold.", action, abs(amount))))
	return character.Gold, nil
}

// LevelUp atomically increments the character level by one. There is no cap.
func (s *Service) LevelUp(ctx context.Context, characterID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "sheet.LevelUp")
	defer span.End()

	if _, err := s.increment(ctx, characterID, storage.FieldLevel, 1); err != nil {
		return 0, err
	}

	character, err := s.publishUpdate(ctx, characterID)
	if err != nil {
		return 0, err
	}

	s.broadcaster.Broadcast(characterID, event.Log(fmt.Sprintf(
		"LEVEL UP! You are now Level %d!", character.Level)))
	return character.Level, nil
}

// AddItem merges an item into the inventory, stacking on matching name and
// type, and writes the whole sequence back. Inventory writes for one
// character are serialized through its mutation lock.
func (s *Service) AddItem(ctx context.Context, characterID string, item domain.Item) ([]domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "sheet.AddItem")
	defer span.End()

	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return nil, apperrors.New(apperrors.CodeItemEmptyName, "item name is required")
	}
	if item.Count < 1 {
		return nil, apperrors.New(apperrors.CodeItemInvalidCount,
			fmt.Sprintf("item count must be at least 1, got %d", item.Count))
	}
	if strings.TrimSpace(item.Type) == "" {
		item.Type = "General"
	}

	unlock := s.lockInventory(characterID)
	defer unlock()

	character, err := s.load(ctx, characterID)
	if err != nil {
		return nil, err
	}

	next := domain.StackItem(character.Inventory, item)
	if err := s.store.UpdateInventory(ctx, characterID, next); err != nil {
		return nil, s.storeError(characterID, "update inventory", err)
	}

	updated, err := s.publishUpdate(ctx, characterID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Broadcast(characterID, event.Log(fmt.Sprintf(
		"SYSTEM GRANTED: %s (x%d)", item.Name, item.Count)))
	return updated.Inventory, nil
}

// UseItem consumes one unit of the stack at index in current inventory
// order. A failed lookup mutates nothing and broadcasts nothing.
func (s *Service) UseItem(ctx context.Context, characterID string, index int) ([]domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "sheet.UseItem")
	defer span.End()

	unlock := s.lockInventory(characterID)
	defer unlock()

	character, err := s.load(ctx, characterID)
	if err != nil {
		return nil, err
	}

	next, name, err := domain.ConsumeItem(character.Inventory, index)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateInventory(ctx, characterID, next); err != nil {
		return nil, s.storeError(characterID, "update inventory", err)
	}

	updated, err := s.publishUpdate(ctx, characterID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Broadcast(characterID, event.Log(fmt.Sprintf("Used %s.", name)))
	return updated.Inventory, nil
}

// load reads and projects one record.
func (s *Service) load(ctx context.Context, characterID string) (domain.Character, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return domain.Character{}, apperrors.New(apperrors.CodeCharacterEmptyID, "character id is required")
	}

	raw, err := s.store.Get(ctx, characterID)
	if err != nil {
		return domain.Character{}, s.storeError(characterID, "get character", err)
	}
	return domain.Project(raw), nil
}

// increment applies one atomic field delta.
func (s *Service) increment(ctx context.Context, characterID string, field storage.Field, delta int) (int, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return 0, apperrors.New(apperrors.CodeCharacterEmptyID, "character id is required")
	}

	value, err := s.store.IncrementField(ctx, characterID, field, delta)
	if err != nil {
		return 0, s.storeError(characterID, fmt.Sprintf("increment %s", field), err)
	}
	return value, nil
}

// publishUpdate re-reads the record after a mutation and broadcasts the
// fresh projection so observers and the API response share one shape.
func (s *Service) publishUpdate(ctx context.Context, characterID string) (domain.Character, error) {
	character, err := s.load(ctx, characterID)
	if err != nil {
		return domain.Character{}, err
	}
	s.broadcaster.Broadcast(characterID, event.Update(character))
	return character, nil
}

func (s *Service) storeError(characterID, op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeCharacterNotFound,
			fmt.Sprintf("character %s not found", characterID), err)
	}
	return apperrors.Wrap(apperrors.CodeStorageFailure,
		fmt.Sprintf("%s for %s", op, characterID), err)
}

func (s *Service) lockInventory(characterID string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[characterID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[characterID] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
