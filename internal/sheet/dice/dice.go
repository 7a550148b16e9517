// Package dice implements the d20 skill-check mechanics for the sheet
// service.
package dice

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// Sides is the number of faces on the skill-check die.
const Sides = 20

// ErrInvalidDie indicates a die value outside the 1..Sides range.
var ErrInvalidDie = errors.New("die value must be between 1 and 20")

// Check captures the outcome of a single skill check.
//
// CriticalSuccess and CriticalFailure are mutually exclusive by
// construction: the die holds a single value, and only 20 flags a success
// while only 1 flags a failure.
type Check struct {
	Skill           string
	Die             int
	Modifier        int
	Total           int
	CriticalSuccess bool
	CriticalFailure bool
}

// Critical reports whether the check was a critical in either direction.
func (c Check) Critical() bool {
	return c.CriticalSuccess || c.CriticalFailure
}

// Evaluate deterministically resolves a skill check from a die value and a
// modifier. The total is always die + modifier; unknown skills are resolved
// by the caller to a zero modifier before this point.
func Evaluate(skill string, die, modifier int) (Check, error) {
	if die < 1 || die > Sides {
		return Check{}, ErrInvalidDie
	}
	return Check{
		Skill:           skill,
		Die:             die,
		Modifier:        modifier,
		Total:           die + modifier,
		CriticalSuccess: die == Sides,
		CriticalFailure: die == 1,
	}, nil
}

// Roller produces d20 values in [1, Sides].
type Roller func() int

// NewRoller returns a time-seeded roller that is safe for concurrent use.
func NewRoller() Roller {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var mu sync.Mutex
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return rollDie(rng, Sides)
	}
}

// NewSeededRoller returns a deterministic roller for a fixed seed. Given the
// same seed it always produces the same sequence of die values.
func NewSeededRoller(seed int64) Roller {
	rng := rand.New(rand.NewSource(seed))
	var mu sync.Mutex
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return rollDie(rng, Sides)
	}
}

func rollDie(rng *rand.Rand, sides int) int {
	return rng.Intn(sides) + 1
}
