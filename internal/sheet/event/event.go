// Package event defines the transient push events fanned out to character
// observers. Events are delivered best-effort at broadcast time and never
// persisted.
package event

import (
	"github.com/louisbranch/dungeonsheet/internal/sheet/dice"
	"github.com/louisbranch/dungeonsheet/internal/sheet/domain"
)

// Type tags an event envelope.
type Type string

const (
	// TypeLog carries a human-readable narration line.
	TypeLog Type = "log"
	// TypeUpdate carries the full projected character record.
	TypeUpdate Type = "update"
	// TypeRollResult carries the structured outcome of a skill check.
	TypeRollResult Type = "roll_result"
)

// Envelope is the wire shape pushed to observers: {type, ...payload}.
type Envelope struct {
	Type    Type   `json:"type"`
	Message string `json:"message,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// RollPayload is the structured body of a roll_result event.
type RollPayload struct {
	Skill string `json:"skill"`
	D20   int    `json:"d20"`
	Mod   int    `json:"mod"`
	Total int    `json:"total"`
	Crit  bool   `json:"crit"`
}

// Log builds a narration event.
func Log(message string) Envelope {
	return Envelope{Type: TypeLog, Message: message}
}

// Update builds a state-snapshot event for a projected character.
func Update(character domain.Character) Envelope {
	return Envelope{Type: TypeUpdate, Payload: character}
}

// RollResult builds a roll_result event from a resolved skill check.
func RollResult(check dice.Check) Envelope {
	return Envelope{
		Type: TypeRollResult,
		Payload: RollPayload{
			Skill: check.Skill,
			D20:   check.Die,
			Mod:   check.Modifier,
			Total: check.Total,
			Crit:  check.Critical(),
		},
	}
}
