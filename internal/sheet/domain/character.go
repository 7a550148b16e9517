// Package domain defines the canonical character-sheet model and the
// projection from raw stored records to fully-populated views.
package domain

// Default values applied when a stored record omits a field.
const (
	DefaultName      = "Unknown"
	DefaultRace      = "Unknown"
	DefaultClass     = "Crawler"
	DefaultLevel     = 1
	DefaultGold      = 0
	DefaultHPCurrent = 10
	DefaultHPMax     = 10
	DefaultHPTemp    = 0
	DefaultStat      = 10
)

// Stats holds the five ability scores.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Charisma     int `json:"charisma"`
}

// HitPoints holds the current, maximum, and temporary hit point values.
// Current is intentionally unclamped: it may go negative or exceed Max,
// leaving the interpretation to the game master.
type HitPoints struct {
	Current int `json:"current"`
	Max     int `json:"max"`
	Temp    int `json:"temp"`
}

// Item is one inventory stack: identical items collapse into a single entry
// keyed by name and type.
type Item struct {
	Name  string         `json:"name"`
	Type  string         `json:"type"`
	Count int            `json:"count"`
	Stats map[string]int `json:"stats,omitempty"`
}

// EquipmentSlot describes the item occupying a named equipment slot.
type EquipmentSlot struct {
	Name  string         `json:"name"`
	Type  string         `json:"type"`
	Stats map[string]int `json:"stats,omitempty"`
}

// Character is the canonical projected character sheet. Every field is
// always present; consumers never branch on missing fields.
type Character struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	Race      string                    `json:"race"`
	Class     string                    `json:"player_class"`
	Level     int                       `json:"level"`
	Gold      int                       `json:"gold"`
	HP        HitPoints                 `json:"hp"`
	Stats     Stats                     `json:"stats"`
	Skills    map[string]int            `json:"skills"`
	Feats     []string                  `json:"feats"`
	Inventory []Item                    `json:"inventory"`
	Equipment map[string]*EquipmentSlot `json:"equipment"`
}

// RawHitPoints is the optional-field shape of hit points as stored.
type RawHitPoints struct {
	Current *int
	Max     *int
	Temp    *int
}

// RawCharacter is the optional-field bag as stored. Legacy records may omit
// any field; Project maps every absence to a documented default.
type RawCharacter struct {
	ID        string
	Name      *string
	Race      *string
	Class     *string
	Level     *int
	Gold      *int
	HP        RawHitPoints
	Stats     *Stats
	Skills    map[string]int
	Feats     []string
	Inventory []Item
	Equipment map[string]*EquipmentSlot
}

// Project maps a raw stored record to the canonical character view. It is
// deterministic and side-effect free; API responses and update events are
// both built through it so the two shapes never diverge.
func Project(raw RawCharacter) Character {
	out := Character{
		ID:    raw.ID,
		Name:  stringOr(raw.Name, DefaultName),
		Race:  stringOr(raw.Race, DefaultRace),
		Class: stringOr(raw.Class, DefaultClass),
		Level: intOr(raw.Level, DefaultLevel),
		Gold:  intOr(raw.Gold, DefaultGold),
		HP: HitPoints{
			Current: intOr(raw.HP.Current, DefaultHPCurrent),
			Max:     intOr(raw.HP.Max, DefaultHPMax),
			Temp:    intOr(raw.HP.Temp, DefaultHPTemp),
		},
		Stats: Stats{
			Strength:     DefaultStat,
			Dexterity:    DefaultStat,
			Constitution: DefaultStat,
			Intelligence: DefaultStat,
			Charisma:     DefaultStat,
		},
		Skills:    map[string]int{},
		Feats:     []string{},
		Inventory: []Item{},
		Equipment: map[string]*EquipmentSlot{},
	}
	if raw.Stats != nil {
		out.Stats = *raw.Stats
	}
	for name, modifier := range raw.Skills {
		out.Skills[name] = modifier
	}
	out.Feats = append(out.Feats, raw.Feats...)
	out.Inventory = append(out.Inventory, raw.Inventory...)
	for slot, equipped := range raw.Equipment {
		out.Equipment[slot] = equipped
	}
	return out
}

func stringOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}
