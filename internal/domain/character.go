package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Character is one tracked health pool. ID and CreatedAt are server-assigned
// and immutable; HP is clamped into [0, MaxHP] on every write.
type Character struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	HP        int       `json:"hp"`
	MaxHP     int       `json:"maxHp"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clamp normalizes the health pool so that 0 <= HP <= MaxHP and MaxHP >= 1.
// A missing or non-positive MaxHP adopts the current HP instead of collapsing
// the pool to 1/1.
func (c *Character) Clamp() {
	if c.HP < 0 {
		c.HP = 0
	}
	if c.MaxHP < 1 {
		c.MaxHP = max(c.HP, 1)
	}
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
}

// CreateCharacterInput carries the client-settable fields of a new character.
type CreateCharacterInput struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"maxHp"`
}

// UpdateCharacterInput is a partial update; nil fields are left untouched.
type UpdateCharacterInput struct {
	Name  *string `json:"name"`
	Icon  *string `json:"icon"`
	HP    *int    `json:"hp"`
	MaxHP *int    `json:"maxHp"`
}

// Apply merges the set fields into c. HP is re-clamped afterwards so the
// invariant holds against the possibly-updated MaxHP.
func (in UpdateCharacterInput) Apply(c *Character) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Icon != nil {
		c.Icon = *in.Icon
	}
	if in.HP != nil {
		c.HP = *in.HP
	}
	if in.MaxHP != nil {
		c.MaxHP = *in.MaxHP
	}
	c.Clamp()
}

// batchAllowedFields is the closed field set accepted by batch import.
var batchAllowedFields = []string{"name", "hp", "maxHp", "icon"}

// ParseBatchCharacter validates one raw batch item against the allowed field
// set. Client-sent id and createdAt are stripped before validation. Returns
// the parsed input, or per-item error messages keyed to the item's index.
func ParseBatchCharacter(index int, raw json.RawMessage) (CreateCharacterInput, []string) {
	var input CreateCharacterInput

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return input, []string{fmt.Sprintf("Character at index %d: Invalid character format - expected object", index)}
	}

	// id/createdAt are server-owned; silently drop them like re-imports expect.
	delete(fields, "id")
	delete(fields, "createdAt")

	var errs []string

	nameRaw, hasName := fields["name"]
	var name string
	if !hasName || json.Unmarshal(nameRaw, &name) != nil || strings.TrimSpace(name) == "" {
		errs = append(errs, fmt.Sprintf("Character at index %d: name is required and must be a non-empty string", index))
	}
	input.Name = name

	var hp, maxHP *int
	if hpRaw, ok := fields["hp"]; ok {
		var v int
		if json.Unmarshal(hpRaw, &v) != nil || v < 0 {
			errs = append(errs, fmt.Sprintf("Character at index %d: hp must be a non-negative number", index))
		} else {
			hp = &v
			input.HP = v
		}
	}
	if maxRaw, ok := fields["maxHp"]; ok {
		var v int
		if json.Unmarshal(maxRaw, &v) != nil || v <= 0 {
			errs = append(errs, fmt.Sprintf("Character at index %d: maxHp must be a positive number", index))
		} else {
			maxHP = &v
			input.MaxHP = v
		}
	}
	if hp != nil && maxHP != nil && *hp > *maxHP {
		errs = append(errs, fmt.Sprintf("Character at index %d: hp cannot be greater than maxHp", index))
	}

	if iconRaw, ok := fields["icon"]; ok {
		var icon string
		if json.Unmarshal(iconRaw, &icon) != nil {
			errs = append(errs, fmt.Sprintf("Character at index %d: icon must be a string", index))
		} else if icon != "" && !strings.HasPrefix(icon, "/uploads/") {
			errs = append(errs, fmt.Sprintf("Character at index %d: icon path must start with '/uploads/' or be empty", index))
		} else {
			input.Icon = icon
		}
	}

	var extra []string
	for key := range fields {
		allowed := false
		for _, f := range batchAllowedFields {
			if key == f {
				allowed = true
				break
			}
		}
		if !allowed {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		errs = append(errs, fmt.Sprintf("Character at index %d: unexpected fields found: %s. Only allowed: %s",
			index, strings.Join(extra, ", "), strings.Join(batchAllowedFields, ", ")))
	}

	return input, errs
}

// CharacterService is the mutation surface shared by the HTTP handlers and
// the websocket hub, so both write paths go through the same validation.
type CharacterService interface {
	ListCharacters(ctx context.Context) ([]Character, error)
	CreateCharacter(ctx context.Context, input CreateCharacterInput) (*Character, error)
	CreateCharacters(ctx context.Context, inputs []CreateCharacterInput) ([]Character, []Character, error)
	UpdateCharacter(ctx context.Context, id string, input UpdateCharacterInput) (*Character, error)
	DeleteCharacter(ctx context.Context, id string) error
	DeleteCharacters(ctx context.Context, ids []string) ([]string, error)
}
