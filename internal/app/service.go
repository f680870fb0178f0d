// Package app wires the stores, the upload manager, and the broadcast hub
// into the application service both write paths (HTTP and websocket) share.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/luisgbr1el/vitalboard/internal/domain"
	"github.com/luisgbr1el/vitalboard/internal/storage"
	"github.com/luisgbr1el/vitalboard/internal/uploads"
)

// Service owns the authoritative read-modify-write cycle against both
// documents. Mutations persist first, then broadcast; the broadcast enqueue
// happens before the HTTP response is written, but delivery to each client
// runs asynchronously through the hub's per-connection writers, so responses
// and deliveries may interleave across concurrent requests. There is no
// cross-request locking: concurrent mutations race and the last write wins.
type Service struct {
	characters  *storage.Store[[]domain.Character]
	settings    *storage.Store[domain.Settings]
	uploads     *uploads.Manager
	broadcaster domain.Broadcaster
	clock       clockwork.Clock
}

// NewService creates the application service.
func NewService(
	characters *storage.Store[[]domain.Character],
	settings *storage.Store[domain.Settings],
	uploadMgr *uploads.Manager,
	broadcaster domain.Broadcaster,
	clock clockwork.Clock,
) *Service {
	return &Service{
		characters:  characters,
		settings:    settings,
		uploads:     uploadMgr,
		broadcaster: broadcaster,
		clock:       clock,
	}
}

// ListCharacters returns the full character list.
func (s *Service) ListCharacters(_ context.Context) ([]domain.Character, error) {
	return s.characters.Read(), nil
}

// CreateCharacter appends a new character. The server assigns id and
// createdAt; hp is clamped, never rejected. A referenced icon upload is
// confirmed as permanently owned by the new record.
func (s *Service) CreateCharacter(_ context.Context, input domain.CreateCharacterInput) (*domain.Character, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, domain.ErrNameRequired
	}

	character := domain.Character{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Icon:      input.Icon,
		HP:        input.HP,
		MaxHP:     input.MaxHP,
		CreatedAt: s.clock.Now().UTC(),
	}
	character.Clamp()

	chars := s.characters.Read()
	chars = append(chars, character)
	if err := s.characters.Write(chars); err != nil {
		return nil, fmt.Errorf("persist characters: %w", err)
	}

	// Upload bookkeeping waits for the write so a failed persist leaves the
	// icon pending and reclaimable.
	if character.Icon != "" {
		s.uploads.ConfirmURL(character.Icon)
	}

	s.broadcaster.BroadcastCharacters(chars)
	return &character, nil
}

// CreateCharacters appends a pre-validated batch in one write. The batch is
// all-or-nothing; validation happens before this is called. Returns the
// created records and the full list after the append.
func (s *Service) CreateCharacters(_ context.Context, inputs []domain.CreateCharacterInput) ([]domain.Character, []domain.Character, error) {
	created := make([]domain.Character, 0, len(inputs))
	for _, input := range inputs {
		character := domain.Character{
			ID:        uuid.NewString(),
			Name:      input.Name,
			Icon:      input.Icon,
			HP:        input.HP,
			MaxHP:     input.MaxHP,
			CreatedAt: s.clock.Now().UTC(),
		}
		character.Clamp()
		created = append(created, character)
	}

	chars := s.characters.Read()
	chars = append(chars, created...)
	if err := s.characters.Write(chars); err != nil {
		return nil, nil, fmt.Errorf("persist characters: %w", err)
	}

	for _, character := range created {
		if character.Icon != "" {
			s.uploads.ConfirmURL(character.Icon)
		}
	}

	s.broadcaster.BroadcastCharacters(chars)
	return created, chars, nil
}

// UpdateCharacter merges the set fields into an existing record. HP is
// clamped against the possibly-updated MaxHP. An icon change releases the
// old file and confirms the new one.
func (s *Service) UpdateCharacter(_ context.Context, id string, input domain.UpdateCharacterInput) (*domain.Character, error) {
	if input.HP != nil && *input.HP < 0 {
		return nil, domain.ErrNegativeHP
	}

	chars := s.characters.Read()
	idx := -1
	for i := range chars {
		if chars[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, domain.ErrCharacterNotFound
	}

	oldIcon := chars[idx].Icon

	input.Apply(&chars[idx])
	if err := s.characters.Write(chars); err != nil {
		return nil, fmt.Errorf("persist characters: %w", err)
	}

	// The old file is released only once the new document is on disk, so a
	// failed persist never orphans the icon the stored record still points at.
	if input.Icon != nil && *input.Icon != oldIcon {
		if oldIcon != "" {
			s.uploads.DeleteURL(oldIcon)
		}
		if *input.Icon != "" {
			s.uploads.ConfirmURL(*input.Icon)
		}
	}

	updated := chars[idx]
	s.broadcaster.BroadcastCharacters(chars)
	s.broadcaster.BroadcastCharacter(id, updated)
	return &updated, nil
}

// DeleteCharacter removes a record and the icon file it owns. Deleting an
// unknown id is a no-op, not an error.
func (s *Service) DeleteCharacter(_ context.Context, id string) error {
	chars := s.characters.Read()
	remaining := chars[:0]
	var icons []string
	for _, c := range chars {
		if c.ID == id {
			if c.Icon != "" {
				icons = append(icons, c.Icon)
			}
			continue
		}
		remaining = append(remaining, c)
	}

	if err := s.characters.Write(remaining); err != nil {
		return fmt.Errorf("persist characters: %w", err)
	}

	for _, icon := range icons {
		s.uploads.DeleteURL(icon)
	}

	s.broadcaster.BroadcastCharacters(remaining)
	return nil
}

// DeleteCharacters removes every record whose id is listed, releasing their
// icon files. Returns the ids actually removed.
func (s *Service) DeleteCharacters(_ context.Context, ids []string) ([]string, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	chars := s.characters.Read()
	remaining := chars[:0]
	var deleted []string
	var icons []string
	for _, c := range chars {
		if _, ok := wanted[c.ID]; ok {
			if c.Icon != "" {
				icons = append(icons, c.Icon)
			}
			deleted = append(deleted, c.ID)
			continue
		}
		remaining = append(remaining, c)
	}

	if err := s.characters.Write(remaining); err != nil {
		return nil, fmt.Errorf("persist characters: %w", err)
	}

	for _, icon := range icons {
		s.uploads.DeleteURL(icon)
	}

	s.broadcaster.BroadcastCharacters(remaining)
	return deleted, nil
}

// GetSettings returns the settings document.
func (s *Service) GetSettings(_ context.Context) (domain.Settings, error) {
	return s.settings.Read(), nil
}

// UpdateSettings merges a one-level-deep patch into the settings document.
// A key outside the default schema rejects the whole patch with the store
// untouched. A changed health icon releases the old file and confirms the
// new one.
func (s *Service) UpdateSettings(_ context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	current := s.settings.Read()

	merged, err := current.Merge(patch)
	if err != nil {
		return domain.Settings{}, err
	}

	if err := s.settings.Write(merged); err != nil {
		return domain.Settings{}, fmt.Errorf("persist settings: %w", err)
	}

	// Release the old health icon only after the merged document is on disk.
	// A failed persist must not delete a file the stored settings still
	// reference.
	newIcon := merged.Overlay.HealthIconFilePath
	oldIcon := current.Overlay.HealthIconFilePath
	if newIcon != nil && *newIcon != "" {
		if oldIcon != nil && *oldIcon != "" && *oldIcon != *newIcon {
			s.uploads.DeleteURL(*oldIcon)
		}
		s.uploads.ConfirmURL(*newIcon)
	}

	s.broadcaster.BroadcastSettings(merged)
	return merged, nil
}

// GetCharacter returns one character by id.
func (s *Service) GetCharacter(_ context.Context, id string) (*domain.Character, error) {
	for _, c := range s.characters.Read() {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.ErrCharacterNotFound
}
