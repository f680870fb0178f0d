package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisgbr1el/vitalboard/internal/domain"
)

func newCharacterStore(t *testing.T) *Store[[]domain.Character] {
	t.Helper()
	path := filepath.Join(t.TempDir(), "characters.json")
	return NewStore(path, "characters", func() []domain.Character {
		return []domain.Character{}
	})
}

func TestRead_MissingFileInitializesDefault(t *testing.T) {
	store := newCharacterStore(t)

	doc := store.Read()
	assert.Empty(t, doc)

	// the default document was materialized on disk
	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestRead_MissingParentDirectoriesAreCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "settings.json")
	store := NewStore(path, "settings", domain.DefaultSettings)

	doc := store.Read()
	assert.Equal(t, domain.DefaultSettings(), doc)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRead_EmptyFileReturnsDefault(t *testing.T) {
	store := newCharacterStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("   \n"), 0o644))

	doc := store.Read()
	assert.Empty(t, doc)
}

func TestRead_CorruptFileReturnsDefault(t *testing.T) {
	store := newCharacterStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"not":"a list"`), 0o644))

	doc := store.Read()
	assert.Empty(t, doc)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	store := newCharacterStore(t)

	chars := []domain.Character{
		{ID: "1", Name: "Mira", HP: 10, MaxHP: 20},
		{ID: "2", Name: "Rook", HP: 3, MaxHP: 8, Icon: "/uploads/rook.png"},
	}
	require.NoError(t, store.Write(chars))

	got := store.Read()
	assert.Equal(t, chars, got)
}

func TestWrite_ReplacesWholeDocument(t *testing.T) {
	store := newCharacterStore(t)

	require.NoError(t, store.Write([]domain.Character{{ID: "1", Name: "Mira"}}))
	require.NoError(t, store.Write([]domain.Character{{ID: "2", Name: "Rook"}}))

	got := store.Read()
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestWrite_LeavesNoTempFile(t *testing.T) {
	store := newCharacterStore(t)
	require.NoError(t, store.Write([]domain.Character{}))

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWrite_FailsWhenParentIsAFile(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("in the way"), 0o644))

	store := NewStore(filepath.Join(blocked, "characters.json"), "characters", func() []domain.Character {
		return []domain.Character{}
	})

	err := store.Write([]domain.Character{{ID: "1", Name: "Mira"}})
	require.Error(t, err)

	// Read still serves the default document
	assert.Empty(t, store.Read())
}

func TestWrite_PrettyPrints(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.json"), "settings", domain.DefaultSettings)
	require.NoError(t, store.Write(domain.DefaultSettings()))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var doc domain.Settings
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, string(raw), "\n  ", "document should be indented for hand inspection")
}
