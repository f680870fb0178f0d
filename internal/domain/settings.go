package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// GeneralSettings holds non-display configuration.
type GeneralSettings struct {
	Language string `json:"language"`
}

// OverlaySettings controls how overlay pages render. Field names match the
// persisted document; health_icon_file_path is null when no shared icon is set.
type OverlaySettings struct {
	ShowIcon           bool    `json:"show_icon"`
	ShowCharacterIcon  bool    `json:"show_character_icon"`
	ShowHealth         bool    `json:"show_health"`
	ShowName           bool    `json:"show_name"`
	FontSize           int     `json:"font_size"`
	FontFamily         string  `json:"font_family"`
	FontColor          string  `json:"font_color"`
	IconsSize          int     `json:"icons_size"`
	CharacterIconSize  int     `json:"character_icon_size"`
	HealthIconFilePath *string `json:"health_icon_file_path"`
}

// Settings is the whole persisted settings document.
type Settings struct {
	General GeneralSettings `json:"general"`
	Overlay OverlaySettings `json:"overlay"`
}

// DefaultSettings returns the document written on first run.
func DefaultSettings() Settings {
	return Settings{
		General: GeneralSettings{Language: "en-US"},
		Overlay: OverlaySettings{
			ShowIcon:          true,
			ShowCharacterIcon: true,
			ShowHealth:        true,
			ShowName:          true,
			FontSize:          14,
			FontFamily:        "Arial",
			FontColor:         "#000000",
			IconsSize:         64,
			CharacterIconSize: 170,
		},
	}
}

// SettingsPatch is a partial settings document keyed by top-level group.
type SettingsPatch map[string]json.RawMessage

// Merge applies the patch one level deep: group objects merge key-wise into
// the existing group, so omitted keys keep their current values. A key
// outside the default schema rejects the whole patch.
func (s Settings) Merge(patch SettingsPatch) (Settings, error) {
	merged := s
	for key, raw := range patch {
		switch key {
		case "general":
			if err := json.Unmarshal(raw, &merged.General); err != nil {
				return s, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
			}
		case "overlay":
			if err := json.Unmarshal(raw, &merged.Overlay); err != nil {
				return s, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
			}
		default:
			return s, &UnknownSettingError{Key: key}
		}
	}
	return merged, nil
}

// SettingsService is the settings surface used by handlers and the overlay.
type SettingsService interface {
	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error)
}
