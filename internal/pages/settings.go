package pages

import (
	"errors"

	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/theme"
)

// SettingsView backs the settings pages.
type SettingsView struct {
	Current theme.Theme
	Light   []theme.Theme
	Dark    []theme.Theme
}

// Settings lists the theme catalog with the persisted selection.
func (s *Service) Settings(kv theme.KV) SettingsView {
	return SettingsView{
		Current: theme.NewStore(kv).Current(),
		Light:   theme.ByKind(theme.KindLight),
		Dark:    theme.ByKind(theme.KindDark),
	}
}

// ChangeTheme persists a theme selection. It makes no backend call.
func (s *Service) ChangeTheme(kv theme.KV, name string) Outcome {
	t, err := theme.NewStore(kv).Set(name)
	if err != nil {
		if errors.Is(err, theme.ErrUnknownTheme) {
			return Outcome{Fields: forms.FieldErrors{"theme": "Unknown theme"}, Err: err}
		}
		return Outcome{Notice: Notice{Kind: NoticeError, Message: "Failed to change theme"}, Err: err}
	}
	return Outcome{Notice: Notice{Kind: NoticeSuccess, Message: "Theme changed to " + t.Label}}
}
