package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/repo"
)

// SettingsPatch is a partial settings update. Nil fields are left as is.
type SettingsPatch struct {
	Theme              *string `json:"theme,omitempty"`
	Notifications      *bool   `json:"notifications,omitempty"`
	EmailNotifications *bool   `json:"emailNotifications,omitempty"`
	Language           *string `json:"language,omitempty"`
}

// SettingsService reads and updates the preferences singleton.
type SettingsService struct {
	Store *repo.Store
}

// Get returns the stored settings or the defaults.
func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	return s.Store.Settings.Get(ctx)
}

// Update validates p and merges it over the current settings.
func (s *SettingsService) Update(ctx context.Context, p SettingsPatch) (domain.Settings, error) {
	var theme domain.Theme
	if p.Theme != nil {
		theme = domain.Theme(strings.ToLower(strings.TrimSpace(*p.Theme)))
		if !theme.Valid() {
			return domain.Settings{}, fmt.Errorf("%w %q", ErrInvalidTheme, *p.Theme)
		}
	}
	var lang string
	if p.Language != nil {
		tag, err := parseLanguage(*p.Language)
		if err != nil {
			return domain.Settings{}, err
		}
		lang = tag
	}
	return s.Store.Settings.Update(ctx, func(cur *domain.Settings) {
		if p.Theme != nil {
			cur.Theme = theme
		}
		if p.Notifications != nil {
			cur.Notifications = *p.Notifications
		}
		if p.EmailNotifications != nil {
			cur.EmailNotifications = *p.EmailNotifications
		}
		if p.Language != nil {
			cur.Language = lang
		}
	})
}

// parseLanguage canonicalizes a BCP 47 tag. Empty means "en".
func parseLanguage(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "en", nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w %q", ErrInvalidLanguage, raw)
	}
	return tag.String(), nil
}
