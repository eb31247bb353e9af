package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Themes accepted by the UI preference endpoint.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var ErrInvalidTheme = errors.New("invalid theme")

// Store persists small UI preferences to a JSON file so they survive
// restarts. Everything else in the app is in-memory only.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

func Open(path string) (*Store, error) {
	s := &Store{path: path, data: map[string]string{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read prefs file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse prefs file: %w", err)
	}
	return s, nil
}

// Theme returns the stored theme, defaulting to light.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.data["theme"]; ok {
		return t
	}
	return ThemeLight
}

// SetTheme validates and persists the theme choice.
func (s *Store) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return ErrInvalidTheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data["theme"] = theme
	return s.flush()
}

func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write prefs file: %w", err)
	}
	return nil
}
