// Package settings persists the player's preferences. Today that is a
// single flag recording whether the welcome screen has been dismissed.
package settings

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danielnylander/minnet/internal/jsonfile"
)

// Settings is the persisted preference document.
type Settings struct {
	WelcomeShown bool `json:"welcome_shown"`
}

// Store keeps Settings in memory and mirrors every change to disk.
type Store struct {
	mu   sync.RWMutex
	path string
	cur  Settings
}

// Open reads path; missing or unreadable files give default settings.
func Open(path string) *Store {
	s := &Store{path: path}
	if err := jsonfile.Read(path, &s.cur); err != nil {
		if !jsonfile.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("settings unreadable, using defaults")
		}
		s.cur = Settings{}
	}
	return s
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Put replaces the settings and writes them out. The in-memory value is
// updated even if the write fails.
func (s *Store) Put(v Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = v
	return jsonfile.Write(s.path, v)
}
