package config

import "sync"

// Store is the shared, synchronized view of the configuration. The API layer
// replaces the configuration while checks are in flight, so checks read a
// snapshot and never see a half-updated struct.
type Store struct {
	mu   sync.RWMutex
	cfg  Config
	path string
}

// NewStore wraps a loaded configuration. path is where Replace persists.
func NewStore(cfg *Config, path string) *Store {
	return &Store{cfg: *cfg, path: path}
}

// Snapshot returns a copy of the current configuration. A check holds one
// snapshot for its whole run, so all its paths come from the same version.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	cfg.MailRecipients = append([]string(nil), s.cfg.MailRecipients...)
	return cfg
}

// Replace filters the recipient list, persists the new configuration, and
// swaps it in. Nothing is swapped if persisting fails.
func (s *Store) Replace(cfg Config) error {
	cfg.MailRecipients = FilterRecipients(cfg.MailRecipients)
	if err := cfg.Save(s.path); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Path returns the config file location.
func (s *Store) Path() string { return s.path }
