package mappings

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// How often Tables() re-stats the backing file at most.
const recheckInterval = 5 * time.Second

// Store holds the active mapping tables and picks up edits to the backing
// file without an agent restart. An empty path serves the embedded
// defaults. The initial load must succeed; later reloads fall back to the
// last good tables on error.
type Store struct {
	path   string
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	tables  *Tables
	modTime time.Time
	checked time.Time
}

// NewStore loads the tables at path (or the embedded defaults when path is
// empty) and returns a store serving them.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		ttl:    recheckInterval,
		logger: logger,
	}

	var err error
	if path == "" {
		s.tables, err = LoadEmbedded()
	} else {
		s.tables, err = Load(path)
		if err == nil {
			if fi, statErr := os.Stat(path); statErr == nil {
				s.modTime = fi.ModTime()
			}
		}
	}
	if err != nil {
		return nil, err
	}
	s.checked = time.Now()
	return s, nil
}

// Tables returns the current table set. When a file path is configured it
// re-stats the file at most every recheck interval and reloads on change,
// keeping the last good tables if the new file fails to load.
func (s *Store) Tables() *Tables {
	s.mu.RLock()
	if s.path == "" || time.Since(s.checked) < s.ttl {
		t := s.tables
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	return s.refresh()
}

func (s *Store) refresh() *Tables {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.checked) < s.ttl {
		return s.tables
	}
	s.checked = time.Now()

	fi, err := os.Stat(s.path)
	if err != nil {
		s.logger.Warn("stat mapping tables failed, keeping loaded tables", "path", s.path, "error", err)
		return s.tables
	}
	if fi.ModTime().Equal(s.modTime) {
		return s.tables
	}

	t, err := Load(s.path)
	if err != nil {
		// modTime stays untouched so the next check retries
		s.logger.Warn("reload mapping tables failed, keeping loaded tables", "path", s.path, "error", err)
		return s.tables
	}

	s.modTime = fi.ModTime()
	s.tables = t
	s.logger.Info("mapping tables reloaded",
		"path", s.path,
		"identities", len(t.MHID),
		"sequences", len(t.Sequences))
	return t
}

// Reload forces a reload regardless of file modification time. Unlike the
// passive refresh in Tables, a failed forced reload is reported to the
// caller; the store keeps serving the previous tables either way.
func (s *Store) Reload() (*Tables, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		t   *Tables
		err error
	)
	if s.path == "" {
		t, err = LoadEmbedded()
	} else {
		t, err = Load(s.path)
	}
	if err != nil {
		return nil, err
	}

	if s.path != "" {
		if fi, statErr := os.Stat(s.path); statErr == nil {
			s.modTime = fi.ModTime()
		}
	}
	s.checked = time.Now()
	s.tables = t
	return t, nil
}
