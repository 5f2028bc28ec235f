package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// SecretStore is a read-only name to value mapping. Lookup must not fail.
type SecretStore interface {
	Lookup(name string) (string, bool)
}

type MapStore map[string]string

func (m MapStore) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// FileStore serves top-level string values of a secrets.toml file.
// A missing or malformed file behaves as an empty store.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu     sync.RWMutex
	values map[string]string
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{path: path, logger: logger}
	if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("secrets file unusable, treating as empty", zap.String("path", path), zap.Error(err))
	}
	return s
}

func (s *FileStore) Lookup(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Len reports how many string secrets are loaded. Values are never exposed in bulk.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Reload re-reads the file. On a missing file the store becomes empty; on a parse
// error the previous snapshot is kept.
func (s *FileStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.swap(nil)
		}
		return err
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if str, ok := v.(string); ok {
			values[k] = str
		}
	}
	s.swap(values)
	return nil
}

func (s *FileStore) swap(values map[string]string) {
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
}

// Watch reloads the store whenever the file changes, until ctx is done.
// The parent directory is watched so editors that replace the file still trigger.
func (s *FileStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
					s.logger.Warn("secrets reload failed, keeping previous values", zap.String("path", s.path), zap.Error(err))
					continue
				}
				s.logger.Info("secrets reloaded", zap.String("path", s.path), zap.String("op", event.Op.String()), zap.Int("count", s.Len()))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("secrets watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
