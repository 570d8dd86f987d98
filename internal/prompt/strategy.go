package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tradelens/internal/logger"
)

// Strategy holds the user's trading-strategy rules, optionally reloading
// them when the file changes so edits apply without a restart.
type Strategy struct {
	path string

	mu   sync.RWMutex
	text string

	watcher *fsnotify.Watcher
}

// LoadStrategy reads the rules file; hotReload watches it for changes.
func LoadStrategy(path string, hotReload bool) (*Strategy, error) {
	s := &Strategy{path: path}
	if err := s.reload(); err != nil {
		return nil, err
	}
	if hotReload {
		if err := s.watch(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Rules returns the current strategy text.
func (s *Strategy) Rules() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// Close stops the watcher if one is running.
func (s *Strategy) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Strategy) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading strategy file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fmt.Errorf("strategy file %s is empty", s.path)
	}
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	return nil
}

func (s *Strategy) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("strategy watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which drops
	// the watch when set on the file itself.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("watching strategy dir: %w", err)
	}
	s.watcher = w
	go s.watchLoop()
	return nil
}

func (s *Strategy) watchLoop() {
	var lastReload time.Time
	target := filepath.Clean(s.path)
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce editor save bursts.
			if time.Since(lastReload) < 200*time.Millisecond {
				continue
			}
			lastReload = time.Now()
			if err := s.reload(); err != nil {
				logger.Warnf("strategy reload failed: %v", err)
				continue
			}
			logger.Infof("strategy rules reloaded from %s", s.path)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("strategy watcher error: %v", err)
		}
	}
}
