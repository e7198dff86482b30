package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/may1350/vibelens/internal/logger"
)

// FileStore persists keys as a single JSON object on disk and watches
// the file for external edits so a second process (or a curious user
// with a text editor) can change state underneath a running instance.
type FileStore struct {
	mu            sync.RWMutex
	values        map[string]string
	filePath      string
	watcher       *fsnotify.Watcher
	onChange      func()
	stopChan      chan struct{}
	debounceTimer *time.Timer
	suppressUntil time.Time
}

// OpenFileStore loads (or creates) the store file at filePath and
// starts watching it for external changes.
func OpenFileStore(filePath string) (*FileStore, error) {
	s := &FileStore{
		values:   make(map[string]string),
		filePath: filePath,
		stopChan: make(chan struct{}),
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	if err := s.load(); err != nil {
		if os.IsNotExist(err) {
			if err := s.save(); err != nil {
				return nil, fmt.Errorf("failed to create store file: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	return s, nil
}

// OnChange registers a callback invoked after the file is modified by
// another process and reloaded. Set it before any external writes are
// expected; there is no unregister.
func (s *FileStore) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key and persists the file.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	return nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse store file: %w", err)
	}

	s.values = values
	return nil
}

func (s *FileStore) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the store to disk (must hold lock).
func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Our own rename will fire a watcher event; ignore it.
	s.suppressUntil = time.Now().Add(500 * time.Millisecond)

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func (s *FileStore) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory (to catch file creation/deletion)
	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *FileStore) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, func() {
					s.handleFileChange()
				})
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("store watcher error", "error", err)

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the store after an external change.
func (s *FileStore) handleFileChange() {
	s.mu.Lock()
	if time.Now().Before(s.suppressUntil) {
		s.mu.Unlock()
		return
	}
	err := s.load()
	onChange := s.onChange
	s.mu.Unlock()

	if err != nil {
		logger.Error("failed to reload store after change", "error", err)
		return
	}

	if onChange != nil {
		onChange()
	}
}

// Close stops the file watcher.
func (s *FileStore) Close() error {
	close(s.stopChan)

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
