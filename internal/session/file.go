package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileSession is the on-disk shape. It mirrors what the mobile app keeps in
// its async storage: the token and the user record side by side.
type fileSession struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// FileStore persists the session as a JSON file so CLI invocations share a
// sign-in. A missing file reads as signed out.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given path. The file is only
// created on Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) load() (*fileSession, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var s fileSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if s.Token == "" {
		return nil, nil
	}
	return &s, nil
}

func (f *FileStore) Token() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.load()
	if err != nil || s == nil {
		return "", false
	}
	return s.Token, true
}

func (f *FileStore) UserID() (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.load()
	if err != nil || s == nil {
		return 0, false
	}
	return s.UserID, true
}

func (f *FileStore) Username() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.load()
	if err != nil || s == nil {
		return ""
	}
	return s.Username
}

func (f *FileStore) Set(userID int64, username, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(fileSession{
		UserID:   userID,
		Username: username,
		Token:    token,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// 0600: the file holds a bearer token.
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
