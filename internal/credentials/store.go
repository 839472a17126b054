package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TokenFile is the fixed name the bearer token is persisted under.
const TokenFile = "token.json"

// TokenStore persists exactly one bearer token.
type TokenStore interface {
	// Save writes the token, replacing any previous value.
	Save(token string) error
	// Read returns the stored token and true, or false if nothing is stored.
	Read() (string, bool, error)
	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear() error
}

var (
	_ TokenStore = (*FileStore)(nil)
	_ TokenStore = (*MemoryStore)(nil)
)

// storedToken is the on-disk layout of the token file.
type storedToken struct {
	Version   int       `json:"version"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore keeps the token in a file inside a private directory.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a token store rooted at baseDir.
// If baseDir is empty, uses ~/.sentiview/credentials/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".sentiview", "credentials")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("token store initialized")

	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the location of the token file.
func (s *FileStore) Path() string {
	return filepath.Join(s.baseDir, TokenFile)
}

// Save writes the token file atomically.
func (s *FileStore) Save(token string) error {
	data, err := json.MarshalIndent(storedToken{
		Version:   1,
		Token:     token,
		UpdatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	tokenPath := s.Path()
	tempPath := tokenPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}

	if err := os.Rename(tempPath, tokenPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save token: %w", err)
	}

	log.Debug().Str("fingerprint", Fingerprint(token)).Msg("token saved")

	return nil
}

// Read loads the token file. A missing or empty file means no token.
func (s *FileStore) Read() (string, bool, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read token: %w", err)
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return "", false, fmt.Errorf("failed to parse token file: %w", err)
	}

	if stored.Token == "" {
		return "", false, nil
	}

	return stored.Token, true, nil
}

// Clear removes the token file.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	log.Debug().Msg("token cleared")

	return nil
}

// MemoryStore keeps the token in memory for the life of the process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Read() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
