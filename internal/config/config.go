package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the config directory.
const FileName = "config.yaml"

// File holds settings read from <config dir>/config.yaml.
// Zero values mean "not set"; command line flags fill the gaps.
type File struct {
	Server  string        `yaml:"server,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Cache   *bool         `yaml:"cache,omitempty"`
}

// Settings is the effective configuration of a command.
type Settings struct {
	Dir     string
	Server  string
	Timeout time.Duration
	Cache   bool
}

// CredentialsDir is where the token store lives.
func (s Settings) CredentialsDir() string {
	return filepath.Join(s.Dir, "credentials")
}

// CacheDir is where cached report responses live.
func (s Settings) CacheDir() string {
	return filepath.Join(s.Dir, "cache")
}

// DefaultDir returns ~/.sentiview
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".sentiview"), nil
}

// Load reads the config file in dir. A missing file is an empty config.
func Load(dir string) (*File, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &f, nil
}

// Save writes the config file atomically.
func (f *File) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(dir, FileName)
	tempPath := configPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Resolve merges flags over the file over defaults. Flag values are used
// when set explicitly (non zero).
func Resolve(dir string, f *File, server string, timeout time.Duration, noCache bool) Settings {
	s := Settings{
		Dir:     dir,
		Server:  "http://localhost:8000",
		Timeout: 30 * time.Second,
		Cache:   true,
	}

	if f != nil {
		if f.Server != "" {
			s.Server = f.Server
		}
		if f.Timeout > 0 {
			s.Timeout = f.Timeout
		}
		if f.Cache != nil {
			s.Cache = *f.Cache
		}
	}

	if server != "" {
		s.Server = server
	}
	if timeout > 0 {
		s.Timeout = timeout
	}
	if noCache {
		s.Cache = false
	}

	return s
}
