// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists the login session between CLI invocations.
//
// The stored blob is versioned as a whole: when the schema changes,
// ConfigVersion is bumped and any file written under an older version
// is discarded on load, forcing a fresh login. Partial migration of
// old blobs is deliberately not attempted.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hearth-chat/hearth/lib/ref"
)

// ConfigVersion is the schema version of SessionConfig. Bump on any
// incompatible change to the stored fields.
const ConfigVersion = 1

// SessionConfig is the persisted login state: where the home-server
// is, who we are, and the token proving it. Profile fields are a
// cache for display only; the server copy is authoritative.
type SessionConfig struct {
	Version           int        `json:"version"`
	HomeserverURL     string     `json:"homeserver_url"`
	IdentityServerURL string     `json:"identity_server_url,omitempty"`
	UserID            ref.UserID `json:"user_id"`
	AccessToken       string     `json:"access_token"`
	DisplayName       string     `json:"display_name,omitempty"`
	AvatarURL         string     `json:"avatar_url,omitempty"`
	EmailList         []string   `json:"email_list,omitempty"`
}

// Repository loads and saves the session config.
type Repository interface {
	// Load returns the stored config. ok is false when no usable
	// config exists — never written, cleared, or written under a
	// different schema version. err reports I/O or corruption only.
	Load() (config SessionConfig, ok bool, err error)

	// Save persists the config, stamping the current ConfigVersion.
	Save(config SessionConfig) error

	// Clear removes the stored config. Clearing an absent config is
	// not an error.
	Clear() error
}

// FileRepository stores the session config as a single JSON file,
// mode 0600 (it contains the access token). Writes are atomic:
// temp file in the same directory, then rename.
type FileRepository struct {
	path   string
	logger *slog.Logger
}

// NewFileRepository creates a repository backed by the given file
// path. The parent directory is created on first Save.
func NewFileRepository(path string, logger *slog.Logger) *FileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileRepository{path: path, logger: logger}
}

// Path returns the backing file path.
func (r *FileRepository) Path() string {
	return r.path
}

func (r *FileRepository) Load() (SessionConfig, bool, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return SessionConfig{}, false, nil
	}
	if err != nil {
		return SessionConfig{}, false, fmt.Errorf("store: reading session file: %w", err)
	}

	var config SessionConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return SessionConfig{}, false, fmt.Errorf("store: corrupt session file %s: %w", r.path, err)
	}

	if config.Version != ConfigVersion {
		// Old or future schema: the whole blob is untrusted. Treat as
		// absent so the caller prompts for a fresh login.
		r.logger.Warn("discarding session file with mismatched version",
			"path", r.path,
			"found", config.Version,
			"want", ConfigVersion,
		)
		return SessionConfig{}, false, nil
	}

	return config, true, nil
}

func (r *FileRepository) Save(config SessionConfig) error {
	config.Version = ConfigVersion

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encoding session config: %w", err)
	}

	directory := filepath.Dir(r.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("store: creating state directory: %w", err)
	}

	// Write-then-rename so a crash never leaves a truncated session
	// file. The temp file lives in the target directory: rename must
	// not cross filesystems.
	temp, err := os.CreateTemp(directory, ".session-*.json")
	if err != nil {
		return fmt.Errorf("store: creating temp file: %w", err)
	}
	tempName := temp.Name()
	defer os.Remove(tempName)

	if err := temp.Chmod(0o600); err != nil {
		temp.Close()
		return fmt.Errorf("store: restricting temp file mode: %w", err)
	}
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		return fmt.Errorf("store: writing session config: %w", err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("store: closing temp file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("store: replacing session file: %w", err)
	}
	return nil
}

func (r *FileRepository) Clear() error {
	err := os.Remove(r.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: removing session file: %w", err)
	}
	return nil
}
