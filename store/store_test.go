// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hearth-chat/hearth/lib/ref"
)

func testRepository(t *testing.T) *FileRepository {
	t.Helper()
	return NewFileRepository(filepath.Join(t.TempDir(), "state", "session.json"), nil)
}

func testConfig() SessionConfig {
	return SessionConfig{
		HomeserverURL: "http://localhost:8080",
		UserID:        ref.MustParseUserID("@alice:example.com"),
		AccessToken:   "tok_secret",
		DisplayName:   "Alice",
		EmailList:     []string{"alice@example.com"},
	}
}

func TestSaveAndLoad(t *testing.T) {
	repository := testRepository(t)

	if err := repository.Save(testConfig()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, ok, err := repository.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok {
		t.Fatal("Load reported no config after Save")
	}
	if loaded.Version != ConfigVersion {
		t.Errorf("Version = %d, want %d", loaded.Version, ConfigVersion)
	}
	if loaded.UserID.String() != "@alice:example.com" {
		t.Errorf("UserID = %q", loaded.UserID)
	}
	if loaded.AccessToken != "tok_secret" {
		t.Errorf("AccessToken = %q", loaded.AccessToken)
	}
	if len(loaded.EmailList) != 1 || loaded.EmailList[0] != "alice@example.com" {
		t.Errorf("EmailList = %v", loaded.EmailList)
	}
}

func TestLoadAbsent(t *testing.T) {
	repository := testRepository(t)

	_, ok, err := repository.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("Load reported a config that was never saved")
	}
}

func TestVersionMismatchDiscardsBlob(t *testing.T) {
	repository := testRepository(t)
	if err := repository.Save(testConfig()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Rewrite the file under a stale version.
	data, err := os.ReadFile(repository.Path())
	if err != nil {
		t.Fatalf("reading session file: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decoding session file: %v", err)
	}
	raw["version"] = ConfigVersion + 1
	stale, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("encoding stale file: %v", err)
	}
	if err := os.WriteFile(repository.Path(), stale, 0o600); err != nil {
		t.Fatalf("writing stale file: %v", err)
	}

	_, ok, err := repository.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("Load accepted a config with a mismatched version")
	}
}

func TestCorruptFileReportsError(t *testing.T) {
	repository := testRepository(t)
	if err := os.MkdirAll(filepath.Dir(repository.Path()), 0o700); err != nil {
		t.Fatalf("creating state dir: %v", err)
	}
	if err := os.WriteFile(repository.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	_, _, err := repository.Load()
	if err == nil {
		t.Error("Load accepted a corrupt session file")
	}
}

func TestSaveStampsVersionAndMode(t *testing.T) {
	repository := testRepository(t)

	config := testConfig()
	config.Version = 999 // callers cannot override the stamp
	if err := repository.Save(config); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(repository.Path())
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("file mode = %o, want 0600", mode)
	}

	loaded, ok, err := repository.Load()
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if loaded.Version != ConfigVersion {
		t.Errorf("Version = %d, want %d", loaded.Version, ConfigVersion)
	}
}

func TestClear(t *testing.T) {
	repository := testRepository(t)
	if err := repository.Save(testConfig()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := repository.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := repository.Load(); ok {
		t.Error("config still present after Clear")
	}

	// Clearing twice is fine.
	if err := repository.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}
