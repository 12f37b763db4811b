// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// manifestFileName is the build manifest inside the cache directory.
const manifestFileName = "builds.toml"

type (
	// Manifest records which node fingerprints have been built and under
	// which tag. It survives invocations, so an unchanged target is
	// recognized without re-running the backend, as long as the tagged
	// image still exists.
	Manifest struct {
		mu      sync.Mutex
		path    string
		Entries map[string]ManifestEntry `toml:"images"`
	}

	// ManifestEntry is one built image keyed by node fingerprint.
	ManifestEntry struct {
		Tag     string    `toml:"tag"`
		Fact    string    `toml:"fact"`
		BuiltAt time.Time `toml:"built_at"`
	}
)

// LoadManifest reads the manifest from cacheDir, returning an empty one
// when the file does not exist yet.
func LoadManifest(cacheDir string) (*Manifest, error) {
	m := &Manifest{
		path:    filepath.Join(cacheDir, manifestFileName),
		Entries: make(map[string]ManifestEntry),
	}
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read build manifest: %w", err)
	}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse build manifest %s: %w", m.path, err)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]ManifestEntry)
	}
	return m, nil
}

// Lookup returns the entry for a fingerprint, if any.
func (m *Manifest) Lookup(fingerprint string) (ManifestEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Entries[fingerprint]
	return e, ok
}

// Record stores a fresh build under its fingerprint.
func (m *Manifest) Record(fingerprint string, e ManifestEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[fingerprint] = e
}

// Save writes the manifest back to disk, creating the cache directory if
// needed.
func (m *Manifest) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode build manifest: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write build manifest: %w", err)
	}
	return nil
}
