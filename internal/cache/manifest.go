package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thomasaiwilcox/strictswift/internal/fileproc"
)

// Manifest records the content fingerprint of every analyzed file so the next
// run can tell which files were added, modified, or removed.
type Manifest struct {
	Generated    time.Time         `json:"generated"`
	Fingerprints map[string]string `json:"fingerprints"`
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Fingerprints: make(map[string]string)}
}

// LoadManifest reads a manifest from disk. A missing file yields an empty
// manifest, so first runs treat every file as added.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Fingerprints == nil {
		m.Fingerprints = make(map[string]string)
	}
	return &m, nil
}

// Save writes the manifest to disk, creating parent directories as needed.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	m.Generated = time.Now()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Snapshot fingerprints the given files in parallel and returns a fresh
// manifest. Unreadable files are left out.
func Snapshot(files []string) *Manifest {
	type fp struct {
		path string
		hash string
	}

	var mu sync.Mutex
	m := NewManifest()
	fileproc.ForEachFile(files, func(path string) (fp, error) {
		hash, err := HashFile(path)
		if err != nil {
			return fp{}, err
		}
		mu.Lock()
		m.Fingerprints[path] = hash
		mu.Unlock()
		return fp{path: path, hash: hash}, nil
	})
	return m
}

// Digest returns a single fingerprint over the whole manifest, stable across
// map iteration order. Two manifests with the same files and hashes digest
// identically.
func (m *Manifest) Digest() string {
	paths := make([]string, 0, len(m.Fingerprints))
	for path := range m.Fingerprints {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var buf strings.Builder
	for _, path := range paths {
		buf.WriteString(path)
		buf.WriteByte(0)
		buf.WriteString(m.Fingerprints[path])
		buf.WriteByte(0)
	}
	return HashBytes([]byte(buf.String()))
}

// Diff compares this manifest against a newer snapshot and returns the paths
// that were added, modified, and removed, each sorted.
func (m *Manifest) Diff(next *Manifest) (added, modified, removed []string) {
	for path, hash := range next.Fingerprints {
		prev, ok := m.Fingerprints[path]
		switch {
		case !ok:
			added = append(added, path)
		case prev != hash:
			modified = append(modified, path)
		}
	}
	for path := range m.Fingerprints {
		if _, ok := next.Fingerprints[path]; !ok {
			removed = append(removed, path)
		}
	}

	sort.Strings(added)
	sort.Strings(modified)
	sort.Strings(removed)
	return added, modified, removed
}

// Changed fingerprints the given files and diffs them against this manifest.
func (m *Manifest) Changed(files []string) (added, modified, removed []string) {
	return m.Diff(Snapshot(files))
}
