package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CacheEntry is the persisted pointer to the latest pinned snapshot. It is the
// first place the dashboard reconciler looks before querying the database.
type CacheEntry struct {
	IPFSHash   string `json:"ipfsHash"`
	IPFSURL    string `json:"ipfsUrl"`
	Stats      Stats  `json:"stats"`
	Timestamp  string `json:"timestamp"`
	Generation int64  `json:"generation"`
}

// SnapshotStore persists the latest-snapshot pointer. Save overwrites the
// previous entry; there is no history, the pinned snapshots themselves are the
// history.
type SnapshotStore interface {
	Save(entry *CacheEntry) error
	Latest() (*CacheEntry, bool)
}

// FileSnapshotStore keeps the pointer in a single JSON file on disk so it
// survives restarts.
type FileSnapshotStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSnapshotStore creates a file-backed store at path.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Save writes the entry, stamping it with the next generation number so a
// reader can tell which of two pointers is newer even when timestamps collide.
func (s *FileSnapshotStore) Save(entry *CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Generation = 1
	if prev, ok := s.load(); ok {
		entry.Generation = prev.Generation + 1
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot cache directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot cache: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot cache: %w", err)
	}
	return nil
}

// Latest returns the cached pointer. A missing or unreadable file is treated
// as an empty cache, not an error.
func (s *FileSnapshotStore) Latest() (*CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileSnapshotStore) load() (*CacheEntry, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.IPFSHash == "" {
		return nil, false
	}
	return &entry, true
}

// MemorySnapshotStore is an in-process store used in tests and when no cache
// file is configured.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	entry *CacheEntry
}

// NewMemorySnapshotStore creates an empty in-memory store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// Save overwrites the stored pointer.
func (s *MemorySnapshotStore) Save(entry *CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Generation = 1
	if s.entry != nil {
		entry.Generation = s.entry.Generation + 1
	}
	copied := *entry
	s.entry = &copied
	return nil
}

// Latest returns the stored pointer.
func (s *MemorySnapshotStore) Latest() (*CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return nil, false
	}
	copied := *s.entry
	return &copied, true
}
