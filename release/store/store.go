// Package store persists release analysis snapshots between runs, letting a
// repeat run recover episode dates of files that are no longer on disk.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/castforge-project/castforge/internal/errors"
	"github.com/castforge-project/castforge/release/analyze"
	ksync "github.com/castforge-project/castforge/release/internal/sync"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Store is a JSON-file-backed collection of release snapshots.
type Store struct {
	path       string
	oldPath    string
	pathParent string
	logger     *zap.Logger

	mu  gosync.Mutex
	kmu ksync.KMutex

	releases map[string]*Snapshot
}

// Snapshot is one persisted release analysis.
type Snapshot struct {
	// Name is the cleaned release name.
	Name string `json:"name"`
	// Analysis is the last aggregated file analysis.
	Analysis *analyze.Analysis `json:"analysis,omitempty"`
	// TrueFirstEpisodeDate is the earliest episode date ever seen for this release.
	TrueFirstEpisodeDate string `json:"true_first_episode_date,omitempty"`
	// TrueLastEpisodeDate is the latest episode date ever seen for this release.
	TrueLastEpisodeDate string `json:"true_last_episode_date,omitempty"`
	// UpdatedAt is the time of the last snapshot write.
	UpdatedAt time.Time `json:"updated_at"`
}

// index is the JSON document layout of the store file.
type index struct {
	Releases map[string]*Snapshot `json:"releases"`
}

// Open loads a store from path, starting empty when the file does not exist yet.
func Open(path string, logger *zap.Logger) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	var (
		dirPath  = filepath.Dir(absPath)
		fileName = filepath.Base(absPath)
	)
	s := &Store{
		path:       absPath,
		oldPath:    filepath.Join(dirPath, fileName+".old"),
		pathParent: dirPath,
		logger:     logger,
		releases:   make(map[string]*Snapshot),
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Get returns the snapshot for a release ID, nil when unknown.
// The returned snapshot must be treated as read-only.
func (s *Store) Get(id string) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.releases[id]
}

// Put stores a snapshot for a release ID and saves the store.
func (s *Store) Put(id string, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.UpdatedAt = time.Now()
	s.releases[id] = snap

	return s.save()
}

// Delete removes the snapshot for a release ID and saves the store.
// Deleting an unknown ID is a no-op.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.releases[id]; !ok {
		return nil
	}
	delete(s.releases, id)

	return s.save()
}

// Update applies a read-modify-write of one release's snapshot, serialized
// per release ID so concurrent updates of different releases don't clobber
// each other's reads.
func (s *Store) Update(id string, apply func(snap *Snapshot) *Snapshot) error {
	return s.kmu.Do(id, func() error {
		return s.Put(id, apply(s.Get(id)))
	})
}

// IDs returns the known release IDs, sorted.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := maps.Keys(s.releases)
	slices.Sort(ids)

	return ids
}

func (s *Store) load() error {
	if s.logger != nil {
		loadTime := time.Now()
		defer func() {
			s.logger.Info(
				"finished store load",
				zap.String("path", s.path),
				zap.Int64("elapsed_ms", time.Since(loadTime).Milliseconds()),
			)
		}()
	}

	bytes, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return errors.Wrap(err, "failed to read store")
	}

	var ix index
	if err := json.Unmarshal(bytes, &ix); err != nil {
		return errors.Wrap(err, "failed to unmarshal store")
	}
	if ix.Releases != nil {
		s.releases = ix.Releases
	}

	return nil
}

// save writes the store file, keeping the previous contents in a ".old" copy.
// Callers must hold mu.
func (s *Store) save() error {
	if s.logger != nil {
		saveTime := time.Now()
		defer func() {
			s.logger.Info(
				"finished store save",
				zap.String("path", s.path),
				zap.Int64("elapsed_ms", time.Since(saveTime).Milliseconds()),
			)
		}()
	}

	bytes, err := json.Marshal(&index{Releases: s.releases})
	if err != nil {
		return errors.Wrap(err, "failed to marshal store")
	}

	if err := os.MkdirAll(s.pathParent, 0o755); err != nil {
		return errors.Wrap(err, "failed to make directories")
	}
	if err := s.copyOld(); err != nil {
		return errors.Wrap(err, "failed to copy old store file")
	}
	if err := os.WriteFile(s.path, bytes, 0o644); err != nil {
		return errors.Wrap(err, "failed to write store")
	}

	return nil
}

func (s *Store) copyOld() error {
	bytes, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	return os.WriteFile(s.oldPath, bytes, 0o644)
}
