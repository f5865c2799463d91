// Package store owns the durable preference record: point reads, serialized
// read-modify-write updates, a live stream of committed values, and the
// one-time migration from the legacy flat key-value store.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/hmiyake/taskprefs/internal/events"
	"github.com/hmiyake/taskprefs/internal/legacy"
	"github.com/hmiyake/taskprefs/internal/lock"
	"github.com/hmiyake/taskprefs/internal/logging"
	"github.com/hmiyake/taskprefs/internal/model"
	yamlutil "github.com/hmiyake/taskprefs/internal/yaml"
)

// recordKey serializes every read-modify-write cycle on the single record.
const recordKey = "preferences"

// Store is the sole owner of the persisted preference record. All mutation
// goes through UpdateAtomically; no other locking is required or permitted.
type Store struct {
	workspaceDir string
	legacy       legacy.Source
	logger       *logging.Logger

	lockMap *lock.MutexMap
	feed    *events.Feed[model.PreferenceRecord]
	sf      singleflight.Group

	migrateOnce sync.Once
}

// New creates a store rooted at workspaceDir. legacySrc may be nil when no
// legacy installation exists. The caller keeps exactly one Store per record;
// the composition root enforces that, not the store itself.
func New(workspaceDir string, legacySrc legacy.Source, logger *logging.Logger) *Store {
	return &Store{
		workspaceDir: workspaceDir,
		legacy:       legacySrc,
		logger:       logger,
		lockMap:      lock.NewMutexMap(),
		feed:         events.NewFeed[model.PreferenceRecord](),
	}
}

// Path returns the location of the durable blob.
func (s *Store) Path() string {
	return filepath.Join(s.workspaceDir, "prefs", "preferences.yaml")
}

// Read returns the current persisted record. Missing or corrupt bytes degrade
// to the default record; only unexpected I/O failures surface as errors.
// Concurrent reads collapse into a single disk load.
func (s *Store) Read(ctx context.Context) (model.PreferenceRecord, error) {
	s.ensureMigrated(ctx)

	v, err, _ := s.sf.Do(recordKey, func() (any, error) {
		return s.load()
	})
	if err != nil {
		return model.DefaultPreferenceRecord(), err
	}
	return v.(model.PreferenceRecord), nil
}

// UpdateAtomically loads the current record, applies transform, and persists
// the result as one indivisible unit with respect to other updates. Sequential
// calls from one goroutine apply in issuance order; concurrent callers
// serialize without lost updates. A context cancelled before commit leaves the
// blob unmodified.
func (s *Store) UpdateAtomically(ctx context.Context, transform func(model.PreferenceRecord) model.PreferenceRecord) (model.PreferenceRecord, error) {
	s.ensureMigrated(ctx)

	s.lockMap.Lock(recordKey)
	defer s.lockMap.Unlock(recordKey)
	return s.commit(ctx, transform)
}

// Subscribe returns a channel that carries the current record immediately and
// every committed value thereafter. The stream never fails: a degraded read
// yields the default record. The returned func unsubscribes.
func (s *Store) Subscribe(ctx context.Context) (<-chan model.PreferenceRecord, func()) {
	s.ensureMigrated(ctx)

	if _, ok := s.feed.Latest(); !ok {
		rec, err := s.Read(ctx)
		if err != nil {
			s.logger.Warnf("preference read degraded to defaults: %v", err)
			rec = model.DefaultPreferenceRecord()
		}
		s.feed.Prime(rec)
	}
	return s.feed.Subscribe()
}

// Close tears down the stream. The durable record is left as committed.
func (s *Store) Close() {
	s.feed.Close()
}

// commit runs one read-modify-write cycle. Caller holds the record lock.
func (s *Store) commit(ctx context.Context, transform func(model.PreferenceRecord) model.PreferenceRecord) (model.PreferenceRecord, error) {
	cur, err := s.load()
	if err != nil {
		return model.PreferenceRecord{}, err
	}

	// Cancellation point: nothing has been written yet.
	if err := ctx.Err(); err != nil {
		return model.PreferenceRecord{}, err
	}

	next := transform(cur)
	next.SchemaVersion = model.CurrentSchemaVersion
	next.FileType = model.FileTypePreferences
	if next.Counter < 0 {
		return model.PreferenceRecord{}, fmt.Errorf("transform produced negative counter %d", next.Counter)
	}
	if !next.SortOrder.Valid() {
		return model.PreferenceRecord{}, fmt.Errorf("transform produced invalid sort order %q", next.SortOrder)
	}
	next.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(s.Path()), 0755); err != nil {
		return model.PreferenceRecord{}, fmt.Errorf("create prefs dir: %w", err)
	}
	if err := yamlutil.AtomicWrite(s.Path(), &next); err != nil {
		return model.PreferenceRecord{}, fmt.Errorf("persist preferences: %w", err)
	}

	s.feed.Publish(next)
	return next, nil
}

// load reads the blob from disk. A missing file yields the defaults; corrupt
// bytes are quarantined and recovered (backup, then skeleton) before
// degrading to defaults.
func (s *Store) load() (model.PreferenceRecord, error) {
	content, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return model.DefaultPreferenceRecord(), nil
	}
	if err != nil {
		return model.DefaultPreferenceRecord(), fmt.Errorf("read preferences: %w", err)
	}

	rec, err := decode(content)
	if err != nil {
		return s.recoverCorrupt(err)
	}
	return rec, nil
}

func decode(content []byte) (model.PreferenceRecord, error) {
	if err := yamlutil.ValidateSchemaHeaderFromBytes(content, model.FileTypePreferences); err != nil {
		return model.PreferenceRecord{}, err
	}
	var rec model.PreferenceRecord
	if err := yamlv3.Unmarshal(content, &rec); err != nil {
		return model.PreferenceRecord{}, err
	}
	return rec, nil
}

func (s *Store) recoverCorrupt(cause error) (model.PreferenceRecord, error) {
	s.logger.Warnf("preferences file corrupt: %v", cause)

	if err := yamlutil.RecoverCorruptedFile(s.workspaceDir, s.Path(), model.FileTypePreferences); err != nil {
		s.logger.Errorf("recover preferences: %v", err)
		return model.DefaultPreferenceRecord(), nil
	}

	// One reload attempt; a still-unreadable file degrades to defaults.
	content, err := os.ReadFile(s.Path())
	if err != nil {
		return model.DefaultPreferenceRecord(), nil
	}
	rec, err := decode(content)
	if err != nil {
		s.logger.Warnf("recovered preferences still unreadable, using defaults: %v", err)
		return model.DefaultPreferenceRecord(), nil
	}
	return rec, nil
}
