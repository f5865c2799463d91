package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hmiyake/taskprefs/internal/legacy"
	"github.com/hmiyake/taskprefs/internal/model"
)

// ensureMigrated composes the legacy migration as an implicit first step into
// the store's effective value: it completes before any read, update, or
// subscription observes the record.
func (s *Store) ensureMigrated(ctx context.Context) {
	s.migrateOnce.Do(func() {
		if err := s.migrate(ctx); err != nil {
			var parseErr *legacy.ParseError
			if errors.As(err, &parseErr) {
				// Policy: a corrupt legacy value must not block the store.
				// The record has already been committed with sort order none.
				s.logger.Warnf("legacy migration fell back to %q: %v", model.SortOrderNone, parseErr)
			} else {
				s.logger.Errorf("legacy migration failed: %v", err)
			}
		}
	})
}

// migrate rewrites the record's sort order from the legacy sort_order key,
// exactly once. A record whose sort order is already specified is a no-op.
// An unparseable legacy value commits the none fallback and is reported as a
// *legacy.ParseError.
func (s *Store) migrate(ctx context.Context) error {
	s.lockMap.Lock(recordKey)
	defer s.lockMap.Unlock(recordKey)

	cur, err := s.load()
	if err != nil {
		return fmt.Errorf("load record for migration: %w", err)
	}
	if cur.SortOrder != model.SortOrderUnspecified {
		return nil
	}

	raw := legacy.DefaultSortOrderValue
	if s.legacy != nil {
		value, ok, err := s.legacy.Get(ctx, legacy.KeySortOrder)
		if err != nil {
			return fmt.Errorf("read legacy store: %w", err)
		}
		if ok {
			raw = value
		}
	}

	order, parseErr := legacy.ParseSortOrder(raw)
	if parseErr != nil {
		order = model.SortOrderNone
	}

	if _, err := s.commit(ctx, func(r model.PreferenceRecord) model.PreferenceRecord {
		r.SortOrder = order
		return r
	}); err != nil {
		return fmt.Errorf("commit migrated record: %w", err)
	}

	return parseErr
}
