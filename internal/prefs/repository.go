// Package prefs is the typed façade over the preference store. Every
// operation is a single transactional update computed from the record read
// inside that update, never from a cached value.
package prefs

import (
	"context"

	"github.com/hmiyake/taskprefs/internal/model"
	"github.com/hmiyake/taskprefs/internal/store"
)

type Repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

// SetShowCompleted sets the show-completed flag, leaving other fields unchanged.
func (r *Repository) SetShowCompleted(ctx context.Context, completed bool) error {
	_, err := r.store.UpdateAtomically(ctx, func(rec model.PreferenceRecord) model.PreferenceRecord {
		rec.ShowCompleted = completed
		return rec
	})
	return err
}

// IncrementCounter adds one to the counter.
func (r *Repository) IncrementCounter(ctx context.Context) error {
	_, err := r.store.UpdateAtomically(ctx, func(rec model.PreferenceRecord) model.PreferenceRecord {
		rec.Counter++
		return rec
	})
	return err
}

// EnableSortByDeadline switches the deadline component of the sort order on
// or off, preserving the priority component.
func (r *Repository) EnableSortByDeadline(ctx context.Context, enable bool) error {
	_, err := r.store.UpdateAtomically(ctx, func(rec model.PreferenceRecord) model.PreferenceRecord {
		rec.SortOrder = rec.SortOrder.WithDeadline(enable)
		return rec
	})
	return err
}

// EnableSortByPriority switches the priority component of the sort order on
// or off, preserving the deadline component.
func (r *Repository) EnableSortByPriority(ctx context.Context, enable bool) error {
	_, err := r.store.UpdateAtomically(ctx, func(rec model.PreferenceRecord) model.PreferenceRecord {
		rec.SortOrder = rec.SortOrder.WithPriority(enable)
		return rec
	})
	return err
}

// Current returns a point-in-time copy of the record, substituting the
// defaults when the read degrades.
func (r *Repository) Current(ctx context.Context) model.PreferenceRecord {
	rec, err := r.store.Read(ctx)
	if err != nil {
		return model.DefaultPreferenceRecord()
	}
	return rec
}

// Watch exposes the store's stream unmodified; the store already substitutes
// the default record on read failure, so subscribers never see an error.
func (r *Repository) Watch(ctx context.Context) (<-chan model.PreferenceRecord, func()) {
	return r.store.Subscribe(ctx)
}
