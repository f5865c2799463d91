// Package view joins the live task list and the live preference record into
// the derived display stream consumed by the UI layer.
package view

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/hmiyake/taskprefs/internal/derive"
	"github.com/hmiyake/taskprefs/internal/events"
	"github.com/hmiyake/taskprefs/internal/model"
	"github.com/hmiyake/taskprefs/internal/prefs"
	"github.com/hmiyake/taskprefs/internal/tasks"
)

// Combiner recomputes the derived view whenever either source emits, always
// pairing the emission with the most recent value from the other source.
type Combiner struct {
	repo  *prefs.Repository
	tasks *tasks.Source
	feed  *events.Feed[model.TasksView]
}

func NewCombiner(repo *prefs.Repository, taskSrc *tasks.Source) *Combiner {
	return &Combiner{
		repo:  repo,
		tasks: taskSrc,
		feed:  events.NewFeed[model.TasksView](),
	}
}

// Subscribe exposes the derived view stream. The current view, when one has
// been computed, arrives immediately.
func (c *Combiner) Subscribe() (<-chan model.TasksView, func()) {
	return c.feed.Subscribe()
}

// Latest returns the most recently derived view.
func (c *Combiner) Latest() (model.TasksView, bool) {
	return c.feed.Latest()
}

// Mutators forward to the repository; each is an independent transactional
// update whose effect reaches subscribers through the preference stream.

func (c *Combiner) SetShowCompleted(ctx context.Context, completed bool) error {
	return c.repo.SetShowCompleted(ctx, completed)
}

func (c *Combiner) IncrementCounter(ctx context.Context) error {
	return c.repo.IncrementCounter(ctx)
}

func (c *Combiner) EnableSortByDeadline(ctx context.Context, enable bool) error {
	return c.repo.EnableSortByDeadline(ctx, enable)
}

func (c *Combiner) EnableSortByPriority(ctx context.Context, enable bool) error {
	return c.repo.EnableSortByPriority(ctx, enable)
}

// Run drives the task watcher and the join loop until the context is
// cancelled. Cancellation is a clean shutdown, not an error.
func (c *Combiner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.tasks.Run(ctx) })
	g.Go(func() error { return c.join(ctx) })

	err := g.Wait()
	c.feed.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// join holds the latest value from each source and re-emits a derived view on
// every emission from either. Single goroutine, so re-emission order matches
// source emission order.
func (c *Combiner) join(ctx context.Context) error {
	taskCh, cancelTasks := c.tasks.Subscribe()
	defer cancelTasks()
	prefCh, cancelPrefs := c.repo.Watch(ctx)
	defer cancelPrefs()

	var (
		curTasks  []model.Task
		curRec    model.PreferenceRecord
		haveTasks bool
		havePrefs bool
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts, ok := <-taskCh:
			if !ok {
				return nil
			}
			curTasks, haveTasks = ts, true
		case rec, ok := <-prefCh:
			if !ok {
				return nil
			}
			curRec, havePrefs = rec, true
		}

		if haveTasks && havePrefs {
			c.feed.Publish(derive.View(curTasks, curRec))
		}
	}
}
