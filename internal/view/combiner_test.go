package view

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmiyake/taskprefs/internal/logging"
	"github.com/hmiyake/taskprefs/internal/model"
	"github.com/hmiyake/taskprefs/internal/prefs"
	"github.com/hmiyake/taskprefs/internal/store"
	"github.com/hmiyake/taskprefs/internal/tasks"
)

type fixture struct {
	combiner *Combiner
	taskPath string
	cancel   context.CancelFunc
	done     chan struct{}
}

func newFixture(t *testing.T, taskLines string) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := logging.New(io.Discard, "view", logging.LevelError)

	taskPath := filepath.Join(dir, "tasks", "tasks.jsonl")
	require.NoError(t, os.MkdirAll(filepath.Dir(taskPath), 0755))
	if taskLines != "" {
		require.NoError(t, os.WriteFile(taskPath, []byte(taskLines), 0644))
	}

	st := store.New(dir, nil, logger)
	repo := prefs.NewRepository(st)
	src := tasks.NewSource(taskPath, 20*time.Millisecond, logger)
	combiner := NewCombiner(repo, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		combiner.Run(ctx)
	}()

	f := &fixture{combiner: combiner, taskPath: taskPath, cancel: cancel, done: done}
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("combiner did not stop")
		}
		st.Close()
		src.Close()
	})
	return f
}

func awaitView(t *testing.T, ch <-chan model.TasksView, ok func(model.TasksView) bool) model.TasksView {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case v := <-ch:
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatal("expected view never arrived")
			return model.TasksView{}
		}
	}
}

func TestCombiner_InitialView(t *testing.T) {
	f := newFixture(t, `{"id":"a","completed":false,"deadline":10,"priority":2}
{"id":"b","completed":true,"deadline":20,"priority":1}
`)

	ch, cancel := f.combiner.Subscribe()
	defer cancel()

	v := awaitView(t, ch, func(v model.TasksView) bool { return len(v.Tasks) > 0 })
	// Defaults hide the completed task and keep file order.
	require.Len(t, v.Tasks, 1)
	assert.Equal(t, "a", v.Tasks[0].ID)
	assert.False(t, v.ShowCompleted)
	assert.Equal(t, model.SortOrderNone, v.SortOrder)
}

func TestCombiner_ReEmitsOnPreferenceChange(t *testing.T) {
	f := newFixture(t, `{"id":"a","completed":false,"deadline":10,"priority":2}
{"id":"b","completed":true,"deadline":20,"priority":1}
`)

	ch, cancel := f.combiner.Subscribe()
	defer cancel()
	awaitView(t, ch, func(v model.TasksView) bool { return len(v.Tasks) == 1 })

	require.NoError(t, f.combiner.SetShowCompleted(context.Background(), true))

	v := awaitView(t, ch, func(v model.TasksView) bool { return v.ShowCompleted })
	assert.Len(t, v.Tasks, 2)
}

func TestCombiner_ReEmitsOnTaskFileChange(t *testing.T) {
	f := newFixture(t, `{"id":"a","completed":false,"deadline":10,"priority":2}`+"\n")

	ch, cancel := f.combiner.Subscribe()
	defer cancel()
	awaitView(t, ch, func(v model.TasksView) bool { return len(v.Tasks) == 1 })

	require.NoError(t, os.WriteFile(f.taskPath, []byte(`{"id":"a","completed":false,"deadline":10,"priority":2}
{"id":"c","completed":false,"deadline":30,"priority":1}
`), 0644))

	v := awaitView(t, ch, func(v model.TasksView) bool { return len(v.Tasks) == 2 })
	assert.Equal(t, "c", v.Tasks[1].ID)
}

func TestCombiner_SortedViewAfterToggles(t *testing.T) {
	f := newFixture(t, `{"id":"1","completed":false,"deadline":10,"priority":2}
{"id":"2","completed":true,"deadline":20,"priority":1}
{"id":"3","completed":false,"deadline":20,"priority":1}
`)

	ch, cancel := f.combiner.Subscribe()
	defer cancel()
	awaitView(t, ch, func(v model.TasksView) bool { return len(v.Tasks) > 0 })

	ctx := context.Background()
	require.NoError(t, f.combiner.EnableSortByDeadline(ctx, true))
	require.NoError(t, f.combiner.EnableSortByPriority(ctx, true))

	v := awaitView(t, ch, func(v model.TasksView) bool {
		return v.SortOrder == model.SortOrderByDeadlineAndPriority
	})
	require.Len(t, v.Tasks, 2)
	assert.Equal(t, "3", v.Tasks[0].ID)
	assert.Equal(t, "1", v.Tasks[1].ID)
}

func TestCombiner_CounterFlowsThroughView(t *testing.T) {
	f := newFixture(t, `{"id":"a","completed":false,"deadline":1,"priority":1}`+"\n")

	ch, cancel := f.combiner.Subscribe()
	defer cancel()
	awaitView(t, ch, func(v model.TasksView) bool { return len(v.Tasks) > 0 })

	ctx := context.Background()
	require.NoError(t, f.combiner.IncrementCounter(ctx))
	require.NoError(t, f.combiner.IncrementCounter(ctx))

	awaitView(t, ch, func(v model.TasksView) bool { return v.Counter == 2 })
}
