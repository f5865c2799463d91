package derive

import (
	"testing"

	"github.com/hmiyake/taskprefs/internal/model"
)

func task(id string, completed bool, deadline int64, priority int) model.Task {
	return model.Task{ID: id, Completed: completed, Deadline: deadline, Priority: priority}
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func assertOrder(t *testing.T, got []model.Task, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}

func TestTasks_FilterHidesCompleted(t *testing.T) {
	tasks := []model.Task{
		task("a", false, 10, 1),
		task("b", true, 20, 1),
		task("c", false, 30, 1),
	}

	got := Tasks(tasks, false, model.SortOrderNone)
	assertOrder(t, got, "a", "c")

	for _, tk := range got {
		if tk.Completed {
			t.Errorf("completed task %s leaked through filter", tk.ID)
		}
	}
}

func TestTasks_ShowCompletedKeepsAll(t *testing.T) {
	tasks := []model.Task{
		task("a", false, 10, 1),
		task("b", true, 20, 1),
	}
	got := Tasks(tasks, true, model.SortOrderNone)
	assertOrder(t, got, "a", "b")
}

func TestTasks_NonePreservesOriginalOrder(t *testing.T) {
	tasks := []model.Task{
		task("c", false, 5, 3),
		task("a", false, 50, 1),
		task("b", false, 20, 2),
	}
	assertOrder(t, Tasks(tasks, true, model.SortOrderNone), "c", "a", "b")
	assertOrder(t, Tasks(tasks, true, model.SortOrderUnspecified), "c", "a", "b")
}

func TestTasks_ByDeadlineDescending(t *testing.T) {
	tasks := []model.Task{
		task("a", false, 10, 1),
		task("b", false, 30, 1),
		task("c", false, 20, 1),
	}
	assertOrder(t, Tasks(tasks, true, model.SortOrderByDeadline), "b", "c", "a")
}

func TestTasks_ByPriorityAscending(t *testing.T) {
	tasks := []model.Task{
		task("a", false, 10, 3),
		task("b", false, 10, 1),
		task("c", false, 10, 2),
	}
	assertOrder(t, Tasks(tasks, true, model.SortOrderByPriority), "b", "c", "a")
}

func TestTasks_ByDeadlineAndPriority(t *testing.T) {
	tasks := []model.Task{
		task("a", false, 10, 2),
		task("b", false, 20, 2),
		task("c", false, 20, 1),
	}
	assertOrder(t, Tasks(tasks, true, model.SortOrderByDeadlineAndPriority), "c", "b", "a")
}

func TestTasks_StableOnEqualKeys(t *testing.T) {
	tasks := []model.Task{
		task("a", false, 20, 1),
		task("b", false, 20, 1),
		task("c", false, 20, 1),
	}
	// Equal deadline and priority: original relative order preserved.
	assertOrder(t, Tasks(tasks, true, model.SortOrderByDeadlineAndPriority), "a", "b", "c")
	assertOrder(t, Tasks(tasks, true, model.SortOrderByDeadline), "a", "b", "c")
	assertOrder(t, Tasks(tasks, true, model.SortOrderByPriority), "a", "b", "c")
}

func TestTasks_EndToEndExample(t *testing.T) {
	tasks := []model.Task{
		task("1", false, 10, 2),
		task("2", true, 20, 1),
		task("3", false, 20, 1),
	}
	got := Tasks(tasks, false, model.SortOrderByDeadlineAndPriority)
	assertOrder(t, got, "3", "1")
}

func TestTasks_DoesNotMutateInput(t *testing.T) {
	tasks := []model.Task{
		task("a", false, 10, 1),
		task("b", false, 30, 1),
	}
	Tasks(tasks, true, model.SortOrderByDeadline)
	assertOrder(t, tasks, "a", "b")
}

func TestTasks_UnknownOrderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown sort order")
		}
	}()
	Tasks(nil, true, model.SortOrder("newest_first"))
}

func TestView(t *testing.T) {
	rec := model.PreferenceRecord{
		ShowCompleted: false,
		SortOrder:     model.SortOrderByPriority,
		Counter:       5,
	}
	view := View([]model.Task{
		task("a", false, 0, 2),
		task("b", true, 0, 1),
		task("c", false, 0, 1),
	}, rec)

	assertOrder(t, view.Tasks, "c", "a")
	if view.Counter != 5 || view.SortOrder != model.SortOrderByPriority || view.ShowCompleted {
		t.Errorf("view metadata mismatch: %+v", view)
	}
}
