// Package derive computes the displayed task list from the raw task list and
// the current preference values.
package derive

import (
	"fmt"
	"sort"

	"github.com/hmiyake/taskprefs/internal/model"
)

// Tasks filters and sorts tasks according to the preferences. The input slice
// is never mutated. Sorting is stable: ties keep their original relative
// order except where a secondary key applies. An unknown sort order is a
// schema mismatch between writer and reader and panics.
func Tasks(tasks []model.Task, showCompleted bool, order model.SortOrder) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if !showCompleted && task.Completed {
			continue
		}
		out = append(out, task)
	}

	switch order {
	case model.SortOrderUnspecified, model.SortOrderNone:
		// Keep filtered order.
	case model.SortOrderByDeadline:
		// Latest deadline first.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Deadline > out[j].Deadline
		})
	case model.SortOrderByPriority:
		// Lower value = more urgent.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority < out[j].Priority
		})
	case model.SortOrderByDeadlineAndPriority:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Deadline != out[j].Deadline {
				return out[i].Deadline > out[j].Deadline
			}
			return out[i].Priority < out[j].Priority
		})
	default:
		panic(fmt.Sprintf("derive: unsupported sort order %q", order))
	}

	return out
}

// View builds the full display projection for a task list and record.
func View(tasks []model.Task, rec model.PreferenceRecord) model.TasksView {
	return model.TasksView{
		Tasks:         Tasks(tasks, rec.ShowCompleted, rec.SortOrder),
		ShowCompleted: rec.ShowCompleted,
		SortOrder:     rec.SortOrder,
		Counter:       rec.Counter,
	}
}
