package model

// Task is read-only from this module's perspective; the task source owns it.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Deadline  int64  `json:"deadline"` // unix seconds
	Priority  int    `json:"priority"` // lower = more urgent
}

// TasksView is the derived projection handed to consumers. Never persisted;
// recomputed whenever the task list or the preference record changes.
type TasksView struct {
	Tasks         []Task
	ShowCompleted bool
	SortOrder     SortOrder
	Counter       int
}
