package models

import (
	"time"
)

// Task is a checklist step owned by an Activity. Ids are assigned once at
// creation and are unique within the owning activity.
type Task struct {
	ID        int    `db:"id" json:"id"`
	Text      string `db:"text" json:"text"`
	Completed bool   `db:"completed" json:"completed"`
}

// NewTasks numbers the given texts 1..n, skipping blank entries.
func NewTasks(texts []string) []Task {
	tasks := make([]Task, 0, len(texts))
	for _, text := range texts {
		if text == "" {
			continue
		}
		tasks = append(tasks, Task{ID: len(tasks) + 1, Text: text})
	}
	return tasks
}

func (a *Activity) FindTask(taskID int) (*Task, error) {
	for i := range a.Tasks {
		if a.Tasks[i].ID == taskID {
			return &a.Tasks[i], nil
		}
	}
	return nil, NotFound("task %d not found on activity %d", taskID, a.ID)
}

// ToggleTask flips the completion flag of a task and returns the new value.
func (a *Activity) ToggleTask(taskID int, now time.Time) (bool, error) {
	task, err := a.FindTask(taskID)
	if err != nil {
		return false, err
	}
	task.Completed = !task.Completed
	a.UpdatedAt = now
	return task.Completed, nil
}

func (a *Activity) CompletedTaskCount() int {
	count := 0
	for _, task := range a.Tasks {
		if task.Completed {
			count++
		}
	}
	return count
}

func validateTasks(tasks []Task) error {
	seen := make(map[int]bool, len(tasks))
	for _, task := range tasks {
		if task.ID <= 0 {
			return Invalid("task id must be positive")
		}
		if seen[task.ID] {
			return Invalid("duplicate task id %d", task.ID)
		}
		seen[task.ID] = true
		if task.Text == "" {
			return Invalid("task %d has no text", task.ID)
		}
	}
	return nil
}
