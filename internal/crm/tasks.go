package crm

import (
	"context"
	"fmt"

	"github.com/datanexus/crmstore/internal/store"
)

// Task is a row of the tasks relation.
type Task struct {
	ID          string `db:"task_id" validate:"required"`
	Title       string `db:"title" validate:"required"`
	Description string `db:"description"`
	CreatedOn   string `db:"created_on" validate:"required,datetime=2006-01-02"`
	DueOn       string `db:"due_on" validate:"omitempty,datetime=2006-01-02"`
	Assignee    string `db:"assignee"`
	Priority    string `db:"priority"`
	Status      string `db:"status"`
}

// Tasks reads and writes tasks.
type Tasks struct {
	h   *store.Handle
	cfg *config
}

const taskColumns = `task_id, title, COALESCE(description, '') AS description, created_on,
	COALESCE(due_on, '') AS due_on, COALESCE(assignee, '') AS assignee,
	COALESCE(priority, '') AS priority, COALESCE(status, '') AS status`

// Insert adds a task and returns its identifier. An empty ID is generated
// and an empty CreatedOn defaults to today.
func (r *Tasks) Insert(ctx context.Context, t Task) (string, error) {
	if t.ID == "" {
		t.ID = r.cfg.newID()
	}
	if t.CreatedOn == "" {
		t.CreatedOn = r.cfg.today()
	}
	if err := validateRecord(t); err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	_, found, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	if found {
		return "", fmt.Errorf("insert task %q: %w", t.ID, ErrDuplicateKey)
	}

	_, err = r.h.Execute(ctx,
		`INSERT INTO tasks (task_id, title, description, created_on, due_on, assignee, priority, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.CreatedOn, t.DueOn, t.Assignee, t.Priority, t.Status)
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return t.ID, nil
}

// GetAll returns every task in insertion order.
func (r *Tasks) GetAll(ctx context.Context) ([]Task, error) {
	var out []Task
	if err := r.h.Select(ctx, &out, `SELECT `+taskColumns+` FROM tasks ORDER BY rowid`); err != nil {
		return []Task{}, err
	}
	return emptyIfNil(out), nil
}

// GetByID returns the task with id; found is false when absent.
func (r *Tasks) GetByID(ctx context.Context, id string) (Task, bool, error) {
	var t Task
	found, err := r.h.Get(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE task_id = ?`, id)
	return t, found, err
}

// ByDueDate returns the tasks due on date (YYYY-MM-DD).
func (r *Tasks) ByDueDate(ctx context.Context, date string) ([]Task, error) {
	var out []Task
	if err := r.h.Select(ctx, &out, `SELECT `+taskColumns+` FROM tasks WHERE due_on = ? ORDER BY rowid`, date); err != nil {
		return []Task{}, err
	}
	return emptyIfNil(out), nil
}

// Update overwrites the task's fields. Missing ids are not an error.
func (r *Tasks) Update(ctx context.Context, t Task) error {
	if err := validateRecord(t); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	_, err := r.h.Execute(ctx,
		`UPDATE tasks SET title = ?, description = ?, created_on = ?, due_on = ?, assignee = ?,
		priority = ?, status = ? WHERE task_id = ?`,
		t.Title, t.Description, t.CreatedOn, t.DueOn, t.Assignee, t.Priority, t.Status, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes the task.
func (r *Tasks) Delete(ctx context.Context, id string) error {
	if _, err := r.h.Execute(ctx, `DELETE FROM tasks WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
