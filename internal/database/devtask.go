package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DevTask struct {
	ID             uuid.UUID    `json:"id"`
	TenantID       uuid.UUID    `json:"tenant_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	Type           TaskType     `json:"type"`
	EstimatedHours float64      `json:"estimated_hours"`
	ActualHours    float64      `json:"actual_hours"`
	Assignee       string       `json:"assignee"`
	// ScheduledDate is denormalized from the task's assignments: the earliest
	// assignment date, or empty when the task has none. It is never written
	// directly by task updates.
	ScheduledDate string    `json:"scheduled_date,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DevTaskPatch carries the writable fields of a PATCH; nil means unchanged.
type DevTaskPatch struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Status         *string  `json:"status"`
	Priority       *string  `json:"priority"`
	Type           *string  `json:"type"`
	EstimatedHours *float64 `json:"estimated_hours"`
	ActualHours    *float64 `json:"actual_hours"`
	Assignee       *string  `json:"assignee"`
}

const devTaskColumns = `id, tenant_id, title, description, status, priority, type,
	estimated_hours, actual_hours, assignee, COALESCE(to_char(scheduled_date, 'YYYY-MM-DD'), ''),
	created_at, updated_at`

func scanDevTask(row interface{ Scan(...any) error }, t *DevTask) error {
	return row.Scan(
		&t.ID, &t.TenantID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Type,
		&t.EstimatedHours, &t.ActualHours, &t.Assignee, &t.ScheduledDate,
		&t.CreatedAt, &t.UpdatedAt,
	)
}

func (s *service) ListDevTasks(ctx context.Context, tenantID uuid.UUID) ([]DevTask, error) {
	query := fmt.Sprintf(`SELECT %s FROM dev_tasks WHERE tenant_id = $1 ORDER BY created_at DESC`, devTaskColumns)
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []DevTask{}
	for rows.Next() {
		var t DevTask
		if err := scanDevTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *service) CreateDevTask(ctx context.Context, task *DevTask) error {
	query := `
		INSERT INTO dev_tasks (tenant_id, title, description, status, priority, type,
			estimated_hours, actual_hours, assignee, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowContext(ctx, query,
		task.TenantID, task.Title, task.Description, task.Status, task.Priority, task.Type,
		task.EstimatedHours, task.ActualHours, task.Assignee).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (s *service) UpdateDevTask(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch DevTaskPatch) (*DevTask, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	if patch.EstimatedHours != nil {
		add("estimated_hours", *patch.EstimatedHours)
	}
	if patch.ActualHours != nil {
		add("actual_hours", *patch.ActualHours)
	}
	if patch.Assignee != nil {
		add("assignee", *patch.Assignee)
	}
	if len(sets) == 0 {
		return s.getDevTask(ctx, tenantID, id)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, tenantID)
	query := fmt.Sprintf(`UPDATE dev_tasks SET %s WHERE id = $%d AND tenant_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), devTaskColumns)

	task := &DevTask{}
	err := scanDevTask(s.db.QueryRowContext(ctx, query, args...), task)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *service) getDevTask(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*DevTask, error) {
	query := fmt.Sprintf(`SELECT %s FROM dev_tasks WHERE id = $1 AND tenant_id = $2`, devTaskColumns)
	task := &DevTask{}
	err := scanDevTask(s.db.QueryRowContext(ctx, query, id, tenantID), task)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}
