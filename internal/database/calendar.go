package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DaySchedule struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	Date           string    `json:"date"`
	IsWorkDay      bool      `json:"is_work_day"`
	AvailableHours float64   `json:"available_hours"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type TaskAssignment struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	TaskID         uuid.UUID `json:"task_id"`
	Date           string    `json:"date"`
	AllocatedHours float64   `json:"allocated_hours"`
	CreatedAt      time.Time `json:"created_at"`
}

// DaySummary is the per-day rollup behind the calendar view. Overallocated
// days are flagged, never rejected.
type DaySummary struct {
	Date           string  `json:"date"`
	IsWorkDay      bool    `json:"is_work_day"`
	AvailableHours float64 `json:"available_hours"`
	AllocatedHours float64 `json:"allocated_hours"`
	TaskCount      int     `json:"task_count"`
	Overallocated  bool    `json:"overallocated"`
}

func (s *service) ListDaySchedules(ctx context.Context, tenantID uuid.UUID, from, to string) ([]DaySchedule, error) {
	query := `SELECT id, tenant_id, to_char(date, 'YYYY-MM-DD'), is_work_day, available_hours, notes, created_at, updated_at
			  FROM day_schedules
			  WHERE tenant_id = $1 AND date >= $2 AND date <= $3
			  ORDER BY date ASC`

	rows, err := s.db.QueryContext(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []DaySchedule{}
	for rows.Next() {
		var d DaySchedule
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Date, &d.IsWorkDay, &d.AvailableHours, &d.Notes, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, d)
	}
	return schedules, rows.Err()
}

// UpsertDaySchedule writes the schedule keyed on (tenant, date).
func (s *service) UpsertDaySchedule(ctx context.Context, schedule *DaySchedule) error {
	query := `
		INSERT INTO day_schedules (tenant_id, date, is_work_day, available_hours, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (tenant_id, date)
		DO UPDATE SET
			is_work_day = EXCLUDED.is_work_day,
			available_hours = EXCLUDED.available_hours,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowContext(ctx, query,
		schedule.TenantID, schedule.Date, schedule.IsWorkDay, schedule.AvailableHours, schedule.Notes).
		Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
}

func (s *service) ListTaskAssignments(ctx context.Context, tenantID uuid.UUID, from, to string) ([]TaskAssignment, error) {
	query := `SELECT id, tenant_id, task_id, to_char(date, 'YYYY-MM-DD'), allocated_hours, created_at
			  FROM task_assignments
			  WHERE tenant_id = $1 AND date >= $2 AND date <= $3
			  ORDER BY date ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []TaskAssignment{}
	for rows.Next() {
		var a TaskAssignment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.TaskID, &a.Date, &a.AllocatedHours, &a.CreatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// CreateTaskAssignment inserts the assignment and refreshes the owning
// task's denormalized scheduled_date in the same transaction. Assignments
// are the single authoritative scheduling record.
func (s *service) CreateTaskAssignment(ctx context.Context, assignment *TaskAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO task_assignments (tenant_id, task_id, date, allocated_hours, created_at)
		SELECT $1, $2, $3, $4, NOW()
		WHERE EXISTS (SELECT 1 FROM dev_tasks WHERE id = $2 AND tenant_id = $1)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query,
		assignment.TenantID, assignment.TaskID, assignment.Date, assignment.AllocatedHours).
		Scan(&assignment.ID, &assignment.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := syncScheduledDate(ctx, tx, assignment.TaskID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) DeleteTaskAssignment(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var taskID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`DELETE FROM task_assignments WHERE id = $1 AND tenant_id = $2 RETURNING task_id`, id, tenantID).
		Scan(&taskID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := syncScheduledDate(ctx, tx, taskID); err != nil {
		return err
	}
	return tx.Commit()
}

func syncScheduledDate(ctx context.Context, tx *sql.Tx, taskID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE dev_tasks
		SET scheduled_date = (SELECT MIN(date) FROM task_assignments WHERE task_id = $1),
		    updated_at = NOW()
		WHERE id = $1`, taskID)
	return err
}

func (s *service) CalendarSummary(ctx context.Context, tenantID uuid.UUID, from, to string) ([]DaySummary, error) {
	// Left-join schedules and assignment totals over the full range so days
	// with assignments but no schedule row still appear.
	summaryQuery := `
		SELECT to_char(d.day, 'YYYY-MM-DD'),
		       COALESCE(ds.is_work_day, TRUE),
		       COALESCE(ds.available_hours, 0),
		       COALESCE(a.total, 0),
		       COALESCE(a.task_count, 0)
		FROM generate_series($2::date, $3::date, '1 day') AS d(day)
		LEFT JOIN day_schedules ds ON ds.tenant_id = $1 AND ds.date = d.day
		LEFT JOIN (
			SELECT date, SUM(allocated_hours) AS total, COUNT(DISTINCT task_id) AS task_count
			FROM task_assignments
			WHERE tenant_id = $1 AND date >= $2 AND date <= $3
			GROUP BY date
		) a ON a.date = d.day
		ORDER BY d.day ASC`

	rows, err := s.db.QueryContext(ctx, summaryQuery, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []DaySummary{}
	for rows.Next() {
		var d DaySummary
		if err := rows.Scan(&d.Date, &d.IsWorkDay, &d.AvailableHours, &d.AllocatedHours, &d.TaskCount); err != nil {
			return nil, err
		}
		d.Overallocated = d.AllocatedHours > d.AvailableHours
		summaries = append(summaries, d)
	}
	return summaries, rows.Err()
}
