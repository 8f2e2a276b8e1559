package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type WorkshopProcess struct {
	ID                  uuid.UUID `json:"id"`
	TenantID            uuid.UUID `json:"tenant_id"`
	Code                string    `json:"code"`
	Name                string    `json:"name"`
	SortOrder           int       `json:"sort_order"`
	RequiredByDefault   bool      `json:"required_by_default"`
	EstimatedHours      float64   `json:"estimated_hours"`
	IsColorKey          bool      `json:"is_color_key"`
	IsGeneric           bool      `json:"is_generic"`
	IsLastManufacturing bool      `json:"is_last_manufacturing"`
	IsLastInstallation  bool      `json:"is_last_installation"`
	AssignmentGroup     string    `json:"assignment_group"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type WorkshopProcessPatch struct {
	Name                *string  `json:"name"`
	RequiredByDefault   *bool    `json:"required_by_default"`
	EstimatedHours      *float64 `json:"estimated_hours"`
	IsColorKey          *bool    `json:"is_color_key"`
	IsGeneric           *bool    `json:"is_generic"`
	IsLastManufacturing *bool    `json:"is_last_manufacturing"`
	IsLastInstallation  *bool    `json:"is_last_installation"`
	AssignmentGroup     *string  `json:"assignment_group"`
}

const processColumns = `id, tenant_id, code, name, sort_order, required_by_default, estimated_hours,
	is_color_key, is_generic, is_last_manufacturing, is_last_installation, assignment_group, created_at, updated_at`

func scanProcess(row interface{ Scan(...any) error }, p *WorkshopProcess) error {
	return row.Scan(
		&p.ID, &p.TenantID, &p.Code, &p.Name, &p.SortOrder, &p.RequiredByDefault, &p.EstimatedHours,
		&p.IsColorKey, &p.IsGeneric, &p.IsLastManufacturing, &p.IsLastInstallation, &p.AssignmentGroup,
		&p.CreatedAt, &p.UpdatedAt,
	)
}

func (s *service) ListWorkshopProcesses(ctx context.Context, tenantID uuid.UUID) ([]WorkshopProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM workshop_processes WHERE tenant_id = $1 ORDER BY sort_order ASC`, processColumns)
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	processes := []WorkshopProcess{}
	for rows.Next() {
		var p WorkshopProcess
		if err := scanProcess(rows, &p); err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}
	return processes, rows.Err()
}

func (s *service) CreateWorkshopProcess(ctx context.Context, process *WorkshopProcess) error {
	query := `
		INSERT INTO workshop_processes (tenant_id, code, name, sort_order, required_by_default, estimated_hours,
			is_color_key, is_generic, is_last_manufacturing, is_last_installation, assignment_group, created_at, updated_at)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM workshop_processes WHERE tenant_id = $1),
			$4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, sort_order, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		process.TenantID, process.Code, process.Name, process.RequiredByDefault, process.EstimatedHours,
		process.IsColorKey, process.IsGeneric, process.IsLastManufacturing, process.IsLastInstallation,
		process.AssignmentGroup).
		Scan(&process.ID, &process.SortOrder, &process.CreatedAt, &process.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *service) UpdateWorkshopProcess(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch WorkshopProcessPatch) (*WorkshopProcess, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.RequiredByDefault != nil {
		add("required_by_default", *patch.RequiredByDefault)
	}
	if patch.EstimatedHours != nil {
		add("estimated_hours", *patch.EstimatedHours)
	}
	if patch.IsColorKey != nil {
		add("is_color_key", *patch.IsColorKey)
	}
	if patch.IsGeneric != nil {
		add("is_generic", *patch.IsGeneric)
	}
	if patch.IsLastManufacturing != nil {
		add("is_last_manufacturing", *patch.IsLastManufacturing)
	}
	if patch.IsLastInstallation != nil {
		add("is_last_installation", *patch.IsLastInstallation)
	}
	if patch.AssignmentGroup != nil {
		add("assignment_group", *patch.AssignmentGroup)
	}
	if len(sets) == 0 {
		query := fmt.Sprintf(`SELECT %s FROM workshop_processes WHERE id = $1 AND tenant_id = $2`, processColumns)
		p := &WorkshopProcess{}
		err := scanProcess(s.db.QueryRowContext(ctx, query, id, tenantID), p)
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return p, err
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, tenantID)
	query := fmt.Sprintf(`UPDATE workshop_processes SET %s WHERE id = $%d AND tenant_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), processColumns)

	p := &WorkshopProcess{}
	err := scanProcess(s.db.QueryRowContext(ctx, query, args...), p)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteWorkshopProcess(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM workshop_processes WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// defaultProcesses mirror a standard joinery workshop flow.
var defaultProcesses = []WorkshopProcess{
	{Code: "CUT", Name: "Cutting list & machining", RequiredByDefault: true, EstimatedHours: 2, AssignmentGroup: "machining"},
	{Code: "ASM", Name: "Assembly", RequiredByDefault: true, EstimatedHours: 3, AssignmentGroup: "bench"},
	{Code: "SAND", Name: "Sanding", RequiredByDefault: true, EstimatedHours: 1, AssignmentGroup: "bench"},
	{Code: "SPRAY", Name: "Spray finish", EstimatedHours: 2, IsColorKey: true, AssignmentGroup: "finishing"},
	{Code: "GLAZE", Name: "Glazing", EstimatedHours: 1, AssignmentGroup: "finishing"},
	{Code: "IRON", Name: "Ironmongery fit", RequiredByDefault: true, EstimatedHours: 1, IsLastManufacturing: true, AssignmentGroup: "bench"},
	{Code: "INST", Name: "Site installation", EstimatedHours: 4, IsLastInstallation: true, AssignmentGroup: "site"},
	{Code: "MISC", Name: "Miscellaneous", IsGeneric: true, AssignmentGroup: "bench"},
}

// SeedDefaultProcesses inserts the default set, skipping codes that exist.
func (s *service) SeedDefaultProcesses(ctx context.Context, tenantID uuid.UUID) (int, error) {
	inserted := 0
	for _, process := range defaultProcesses {
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO workshop_processes (tenant_id, code, name, sort_order, required_by_default, estimated_hours,
				is_color_key, is_generic, is_last_manufacturing, is_last_installation, assignment_group, created_at, updated_at)
			VALUES ($1, $2, $3,
				(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM workshop_processes WHERE tenant_id = $1),
				$4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			ON CONFLICT (tenant_id, code) DO NOTHING`,
			tenantID, process.Code, process.Name, process.RequiredByDefault, process.EstimatedHours,
			process.IsColorKey, process.IsGeneric, process.IsLastManufacturing, process.IsLastInstallation,
			process.AssignmentGroup)
		if err != nil {
			return inserted, err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}
