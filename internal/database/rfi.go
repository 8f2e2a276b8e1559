package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned for RFI status moves the lifecycle does
// not allow (reopening, answering a closed RFI, and so on).
var ErrInvalidTransition = fmt.Errorf("invalid status transition")

// RFI is a request for information against a fire-door line item.
type RFI struct {
	ID              uuid.UUID   `json:"id"`
	TenantID        uuid.UUID   `json:"tenant_id"`
	LineItemID      uuid.UUID   `json:"line_item_id"`
	Field           string      `json:"field"`
	Question        string      `json:"question"`
	Status          RFIStatus   `json:"status"`
	Priority        RFIPriority `json:"priority"`
	Response        string      `json:"response"`
	VisibleToClient bool        `json:"visible_to_client"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type RFIPatch struct {
	Field           *string `json:"field"`
	Question        *string `json:"question"`
	Status          *string `json:"status"`
	Priority        *string `json:"priority"`
	Response        *string `json:"response"`
	VisibleToClient *bool   `json:"visible_to_client"`
}

const rfiColumns = `id, tenant_id, line_item_id, field, question, status, priority, response, visible_to_client, created_at, updated_at`

func scanRFI(row interface{ Scan(...any) error }, r *RFI) error {
	return row.Scan(
		&r.ID, &r.TenantID, &r.LineItemID, &r.Field, &r.Question, &r.Status, &r.Priority,
		&r.Response, &r.VisibleToClient, &r.CreatedAt, &r.UpdatedAt,
	)
}

func (s *service) ListRFIs(ctx context.Context, tenantID uuid.UUID, lineItemID *uuid.UUID) ([]RFI, error) {
	query := `SELECT ` + rfiColumns + ` FROM fire_door_rfis WHERE tenant_id = $1`
	args := []any{tenantID}
	if lineItemID != nil {
		query += ` AND line_item_id = $2`
		args = append(args, *lineItemID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rfis := []RFI{}
	for rows.Next() {
		var r RFI
		if err := scanRFI(rows, &r); err != nil {
			return nil, err
		}
		rfis = append(rfis, r)
	}
	return rfis, rows.Err()
}

func (s *service) CreateRFI(ctx context.Context, rfi *RFI) error {
	rfi.Status = RFIOpen
	if rfi.Priority == "" {
		rfi.Priority = RFIMedium
	}

	// Inserts only when the line item belongs to the tenant.
	query := `
		INSERT INTO fire_door_rfis (tenant_id, line_item_id, field, question, status, priority, response, visible_to_client, created_at, updated_at)
		SELECT $1, l.id, $3, $4, $5, $6, '', $7, NOW(), NOW()
		FROM quote_lines l
		JOIN quotes q ON q.id = l.quote_id
		WHERE l.id = $2 AND q.tenant_id = $1
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		rfi.TenantID, rfi.LineItemID, rfi.Field, rfi.Question, rfi.Status, rfi.Priority, rfi.VisibleToClient).
		Scan(&rfi.ID, &rfi.CreatedAt, &rfi.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

// UpdateRFI applies the patch, enforcing the forward-only status lifecycle.
// Moving to answered requires a response (in the patch or already stored).
func (s *service) UpdateRFI(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch RFIPatch) (*RFI, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	current := &RFI{}
	err = scanRFI(tx.QueryRowContext(ctx,
		`SELECT `+rfiColumns+` FROM fire_door_rfis WHERE id = $1 AND tenant_id = $2 FOR UPDATE`, id, tenantID), current)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		next := RFIStatus(*patch.Status)
		if next != current.Status {
			if !ValidRFITransition(current.Status, next) {
				return nil, ErrInvalidTransition
			}
			if next == RFIAnswered {
				response := current.Response
				if patch.Response != nil {
					response = *patch.Response
				}
				if strings.TrimSpace(response) == "" {
					return nil, fmt.Errorf("%w: answered requires a response", ErrInvalidTransition)
				}
			}
		}
	}

	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Field != nil {
		add("field", *patch.Field)
	}
	if patch.Question != nil {
		add("question", *patch.Question)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.Response != nil {
		add("response", *patch.Response)
	}
	if patch.VisibleToClient != nil {
		add("visible_to_client", *patch.VisibleToClient)
	}
	if len(sets) == 0 {
		return current, tx.Commit()
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, tenantID)
	query := fmt.Sprintf(`UPDATE fire_door_rfis SET %s WHERE id = $%d AND tenant_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), rfiColumns)

	updated := &RFI{}
	if err := scanRFI(tx.QueryRowContext(ctx, query, args...), updated); err != nil {
		return nil, err
	}
	return updated, tx.Commit()
}

// DeleteRFI is allowed from any state.
func (s *service) DeleteRFI(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM fire_door_rfis WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
