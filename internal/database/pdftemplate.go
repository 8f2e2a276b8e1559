package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PdfTemplate is a supplier quote layout extracted from an uploaded PDF.
type PdfTemplate struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	SupplierProfileID *uuid.UUID      `json:"supplier_profile_id"`
	FileHash          string          `json:"file_hash"`
	PageCount         int             `json:"page_count"`
	S3Key             string          `json:"s3_key"`
	FileSize          int64           `json:"file_size"`
	Annotations       json.RawMessage `json:"annotations"`
	CreatedAt         time.Time       `json:"created_at"`
}

const pdfTemplateColumns = `id, tenant_id, name, description, supplier_profile_id, file_hash, page_count, s3_key, file_size, annotations, created_at`

func scanPdfTemplate(row interface{ Scan(...any) error }) (*PdfTemplate, error) {
	t := &PdfTemplate{}
	var annotations []byte
	err := row.Scan(
		&t.ID, &t.TenantID, &t.Name, &t.Description, &t.SupplierProfileID,
		&t.FileHash, &t.PageCount, &t.S3Key, &t.FileSize, &annotations, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Annotations = json.RawMessage(annotations)
	return t, nil
}

func (s *service) ListPdfTemplates(ctx context.Context, tenantID uuid.UUID) ([]PdfTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pdfTemplateColumns+` FROM pdf_templates WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []PdfTemplate{}
	for rows.Next() {
		t, err := scanPdfTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *service) GetPdfTemplate(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*PdfTemplate, error) {
	t, err := scanPdfTemplate(s.db.QueryRowContext(ctx,
		`SELECT `+pdfTemplateColumns+` FROM pdf_templates WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *service) CreatePdfTemplate(ctx context.Context, template *PdfTemplate) error {
	annotations := template.Annotations
	if len(annotations) == 0 {
		annotations = json.RawMessage(`[]`)
	}

	query := `
		INSERT INTO pdf_templates (tenant_id, name, description, supplier_profile_id, file_hash, page_count, s3_key, file_size, annotations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at`

	return s.db.QueryRowContext(ctx, query,
		template.TenantID, template.Name, template.Description, template.SupplierProfileID,
		template.FileHash, template.PageCount, template.S3Key, template.FileSize, []byte(annotations)).
		Scan(&template.ID, &template.CreatedAt)
}

// DeletePdfTemplate removes the row and returns it so the caller can clean
// up the stored object.
func (s *service) DeletePdfTemplate(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*PdfTemplate, error) {
	t, err := scanPdfTemplate(s.db.QueryRowContext(ctx,
		`DELETE FROM pdf_templates WHERE id = $1 AND tenant_id = $2 RETURNING `+pdfTemplateColumns, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}
