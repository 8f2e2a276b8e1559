package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionnaireField is one dynamically configurable form field. Options is
// never nil: a select with no options persists as [].
type QuestionnaireField struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	Key          string     `json:"key"`
	Label        string     `json:"label"`
	Type         FieldType  `json:"type"`
	Required     bool       `json:"required"`
	Scope        FieldScope `json:"scope"`
	SortOrder    int        `json:"sort_order"`
	Options      []string   `json:"options"`
	OptionCount  int        `json:"option_count"`
	ProductTypes []string   `json:"product_types"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type QuestionnaireFieldPatch struct {
	Label        *string   `json:"label"`
	Type         *string   `json:"type"`
	Required     *bool     `json:"required"`
	Scope        *string   `json:"scope"`
	Options      *[]string `json:"options"`
	ProductTypes *[]string `json:"product_types"`
}

const fieldColumns = `id, tenant_id, key, label, type, required, scope, sort_order, options, product_types, created_at, updated_at`

func scanField(row interface{ Scan(...any) error }) (*QuestionnaireField, error) {
	f := &QuestionnaireField{}
	var options, productTypes []byte
	err := row.Scan(
		&f.ID, &f.TenantID, &f.Key, &f.Label, &f.Type, &f.Required, &f.Scope,
		&f.SortOrder, &options, &productTypes, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &f.Options); err != nil {
		return nil, fmt.Errorf("bad options json: %w", err)
	}
	if err := json.Unmarshal(productTypes, &f.ProductTypes); err != nil {
		return nil, fmt.Errorf("bad product types json: %w", err)
	}
	if f.Options == nil {
		f.Options = []string{}
	}
	if f.ProductTypes == nil {
		f.ProductTypes = []string{}
	}
	f.OptionCount = len(f.Options)
	return f, nil
}

func (s *service) ListQuestionnaireFields(ctx context.Context, tenantID uuid.UUID) ([]QuestionnaireField, error) {
	query := fmt.Sprintf(`SELECT %s FROM questionnaire_fields WHERE tenant_id = $1 ORDER BY sort_order ASC`, fieldColumns)
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := []QuestionnaireField{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *f)
	}
	return fields, rows.Err()
}

// CreateQuestionnaireField appends the field at the end of the order.
func (s *service) CreateQuestionnaireField(ctx context.Context, field *QuestionnaireField) error {
	options, _ := json.Marshal(orEmpty(field.Options))
	productTypes, _ := json.Marshal(orEmpty(field.ProductTypes))

	query := `
		INSERT INTO questionnaire_fields (tenant_id, key, label, type, required, scope, sort_order, options, product_types, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM questionnaire_fields WHERE tenant_id = $1),
			$7, $8, NOW(), NOW())
		RETURNING id, sort_order, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		field.TenantID, field.Key, field.Label, field.Type, field.Required, field.Scope,
		options, productTypes).
		Scan(&field.ID, &field.SortOrder, &field.CreatedAt, &field.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if field.Options == nil {
		field.Options = []string{}
	}
	if field.ProductTypes == nil {
		field.ProductTypes = []string{}
	}
	field.OptionCount = len(field.Options)
	return nil
}

func (s *service) UpdateQuestionnaireField(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch QuestionnaireFieldPatch) (*QuestionnaireField, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Label != nil {
		add("label", *patch.Label)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	if patch.Required != nil {
		add("required", *patch.Required)
	}
	if patch.Scope != nil {
		add("scope", *patch.Scope)
	}
	if patch.Options != nil {
		b, _ := json.Marshal(orEmpty(*patch.Options))
		add("options", b)
	}
	if patch.ProductTypes != nil {
		b, _ := json.Marshal(orEmpty(*patch.ProductTypes))
		add("product_types", b)
	}
	if len(sets) == 0 {
		query := fmt.Sprintf(`SELECT %s FROM questionnaire_fields WHERE id = $1 AND tenant_id = $2`, fieldColumns)
		f, err := scanField(s.db.QueryRowContext(ctx, query, id, tenantID))
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return f, err
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, tenantID)
	query := fmt.Sprintf(`UPDATE questionnaire_fields SET %s WHERE id = $%d AND tenant_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), fieldColumns)

	f, err := scanField(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *service) DeleteQuestionnaireField(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM questionnaire_fields WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderQuestionnaireFields rewrites sort_order as 0..N-1 following the
// submitted order. The submitted ids must be exactly the tenant's field set;
// anything else rolls back and leaves the previous order intact.
func (s *service) ReorderQuestionnaireFields(ctx context.Context, tenantID uuid.UUID, orderedIDs []uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questionnaire_fields WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return err
	}
	if total != len(orderedIDs) {
		return fmt.Errorf("reorder must include all %d fields, got %d", total, len(orderedIDs))
	}

	seen := make(map[uuid.UUID]bool, len(orderedIDs))
	for position, id := range orderedIDs {
		if seen[id] {
			return fmt.Errorf("duplicate field id %s in reorder", id)
		}
		seen[id] = true

		result, err := tx.ExecContext(ctx,
			`UPDATE questionnaire_fields SET sort_order = $1, updated_at = NOW() WHERE id = $2 AND tenant_id = $3`,
			position, id, tenantID)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("unknown field id %s in reorder", id)
		}
	}

	return tx.Commit()
}

// standardFields is the seed set offered to every tenant.
var standardFields = []QuestionnaireField{
	{Key: "project_location", Label: "Project location", Type: FieldText, Required: true, Scope: ScopePublic},
	{Key: "door_width_mm", Label: "Door width (mm)", Type: FieldNumber, Required: true, Scope: ScopePublic},
	{Key: "door_height_mm", Label: "Door height (mm)", Type: FieldNumber, Required: true, Scope: ScopePublic},
	{Key: "timber_species", Label: "Timber species", Type: FieldSelect, Scope: ScopePublic,
		Options: []string{"Oak", "Ash", "Sapele", "Accoya", "Softwood"}},
	{Key: "finish", Label: "Finish", Type: FieldSelect, Scope: ScopePublic,
		Options: []string{"Unfinished", "Primed", "Painted", "Lacquered", "Stained"}},
	{Key: "fire_rating", Label: "Fire rating", Type: FieldSelect, Scope: ScopeManufacturing,
		Options: []string{"None", "FD30", "FD60"}},
	{Key: "glazing", Label: "Glazing", Type: FieldText, Scope: ScopeManufacturing},
	{Key: "ironmongery_pack", Label: "Ironmongery pack", Type: FieldSelect, Scope: ScopeInternal,
		Options: []string{}},
	{Key: "site_access_notes", Label: "Site access notes", Type: FieldTextarea, Scope: ScopeInstallation},
	{Key: "survey_photos", Label: "Survey photos", Type: FieldFile, Scope: ScopeInternal},
}

// SeedStandardFields inserts the standard set, skipping keys that already
// exist. Returns the number of fields inserted.
func (s *service) SeedStandardFields(ctx context.Context, tenantID uuid.UUID) (int, error) {
	inserted := 0
	for _, field := range standardFields {
		f := field
		f.TenantID = tenantID
		options, _ := json.Marshal(orEmpty(f.Options))
		productTypes, _ := json.Marshal(orEmpty(f.ProductTypes))

		result, err := s.db.ExecContext(ctx, `
			INSERT INTO questionnaire_fields (tenant_id, key, label, type, required, scope, sort_order, options, product_types, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6,
				(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM questionnaire_fields WHERE tenant_id = $1),
				$7, $8, NOW(), NOW())
			ON CONFLICT (tenant_id, key) DO NOTHING`,
			tenantID, f.Key, f.Label, f.Type, f.Required, f.Scope, options, productTypes)
		if err != nil {
			return inserted, err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// legacyKeyRenames maps field keys from the pre-standard naming to the
// current standard set.
var legacyKeyRenames = map[string]string{
	"width":      "door_width_mm",
	"height":     "door_height_mm",
	"timber":     "timber_species",
	"fireRating": "fire_rating",
}

// MigrateStandardFields renames legacy keys in place. Returns the number of
// fields migrated.
func (s *service) MigrateStandardFields(ctx context.Context, tenantID uuid.UUID) (int, error) {
	migrated := 0
	for legacy, standard := range legacyKeyRenames {
		result, err := s.db.ExecContext(ctx, `
			UPDATE questionnaire_fields SET key = $1, updated_at = NOW()
			WHERE tenant_id = $2 AND key = $3
			  AND NOT EXISTS (SELECT 1 FROM questionnaire_fields WHERE tenant_id = $2 AND key = $1)`,
			standard, tenantID, legacy)
		if err != nil {
			return migrated, err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			migrated += int(n)
		}
	}
	return migrated, nil
}
