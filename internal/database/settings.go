package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TenantSettings is the per-tenant configuration aggregate behind the
// settings console. Structured slices are stored as jsonb.
type TenantSettings struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	CompanyName string    `json:"company_name"`
	TradingName string    `json:"trading_name"`
	LogoKey     string    `json:"logo_key"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	Website     string    `json:"website"`

	MarkupPercent  float64  `json:"markup_percent"`
	VATPercent     float64  `json:"vat_percent"`
	GuaranteeText  string   `json:"guarantee_text"`
	Testimonials   []string `json:"testimonials"`
	Certifications []string `json:"certifications"`

	FireDoorCalculatorEnabled bool `json:"fire_door_calculator_enabled"`
	CoachingHubEnabled        bool `json:"coaching_hub_enabled"`

	TaskPlaybook   json.RawMessage `json:"task_playbook"`
	EmailTemplates []EmailTemplate `json:"email_templates"`
	Automation     Automation      `json:"automation"`

	UpdatedAt time.Time `json:"updated_at"`
}

type EmailTemplate struct {
	Key     string `json:"key"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Automation struct {
	Enabled        bool   `json:"enabled"`
	FollowUpDays   int    `json:"follow_up_days"`
	FollowUpAtHour int    `json:"follow_up_at_hour"`
	TemplateKey    string `json:"template_key"`
}

// SettingsPatch is a merge-patch: nil fields are left untouched, jsonb
// slices are replaced whole when present.
type SettingsPatch struct {
	CompanyName               *string          `json:"company_name"`
	TradingName               *string          `json:"trading_name"`
	Phone                     *string          `json:"phone"`
	Email                     *string          `json:"email"`
	Address                   *string          `json:"address"`
	Website                   *string          `json:"website"`
	MarkupPercent             *float64         `json:"markup_percent"`
	VATPercent                *float64         `json:"vat_percent"`
	GuaranteeText             *string          `json:"guarantee_text"`
	Testimonials              *[]string        `json:"testimonials"`
	Certifications            *[]string        `json:"certifications"`
	FireDoorCalculatorEnabled *bool            `json:"fire_door_calculator_enabled"`
	CoachingHubEnabled        *bool            `json:"coaching_hub_enabled"`
	TaskPlaybook              *json.RawMessage `json:"task_playbook"`
	EmailTemplates            *[]EmailTemplate `json:"email_templates"`
	Automation                *Automation      `json:"automation"`
}

const settingsColumns = `tenant_id, company_name, trading_name, logo_key, phone, email, address, website,
	markup_percent, vat_percent, guarantee_text, testimonials, certifications,
	fire_door_calculator_enabled, coaching_hub_enabled, task_playbook, email_templates, automation, updated_at`

func scanSettings(row interface{ Scan(...any) error }) (*TenantSettings, error) {
	settings := &TenantSettings{}
	var testimonials, certifications, playbook, templates, automation []byte

	err := row.Scan(
		&settings.TenantID, &settings.CompanyName, &settings.TradingName, &settings.LogoKey,
		&settings.Phone, &settings.Email, &settings.Address, &settings.Website,
		&settings.MarkupPercent, &settings.VATPercent, &settings.GuaranteeText,
		&testimonials, &certifications,
		&settings.FireDoorCalculatorEnabled, &settings.CoachingHubEnabled,
		&playbook, &templates, &automation, &settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(testimonials, &settings.Testimonials); err != nil {
		return nil, fmt.Errorf("bad testimonials json: %w", err)
	}
	if err := json.Unmarshal(certifications, &settings.Certifications); err != nil {
		return nil, fmt.Errorf("bad certifications json: %w", err)
	}
	settings.TaskPlaybook = json.RawMessage(playbook)
	if err := json.Unmarshal(templates, &settings.EmailTemplates); err != nil {
		return nil, fmt.Errorf("bad email templates json: %w", err)
	}
	if err := json.Unmarshal(automation, &settings.Automation); err != nil {
		return nil, fmt.Errorf("bad automation json: %w", err)
	}
	return settings, nil
}

// GetTenantSettings returns the tenant's settings row, creating the default
// row on first read.
func (s *service) GetTenantSettings(ctx context.Context, tenantID uuid.UUID) (*TenantSettings, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenant_settings WHERE tenant_id = $1`, settingsColumns)
	settings, err := scanSettings(s.db.QueryRowContext(ctx, query, tenantID))
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	insert := fmt.Sprintf(`
		INSERT INTO tenant_settings (tenant_id, updated_at) VALUES ($1, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET tenant_id = EXCLUDED.tenant_id
		RETURNING %s`, settingsColumns)
	return scanSettings(s.db.QueryRowContext(ctx, insert, tenantID))
}

// SaveTenantSettings replaces the whole row.
func (s *service) SaveTenantSettings(ctx context.Context, settings *TenantSettings) error {
	testimonials, _ := json.Marshal(orEmpty(settings.Testimonials))
	certifications, _ := json.Marshal(orEmpty(settings.Certifications))
	playbook := settings.TaskPlaybook
	if len(playbook) == 0 {
		playbook = json.RawMessage(`[]`)
	}
	templates, _ := json.Marshal(settings.EmailTemplates)
	if settings.EmailTemplates == nil {
		templates = []byte(`[]`)
	}
	automation, _ := json.Marshal(settings.Automation)

	query := `
		INSERT INTO tenant_settings (tenant_id, company_name, trading_name, logo_key, phone, email, address, website,
			markup_percent, vat_percent, guarantee_text, testimonials, certifications,
			fire_door_calculator_enabled, coaching_hub_enabled, task_playbook, email_templates, automation, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		ON CONFLICT (tenant_id)
		DO UPDATE SET
			company_name = EXCLUDED.company_name,
			trading_name = EXCLUDED.trading_name,
			logo_key = EXCLUDED.logo_key,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			website = EXCLUDED.website,
			markup_percent = EXCLUDED.markup_percent,
			vat_percent = EXCLUDED.vat_percent,
			guarantee_text = EXCLUDED.guarantee_text,
			testimonials = EXCLUDED.testimonials,
			certifications = EXCLUDED.certifications,
			fire_door_calculator_enabled = EXCLUDED.fire_door_calculator_enabled,
			coaching_hub_enabled = EXCLUDED.coaching_hub_enabled,
			task_playbook = EXCLUDED.task_playbook,
			email_templates = EXCLUDED.email_templates,
			automation = EXCLUDED.automation,
			updated_at = NOW()
		RETURNING updated_at`

	return s.db.QueryRowContext(ctx, query,
		settings.TenantID, settings.CompanyName, settings.TradingName, settings.LogoKey,
		settings.Phone, settings.Email, settings.Address, settings.Website,
		settings.MarkupPercent, settings.VATPercent, settings.GuaranteeText,
		testimonials, certifications,
		settings.FireDoorCalculatorEnabled, settings.CoachingHubEnabled,
		playbook, templates, automation).
		Scan(&settings.UpdatedAt)
}

// PatchTenantSettings merges only the provided fields; last write wins.
func (s *service) PatchTenantSettings(ctx context.Context, tenantID uuid.UUID, patch SettingsPatch) (*TenantSettings, error) {
	// The patch always runs against an existing row.
	if _, err := s.GetTenantSettings(ctx, tenantID); err != nil {
		return nil, err
	}

	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.CompanyName != nil {
		add("company_name", *patch.CompanyName)
	}
	if patch.TradingName != nil {
		add("trading_name", *patch.TradingName)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.Website != nil {
		add("website", *patch.Website)
	}
	if patch.MarkupPercent != nil {
		add("markup_percent", *patch.MarkupPercent)
	}
	if patch.VATPercent != nil {
		add("vat_percent", *patch.VATPercent)
	}
	if patch.GuaranteeText != nil {
		add("guarantee_text", *patch.GuaranteeText)
	}
	if patch.Testimonials != nil {
		b, _ := json.Marshal(orEmpty(*patch.Testimonials))
		add("testimonials", b)
	}
	if patch.Certifications != nil {
		b, _ := json.Marshal(orEmpty(*patch.Certifications))
		add("certifications", b)
	}
	if patch.FireDoorCalculatorEnabled != nil {
		add("fire_door_calculator_enabled", *patch.FireDoorCalculatorEnabled)
	}
	if patch.CoachingHubEnabled != nil {
		add("coaching_hub_enabled", *patch.CoachingHubEnabled)
	}
	if patch.TaskPlaybook != nil {
		add("task_playbook", []byte(*patch.TaskPlaybook))
	}
	if patch.EmailTemplates != nil {
		b, _ := json.Marshal(*patch.EmailTemplates)
		add("email_templates", b)
	}
	if patch.Automation != nil {
		b, _ := json.Marshal(*patch.Automation)
		add("automation", b)
	}

	if len(sets) == 0 {
		return s.GetTenantSettings(ctx, tenantID)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, tenantID)
	query := fmt.Sprintf(`UPDATE tenant_settings SET %s WHERE tenant_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), settingsColumns)

	return scanSettings(s.db.QueryRowContext(ctx, query, args...))
}

// SetTenantLogo records the uploaded logo's storage key.
func (s *service) SetTenantLogo(ctx context.Context, tenantID uuid.UUID, logoKey string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tenant_settings SET logo_key = $1, updated_at = NOW() WHERE tenant_id = $2`, logoKey, tenantID)
	return err
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
