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

type Quote struct {
	ID          uuid.UUID   `json:"id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	ClientID    *uuid.UUID  `json:"client_id"`
	ClientEmail string      `json:"client_email,omitempty"`
	Reference   string      `json:"reference"`
	Status      QuoteStatus `json:"status"`
	TotalNet    float64     `json:"total_net"`
	TotalVAT    float64     `json:"total_vat"`
	TotalGross  float64     `json:"total_gross"`
	SentAt      *time.Time  `json:"sent_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// QuoteLine is one priced row of a quote. LineStandard is freeform jsonb
// (width/height/timber/finish/ironmongery/glazing and whatever else the
// questionnaire defines); no schema is enforced on it.
type QuoteLine struct {
	ID           uuid.UUID       `json:"id"`
	QuoteID      uuid.UUID       `json:"quote_id"`
	Position     int             `json:"position"`
	Description  string          `json:"description"`
	Qty          float64         `json:"qty"`
	UnitPrice    float64         `json:"unit_price"`
	SellUnit     float64         `json:"sell_unit"`
	SellTotal    float64         `json:"sell_total"`
	LineStandard json.RawMessage `json:"line_standard"`
	SceneConfig  json.RawMessage `json:"scene_config,omitempty"`
	RawSource    json.RawMessage `json:"raw_source,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type QuoteLinePatch struct {
	Description  *string          `json:"description"`
	Qty          *float64         `json:"qty"`
	UnitPrice    *float64         `json:"unit_price"`
	LineStandard *json.RawMessage `json:"line_standard"`
	SceneConfig  *json.RawMessage `json:"scene_config"`
}

type LinePhoto struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	LineID       uuid.UUID `json:"line_id"`
	S3Key        string    `json:"s3_key"`
	ThumbnailKey string    `json:"thumbnail_key"`
	Caption      string    `json:"caption"`
	CreatedAt    time.Time `json:"created_at"`
}

type Client struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Postcode  string    `json:"postcode"`
	CreatedAt time.Time `json:"created_at"`
}

const quoteColumns = `id, tenant_id, client_id, reference, status, total_net, total_vat, total_gross, sent_at, created_at, updated_at`

func (s *service) GetQuote(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*Quote, error) {
	q := &Quote{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = $1 AND tenant_id = $2`, id, tenantID).
		Scan(&q.ID, &q.TenantID, &q.ClientID, &q.Reference, &q.Status,
			&q.TotalNet, &q.TotalVAT, &q.TotalGross, &q.SentAt, &q.CreatedAt, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *service) CreateQuote(ctx context.Context, quote *Quote) error {
	if quote.Status == "" {
		quote.Status = QuoteDraft
	}
	query := `
		INSERT INTO quotes (tenant_id, client_id, reference, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		quote.TenantID, quote.ClientID, quote.Reference, quote.Status).
		Scan(&quote.ID, &quote.CreatedAt, &quote.UpdatedAt)
}

const lineColumns = `l.id, l.quote_id, l.position, l.description, l.qty, l.unit_price, l.sell_unit, l.sell_total,
	l.line_standard, l.scene_config, l.raw_source, l.created_at, l.updated_at`

func scanLine(row interface{ Scan(...any) error }) (*QuoteLine, error) {
	l := &QuoteLine{}
	var lineStandard []byte
	var sceneConfig, rawSource sql.NullString
	err := row.Scan(
		&l.ID, &l.QuoteID, &l.Position, &l.Description, &l.Qty, &l.UnitPrice, &l.SellUnit, &l.SellTotal,
		&lineStandard, &sceneConfig, &rawSource, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.LineStandard = json.RawMessage(lineStandard)
	if sceneConfig.Valid {
		l.SceneConfig = json.RawMessage(sceneConfig.String)
	}
	if rawSource.Valid {
		l.RawSource = json.RawMessage(rawSource.String)
	}
	return l, nil
}

func (s *service) ListQuoteLines(ctx context.Context, tenantID uuid.UUID, quoteID uuid.UUID) ([]QuoteLine, error) {
	query := `SELECT ` + lineColumns + `
		FROM quote_lines l
		JOIN quotes q ON q.id = l.quote_id
		WHERE l.quote_id = $1 AND q.tenant_id = $2
		ORDER BY l.position ASC`

	rows, err := s.db.QueryContext(ctx, query, quoteID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []QuoteLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

// CreateQuoteLine appends the line and computes sell figures from the
// tenant's markup.
func (s *service) CreateQuoteLine(ctx context.Context, tenantID uuid.UUID, line *QuoteLine) error {
	if _, err := s.GetQuote(ctx, tenantID, line.QuoteID); err != nil {
		return err
	}

	lineStandard := line.LineStandard
	if len(lineStandard) == 0 {
		lineStandard = json.RawMessage(`{}`)
	}
	var sceneConfig, rawSource any
	if len(line.SceneConfig) > 0 {
		sceneConfig = []byte(line.SceneConfig)
	}
	if len(line.RawSource) > 0 {
		rawSource = []byte(line.RawSource)
	}

	query := `
		INSERT INTO quote_lines (quote_id, position, description, qty, unit_price, sell_unit, sell_total,
			line_standard, scene_config, raw_source, created_at, updated_at)
		SELECT $1,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM quote_lines WHERE quote_id = $1),
			$2, $3, $4,
			$4 * (1 + ts.markup_percent / 100),
			$3 * $4 * (1 + ts.markup_percent / 100),
			$5, $6, $7, NOW(), NOW()
		FROM (SELECT COALESCE(
			(SELECT markup_percent FROM tenant_settings WHERE tenant_id = $8), 0) AS markup_percent) ts
		RETURNING id, position, sell_unit, sell_total, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		line.QuoteID, line.Description, line.Qty, line.UnitPrice,
		[]byte(lineStandard), sceneConfig, rawSource, tenantID).
		Scan(&line.ID, &line.Position, &line.SellUnit, &line.SellTotal, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return err
	}
	line.LineStandard = lineStandard
	return nil
}

// UpdateQuoteLine is the autosave target. Sell figures are recomputed from
// the current markup whenever qty or unit price move; last write wins.
func (s *service) UpdateQuoteLine(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch QuoteLinePatch) (*QuoteLine, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Qty != nil {
		add("qty", *patch.Qty)
	}
	if patch.UnitPrice != nil {
		add("unit_price", *patch.UnitPrice)
	}
	if patch.LineStandard != nil {
		add("line_standard", []byte(*patch.LineStandard))
	}
	if patch.SceneConfig != nil {
		add("scene_config", []byte(*patch.SceneConfig))
	}
	if len(sets) == 0 {
		return s.GetQuoteLine(ctx, tenantID, id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, tenantID)
	update := fmt.Sprintf(`
		UPDATE quote_lines l SET %s
		FROM quotes q
		WHERE l.id = $%d AND q.id = l.quote_id AND q.tenant_id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))

	result, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	// Sell figures always follow the stored qty/unit price and the current
	// tenant markup.
	_, err = tx.ExecContext(ctx, `
		UPDATE quote_lines l SET
			sell_unit = l.unit_price * (1 + ts.markup_percent / 100),
			sell_total = l.qty * l.unit_price * (1 + ts.markup_percent / 100)
		FROM quotes q, tenant_settings ts
		WHERE l.id = $1 AND q.id = l.quote_id AND ts.tenant_id = q.tenant_id`, id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + lineColumns + `
		FROM quote_lines l JOIN quotes q ON q.id = l.quote_id
		WHERE l.id = $1 AND q.tenant_id = $2`
	l, err := scanLine(tx.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		return nil, err
	}
	return l, tx.Commit()
}

func (s *service) GetQuoteLine(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*QuoteLine, error) {
	query := `SELECT ` + lineColumns + `
		FROM quote_lines l JOIN quotes q ON q.id = l.quote_id
		WHERE l.id = $1 AND q.tenant_id = $2`
	l, err := scanLine(s.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return l, err
}

func (s *service) DeleteQuoteLine(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM quote_lines l
		USING quotes q
		WHERE l.id = $1 AND q.id = l.quote_id AND q.tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecomputeQuoteTotals rolls the line sell totals up into the quote header.
func (s *service) RecomputeQuoteTotals(ctx context.Context, quoteID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE quotes q SET
			total_net = sums.net,
			total_vat = sums.net * ts.vat_percent / 100,
			total_gross = sums.net * (1 + ts.vat_percent / 100),
			updated_at = NOW()
		FROM (SELECT COALESCE(SUM(sell_total), 0) AS net FROM quote_lines WHERE quote_id = $1) sums,
			tenant_settings ts
		WHERE q.id = $1 AND ts.tenant_id = q.tenant_id`, quoteID)
	return err
}

func (s *service) ListLinePhotos(ctx context.Context, tenantID uuid.UUID, lineID uuid.UUID) ([]LinePhoto, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.tenant_id, p.line_id, p.s3_key, p.thumbnail_key, p.caption, p.created_at
		FROM line_photos p
		JOIN quote_lines l ON l.id = p.line_id
		JOIN quotes q ON q.id = l.quote_id
		WHERE p.line_id = $1 AND q.tenant_id = $2
		ORDER BY p.created_at ASC`, lineID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []LinePhoto{}
	for rows.Next() {
		var p LinePhoto
		if err := rows.Scan(&p.ID, &p.TenantID, &p.LineID, &p.S3Key, &p.ThumbnailKey, &p.Caption, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (s *service) CreateLinePhoto(ctx context.Context, photo *LinePhoto) error {
	query := `
		INSERT INTO line_photos (tenant_id, line_id, s3_key, thumbnail_key, caption, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query,
		photo.TenantID, photo.LineID, photo.S3Key, photo.ThumbnailKey, photo.Caption).
		Scan(&photo.ID, &photo.CreatedAt)
}

func (s *service) UpdatePhotoCaption(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, caption string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE line_photos SET caption = $1 WHERE id = $2 AND tenant_id = $3`, caption, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *service) DeleteLinePhoto(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*LinePhoto, error) {
	p := &LinePhoto{}
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM line_photos WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, line_id, s3_key, thumbnail_key, caption, created_at`, id, tenantID).
		Scan(&p.ID, &p.TenantID, &p.LineID, &p.S3Key, &p.ThumbnailKey, &p.Caption, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SearchClients(ctx context.Context, tenantID uuid.UUID, term string, limit int) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, email, phone, postcode, created_at
		FROM clients
		WHERE tenant_id = $1 AND (name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%' OR postcode ILIKE $2 || '%')
		ORDER BY name ASC
		LIMIT $3`, tenantID, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Postcode, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *service) CreateClient(ctx context.Context, client *Client) error {
	query := `
		INSERT INTO clients (tenant_id, name, email, phone, postcode, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query,
		client.TenantID, client.Name, client.Email, client.Phone, client.Postcode).
		Scan(&client.ID, &client.CreatedAt)
}

// ListQuotesForFollowUp returns sent quotes with no response older than the
// cutoff, for the automation scheduler.
func (s *service) ListQuotesForFollowUp(ctx context.Context, tenantID uuid.UUID, olderThanDays int) ([]Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.tenant_id, q.client_id, q.reference, q.status, q.total_net, q.total_vat, q.total_gross,
			q.sent_at, q.created_at, q.updated_at, COALESCE(c.email, '')
		FROM quotes q
		LEFT JOIN clients c ON c.id = q.client_id
		WHERE q.tenant_id = $1 AND q.status = 'sent'
		  AND q.sent_at IS NOT NULL AND q.sent_at < NOW() - make_interval(days => $2)
		ORDER BY q.sent_at ASC`, tenantID, olderThanDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := []Quote{}
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.TenantID, &q.ClientID, &q.Reference, &q.Status,
			&q.TotalNet, &q.TotalVAT, &q.TotalGross, &q.SentAt, &q.CreatedAt, &q.UpdatedAt, &q.ClientEmail); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
