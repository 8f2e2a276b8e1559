package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row for the tenant.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with a unique constraint,
// such as a duplicate questionnaire field key or workshop process code.
var ErrConflict = errors.New("already exists")

type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           int       `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MailboxConnection records a connected Gmail / MS365 inbox for a tenant.
type MailboxConnection struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Provider     string    `json:"provider"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *service) GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	tenant := &Tenant{}
	query := `SELECT id, name, created_at FROM tenants WHERE id = $1`

	err := s.db.QueryRowContext(ctx, query, id).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *service) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *service) CreateTenant(ctx context.Context, tenant *Tenant) error {
	query := `INSERT INTO tenants (name, created_at) VALUES ($1, NOW()) RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query, tenant.Name).Scan(&tenant.ID, &tenant.CreatedAt)
}

func (s *service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	query := `SELECT id, tenant_id, email, name, role, password_hash, created_at, updated_at
			  FROM users WHERE email = $1`

	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.TenantID, &user.Email, &user.Name,
		&user.Role, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) GetUserByID(ctx context.Context, id int) (*User, error) {
	user := &User{}
	query := `SELECT id, tenant_id, email, name, role, password_hash, created_at, updated_at
			  FROM users WHERE id = $1`

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.TenantID, &user.Email, &user.Name,
		&user.Role, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateOrUpdateUser upserts on email, the stable identifier across logins.
func (s *service) CreateOrUpdateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (tenant_id, email, name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (email)
		DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowContext(ctx, query,
		user.TenantID, user.Email, user.Name, user.Role, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (s *service) UpsertMailboxConnection(ctx context.Context, conn *MailboxConnection) error {
	query := `
		INSERT INTO mailbox_connections (tenant_id, provider, email, access_token, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (tenant_id, provider)
		DO UPDATE SET
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at
		RETURNING id, created_at`

	return s.db.QueryRowContext(ctx, query,
		conn.TenantID, conn.Provider, conn.Email, conn.AccessToken, conn.RefreshToken, conn.ExpiresAt).
		Scan(&conn.ID, &conn.CreatedAt)
}

func (s *service) GetMailboxConnection(ctx context.Context, tenantID uuid.UUID, provider string) (*MailboxConnection, error) {
	conn := &MailboxConnection{}
	query := `SELECT id, tenant_id, provider, email, access_token, refresh_token, expires_at, created_at
			  FROM mailbox_connections WHERE tenant_id = $1 AND provider = $2`

	err := s.db.QueryRowContext(ctx, query, tenantID, provider).Scan(
		&conn.ID, &conn.TenantID, &conn.Provider, &conn.Email,
		&conn.AccessToken, &conn.RefreshToken, &conn.ExpiresAt, &conn.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *service) DeleteMailboxConnection(ctx context.Context, tenantID uuid.UUID, provider string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM mailbox_connections WHERE tenant_id = $1 AND provider = $2`, tenantID, provider)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
