package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
)

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Service exposes every persistence operation the API needs. There is one
// implementation backed by Postgres; tests get the same implementation
// against a throwaway container.
type Service interface {
	Health() map[string]string
	Close() error

	// Users & tenants
	GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
	CreateTenant(ctx context.Context, tenant *Tenant) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int) (*User, error)
	CreateOrUpdateUser(ctx context.Context, user *User) error

	// Mailbox connections (Gmail / MS365)
	UpsertMailboxConnection(ctx context.Context, conn *MailboxConnection) error
	GetMailboxConnection(ctx context.Context, tenantID uuid.UUID, provider string) (*MailboxConnection, error)
	DeleteMailboxConnection(ctx context.Context, tenantID uuid.UUID, provider string) error

	// Dev tasks & calendar
	ListDevTasks(ctx context.Context, tenantID uuid.UUID) ([]DevTask, error)
	CreateDevTask(ctx context.Context, task *DevTask) error
	UpdateDevTask(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch DevTaskPatch) (*DevTask, error)
	ListDaySchedules(ctx context.Context, tenantID uuid.UUID, from, to string) ([]DaySchedule, error)
	UpsertDaySchedule(ctx context.Context, schedule *DaySchedule) error
	ListTaskAssignments(ctx context.Context, tenantID uuid.UUID, from, to string) ([]TaskAssignment, error)
	CreateTaskAssignment(ctx context.Context, assignment *TaskAssignment) error
	DeleteTaskAssignment(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error
	CalendarSummary(ctx context.Context, tenantID uuid.UUID, from, to string) ([]DaySummary, error)

	// Tenant settings
	GetTenantSettings(ctx context.Context, tenantID uuid.UUID) (*TenantSettings, error)
	SaveTenantSettings(ctx context.Context, settings *TenantSettings) error
	PatchTenantSettings(ctx context.Context, tenantID uuid.UUID, patch SettingsPatch) (*TenantSettings, error)
	SetTenantLogo(ctx context.Context, tenantID uuid.UUID, logoKey string) error

	// Questionnaire fields
	ListQuestionnaireFields(ctx context.Context, tenantID uuid.UUID) ([]QuestionnaireField, error)
	CreateQuestionnaireField(ctx context.Context, field *QuestionnaireField) error
	UpdateQuestionnaireField(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch QuestionnaireFieldPatch) (*QuestionnaireField, error)
	DeleteQuestionnaireField(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error
	ReorderQuestionnaireFields(ctx context.Context, tenantID uuid.UUID, orderedIDs []uuid.UUID) error
	SeedStandardFields(ctx context.Context, tenantID uuid.UUID) (int, error)
	MigrateStandardFields(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Workshop processes
	ListWorkshopProcesses(ctx context.Context, tenantID uuid.UUID) ([]WorkshopProcess, error)
	CreateWorkshopProcess(ctx context.Context, process *WorkshopProcess) error
	UpdateWorkshopProcess(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch WorkshopProcessPatch) (*WorkshopProcess, error)
	DeleteWorkshopProcess(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error
	SeedDefaultProcesses(ctx context.Context, tenantID uuid.UUID) (int, error)

	// PDF templates
	ListPdfTemplates(ctx context.Context, tenantID uuid.UUID) ([]PdfTemplate, error)
	GetPdfTemplate(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*PdfTemplate, error)
	CreatePdfTemplate(ctx context.Context, template *PdfTemplate) error
	DeletePdfTemplate(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*PdfTemplate, error)

	// Quotes, lines, photos, clients
	GetQuote(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*Quote, error)
	CreateQuote(ctx context.Context, quote *Quote) error
	ListQuoteLines(ctx context.Context, tenantID uuid.UUID, quoteID uuid.UUID) ([]QuoteLine, error)
	GetQuoteLine(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*QuoteLine, error)
	CreateQuoteLine(ctx context.Context, tenantID uuid.UUID, line *QuoteLine) error
	UpdateQuoteLine(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch QuoteLinePatch) (*QuoteLine, error)
	DeleteQuoteLine(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error
	RecomputeQuoteTotals(ctx context.Context, quoteID uuid.UUID) error
	ListLinePhotos(ctx context.Context, tenantID uuid.UUID, lineID uuid.UUID) ([]LinePhoto, error)
	CreateLinePhoto(ctx context.Context, photo *LinePhoto) error
	UpdatePhotoCaption(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, caption string) error
	DeleteLinePhoto(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*LinePhoto, error)
	SearchClients(ctx context.Context, tenantID uuid.UUID, term string, limit int) ([]Client, error)
	CreateClient(ctx context.Context, client *Client) error
	ListQuotesForFollowUp(ctx context.Context, tenantID uuid.UUID, olderThanDays int) ([]Quote, error)

	// Fire-door RFIs
	ListRFIs(ctx context.Context, tenantID uuid.UUID, lineItemID *uuid.UUID) ([]RFI, error)
	CreateRFI(ctx context.Context, rfi *RFI) error
	UpdateRFI(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, patch RFIPatch) (*RFI, error)
	DeleteRFI(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error

	// Material costs
	ListMaterialCosts(ctx context.Context, tenantID uuid.UUID) (*MaterialCosts, error)
	ImportMaterialCosts(ctx context.Context, tenantID uuid.UUID, costs *MaterialCosts) (ImportStats, error)
}

type service struct {
	db *sql.DB
}

var dbInstance *service

// New returns the singleton database service, opening the connection and
// running migrations on first use.
func New() Service {
	if dbInstance != nil {
		return dbInstance
	}

	db, err := sql.Open("pgx", os.Getenv("DB_STRING"))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := runMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	dbInstance = &service{db: db}
	return dbInstance
}

// Health reports connection status and pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	dbStats := s.db.Stats()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)

	return stats
}

func (s *service) Close() error {
	log.Printf("disconnecting from database")
	return s.db.Close()
}
