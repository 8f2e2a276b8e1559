package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func mustStartPostgresContainer() (func(context.Context, ...testcontainers.TerminateOption) error, string, error) {
	var (
		dbName = "test_db"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, "", fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, "", fmt.Errorf("failed to get container mapped port: %w", err)
	}

	connStr := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPwd, host, port.Port(), dbName)

	return dbContainer.Terminate, connStr, nil
}

func TestMain(m *testing.M) {
	teardown, testDbString, err := mustStartPostgresContainer()
	if err != nil {
		log.Fatalf("could not start postgres container for tests: %v", err)
	}

	os.Setenv("DB_STRING", testDbString)
	// Tests run from this package directory; migrations live at the repo root.
	os.Setenv("MIGRATIONS_PATH", "../../migrations")
	dbInstance = nil

	exitCode := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(exitCode)
}

func testTenant(t *testing.T, srv Service) uuid.UUID {
	t.Helper()
	tenant := &Tenant{Name: fmt.Sprintf("tenant-%s", uuid.NewString()[:8])}
	if err := srv.CreateTenant(context.Background(), tenant); err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}
	return tenant.ID
}

func TestHealth(t *testing.T) {
	srv := New()
	stats := srv.Health()
	if stats["status"] != "up" {
		t.Fatalf("expected status up, got %s (error: %s)", stats["status"], stats["error"])
	}
}

func TestCreateOrUpdateUser(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	user := &User{
		TenantID:     tenantID,
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Name:         "Alice",
		Role:         "admin",
		PasswordHash: "x",
	}
	if err := srv.CreateOrUpdateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	firstID := user.ID

	user.Name = "Alice B"
	if err := srv.CreateOrUpdateUser(ctx, user); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	if user.ID != firstID {
		t.Fatalf("upsert created a new row: %d != %d", user.ID, firstID)
	}

	got, err := srv.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Name != "Alice B" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}
}

func TestDevTaskPatch(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	task := &DevTask{
		TenantID: tenantID,
		Title:    "Build cutting list export",
		Status:   TaskBacklog,
		Priority: PriorityMedium,
		Type:     TypeDevelopment,
	}
	if err := srv.CreateDevTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	status := string(TaskInProgress)
	hours := 6.5
	updated, err := srv.UpdateDevTask(ctx, tenantID, task.ID, DevTaskPatch{Status: &status, EstimatedHours: &hours})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Status != TaskInProgress || updated.EstimatedHours != 6.5 {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Title != task.Title {
		t.Fatalf("patch clobbered title: %q", updated.Title)
	}

	if _, err := srv.UpdateDevTask(ctx, tenantID, uuid.New(), DevTaskPatch{Status: &status}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown task, got %v", err)
	}
}

func TestAssignmentSyncsScheduledDate(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	task := &DevTask{TenantID: tenantID, Title: "Spray booth refit", Status: TaskTodo, Priority: PriorityHigh, Type: TypeInfrastructure}
	if err := srv.CreateDevTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	later := &TaskAssignment{TenantID: tenantID, TaskID: task.ID, Date: "2026-09-10", AllocatedHours: 4}
	if err := srv.CreateTaskAssignment(ctx, later); err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	earlier := &TaskAssignment{TenantID: tenantID, TaskID: task.ID, Date: "2026-09-08", AllocatedHours: 2}
	if err := srv.CreateTaskAssignment(ctx, earlier); err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	tasks, err := srv.ListDevTasks(ctx, tenantID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if tasks[0].ScheduledDate != "2026-09-08" {
		t.Fatalf("scheduled_date should be the earliest assignment, got %q", tasks[0].ScheduledDate)
	}

	if err := srv.DeleteTaskAssignment(ctx, tenantID, earlier.ID); err != nil {
		t.Fatalf("delete assignment: %v", err)
	}
	tasks, _ = srv.ListDevTasks(ctx, tenantID)
	if tasks[0].ScheduledDate != "2026-09-10" {
		t.Fatalf("scheduled_date should move to the remaining assignment, got %q", tasks[0].ScheduledDate)
	}

	if err := srv.DeleteTaskAssignment(ctx, tenantID, later.ID); err != nil {
		t.Fatalf("delete assignment: %v", err)
	}
	tasks, _ = srv.ListDevTasks(ctx, tenantID)
	if tasks[0].ScheduledDate != "" {
		t.Fatalf("scheduled_date should clear with no assignments, got %q", tasks[0].ScheduledDate)
	}

	orphan := &TaskAssignment{TenantID: tenantID, TaskID: uuid.New(), Date: "2026-09-08", AllocatedHours: 1}
	if err := srv.CreateTaskAssignment(ctx, orphan); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown task, got %v", err)
	}
}

func TestCalendarSummaryOverallocation(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	if err := srv.UpsertDaySchedule(ctx, &DaySchedule{
		TenantID: tenantID, Date: "2026-10-05", IsWorkDay: true, AvailableHours: 8,
	}); err != nil {
		t.Fatalf("upsert schedule: %v", err)
	}

	task := &DevTask{TenantID: tenantID, Title: "Glazing run", Status: TaskTodo, Priority: PriorityMedium, Type: TypeDevelopment}
	if err := srv.CreateDevTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	for _, hours := range []float64{6, 5} {
		if err := srv.CreateTaskAssignment(ctx, &TaskAssignment{
			TenantID: tenantID, TaskID: task.ID, Date: "2026-10-05", AllocatedHours: hours,
		}); err != nil {
			t.Fatalf("create assignment: %v", err)
		}
	}

	summary, err := srv.CalendarSummary(ctx, tenantID, "2026-10-05", "2026-10-06")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected a row per day in range, got %d", len(summary))
	}

	day := summary[0]
	if day.Date != "2026-10-05" {
		t.Fatalf("expected first day 2026-10-05, got %s", day.Date)
	}
	if day.AllocatedHours != 11 || day.AvailableHours != 8 {
		t.Fatalf("unexpected hours: allocated=%v available=%v", day.AllocatedHours, day.AvailableHours)
	}
	if !day.Overallocated {
		t.Fatal("day with 11h allocated against 8h available should be flagged")
	}
	if summary[1].Overallocated || summary[1].TaskCount != 0 {
		t.Fatalf("empty day should be clean: %+v", summary[1])
	}
}

func TestTenantSettingsDefaultsAndPatch(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	settings, err := srv.GetTenantSettings(ctx, tenantID)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.Testimonials == nil || settings.Certifications == nil {
		t.Fatal("jsonb slices must not be nil on the default row")
	}

	markup := 25.0
	testimonials := []string{"Great doors"}
	patched, err := srv.PatchTenantSettings(ctx, tenantID, SettingsPatch{
		MarkupPercent: &markup,
		Testimonials:  &testimonials,
	})
	if err != nil {
		t.Fatalf("patch settings: %v", err)
	}
	if patched.MarkupPercent != 25 || len(patched.Testimonials) != 1 {
		t.Fatalf("patch not applied: %+v", patched)
	}
	if patched.VATPercent != settings.VATPercent {
		t.Fatalf("patch clobbered vat: %v", patched.VATPercent)
	}
}

func TestQuestionnaireReorder(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	created, err := srv.SeedStandardFields(ctx, tenantID)
	if err != nil {
		t.Fatalf("seed fields: %v", err)
	}
	if created == 0 {
		t.Fatal("seed should create fields for a fresh tenant")
	}
	again, err := srv.SeedStandardFields(ctx, tenantID)
	if err != nil || again != 0 {
		t.Fatalf("seed should be idempotent, created=%d err=%v", again, err)
	}

	fields, err := srv.ListQuestionnaireFields(ctx, tenantID)
	if err != nil {
		t.Fatalf("list fields: %v", err)
	}

	reversed := make([]uuid.UUID, 0, len(fields))
	for i := len(fields) - 1; i >= 0; i-- {
		reversed = append(reversed, fields[i].ID)
	}
	if err := srv.ReorderQuestionnaireFields(ctx, tenantID, reversed); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	after, _ := srv.ListQuestionnaireFields(ctx, tenantID)
	for i, field := range after {
		if field.ID != reversed[i] {
			t.Fatalf("position %d: expected %s, got %s", i, reversed[i], field.ID)
		}
		if field.SortOrder != i {
			t.Fatalf("sort_order must be contiguous from 0, got %d at %d", field.SortOrder, i)
		}
	}

	// A partial list is not a permutation; order must survive the rollback.
	if err := srv.ReorderQuestionnaireFields(ctx, tenantID, reversed[:len(reversed)-1]); err == nil {
		t.Fatal("reorder with missing ids should fail")
	}
	if err := srv.ReorderQuestionnaireFields(ctx, tenantID, append([]uuid.UUID{uuid.New()}, reversed[1:]...)); err == nil {
		t.Fatal("reorder with an unknown id should fail")
	}
	unchanged, _ := srv.ListQuestionnaireFields(ctx, tenantID)
	for i, field := range unchanged {
		if field.ID != reversed[i] {
			t.Fatalf("failed reorder must not change order, position %d differs", i)
		}
	}
}

func TestSelectFieldWithNoOptions(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	field := &QuestionnaireField{
		TenantID: tenantID,
		Key:      "hinge_finish",
		Label:    "Hinge finish",
		Type:     FieldSelect,
		Scope:    ScopeManufacturing,
	}
	if err := srv.CreateQuestionnaireField(ctx, field); err != nil {
		t.Fatalf("create field: %v", err)
	}

	fields, err := srv.ListQuestionnaireFields(ctx, tenantID)
	if err != nil {
		t.Fatalf("list fields: %v", err)
	}
	got := fields[0]
	if got.Options == nil {
		t.Fatal("options must round-trip as [], not null")
	}
	if got.OptionCount != 0 {
		t.Fatalf("expected option_count 0, got %d", got.OptionCount)
	}

	raw, _ := json.Marshal(got)
	if !strings.Contains(string(raw), `"options":[]`) {
		t.Fatalf("options must serialize as []: %s", raw)
	}
}

func TestWorkshopProcessSeed(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	created, err := srv.SeedDefaultProcesses(ctx, tenantID)
	if err != nil {
		t.Fatalf("seed processes: %v", err)
	}
	if created != 8 {
		t.Fatalf("expected 8 default processes, got %d", created)
	}
	again, err := srv.SeedDefaultProcesses(ctx, tenantID)
	if err != nil || again != 0 {
		t.Fatalf("seed should be idempotent, created=%d err=%v", again, err)
	}

	processes, _ := srv.ListWorkshopProcesses(ctx, tenantID)
	var sprayColorKey, lastManufacturing bool
	for _, p := range processes {
		if p.Code == "SPRAY" && p.IsColorKey {
			sprayColorKey = true
		}
		if p.IsLastManufacturing {
			lastManufacturing = true
		}
	}
	if !sprayColorKey || !lastManufacturing {
		t.Fatal("default process flags missing")
	}
}

func TestDuplicateCreateReturnsConflict(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	field := &QuestionnaireField{TenantID: tenantID, Key: "hinge_type", Label: "Hinge type", Type: FieldText, Scope: ScopePublic}
	if err := srv.CreateQuestionnaireField(ctx, field); err != nil {
		t.Fatalf("create field: %v", err)
	}
	dup := &QuestionnaireField{TenantID: tenantID, Key: "hinge_type", Label: "Hinge type again", Type: FieldText, Scope: ScopePublic}
	if err := srv.CreateQuestionnaireField(ctx, dup); err != ErrConflict {
		t.Fatalf("duplicate field key should be ErrConflict, got %v", err)
	}

	process := &WorkshopProcess{TenantID: tenantID, Code: "CNC", Name: "CNC machining"}
	if err := srv.CreateWorkshopProcess(ctx, process); err != nil {
		t.Fatalf("create process: %v", err)
	}
	dupProcess := &WorkshopProcess{TenantID: tenantID, Code: "CNC", Name: "CNC again"}
	if err := srv.CreateWorkshopProcess(ctx, dupProcess); err != ErrConflict {
		t.Fatalf("duplicate process code should be ErrConflict, got %v", err)
	}
}

func TestQuoteLineSellComputation(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	markup := 20.0
	vat := 20.0
	if _, err := srv.GetTenantSettings(ctx, tenantID); err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if _, err := srv.PatchTenantSettings(ctx, tenantID, SettingsPatch{MarkupPercent: &markup, VATPercent: &vat}); err != nil {
		t.Fatalf("patch settings: %v", err)
	}

	quote := &Quote{TenantID: tenantID, Reference: "Q-1001"}
	if err := srv.CreateQuote(ctx, quote); err != nil {
		t.Fatalf("create quote: %v", err)
	}

	line := &QuoteLine{QuoteID: quote.ID, Description: "FD30 oak door", Qty: 2, UnitPrice: 100}
	if err := srv.CreateQuoteLine(ctx, tenantID, line); err != nil {
		t.Fatalf("create line: %v", err)
	}
	if line.SellUnit != 120 {
		t.Fatalf("sell_unit should be unit_price*(1+markup/100): got %v", line.SellUnit)
	}
	if line.SellTotal != 240 {
		t.Fatalf("sell_total should be qty*sell_unit: got %v", line.SellTotal)
	}

	qty := 3.0
	updated, err := srv.UpdateQuoteLine(ctx, tenantID, line.ID, QuoteLinePatch{Qty: &qty})
	if err != nil {
		t.Fatalf("update line: %v", err)
	}
	if updated.SellTotal != 360 {
		t.Fatalf("sell_total should follow qty change: got %v", updated.SellTotal)
	}

	if err := srv.RecomputeQuoteTotals(ctx, quote.ID); err != nil {
		t.Fatalf("recompute totals: %v", err)
	}
	got, _ := srv.GetQuote(ctx, tenantID, quote.ID)
	if got.TotalNet != 360 {
		t.Fatalf("expected net 360, got %v", got.TotalNet)
	}
	if got.TotalVAT != 72 || got.TotalGross != 432 {
		t.Fatalf("expected vat 72 gross 432, got %v / %v", got.TotalVAT, got.TotalGross)
	}
}

func TestRFILifecycle(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	quote := &Quote{TenantID: tenantID, Reference: "Q-2001"}
	if err := srv.CreateQuote(ctx, quote); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	line := &QuoteLine{QuoteID: quote.ID, Description: "FD60 flat entrance door", Qty: 1, UnitPrice: 900}
	if err := srv.CreateQuoteLine(ctx, tenantID, line); err != nil {
		t.Fatalf("create line: %v", err)
	}

	rfi := &RFI{
		TenantID:   tenantID,
		LineItemID: line.ID,
		Field:      "intumescent_strips",
		Question:   "Single or double seal?",
		Status:     RFIOpen,
		Priority:   RFIHigh,
	}
	if err := srv.CreateRFI(ctx, rfi); err != nil {
		t.Fatalf("create rfi: %v", err)
	}

	// Manual close straight from open is allowed.
	unanswered := &RFI{TenantID: tenantID, LineItemID: line.ID, Field: "glazing", Question: "Vision panel?"}
	if err := srv.CreateRFI(ctx, unanswered); err != nil {
		t.Fatalf("create rfi: %v", err)
	}
	closed := string(RFIClosed)
	got0, err := srv.UpdateRFI(ctx, tenantID, unanswered.ID, RFIPatch{Status: &closed})
	if err != nil {
		t.Fatalf("close open rfi: %v", err)
	}
	if got0.Status != RFIClosed {
		t.Fatalf("expected closed, got %s", got0.Status)
	}

	answered := string(RFIAnswered)
	if _, err := srv.UpdateRFI(ctx, tenantID, rfi.ID, RFIPatch{Status: &answered}); err == nil {
		t.Fatal("answering without a response must fail")
	}

	response := "Double seal, 15x4mm"
	got, err := srv.UpdateRFI(ctx, tenantID, rfi.ID, RFIPatch{Status: &answered, Response: &response})
	if err != nil {
		t.Fatalf("answer rfi: %v", err)
	}
	if got.Status != RFIAnswered || got.Response != response {
		t.Fatalf("answer not applied: %+v", got)
	}

	got, err = srv.UpdateRFI(ctx, tenantID, rfi.ID, RFIPatch{Status: &closed})
	if err != nil {
		t.Fatalf("close rfi: %v", err)
	}
	if got.Status != RFIClosed {
		t.Fatalf("expected closed, got %s", got.Status)
	}

	open := string(RFIOpen)
	if _, err := srv.UpdateRFI(ctx, tenantID, rfi.ID, RFIPatch{Status: &open}); err == nil {
		t.Fatal("closed RFI must not reopen")
	}

	if err := srv.DeleteRFI(ctx, tenantID, rfi.ID); err != nil {
		t.Fatalf("delete from closed should work: %v", err)
	}
}

func TestLinePhotoAndRFITenantScoping(t *testing.T) {
	srv := New()
	ctx := context.Background()
	ownerTenant := testTenant(t, srv)
	otherTenant := testTenant(t, srv)

	quote := &Quote{TenantID: ownerTenant, Reference: "Q-3001"}
	if err := srv.CreateQuote(ctx, quote); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	line := &QuoteLine{QuoteID: quote.ID, Description: "FD30 office door", Qty: 1, UnitPrice: 450}
	if err := srv.CreateQuoteLine(ctx, ownerTenant, line); err != nil {
		t.Fatalf("create line: %v", err)
	}
	photo := &LinePhoto{TenantID: ownerTenant, LineID: line.ID, S3Key: "line-photos/a.jpg", ThumbnailKey: "line-photos/thumbs/a.jpg"}
	if err := srv.CreateLinePhoto(ctx, photo); err != nil {
		t.Fatalf("create photo: %v", err)
	}

	photos, err := srv.ListLinePhotos(ctx, ownerTenant, line.ID)
	if err != nil {
		t.Fatalf("list photos: %v", err)
	}
	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}

	photos, err = srv.ListLinePhotos(ctx, otherTenant, line.ID)
	if err != nil {
		t.Fatalf("list photos as other tenant: %v", err)
	}
	if len(photos) != 0 {
		t.Fatalf("another tenant's line must list no photos, got %d", len(photos))
	}

	if _, err := srv.GetQuoteLine(ctx, otherTenant, line.ID); err != ErrNotFound {
		t.Fatalf("another tenant's line must not resolve, got %v", err)
	}

	foreign := &RFI{TenantID: otherTenant, LineItemID: line.ID, Question: "Whose door is this?"}
	if err := srv.CreateRFI(ctx, foreign); err != ErrNotFound {
		t.Fatalf("RFI against another tenant's line must not insert, got %v", err)
	}
}

func TestImportMaterialCostsUpsert(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	costs := &MaterialCosts{
		DoorCores: []DoorCore{
			{CoreType: "Solid core", FireRating: "FD30", CostPerSheet: 85, SheetWidthMM: 1220, SheetHeightMM: 2440},
		},
		Ironmongery: []IronmongeryItem{
			{Category: "Hinges", Name: "Grade 13 SS", Cost: 12.5},
		},
		Materials: []MaterialItem{
			{Category: "Timber", Name: "Oak lipping", Unit: "m", Cost: 4.2},
		},
	}

	stats, err := srv.ImportMaterialCosts(ctx, tenantID, costs)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.DoorCores != 1 || stats.Ironmongery != 1 || stats.Materials != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	costs.DoorCores[0].CostPerSheet = 92
	if _, err := srv.ImportMaterialCosts(ctx, tenantID, costs); err != nil {
		t.Fatalf("re-import: %v", err)
	}

	listed, err := srv.ListMaterialCosts(ctx, tenantID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.DoorCores) != 1 {
		t.Fatalf("re-import must upsert, not duplicate: %d cores", len(listed.DoorCores))
	}
	if listed.DoorCores[0].CostPerSheet != 92 {
		t.Fatalf("re-import should take the new cost, got %v", listed.DoorCores[0].CostPerSheet)
	}
}

func TestListQuotesForFollowUp(t *testing.T) {
	srv := New()
	ctx := context.Background()
	tenantID := testTenant(t, srv)

	quote := &Quote{TenantID: tenantID, Reference: "Q-3001"}
	if err := srv.CreateQuote(ctx, quote); err != nil {
		t.Fatalf("create quote: %v", err)
	}

	s := dbInstance
	if _, err := s.db.ExecContext(ctx,
		`UPDATE quotes SET status = 'sent', sent_at = NOW() - INTERVAL '10 days' WHERE id = $1`, quote.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	due, err := srv.ListQuotesForFollowUp(ctx, tenantID, 7)
	if err != nil {
		t.Fatalf("follow-up list: %v", err)
	}
	if len(due) != 1 || due[0].ID != quote.ID {
		t.Fatalf("expected the stale quote, got %d rows", len(due))
	}

	none, err := srv.ListQuotesForFollowUp(ctx, tenantID, 14)
	if err != nil {
		t.Fatalf("follow-up list: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("quote inside the window must not be due, got %d rows", len(none))
	}
}
