package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"joinworks/internal/ai"
	"joinworks/internal/database"
	"joinworks/internal/debounce"
	"joinworks/internal/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	os.Exit(m.Run())
}

// stubDB overrides the calls a handler under test makes; everything else
// panics through the embedded nil interface.
type stubDB struct {
	database.Service
	createAssignment func(ctx context.Context, a *database.TaskAssignment) error
	createTask       func(ctx context.Context, task *database.DevTask) error
}

func (s *stubDB) CreateTaskAssignment(ctx context.Context, a *database.TaskAssignment) error {
	return s.createAssignment(ctx, a)
}

func (s *stubDB) CreateDevTask(ctx context.Context, task *database.DevTask) error {
	return s.createTask(ctx, task)
}

type stubServer struct {
	db database.Service
}

func (s *stubServer) GetDB() database.Service            { return s.db }
func (s *stubServer) GetS3Service() *storage.S3Service   { return nil }
func (s *stubServer) GetAIClient() *ai.Client            { return nil }
func (s *stubServer) GetRecomputer() *debounce.Debouncer { return nil }

func postJSON(t *testing.T, handler gin.HandlerFunc, tenant uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("tenant_id", tenant)
	handler(c)
	return w
}

func TestCreateAssignmentHandler(t *testing.T) {
	tenant := uuid.New()
	taskID := uuid.New()

	var got *database.TaskAssignment
	db := &stubDB{createAssignment: func(_ context.Context, a *database.TaskAssignment) error {
		got = a
		a.ID = uuid.New()
		return nil
	}}
	cr := NewCalendarRoutes(&stubServer{db: db})

	w := postJSON(t, cr.createAssignmentHandler, tenant, gin.H{
		"task_id":         taskID.String(),
		"date":            "2026-03-02",
		"allocated_hours": 4.5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if got == nil || got.TenantID != tenant || got.TaskID != taskID || got.Date != "2026-03-02" {
		t.Fatalf("assignment not built from request: %+v", got)
	}

	db.createAssignment = func(context.Context, *database.TaskAssignment) error {
		return database.ErrNotFound
	}
	w = postJSON(t, cr.createAssignmentHandler, tenant, gin.H{
		"task_id":         uuid.New().String(),
		"date":            "2026-03-02",
		"allocated_hours": 2,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing task should 404, got %d", w.Code)
	}
}

func TestCreateAssignmentHandlerRejectsBadInput(t *testing.T) {
	cr := NewCalendarRoutes(&stubServer{db: &stubDB{}})
	tenant := uuid.New()

	w := postJSON(t, cr.createAssignmentHandler, tenant, gin.H{
		"task_id": uuid.New().String(),
		"date":    "02/03/2026",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date key should 400, got %d", w.Code)
	}

	w = postJSON(t, cr.createAssignmentHandler, tenant, gin.H{
		"task_id":         uuid.New().String(),
		"date":            "2026-03-02",
		"allocated_hours": 0,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("zero hours should 422, got %d", w.Code)
	}
}

func TestCreateTaskHandlerEnumBinding(t *testing.T) {
	db := &stubDB{createTask: func(_ context.Context, task *database.DevTask) error {
		task.ID = uuid.New()
		return nil
	}}
	dr := NewDevTaskRoutes(&stubServer{db: db})
	tenant := uuid.New()

	w := postJSON(t, dr.createTaskHandler, tenant, gin.H{
		"title":  "Wire the spindle moulder guard sensor",
		"status": "NOT_A_STATUS",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status should fail binding with 400, got %d", w.Code)
	}

	w = postJSON(t, dr.createTaskHandler, tenant, gin.H{"title": "Order FD30 cores"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var task database.DevTask
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if task.Status != database.TaskBacklog || task.Priority != database.PriorityMedium || task.Type != database.TypeDevelopment {
		t.Fatalf("defaults not applied: %+v", task)
	}
}
