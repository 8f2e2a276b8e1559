package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"joinworks/internal/database"
	"joinworks/internal/dates"
)

type CalendarRoutes struct {
	server ServerInterface
}

func NewCalendarRoutes(server ServerInterface) *CalendarRoutes {
	return &CalendarRoutes{server: server}
}

func (cr *CalendarRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(cr.server)

	cal := r.Group("/dev/calendar")
	cal.Use(middleware.AuthMiddleware())
	{
		cal.GET("/schedules", cr.listSchedulesHandler)
		cal.POST("/schedules", cr.upsertScheduleHandler)
		cal.GET("/assignments", cr.listAssignmentsHandler)
		cal.POST("/assignments", cr.createAssignmentHandler)
		cal.DELETE("/assignments/:id", cr.deleteAssignmentHandler)
		cal.GET("/summary", cr.summaryHandler)
	}
}

func (cr *CalendarRoutes) listSchedulesHandler(c *gin.Context) {
	from, to, err := dates.RangeOrDefault(c.Query("from"), c.Query("to"), 7, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schedules, err := cr.server.GetDB().ListDaySchedules(c.Request.Context(), tenantID(c), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load schedules"})
		return
	}
	c.JSON(http.StatusOK, schedules)
}

type upsertScheduleRequest struct {
	Date           string  `json:"date" binding:"required,daykey"`
	IsWorkDay      bool    `json:"is_work_day"`
	AvailableHours float64 `json:"available_hours"`
	Notes          string  `json:"notes"`
}

func (cr *CalendarRoutes) upsertScheduleHandler(c *gin.Context) {
	var req upsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid YYYY-MM-DD date is required"})
		return
	}
	if req.AvailableHours < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "available_hours must not be negative"})
		return
	}

	schedule := &database.DaySchedule{
		TenantID:       tenantID(c),
		Date:           req.Date,
		IsWorkDay:      req.IsWorkDay,
		AvailableHours: req.AvailableHours,
		Notes:          req.Notes,
	}
	if err := cr.server.GetDB().UpsertDaySchedule(c.Request.Context(), schedule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save schedule"})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (cr *CalendarRoutes) listAssignmentsHandler(c *gin.Context) {
	from, to, err := dates.RangeOrDefault(c.Query("from"), c.Query("to"), 7, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	assignments, err := cr.server.GetDB().ListTaskAssignments(c.Request.Context(), tenantID(c), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load assignments"})
		return
	}
	c.JSON(http.StatusOK, assignments)
}

type createAssignmentRequest struct {
	TaskID         string  `json:"task_id" binding:"required,uuid"`
	Date           string  `json:"date" binding:"required,daykey"`
	AllocatedHours float64 `json:"allocated_hours"`
}

func (cr *CalendarRoutes) createAssignmentHandler(c *gin.Context) {
	var req createAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id and a valid YYYY-MM-DD date are required"})
		return
	}
	taskID, _ := uuid.Parse(req.TaskID)
	if req.AllocatedHours <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "allocated_hours must be positive"})
		return
	}

	assignment := &database.TaskAssignment{
		TenantID:       tenantID(c),
		TaskID:         taskID,
		Date:           req.Date,
		AllocatedHours: req.AllocatedHours,
	}
	err := cr.server.GetDB().CreateTaskAssignment(c.Request.Context(), assignment)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create assignment"})
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (cr *CalendarRoutes) deleteAssignmentHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	err := cr.server.GetDB().DeleteTaskAssignment(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete assignment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (cr *CalendarRoutes) summaryHandler(c *gin.Context) {
	from, to, err := dates.RangeOrDefault(c.Query("from"), c.Query("to"), 7, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary, err := cr.server.GetDB().CalendarSummary(c.Request.Context(), tenantID(c), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
