package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"joinworks/internal/database"
)

type DevTaskRoutes struct {
	server ServerInterface
}

func NewDevTaskRoutes(server ServerInterface) *DevTaskRoutes {
	return &DevTaskRoutes{server: server}
}

func (dr *DevTaskRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(dr.server)

	tasks := r.Group("/dev/tasks")
	tasks.Use(middleware.AuthMiddleware())
	{
		tasks.GET("", dr.listTasksHandler)
		tasks.POST("", dr.createTaskHandler)
		tasks.PATCH("/:id", dr.updateTaskHandler)
	}
}

func (dr *DevTaskRoutes) listTasksHandler(c *gin.Context) {
	tasks, err := dr.server.GetDB().ListDevTasks(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

type createTaskRequest struct {
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	Status         string  `json:"status" binding:"omitempty,taskstatus"`
	Priority       string  `json:"priority" binding:"omitempty,taskpriority"`
	Type           string  `json:"type" binding:"omitempty,tasktype"`
	EstimatedHours float64 `json:"estimated_hours"`
	Assignee       string  `json:"assignee"`
}

func (dr *DevTaskRoutes) createTaskHandler(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required and status, priority and type must be known values"})
		return
	}

	if req.Status == "" {
		req.Status = string(database.TaskBacklog)
	}
	if req.Priority == "" {
		req.Priority = string(database.PriorityMedium)
	}
	if req.Type == "" {
		req.Type = string(database.TypeDevelopment)
	}

	task := &database.DevTask{
		TenantID:       tenantID(c),
		Title:          req.Title,
		Description:    req.Description,
		Status:         database.TaskStatus(req.Status),
		Priority:       database.TaskPriority(req.Priority),
		Type:           database.TaskType(req.Type),
		EstimatedHours: req.EstimatedHours,
		Assignee:       req.Assignee,
	}
	if err := dr.server.GetDB().CreateDevTask(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (dr *DevTaskRoutes) updateTaskHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var patch database.DevTaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if patch.Status != nil && !database.ValidTaskStatus(*patch.Status) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid status"})
		return
	}
	if patch.Priority != nil && !database.ValidTaskPriority(*patch.Priority) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid priority"})
		return
	}
	if patch.Type != nil && !database.ValidTaskType(*patch.Type) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid type"})
		return
	}

	task, err := dr.server.GetDB().UpdateDevTask(c.Request.Context(), tenantID(c), id, patch)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}
	c.JSON(http.StatusOK, task)
}
