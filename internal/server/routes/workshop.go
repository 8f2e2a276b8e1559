package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"joinworks/internal/database"
)

type WorkshopRoutes struct {
	server ServerInterface
}

func NewWorkshopRoutes(server ServerInterface) *WorkshopRoutes {
	return &WorkshopRoutes{server: server}
}

func (wr *WorkshopRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(wr.server)

	processes := r.Group("/workshop-processes")
	processes.Use(middleware.AuthMiddleware())
	{
		processes.GET("", wr.listProcessesHandler)
		processes.POST("", wr.createProcessHandler)
		processes.PATCH("/:id", wr.updateProcessHandler)
		processes.DELETE("/:id", wr.deleteProcessHandler)
		processes.POST("/seed-default", wr.seedProcessesHandler)
	}
}

func (wr *WorkshopRoutes) listProcessesHandler(c *gin.Context) {
	processes, err := wr.server.GetDB().ListWorkshopProcesses(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load processes"})
		return
	}
	c.JSON(http.StatusOK, processes)
}

type createProcessRequest struct {
	Code                string  `json:"code" binding:"required"`
	Name                string  `json:"name" binding:"required"`
	RequiredByDefault   bool    `json:"required_by_default"`
	EstimatedHours      float64 `json:"estimated_hours"`
	IsColorKey          bool    `json:"is_color_key"`
	IsGeneric           bool    `json:"is_generic"`
	IsLastManufacturing bool    `json:"is_last_manufacturing"`
	IsLastInstallation  bool    `json:"is_last_installation"`
	AssignmentGroup     string  `json:"assignment_group"`
}

func (wr *WorkshopRoutes) createProcessHandler(c *gin.Context) {
	var req createProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and name are required"})
		return
	}

	process := &database.WorkshopProcess{
		TenantID:            tenantID(c),
		Code:                strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:                req.Name,
		RequiredByDefault:   req.RequiredByDefault,
		EstimatedHours:      req.EstimatedHours,
		IsColorKey:          req.IsColorKey,
		IsGeneric:           req.IsGeneric,
		IsLastManufacturing: req.IsLastManufacturing,
		IsLastInstallation:  req.IsLastInstallation,
		AssignmentGroup:     req.AssignmentGroup,
	}
	err := wr.server.GetDB().CreateWorkshopProcess(c.Request.Context(), process)
	if err == database.ErrConflict {
		c.JSON(http.StatusConflict, gin.H{"error": "A process with that code already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create process"})
		return
	}
	c.JSON(http.StatusCreated, process)
}

func (wr *WorkshopRoutes) updateProcessHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var patch database.WorkshopProcessPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	process, err := wr.server.GetDB().UpdateWorkshopProcess(c.Request.Context(), tenantID(c), id, patch)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Process not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update process"})
		return
	}
	c.JSON(http.StatusOK, process)
}

func (wr *WorkshopRoutes) deleteProcessHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	err := wr.server.GetDB().DeleteWorkshopProcess(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Process not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete process"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (wr *WorkshopRoutes) seedProcessesHandler(c *gin.Context) {
	created, err := wr.server.GetDB().SeedDefaultProcesses(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to seed processes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}
