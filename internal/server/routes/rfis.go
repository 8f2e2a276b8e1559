package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"joinworks/internal/database"
)

type RFIRoutes struct {
	server ServerInterface
}

func NewRFIRoutes(server ServerInterface) *RFIRoutes {
	return &RFIRoutes{server: server}
}

func (rr *RFIRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(rr.server)

	rfis := r.Group("/api/fire-door-rfis")
	rfis.Use(middleware.AuthMiddleware())
	{
		rfis.GET("", rr.listRFIsHandler)
		rfis.POST("", rr.createRFIHandler)
		rfis.PATCH("/:id", rr.updateRFIHandler)
		rfis.DELETE("/:id", rr.deleteRFIHandler)
	}
}

func (rr *RFIRoutes) listRFIsHandler(c *gin.Context) {
	var lineItemID *uuid.UUID
	if raw := c.Query("line_item_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line_item_id"})
			return
		}
		lineItemID = &id
	}

	rfis, err := rr.server.GetDB().ListRFIs(c.Request.Context(), tenantID(c), lineItemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load RFIs"})
		return
	}
	c.JSON(http.StatusOK, rfis)
}

type createRFIRequest struct {
	LineItemID      string `json:"line_item_id" binding:"required,uuid"`
	Field           string `json:"field"`
	Question        string `json:"question" binding:"required"`
	Priority        string `json:"priority" binding:"omitempty,rfipriority"`
	VisibleToClient bool   `json:"visible_to_client"`
}

func (rr *RFIRoutes) createRFIHandler(c *gin.Context) {
	var req createRFIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line_item_id, a question and a known priority are required"})
		return
	}
	lineItemID, _ := uuid.Parse(req.LineItemID)
	if req.Priority == "" {
		req.Priority = string(database.RFIMedium)
	}

	rfi := &database.RFI{
		TenantID:        tenantID(c),
		LineItemID:      lineItemID,
		Field:           req.Field,
		Question:        req.Question,
		Status:          database.RFIOpen,
		Priority:        database.RFIPriority(req.Priority),
		VisibleToClient: req.VisibleToClient,
	}
	err := rr.server.GetDB().CreateRFI(c.Request.Context(), rfi)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Line item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create RFI"})
		return
	}
	c.JSON(http.StatusCreated, rfi)
}

func (rr *RFIRoutes) updateRFIHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var patch database.RFIPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if patch.Priority != nil && !database.ValidRFIPriority(*patch.Priority) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid priority"})
		return
	}

	rfi, err := rr.server.GetDB().UpdateRFI(c.Request.Context(), tenantID(c), id, patch)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "RFI not found"})
		return
	}
	if errors.Is(err, database.ErrInvalidTransition) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update RFI"})
		return
	}
	c.JSON(http.StatusOK, rfi)
}

func (rr *RFIRoutes) deleteRFIHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	err := rr.server.GetDB().DeleteRFI(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "RFI not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete RFI"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
