package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"joinworks/internal/database"
)

type QuestionnaireRoutes struct {
	server ServerInterface
}

func NewQuestionnaireRoutes(server ServerInterface) *QuestionnaireRoutes {
	return &QuestionnaireRoutes{server: server}
}

func (qr *QuestionnaireRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(qr.server)

	fields := r.Group("/questionnaire-fields")
	fields.Use(middleware.AuthMiddleware())
	{
		fields.GET("", qr.listFieldsHandler)
		fields.POST("", qr.createFieldHandler)
		fields.PATCH("/:id", qr.updateFieldHandler)
		fields.DELETE("/:id", qr.deleteFieldHandler)
		fields.POST("/reorder", qr.reorderHandler)
		fields.POST("/seed-standard", qr.seedHandler)
		fields.POST("/migrate-standard-fields", qr.migrateHandler)
	}
}

func (qr *QuestionnaireRoutes) listFieldsHandler(c *gin.Context) {
	fields, err := qr.server.GetDB().ListQuestionnaireFields(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load fields"})
		return
	}
	c.JSON(http.StatusOK, fields)
}

type createFieldRequest struct {
	Key          string   `json:"key" binding:"required"`
	Label        string   `json:"label" binding:"required"`
	Type         string   `json:"type" binding:"required"`
	Required     bool     `json:"required"`
	Scope        string   `json:"scope"`
	Options      []string `json:"options"`
	ProductTypes []string `json:"product_types"`
}

func (qr *QuestionnaireRoutes) createFieldHandler(c *gin.Context) {
	var req createFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key, label and type are required"})
		return
	}
	if !database.ValidFieldType(req.Type) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid field type"})
		return
	}
	if req.Scope == "" {
		req.Scope = string(database.ScopePublic)
	}
	if !database.ValidFieldScope(req.Scope) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid field scope"})
		return
	}

	field := &database.QuestionnaireField{
		TenantID:     tenantID(c),
		Key:          req.Key,
		Label:        req.Label,
		Type:         database.FieldType(req.Type),
		Required:     req.Required,
		Scope:        database.FieldScope(req.Scope),
		Options:      req.Options,
		ProductTypes: req.ProductTypes,
	}
	err := qr.server.GetDB().CreateQuestionnaireField(c.Request.Context(), field)
	if err == database.ErrConflict {
		c.JSON(http.StatusConflict, gin.H{"error": "A field with that key already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create field"})
		return
	}
	c.JSON(http.StatusCreated, field)
}

func (qr *QuestionnaireRoutes) updateFieldHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var patch database.QuestionnaireFieldPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if patch.Type != nil && !database.ValidFieldType(*patch.Type) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid field type"})
		return
	}
	if patch.Scope != nil && !database.ValidFieldScope(*patch.Scope) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid field scope"})
		return
	}

	field, err := qr.server.GetDB().UpdateQuestionnaireField(c.Request.Context(), tenantID(c), id, patch)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Field not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update field"})
		return
	}
	c.JSON(http.StatusOK, field)
}

func (qr *QuestionnaireRoutes) deleteFieldHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	err := qr.server.GetDB().DeleteQuestionnaireField(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Field not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete field"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type reorderRequest struct {
	OrderedIDs []string `json:"ordered_ids" binding:"required"`
}

// reorderHandler persists a full new ordering. The ids must be exactly the
// tenant's current fields; anything else rolls back and the previous order
// survives.
func (qr *QuestionnaireRoutes) reorderHandler(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ordered_ids is required"})
		return
	}

	ids := make([]uuid.UUID, 0, len(req.OrderedIDs))
	for _, raw := range req.OrderedIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid field id in ordered_ids"})
			return
		}
		ids = append(ids, id)
	}

	if err := qr.server.GetDB().ReorderQuestionnaireFields(c.Request.Context(), tenantID(c), ids); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	fields, err := qr.server.GetDB().ListQuestionnaireFields(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load fields"})
		return
	}
	c.JSON(http.StatusOK, fields)
}

func (qr *QuestionnaireRoutes) seedHandler(c *gin.Context) {
	created, err := qr.server.GetDB().SeedStandardFields(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to seed fields"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (qr *QuestionnaireRoutes) migrateHandler(c *gin.Context) {
	renamed, err := qr.server.GetDB().MigrateStandardFields(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to migrate fields"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"renamed": renamed})
}
