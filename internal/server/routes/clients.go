package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"joinworks/internal/database"
)

type ClientRoutes struct {
	server ServerInterface
}

func NewClientRoutes(server ServerInterface) *ClientRoutes {
	return &ClientRoutes{server: server}
}

func (cr *ClientRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(cr.server)

	clients := r.Group("/clients")
	clients.Use(middleware.AuthMiddleware())
	{
		clients.GET("", cr.searchClientsHandler)
		clients.POST("", cr.createClientHandler)
	}
}

// searchClientsHandler backs the client autocomplete; matches name, email
// and postcode.
func (cr *ClientRoutes) searchClientsHandler(c *gin.Context) {
	term := strings.TrimSpace(c.Query("search"))
	if term == "" {
		c.JSON(http.StatusOK, []database.Client{})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
			return
		}
		limit = parsed
	}

	clients, err := cr.server.GetDB().SearchClients(c.Request.Context(), tenantID(c), term, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search clients"})
		return
	}
	c.JSON(http.StatusOK, clients)
}

type createClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Postcode string `json:"postcode"`
}

func (cr *ClientRoutes) createClientHandler(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required and email must be valid"})
		return
	}

	client := &database.Client{
		TenantID: tenantID(c),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Postcode: req.Postcode,
	}
	if err := cr.server.GetDB().CreateClient(c.Request.Context(), client); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client"})
		return
	}
	c.JSON(http.StatusCreated, client)
}
