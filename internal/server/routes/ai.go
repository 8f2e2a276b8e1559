package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"joinworks/internal/ai"
)

type AIRoutes struct {
	server ServerInterface
}

func NewAIRoutes(server ServerInterface) *AIRoutes {
	return &AIRoutes{server: server}
}

func (ar *AIRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(ar.server)

	group := r.Group("/ai")
	group.Use(middleware.AuthMiddleware())
	{
		group.POST("/generate-product-plan", ar.generatePlanHandler)
		group.POST("/estimate-components", ar.estimateHandler)
	}
}

type generatePlanRequest struct {
	Label       string `json:"label" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// generatePlanHandler always answers 200: when the estimation service is
// down the client gets the fallback plan instead of an error.
func (ar *AIRoutes) generatePlanHandler(c *gin.Context) {
	var req generatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "label is required"})
		return
	}

	plan, err := ar.server.GetAIClient().GenerateProductPlan(c.Request.Context(), ai.PlanRequest{
		Label:       req.Label,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate plan"})
		return
	}
	c.JSON(http.StatusOK, plan)
}

type estimateRequest struct {
	Plan       ai.ProductPlan     `json:"plan" binding:"required"`
	Variables  map[string]float64 `json:"variables"`
	ProductRef string             `json:"product_ref"`
}

func (ar *AIRoutes) estimateHandler(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan is required"})
		return
	}

	estimate, err := ar.server.GetAIClient().EstimateComponents(c.Request.Context(), ai.EstimateRequest{
		Plan:       req.Plan,
		Variables:  req.Variables,
		ProductRef: req.ProductRef,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Estimation service is unavailable"})
		return
	}
	c.JSON(http.StatusOK, estimate)
}
