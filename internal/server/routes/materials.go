package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"joinworks/internal/importer"
)

const maxWorkbookBytes = 15 << 20

type MaterialRoutes struct {
	server ServerInterface
}

func NewMaterialRoutes(server ServerInterface) *MaterialRoutes {
	return &MaterialRoutes{server: server}
}

func (mr *MaterialRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(mr.server)

	materials := r.Group("/material-costs")
	materials.Use(middleware.AuthMiddleware())
	{
		materials.GET("", mr.listCostsHandler)
		materials.POST("/import", mr.importCostsHandler)
	}
}

func (mr *MaterialRoutes) listCostsHandler(c *gin.Context) {
	costs, err := mr.server.GetDB().ListMaterialCosts(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load material costs"})
		return
	}
	c.JSON(http.StatusOK, costs)
}

// importCostsHandler ingests a costing workbook (xlsx) and upserts the
// tenant's cost tables from it.
func (mr *MaterialRoutes) importCostsHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No workbook provided"})
		return
	}
	if fileHeader.Size > maxWorkbookBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Workbook must be 15MB or smaller"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read workbook"})
		return
	}
	defer file.Close()

	costs, err := importer.ParseCostingWorkbook(file)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	stats, err := mr.server.GetDB().ImportMaterialCosts(c.Request.Context(), tenantID(c), costs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import material costs"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
