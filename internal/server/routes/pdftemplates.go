package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"joinworks/internal/ai"
	"joinworks/internal/database"
)

const maxPdfBytes = 25 << 20

type PdfTemplateRoutes struct {
	server ServerInterface
}

func NewPdfTemplateRoutes(server ServerInterface) *PdfTemplateRoutes {
	return &PdfTemplateRoutes{server: server}
}

func (pr *PdfTemplateRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(pr.server)

	templates := r.Group("/pdf-templates")
	templates.Use(middleware.AuthMiddleware())
	{
		templates.GET("", pr.listTemplatesHandler)
		templates.GET("/:id", pr.getTemplateHandler)
		templates.GET("/:id/download", pr.downloadTemplateHandler)
		templates.DELETE("/:id", pr.deleteTemplateHandler)
	}

	// Import lives under the settings surface; the stored template is what
	// the /pdf-templates routes serve afterwards.
	r.POST("/tenant/settings/import-quote-pdf", middleware.AuthMiddleware(), pr.importQuotePdfHandler)
}

func (pr *PdfTemplateRoutes) listTemplatesHandler(c *gin.Context) {
	templates, err := pr.server.GetDB().ListPdfTemplates(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load templates"})
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (pr *PdfTemplateRoutes) getTemplateHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	template, err := pr.server.GetDB().GetPdfTemplate(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load template"})
		return
	}
	c.JSON(http.StatusOK, template)
}

func (pr *PdfTemplateRoutes) downloadTemplateHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	template, err := pr.server.GetDB().GetPdfTemplate(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load template"})
		return
	}

	// Stored PDFs are encrypted at rest, so the object is fetched and
	// decrypted server-side rather than presigned.
	s3Svc := pr.server.GetS3Service()
	exists, err := s3Svc.CheckFileExists(c.Request.Context(), template.S3Key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check stored PDF"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stored PDF is no longer available"})
		return
	}

	result, err := s3Svc.DownloadFile(c.Request.Context(), template.S3Key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve PDF"})
		return
	}
	if template.FileHash != "" {
		if err := s3Svc.ValidateFileIntegrity(result.Data, template.FileHash); err != nil {
			log.Printf("pdf template %s failed integrity check: %v", template.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored PDF failed integrity check"})
			return
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", template.Name+".pdf"))
	c.Data(http.StatusOK, result.MimeType, result.Data)
}

// importQuotePdfHandler uploads a supplier quote PDF, sends it for layout
// extraction and stores the resulting template. When a quote_id is supplied
// the extracted lines are appended to that quote as well.
func (pr *PdfTemplateRoutes) importQuotePdfHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF file provided"})
		return
	}
	if fileHeader.Size > maxPdfBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "PDF must be 25MB or smaller"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read PDF"})
		return
	}
	defer file.Close()

	pdfData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read PDF"})
		return
	}

	parsed, err := pr.server.GetAIClient().ParseQuotePdf(c.Request.Context(), fileHeader.Filename, pdfData)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "PDF extraction service is unavailable"})
		return
	}

	upload, err := pr.server.GetS3Service().UploadQuotePdf(c.Request.Context(), tenantID(c), fileHeader.Filename, pdfData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store PDF"})
		return
	}

	template := &database.PdfTemplate{
		TenantID:    tenantID(c),
		Name:        parsed.Name,
		Description: c.PostForm("description"),
		FileHash:    upload.FileHash,
		PageCount:   parsed.PageCount,
		S3Key:       upload.S3Key,
		FileSize:    upload.FileSize,
		Annotations: parsed.Annotations,
	}
	if raw := c.PostForm("supplier_profile_id"); raw != "" {
		supplierID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier_profile_id"})
			return
		}
		template.SupplierProfileID = &supplierID
	}
	if template.Name == "" {
		template.Name = fileHeader.Filename
	}

	if err := pr.server.GetDB().CreatePdfTemplate(c.Request.Context(), template); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save template"})
		return
	}

	imported := 0
	if raw := c.PostForm("quote_id"); raw != "" {
		quoteID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote_id"})
			return
		}
		imported, err = pr.importLines(c.Request.Context(), tenantID(c), quoteID, parsed.Lines)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import quote lines"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"template": template, "imported_lines": imported})
}

// importLines appends extracted rows to an existing quote and schedules a
// totals recompute.
func (pr *PdfTemplateRoutes) importLines(ctx context.Context, tenant uuid.UUID, quoteID uuid.UUID, lines []ai.ParsedLine) (int, error) {
	db := pr.server.GetDB()
	if _, err := db.GetQuote(ctx, tenant, quoteID); err != nil {
		return 0, err
	}

	imported := 0
	for _, parsed := range lines {
		raw, err := json.Marshal(parsed)
		if err != nil {
			return imported, err
		}
		line := &database.QuoteLine{
			QuoteID:      quoteID,
			Description:  parsed.Description,
			Qty:          parsed.Qty,
			UnitPrice:    parsed.UnitPrice,
			LineStandard: parsed.Attributes,
			RawSource:    raw,
		}
		if err := db.CreateQuoteLine(ctx, tenant, line); err != nil {
			return imported, err
		}
		imported++
	}

	if imported > 0 {
		pr.server.GetRecomputer().Trigger(quoteID.String(), func() {
			if err := db.RecomputeQuoteTotals(context.Background(), quoteID); err != nil {
				log.Printf("failed to recompute totals for quote %s: %v", quoteID, err)
			}
		})
	}
	return imported, nil
}

func (pr *PdfTemplateRoutes) deleteTemplateHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	template, err := pr.server.GetDB().DeletePdfTemplate(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template"})
		return
	}

	if template.S3Key != "" {
		if err := pr.server.GetS3Service().DeleteFile(c.Request.Context(), template.S3Key); err != nil {
			log.Printf("failed to delete template object %s: %v", template.S3Key, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
