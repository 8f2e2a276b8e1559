package routes

import (
	"bytes"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"joinworks/internal/ai"
	"joinworks/internal/database"
)

const maxLogoBytes = 5 << 20

type SettingsRoutes struct {
	server ServerInterface
}

func NewSettingsRoutes(server ServerInterface) *SettingsRoutes {
	return &SettingsRoutes{server: server}
}

func (sr *SettingsRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(sr.server)

	settings := r.Group("/tenant/settings")
	settings.Use(middleware.AuthMiddleware())
	{
		settings.GET("", sr.getSettingsHandler)
		settings.POST("", sr.saveSettingsHandler)
		settings.PATCH("", sr.patchSettingsHandler)
		settings.POST("/upload-logo", sr.uploadLogoHandler)
		settings.GET("/logo", sr.logoURLHandler)
		settings.POST("/enrich", sr.enrichHandler)
	}
}

func (sr *SettingsRoutes) getSettingsHandler(c *gin.Context) {
	settings, err := sr.server.GetDB().GetTenantSettings(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (sr *SettingsRoutes) saveSettingsHandler(c *gin.Context) {
	var settings database.TenantSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if settings.MarkupPercent < 0 || settings.VATPercent < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Percentages must not be negative"})
		return
	}

	settings.TenantID = tenantID(c)
	if err := sr.server.GetDB().SaveTenantSettings(c.Request.Context(), &settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (sr *SettingsRoutes) patchSettingsHandler(c *gin.Context) {
	var patch database.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if patch.MarkupPercent != nil && *patch.MarkupPercent < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "markup_percent must not be negative"})
		return
	}
	if patch.VATPercent != nil && *patch.VATPercent < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "vat_percent must not be negative"})
		return
	}

	settings, err := sr.server.GetDB().PatchTenantSettings(c.Request.Context(), tenantID(c), patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// uploadLogoHandler accepts a multipart image, normalizes it to a 512px
// JPEG and stores the key on the tenant.
func (sr *SettingsRoutes) uploadLogoHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No logo file provided"})
		return
	}
	if fileHeader.Size > maxLogoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Logo must be 5MB or smaller"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read logo"})
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "File is not a valid image"})
		return
	}
	img = imaging.Fit(img, 512, 512, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode logo"})
		return
	}

	result, err := sr.server.GetS3Service().UploadImage(c.Request.Context(), tenantID(c), "logos", buf.Bytes(), "image/jpeg")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store logo"})
		return
	}
	if err := sr.server.GetDB().SetTenantLogo(c.Request.Context(), tenantID(c), result.S3Key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save logo key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logo_key": result.S3Key})
}

func (sr *SettingsRoutes) logoURLHandler(c *gin.Context) {
	settings, err := sr.server.GetDB().GetTenantSettings(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	if settings.LogoKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No logo uploaded"})
		return
	}
	url, err := sr.server.GetS3Service().GeneratePresignedURL(c.Request.Context(), settings.LogoKey, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate logo URL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

type enrichRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Website     string `json:"website"`
}

// enrichHandler fills in profile details from the estimation service. When
// the service is down the caller still gets a 200 with enriched=false so
// the settings form keeps working.
func (sr *SettingsRoutes) enrichHandler(c *gin.Context) {
	var req enrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_name is required"})
		return
	}

	result, err := sr.server.GetAIClient().EnrichProfile(c.Request.Context(), ai.EnrichRequest{
		CompanyName: req.CompanyName,
		Website:     req.Website,
	})
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"enriched": false})
		return
	}

	patch := database.SettingsPatch{}
	if result.TradingName != "" {
		patch.TradingName = &result.TradingName
	}
	if result.Phone != "" {
		patch.Phone = &result.Phone
	}
	if result.Address != "" {
		patch.Address = &result.Address
	}
	if len(result.Certifications) > 0 {
		patch.Certifications = &result.Certifications
	}

	settings, err := sr.server.GetDB().PatchTenantSettings(c.Request.Context(), tenantID(c), patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save enriched profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enriched": true, "settings": settings})
}
