package routes

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"joinworks/internal/database"
)

const maxPhotoBytes = 10 << 20

type QuoteRoutes struct {
	server ServerInterface
}

func NewQuoteRoutes(server ServerInterface) *QuoteRoutes {
	return &QuoteRoutes{server: server}
}

func (qr *QuoteRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(qr.server)

	quotes := r.Group("/quotes")
	quotes.Use(middleware.AuthMiddleware())
	{
		quotes.POST("", qr.createQuoteHandler)
		quotes.GET("/:id", qr.getQuoteHandler)
		quotes.GET("/:id/lines", qr.listLinesHandler)
		quotes.POST("/:id/lines", qr.createLineHandler)
		quotes.GET("/:id/lines/raw", qr.rawSourcesHandler)
		quotes.GET("/:id/lines.csv", qr.exportLinesCSVHandler)
	}

	lines := r.Group("/quote-lines")
	lines.Use(middleware.AuthMiddleware())
	{
		lines.PATCH("/:id", qr.updateLineHandler)
		lines.DELETE("/:id", qr.deleteLineHandler)
		lines.GET("/:id/photos", qr.listPhotosHandler)
		lines.POST("/:id/photos", qr.uploadPhotoHandler)
	}

	photos := r.Group("/photos")
	photos.Use(middleware.AuthMiddleware())
	{
		photos.PATCH("/:id", qr.updateCaptionHandler)
		photos.DELETE("/:id", qr.deletePhotoHandler)
	}
}

// scheduleRecompute coalesces totals recomputes per quote so a burst of
// line edits produces a single rollup.
func (qr *QuoteRoutes) scheduleRecompute(quoteID uuid.UUID) {
	db := qr.server.GetDB()
	qr.server.GetRecomputer().Trigger(quoteID.String(), func() {
		if err := db.RecomputeQuoteTotals(context.Background(), quoteID); err != nil {
			log.Printf("failed to recompute totals for quote %s: %v", quoteID, err)
		}
	})
}

type createQuoteRequest struct {
	Reference string `json:"reference" binding:"required"`
	ClientID  string `json:"client_id"`
}

func (qr *QuoteRoutes) createQuoteHandler(c *gin.Context) {
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}

	quote := &database.Quote{
		TenantID:  tenantID(c),
		Reference: req.Reference,
	}
	if req.ClientID != "" {
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client_id"})
			return
		}
		quote.ClientID = &clientID
	}
	if err := qr.server.GetDB().CreateQuote(c.Request.Context(), quote); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create quote"})
		return
	}
	c.JSON(http.StatusCreated, quote)
}

func (qr *QuoteRoutes) getQuoteHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	quote, err := qr.server.GetDB().GetQuote(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load quote"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (qr *QuoteRoutes) listLinesHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	lines, err := qr.server.GetDB().ListQuoteLines(c.Request.Context(), tenantID(c), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load lines"})
		return
	}
	c.JSON(http.StatusOK, lines)
}

type createLineRequest struct {
	Description  string          `json:"description" binding:"required"`
	Qty          float64         `json:"qty"`
	UnitPrice    float64         `json:"unit_price"`
	LineStandard json.RawMessage `json:"line_standard"`
	SceneConfig  json.RawMessage `json:"scene_config"`
}

func (qr *QuoteRoutes) createLineHandler(c *gin.Context) {
	quoteID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req createLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}
	if req.Qty < 0 || req.UnitPrice < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "qty and unit_price must not be negative"})
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	line := &database.QuoteLine{
		QuoteID:      quoteID,
		Description:  req.Description,
		Qty:          req.Qty,
		UnitPrice:    req.UnitPrice,
		LineStandard: req.LineStandard,
		SceneConfig:  req.SceneConfig,
	}
	err := qr.server.GetDB().CreateQuoteLine(c.Request.Context(), tenantID(c), line)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create line"})
		return
	}

	qr.scheduleRecompute(quoteID)
	c.JSON(http.StatusCreated, line)
}

func (qr *QuoteRoutes) updateLineHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var patch database.QuoteLinePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if patch.Qty != nil && *patch.Qty < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "qty must not be negative"})
		return
	}
	if patch.UnitPrice != nil && *patch.UnitPrice < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unit_price must not be negative"})
		return
	}

	line, err := qr.server.GetDB().UpdateQuoteLine(c.Request.Context(), tenantID(c), id, patch)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Line not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update line"})
		return
	}

	qr.scheduleRecompute(line.QuoteID)
	c.JSON(http.StatusOK, line)
}

func (qr *QuoteRoutes) deleteLineHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	line, err := qr.server.GetDB().GetQuoteLine(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Line not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load line"})
		return
	}

	if err := qr.server.GetDB().DeleteQuoteLine(c.Request.Context(), tenantID(c), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete line"})
		return
	}

	qr.scheduleRecompute(line.QuoteID)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// exportLinesCSVHandler flushes any pending recompute first so the export
// reflects the latest edits.
func (qr *QuoteRoutes) exportLinesCSVHandler(c *gin.Context) {
	quoteID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	qr.server.GetRecomputer().Flush(quoteID.String())

	quote, err := qr.server.GetDB().GetQuote(c.Request.Context(), tenantID(c), quoteID)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load quote"})
		return
	}
	lines, err := qr.server.GetDB().ListQuoteLines(c.Request.Context(), tenantID(c), quoteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load lines"})
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"position", "description", "qty", "unit_price", "sell_unit", "sell_total"})
	for _, line := range lines {
		w.Write([]string{
			strconv.Itoa(line.Position),
			line.Description,
			strconv.FormatFloat(line.Qty, 'f', 2, 64),
			strconv.FormatFloat(line.UnitPrice, 'f', 2, 64),
			strconv.FormatFloat(line.SellUnit, 'f', 2, 64),
			strconv.FormatFloat(line.SellTotal, 'f', 2, 64),
		})
	}
	w.Write([]string{"", "Total (net)", "", "", "", strconv.FormatFloat(quote.TotalNet, 'f', 2, 64)})
	w.Write([]string{"", "VAT", "", "", "", strconv.FormatFloat(quote.TotalVAT, 'f', 2, 64)})
	w.Write([]string{"", "Total (gross)", "", "", "", strconv.FormatFloat(quote.TotalGross, 'f', 2, 64)})
	w.Flush()
	if err := w.Error(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build CSV"})
		return
	}

	filename := fmt.Sprintf("%s-lines.csv", quote.Reference)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// rawSourcesHandler returns the extraction payloads the quote's lines were
// imported from; lines entered by hand are omitted.
func (qr *QuoteRoutes) rawSourcesHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	lines, err := qr.server.GetDB().ListQuoteLines(c.Request.Context(), tenantID(c), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load lines"})
		return
	}

	payloads := make([]gin.H, 0, len(lines))
	for _, line := range lines {
		if len(line.RawSource) == 0 {
			continue
		}
		payloads = append(payloads, gin.H{"line_id": line.ID, "raw_source": line.RawSource})
	}
	c.JSON(http.StatusOK, payloads)
}

func (qr *QuoteRoutes) listPhotosHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if _, err := qr.server.GetDB().GetQuoteLine(c.Request.Context(), tenantID(c), id); err != nil {
		if err == database.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Line not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load line"})
		return
	}

	photos, err := qr.server.GetDB().ListLinePhotos(c.Request.Context(), tenantID(c), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load photos"})
		return
	}

	type photoView struct {
		database.LinePhoto
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	views := make([]photoView, 0, len(photos))
	for _, photo := range photos {
		view := photoView{LinePhoto: photo}
		if url, err := qr.server.GetS3Service().GeneratePresignedURL(c.Request.Context(), photo.S3Key, 15*time.Minute); err == nil {
			view.URL = url
		}
		if photo.ThumbnailKey != "" {
			if url, err := qr.server.GetS3Service().GeneratePresignedURL(c.Request.Context(), photo.ThumbnailKey, 15*time.Minute); err == nil {
				view.ThumbnailURL = url
			}
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, views)
}

// uploadPhotoHandler stores the original capped at 1600px plus a 320px
// thumbnail for the line grid.
func (qr *QuoteRoutes) uploadPhotoHandler(c *gin.Context) {
	lineID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if _, err := qr.server.GetDB().GetQuoteLine(c.Request.Context(), tenantID(c), lineID); err != nil {
		if err == database.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Line not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load line"})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo provided"})
		return
	}
	if fileHeader.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Photo must be 10MB or smaller"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read photo"})
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "File is not a valid image"})
		return
	}

	full := imaging.Fit(img, 1600, 1600, imaging.Lanczos)
	thumb := imaging.Fit(img, 320, 320, imaging.Lanczos)

	var fullBuf, thumbBuf bytes.Buffer
	if err := imaging.Encode(&fullBuf, full, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode photo"})
		return
	}
	if err := imaging.Encode(&thumbBuf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode thumbnail"})
		return
	}

	fullUpload, err := qr.server.GetS3Service().UploadImage(c.Request.Context(), tenantID(c), "line-photos", fullBuf.Bytes(), "image/jpeg")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store photo"})
		return
	}
	thumbUpload, err := qr.server.GetS3Service().UploadImage(c.Request.Context(), tenantID(c), "line-photos/thumbs", thumbBuf.Bytes(), "image/jpeg")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store thumbnail"})
		return
	}

	photo := &database.LinePhoto{
		TenantID:     tenantID(c),
		LineID:       lineID,
		S3Key:        fullUpload.S3Key,
		ThumbnailKey: thumbUpload.S3Key,
		Caption:      c.PostForm("caption"),
	}
	if err := qr.server.GetDB().CreateLinePhoto(c.Request.Context(), photo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo"})
		return
	}
	c.JSON(http.StatusCreated, photo)
}

type captionRequest struct {
	Caption string `json:"caption"`
}

func (qr *QuoteRoutes) updateCaptionHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req captionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	err := qr.server.GetDB().UpdatePhotoCaption(c.Request.Context(), tenantID(c), id, req.Caption)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update caption"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"caption": req.Caption})
}

func (qr *QuoteRoutes) deletePhotoHandler(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	photo, err := qr.server.GetDB().DeleteLinePhoto(c.Request.Context(), tenantID(c), id)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete photo"})
		return
	}

	for _, key := range []string{photo.S3Key, photo.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := qr.server.GetS3Service().DeleteFile(c.Request.Context(), key); err != nil {
			log.Printf("failed to delete photo object %s: %v", key, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
