package reports

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"employee-portal/employee-portal-backend/internal/reports/delivery"
)

// Handler handles HTTP requests for reporting operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers reporting routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		// Exports
		reports.GET("/employees/pdf", h.exportReport(ExportFormatPDF))
		reports.GET("/employees/excel", h.exportReport(ExportFormatExcel))
		reports.GET("/employees/csv", h.exportReport(ExportFormatCSV))

		// Delivery
		reports.POST("/employees/email", h.emailReport)

		// History
		reports.GET("/runs", h.listRuns)
		reports.GET("/archive", h.listArchive)
		reports.GET("/cache", h.cacheStats)
		reports.DELETE("/cache", h.clearCache)
	}
}

// exportReport handles GET /api/v1/reports/employees/{pdf,excel,csv}
func (h *Handler) exportReport(format ExportFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := h.service.Generate(c.Request.Context(), format)
		if err != nil {
			h.logger.Error("Failed to export report", zap.Error(err), zap.String("format", string(format)))
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
		if report.ArchiveKey != "" {
			c.Header("X-Archive-Key", report.ArchiveKey)
		}
		c.Data(http.StatusOK, report.ContentType, report.Data)
	}
}

// emailReport handles POST /api/v1/reports/employees/email
func (h *Handler) emailReport(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.EmailEmployeesPDF(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to email report", zap.Error(err), zap.Strings("to", req.To))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"filename":    report.Filename,
		"rows":        report.Rows,
		"pages":       report.Pages,
		"archive_key": report.ArchiveKey,
		"recipients":  req.To,
	})
}

// listRuns handles GET /api/v1/reports/runs
func (h *Handler) listRuns(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Request.Context(), h.getIntParam(c, "limit", 50))
	if err != nil {
		h.logger.Error("Failed to list report runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// listArchive handles GET /api/v1/reports/archive
func (h *Handler) listArchive(c *gin.Context) {
	entries, err := h.service.ListArchive(c.Request.Context(), h.getIntParam(c, "limit", 50))
	if err != nil {
		h.logger.Error("Failed to list archive", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// cacheStats handles GET /api/v1/reports/cache
func (h *Handler) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.CacheStats())
}

// clearCache handles DELETE /api/v1/reports/cache
func (h *Handler) clearCache(c *gin.Context) {
	h.service.InvalidateCache()
	c.Status(http.StatusNoContent)
}

// =====================================================
// Helper Methods
// =====================================================

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, delivery.ErrNoRecipients):
		return http.StatusBadRequest
	case errors.Is(err, ErrMailerNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) getIntParam(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
