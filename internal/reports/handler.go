package reports

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the report export endpoint.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a reports handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the export route on the admin group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/reports/export", h.export)
}

func (h *Handler) export(c *gin.Context) {
	filter := Filter{
		Status:    c.DefaultQuery("status", "all"),
		DateRange: c.Query("dateRange"),
	}
	format := c.DefaultQuery("format", "csv")

	report, err := h.service.Generate(c.Request.Context(), filter)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoProjects):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No projects match the selected filters"})
		case errors.Is(err, ErrBadFilter):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid status or date range filter"})
		default:
			h.logger.Error("Report generation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate report"})
		}
		return
	}

	var buf bytes.Buffer
	var contentType, extension string

	switch format {
	case "csv":
		err = WriteCSV(&buf, report)
		contentType, extension = "text/csv; charset=utf-8", "csv"
	case "excel":
		err = WriteExcel(&buf, report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		extension = "xlsx"
	case "pdf":
		err = WritePDF(&buf, report)
		contentType, extension = "application/pdf", "pdf"
	case "html":
		err = WriteHTML(&buf, report)
		contentType, extension = "text/html; charset=utf-8", "html"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unsupported export format"})
		return
	}

	if err != nil {
		h.logger.Error("Report rendering failed", zap.String("format", format), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to render report"})
		return
	}

	filename := fmt.Sprintf("blue-carbon-report-%s.%s", time.Now().UTC().Format("2006-01-02"), extension)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
