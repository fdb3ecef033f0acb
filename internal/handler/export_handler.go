package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/veerhooda/campus-timetable-api/internal/service"
	"github.com/veerhooda/campus-timetable-api/pkg/response"
)

type exportService interface {
	ExportClassWeek(ctx context.Context, classID, format string) (*service.ExportResult, error)
}

// ExportHandler serves downloadable timetable renderings.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// ExportByClass godoc
// @Summary Export a class timetable as CSV or PDF
// @Tags Timetable
// @Produce octet-stream
// @Param classId path string true "Class ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /timetable/class/{classId}/export [get]
func (h *ExportHandler) ExportByClass(c *gin.Context) {
	result, err := h.service.ExportClassWeek(c.Request.Context(), c.Param("classId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Content)
}
