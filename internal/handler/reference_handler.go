package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veerhooda/campus-timetable-api/internal/models"
	"github.com/veerhooda/campus-timetable-api/pkg/response"
)

type referenceService interface {
	Classes(ctx context.Context) ([]models.ClassRef, error)
	Subjects(ctx context.Context) ([]models.SubjectRef, error)
	Teachers(ctx context.Context) ([]models.TeacherRef, error)
	Rooms(ctx context.Context) ([]models.RoomRef, error)
}

// ReferenceHandler serves read-only reference lists for pickers.
type ReferenceHandler struct {
	service referenceService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(svc referenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// ListClasses godoc
// @Summary List class sections
// @Tags References
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ReferenceHandler) ListClasses(c *gin.Context) {
	classes, err := h.service.Classes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags References
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *ReferenceHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.Subjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// ListTeachers godoc
// @Summary List teachers
// @Tags References
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *ReferenceHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.service.Teachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// ListRooms godoc
// @Summary List rooms
// @Tags References
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *ReferenceHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.Rooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}
