package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/veerhooda/campus-timetable-api/internal/models"
	"github.com/veerhooda/campus-timetable-api/internal/service"
	appErrors "github.com/veerhooda/campus-timetable-api/pkg/errors"
	"github.com/veerhooda/campus-timetable-api/pkg/response"
)

type timetableService interface {
	List(ctx context.Context, filter models.SlotFilter) ([]models.TimetableSlot, *models.Pagination, error)
	GetClassWeek(ctx context.Context, classID string) ([]models.DaySchedule, error)
	GetTeacherWeek(ctx context.Context, teacherID string) ([]models.DaySchedule, error)
	Create(ctx context.Context, req service.SlotRequest) (*models.TimetableSlot, error)
	Update(ctx context.Context, id string, req service.SlotRequest) (*models.TimetableSlot, error)
	Delete(ctx context.Context, id string) error
}

// TimetableHandler manages timetable endpoints.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// List godoc
// @Summary List timetable slots
// @Tags Timetable
// @Produce json
// @Param dayOfWeek query string false "Filter by day"
// @Param classId query string false "Filter by class"
// @Param teacherId query string false "Filter by teacher"
// @Param roomId query string false "Filter by room"
// @Param subjectId query string false "Filter by subject"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var filter models.SlotFilter
	filter.DayOfWeek = strings.ToUpper(c.Query("dayOfWeek"))
	filter.ClassID = c.Query("classId")
	filter.TeacherID = c.Query("teacherId")
	filter.RoomID = c.Query("roomId")
	filter.SubjectID = c.Query("subjectId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	slots, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, pagination)
}

// GetByClass godoc
// @Summary Weekly timetable for a class
// @Tags Timetable
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/class/{classId} [get]
func (h *TimetableHandler) GetByClass(c *gin.Context) {
	week, err := h.service.GetClassWeek(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// GetByTeacher godoc
// @Summary Weekly timetable for a teacher
// @Tags Timetable
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/teacher/{teacherId} [get]
func (h *TimetableHandler) GetByTeacher(c *gin.Context) {
	week, err := h.service.GetTeacherWeek(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// Create godoc
// @Summary Propose a timetable slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.SlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "error.details carries the conflict list"
// @Router /timetable [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req service.SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Update godoc
// @Summary Replace a timetable slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body service.SlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "error.details carries the conflict list"
// @Router /timetable/{id} [patch]
func (h *TimetableHandler) Update(c *gin.Context) {
	var req service.SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Delete godoc
// @Summary Delete a timetable slot
// @Tags Timetable
// @Produce json
// @Param id path string true "Slot ID"
// @Success 204
// @Router /timetable/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
