package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/veerhooda/campus-timetable-api/internal/models"
	"github.com/veerhooda/campus-timetable-api/internal/repository"
	appErrors "github.com/veerhooda/campus-timetable-api/pkg/errors"
)

type slotRepository interface {
	List(ctx context.Context, filter models.SlotFilter) ([]models.TimetableSlot, int, error)
	ListByClass(ctx context.Context, classID string) ([]models.TimetableSlotDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TimetableSlotDetail, error)
	FindByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	WithDayLock(ctx context.Context, day string, fn func(ctx context.Context, tx repository.SlotTx) error) error
}

type referenceRepository interface {
	ClassExists(ctx context.Context, id string) (bool, error)
	SubjectExists(ctx context.Context, id string) (bool, error)
	TeacherExists(ctx context.Context, id string) (bool, error)
	RoomExists(ctx context.Context, id string) (bool, error)
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SlotRequest describes the payload for proposing or replacing a slot.
type SlotRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	RoomID    string `json:"room_id" validate:"required"`
	SlotType  string `json:"slot_type" validate:"omitempty,oneof=LECTURE LAB TUTORIAL SEMINAR"`
}

// TimetableService is the only mutation entry point for timetable slots. It
// guarantees that nothing commits without a clean conflict check.
type TimetableService struct {
	repo      slotRepository
	refs      referenceRepository
	cache     viewCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewTimetableService instantiates TimetableService. cache may be nil, in
// which case weekly views are always read from the store.
func NewTimetableService(repo slotRepository, refs referenceRepository, cache viewCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		repo:      repo,
		refs:      refs,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// List returns slots with pagination metadata.
func (s *TimetableService) List(ctx context.Context, filter models.SlotFilter) ([]models.TimetableSlot, *models.Pagination, error) {
	slots, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return slots, pagination, nil
}

// GetClassWeek returns a class's weekly timetable grouped by day.
func (s *TimetableService) GetClassWeek(ctx context.Context, classID string) ([]models.DaySchedule, error) {
	return s.weekView(ctx, classKey(classID), func() ([]models.TimetableSlotDetail, error) {
		return s.repo.ListByClass(ctx, classID)
	})
}

// GetTeacherWeek returns a teacher's weekly timetable grouped by day.
func (s *TimetableService) GetTeacherWeek(ctx context.Context, teacherID string) ([]models.DaySchedule, error) {
	return s.weekView(ctx, teacherKey(teacherID), func() ([]models.TimetableSlotDetail, error) {
		return s.repo.ListByTeacher(ctx, teacherID)
	})
}

func (s *TimetableService) weekView(ctx context.Context, key string, load func() ([]models.TimetableSlotDetail, error)) ([]models.DaySchedule, error) {
	if s.cache != nil {
		start := time.Now()
		var cached []models.DaySchedule
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true, time.Since(start))
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false, time.Since(start))
	}

	slots, err := load()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	week := models.GroupByDay(slots)

	if s.cache != nil {
		start := time.Now()
		if err := s.cache.Set(ctx, key, week, s.cacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	return week, nil
}

// Create validates a proposed slot, checks conflicts inside the day's critical
// section and commits it. On any conflict nothing is written and the full
// conflict list is returned.
func (s *TimetableService) Create(ctx context.Context, req SlotRequest) (*models.TimetableSlot, error) {
	slot, err := s.buildSlot(ctx, req)
	if err != nil {
		s.countAllocation("create", "rejected")
		return nil, err
	}

	err = s.mutateDay(ctx, slot.DayOfWeek, func(ctx context.Context, tx repository.SlotTx) error {
		snapshot, err := tx.ListByDay(ctx, slot.DayOfWeek)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day snapshot")
		}
		if conflicts := FindConflicts(*slot, snapshot, ""); len(conflicts) > 0 {
			return s.conflictError(conflicts)
		}
		if err := tx.Insert(ctx, slot); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable slot")
		}
		return nil
	})
	if err != nil {
		s.countAllocation("create", outcomeOf(err))
		return nil, err
	}

	s.countAllocation("create", "committed")
	s.invalidateViews(ctx, slot.ClassID, slot.TeacherID)
	s.logger.Info("timetable slot created",
		zap.String("slot_id", slot.ID),
		zap.String("day", slot.DayOfWeek),
		zap.String("teacher_id", slot.TeacherID),
		zap.String("room_id", slot.RoomID))
	return slot, nil
}

// Update replaces an existing slot after re-validation. The conflict check
// excludes the slot's own prior state, so rescheduling a slot onto itself
// succeeds.
func (s *TimetableService) Update(ctx context.Context, id string, req SlotRequest) (*models.TimetableSlot, error) {
	slot, err := s.buildSlot(ctx, req)
	if err != nil {
		s.countAllocation("update", "rejected")
		return nil, err
	}
	slot.ID = id

	var previous models.TimetableSlot
	err = s.mutateDay(ctx, slot.DayOfWeek, func(ctx context.Context, tx repository.SlotTx) error {
		existing, err := tx.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
		}
		previous = *existing
		slot.CreatedAt = existing.CreatedAt

		// The snapshot covers the target day; when the slot moves to another
		// day its old row cannot overlap anything on the new day.
		snapshot, err := tx.ListByDay(ctx, slot.DayOfWeek)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day snapshot")
		}
		if conflicts := FindConflicts(*slot, snapshot, id); len(conflicts) > 0 {
			return s.conflictError(conflicts)
		}

		updated, err := tx.Update(ctx, slot)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable slot")
		}
		if !updated {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return nil
	})
	if err != nil {
		s.countAllocation("update", outcomeOf(err))
		return nil, err
	}

	s.countAllocation("update", "committed")
	s.invalidateViews(ctx, slot.ClassID, slot.TeacherID)
	if previous.ClassID != slot.ClassID || previous.TeacherID != slot.TeacherID {
		s.invalidateViews(ctx, previous.ClassID, previous.TeacherID)
	}
	return slot, nil
}

// Delete removes a slot. A missing id is an error so clients learn their view
// is stale.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}

	err = s.mutateDay(ctx, existing.DayOfWeek, func(ctx context.Context, tx repository.SlotTx) error {
		deleted, err := tx.Delete(ctx, id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable slot")
		}
		if !deleted {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return nil
	})
	if err != nil {
		s.countAllocation("delete", outcomeOf(err))
		return err
	}

	s.countAllocation("delete", "committed")
	s.invalidateViews(ctx, existing.ClassID, existing.TeacherID)
	return nil
}

// mutateDay runs the mutation under the day lock, retrying once when the
// transaction was aborted by a competing writer.
func (s *TimetableService) mutateDay(ctx context.Context, day string, fn func(ctx context.Context, tx repository.SlotTx) error) error {
	err := s.repo.WithDayLock(ctx, day, fn)
	if err == nil || !repository.IsRetryable(err) {
		return err
	}

	s.logger.Warn("day transaction aborted by competing writer, retrying", zap.String("day", day), zap.Error(err))
	s.countAllocation("mutate", "retried")
	if err := s.repo.WithDayLock(ctx, day, fn); err != nil {
		if repository.IsRetryable(err) {
			return appErrors.Wrap(err, appErrors.ErrConcurrency.Code, appErrors.ErrConcurrency.Status, appErrors.ErrConcurrency.Message)
		}
		return err
	}
	return nil
}

func (s *TimetableService) buildSlot(ctx context.Context, req SlotRequest) (*models.TimetableSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	start, err := models.MinuteOfDay(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start_time")
	}
	end, err := models.MinuteOfDay(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end_time")
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	if err := s.resolveReferences(ctx, req); err != nil {
		return nil, err
	}

	slotType := req.SlotType
	if slotType == "" {
		slotType = models.SlotLecture
	}

	return &models.TimetableSlot{
		DayOfWeek: strings.ToUpper(req.DayOfWeek),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		TeacherID: req.TeacherID,
		RoomID:    req.RoomID,
		SlotType:  slotType,
	}, nil
}

func (s *TimetableService) resolveReferences(ctx context.Context, req SlotRequest) error {
	checks := []struct {
		name   string
		id     string
		lookup func(context.Context, string) (bool, error)
	}{
		{"class", req.ClassID, s.refs.ClassExists},
		{"subject", req.SubjectID, s.refs.SubjectExists},
		{"teacher", req.TeacherID, s.refs.TeacherExists},
		{"room", req.RoomID, s.refs.RoomExists},
	}
	for _, check := range checks {
		ok, err := check.lookup(ctx, check.id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve references")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", check.name, check.id))
		}
	}
	return nil
}

func (s *TimetableService) conflictError(conflicts []models.Conflict) error {
	s.metrics.ObserveConflicts(conflicts)
	appErr := appErrors.WithDetails(appErrors.ErrConflict, "timetable slot conflicts with existing commitments", conflicts)
	appErr.Err = &models.ConflictError{Message: appErr.Message, Conflicts: conflicts}
	return appErr
}

func (s *TimetableService) invalidateViews(ctx context.Context, classID, teacherID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, classKey(classID), teacherKey(teacherID)); err != nil {
		s.logger.Warn("timetable cache invalidation failed",
			zap.String("class_id", classID),
			zap.String("teacher_id", teacherID),
			zap.Error(err))
	}
}

func (s *TimetableService) countAllocation(op, outcome string) {
	s.metrics.ObserveAllocation(op, outcome)
}

func outcomeOf(err error) string {
	appErr := appErrors.FromError(err)
	switch appErr.Code {
	case appErrors.ErrConflict.Code:
		return "conflict"
	case appErrors.ErrConcurrency.Code:
		return "concurrency"
	case appErrors.ErrNotFound.Code:
		return "not_found"
	default:
		return "error"
	}
}

func classKey(classID string) string {
	return "timetable:class:" + classID
}

func teacherKey(teacherID string) string {
	return "timetable:teacher:" + teacherID
}
