package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/veerhooda/campus-timetable-api/internal/models"
	appErrors "github.com/veerhooda/campus-timetable-api/pkg/errors"
)

type referenceListRepository interface {
	ListClasses(ctx context.Context) ([]models.ClassRef, error)
	ListSubjects(ctx context.Context) ([]models.SubjectRef, error)
	ListTeachers(ctx context.Context) ([]models.TeacherRef, error)
	ListRooms(ctx context.Context) ([]models.RoomRef, error)
}

// ReferenceService exposes the externally owned entities for pickers.
type ReferenceService struct {
	repo   referenceListRepository
	logger *zap.Logger
}

// NewReferenceService instantiates ReferenceService.
func NewReferenceService(repo referenceListRepository, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{repo: repo, logger: logger}
}

// Classes lists all class sections.
func (s *ReferenceService) Classes(ctx context.Context) ([]models.ClassRef, error) {
	classes, err := s.repo.ListClasses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Subjects lists all subjects.
func (s *ReferenceService) Subjects(ctx context.Context) ([]models.SubjectRef, error) {
	subjects, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Teachers lists all teachers.
func (s *ReferenceService) Teachers(ctx context.Context) ([]models.TeacherRef, error) {
	teachers, err := s.repo.ListTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// Rooms lists all rooms.
func (s *ReferenceService) Rooms(ctx context.Context) ([]models.RoomRef, error) {
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}
