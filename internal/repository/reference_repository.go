package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/veerhooda/campus-timetable-api/internal/models"
)

// ReferenceRepository reads the externally owned class/subject/teacher/room
// tables. It never writes them.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository creates a reference repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) exists(ctx context.Context, query, id string) (bool, error) {
	var one int
	if err := r.db.GetContext(ctx, &one, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ClassExists reports whether the class id resolves.
func (r *ReferenceRepository) ClassExists(ctx context.Context, id string) (bool, error) {
	ok, err := r.exists(ctx, `SELECT 1 FROM classes WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return false, fmt.Errorf("check class exists: %w", err)
	}
	return ok, nil
}

// SubjectExists reports whether the subject id resolves.
func (r *ReferenceRepository) SubjectExists(ctx context.Context, id string) (bool, error) {
	ok, err := r.exists(ctx, `SELECT 1 FROM subjects WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return false, fmt.Errorf("check subject exists: %w", err)
	}
	return ok, nil
}

// TeacherExists reports whether the teacher id resolves.
func (r *ReferenceRepository) TeacherExists(ctx context.Context, id string) (bool, error) {
	ok, err := r.exists(ctx, `SELECT 1 FROM teachers WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return false, fmt.Errorf("check teacher exists: %w", err)
	}
	return ok, nil
}

// RoomExists reports whether the room id resolves.
func (r *ReferenceRepository) RoomExists(ctx context.Context, id string) (bool, error) {
	ok, err := r.exists(ctx, `SELECT 1 FROM rooms WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return false, fmt.Errorf("check room exists: %w", err)
	}
	return ok, nil
}

// ListClasses returns all class sections for pickers.
func (r *ReferenceRepository) ListClasses(ctx context.Context) ([]models.ClassRef, error) {
	var classes []models.ClassRef
	if err := r.db.SelectContext(ctx, &classes, `SELECT id, name, created_at FROM classes ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListSubjects returns all subjects for pickers.
func (r *ReferenceRepository) ListSubjects(ctx context.Context) ([]models.SubjectRef, error) {
	var subjects []models.SubjectRef
	if err := r.db.SelectContext(ctx, &subjects, `SELECT id, name, created_at FROM subjects ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ListTeachers returns all teachers for pickers.
func (r *ReferenceRepository) ListTeachers(ctx context.Context) ([]models.TeacherRef, error) {
	var teachers []models.TeacherRef
	if err := r.db.SelectContext(ctx, &teachers, `SELECT id, full_name, created_at FROM teachers ORDER BY full_name ASC`); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// ListRooms returns all rooms for pickers.
func (r *ReferenceRepository) ListRooms(ctx context.Context) ([]models.RoomRef, error) {
	var rooms []models.RoomRef
	if err := r.db.SelectContext(ctx, &rooms, `SELECT id, name, capacity, created_at FROM rooms ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
