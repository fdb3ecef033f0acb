package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/veerhooda/campus-timetable-api/internal/models"
)

const slotColumns = "id, day_of_week, start_time, end_time, class_id, subject_id, teacher_id, room_id, slot_type, created_at, updated_at"

const slotDetailQuery = `SELECT s.id, s.day_of_week, s.start_time, s.end_time, s.class_id, s.subject_id, s.teacher_id, s.room_id, s.slot_type, s.created_at, s.updated_at,
c.name AS class_name, sub.name AS subject_name, t.full_name AS teacher_name, r.name AS room_name
FROM timetable_slots s
JOIN classes c ON c.id = s.class_id
JOIN subjects sub ON sub.id = s.subject_id
JOIN teachers t ON t.id = s.teacher_id
JOIN rooms r ON r.id = s.room_id`

// SlotTx is the mutation surface available inside a locked day transaction.
// Only the allocation service receives one; nothing else may write slots.
type SlotTx interface {
	ListByDay(ctx context.Context, day string) ([]models.TimetableSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	Insert(ctx context.Context, slot *models.TimetableSlot) error
	Update(ctx context.Context, slot *models.TimetableSlot) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// SlotRepository provides persistence for timetable slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// WithDayLock runs fn inside a transaction holding the advisory lock for the
// given day partition. Proposals for the same day serialise on the lock;
// different days proceed in parallel. The lock is released on commit/rollback.
func (r *SlotRepository) WithDayLock(ctx context.Context, day string, fn func(ctx context.Context, tx SlotTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin day transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('timetable_day:' || $1))`, day); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("acquire day lock for %s: %w", day, err)
	}

	if err := fn(ctx, &slotTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit day transaction: %w", err)
	}
	return nil
}

// IsRetryable reports whether the error is a transient transaction failure
// (serialization failure or deadlock) worth one retry.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

// List returns slots with optional filtering and pagination.
func (r *SlotRepository) List(ctx context.Context, filter models.SlotFilter) ([]models.TimetableSlot, int, error) {
	base := "FROM timetable_slots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day_of_week": true,
		"start_time":  true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", slotColumns, base, sortBy, order, size, offset)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list slots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count slots: %w", err)
	}

	return slots, total, nil
}

// FindByID loads a slot by id.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_slots WHERE id = $1", slotColumns)
	var slot models.TimetableSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListByClass returns a class's slots with reference names, ordered by day/time.
func (r *SlotRepository) ListByClass(ctx context.Context, classID string) ([]models.TimetableSlotDetail, error) {
	query := slotDetailQuery + " WHERE s.class_id = $1 ORDER BY s.day_of_week ASC, s.start_time ASC"
	var slots []models.TimetableSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, classID); err != nil {
		return nil, fmt.Errorf("list slots by class: %w", err)
	}
	return slots, nil
}

// ListByTeacher returns a teacher's slots with reference names, ordered by day/time.
func (r *SlotRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TimetableSlotDetail, error) {
	query := slotDetailQuery + " WHERE s.teacher_id = $1 ORDER BY s.day_of_week ASC, s.start_time ASC"
	var slots []models.TimetableSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, teacherID); err != nil {
		return nil, fmt.Errorf("list slots by teacher: %w", err)
	}
	return slots, nil
}

// slotTx implements SlotTx on a pending transaction.
type slotTx struct {
	tx *sqlx.Tx
}

func (t *slotTx) ListByDay(ctx context.Context, day string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_slots WHERE day_of_week = $1 ORDER BY start_time ASC", slotColumns)
	var slots []models.TimetableSlot
	if err := t.tx.SelectContext(ctx, &slots, query, day); err != nil {
		return nil, fmt.Errorf("list slots by day: %w", err)
	}
	return slots, nil
}

func (t *slotTx) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_slots WHERE id = $1", slotColumns)
	var slot models.TimetableSlot
	if err := t.tx.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (t *slotTx) Insert(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO timetable_slots (id, day_of_week, start_time, end_time, class_id, subject_id, teacher_id, room_id, slot_type, created_at, updated_at)
VALUES (:id, :day_of_week, :start_time, :end_time, :class_id, :subject_id, :teacher_id, :room_id, :slot_type, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (t *slotTx) Update(ctx context.Context, slot *models.TimetableSlot) (bool, error) {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_slots SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, class_id = :class_id, subject_id = :subject_id, teacher_id = :teacher_id, room_id = :room_id, slot_type = :slot_type, updated_at = :updated_at WHERE id = :id`
	res, err := t.tx.NamedExecContext(ctx, query, slot)
	if err != nil {
		return false, fmt.Errorf("update slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update slot rows affected: %w", err)
	}
	return affected > 0, nil
}

func (t *slotTx) Delete(ctx context.Context, id string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete slot rows affected: %w", err)
	}
	return affected > 0, nil
}
