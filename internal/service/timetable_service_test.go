package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veerhooda/campus-timetable-api/internal/models"
	"github.com/veerhooda/campus-timetable-api/internal/repository"
	appErrors "github.com/veerhooda/campus-timetable-api/pkg/errors"
)

type fakeSlotRepo struct {
	slots    map[string]models.TimetableSlot
	seq      int
	lockErrs []error
	locks    int
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[string]models.TimetableSlot)}
}

func (f *fakeSlotRepo) List(ctx context.Context, filter models.SlotFilter) ([]models.TimetableSlot, int, error) {
	var out []models.TimetableSlot
	for _, s := range f.slots {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (f *fakeSlotRepo) detailsWhere(match func(models.TimetableSlot) bool) []models.TimetableSlotDetail {
	var out []models.TimetableSlotDetail
	for _, s := range f.slots {
		if match(s) {
			out = append(out, models.TimetableSlotDetail{TimetableSlot: s})
		}
	}
	return out
}

func (f *fakeSlotRepo) ListByClass(ctx context.Context, classID string) ([]models.TimetableSlotDetail, error) {
	return f.detailsWhere(func(s models.TimetableSlot) bool { return s.ClassID == classID }), nil
}

func (f *fakeSlotRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.TimetableSlotDetail, error) {
	return f.detailsWhere(func(s models.TimetableSlot) bool { return s.TeacherID == teacherID }), nil
}

func (f *fakeSlotRepo) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	if s, ok := f.slots[id]; ok {
		cp := s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSlotRepo) WithDayLock(ctx context.Context, day string, fn func(ctx context.Context, tx repository.SlotTx) error) error {
	f.locks++
	if len(f.lockErrs) > 0 {
		err := f.lockErrs[0]
		f.lockErrs = f.lockErrs[1:]
		if err != nil {
			return err
		}
	}
	return fn(ctx, &fakeSlotTx{repo: f})
}

type fakeSlotTx struct {
	repo *fakeSlotRepo
}

func (t *fakeSlotTx) ListByDay(ctx context.Context, day string) ([]models.TimetableSlot, error) {
	var out []models.TimetableSlot
	for _, s := range t.repo.slots {
		if s.DayOfWeek == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *fakeSlotTx) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	return t.repo.FindByID(ctx, id)
}

func (t *fakeSlotTx) Insert(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		t.repo.seq++
		slot.ID = fmt.Sprintf("slot-%d", t.repo.seq)
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	t.repo.slots[slot.ID] = *slot
	return nil
}

func (t *fakeSlotTx) Update(ctx context.Context, slot *models.TimetableSlot) (bool, error) {
	if _, ok := t.repo.slots[slot.ID]; !ok {
		return false, nil
	}
	slot.UpdatedAt = time.Now().UTC()
	t.repo.slots[slot.ID] = *slot
	return true, nil
}

func (t *fakeSlotTx) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := t.repo.slots[id]; !ok {
		return false, nil
	}
	delete(t.repo.slots, id)
	return true, nil
}

type fakeRefRepo struct {
	classes  map[string]bool
	subjects map[string]bool
	teachers map[string]bool
	rooms    map[string]bool
}

func newFakeRefRepo() *fakeRefRepo {
	return &fakeRefRepo{
		classes:  map[string]bool{"c1": true, "c2": true, "c3": true},
		subjects: map[string]bool{"sub-1": true},
		teachers: map[string]bool{"t1": true, "t2": true},
		rooms:    map[string]bool{"r1": true, "r2": true},
	}
}

func (f *fakeRefRepo) ClassExists(ctx context.Context, id string) (bool, error) {
	return f.classes[id], nil
}
func (f *fakeRefRepo) SubjectExists(ctx context.Context, id string) (bool, error) {
	return f.subjects[id], nil
}
func (f *fakeRefRepo) TeacherExists(ctx context.Context, id string) (bool, error) {
	return f.teachers[id], nil
}
func (f *fakeRefRepo) RoomExists(ctx context.Context, id string) (bool, error) {
	return f.rooms[id], nil
}

type fakeCache struct {
	deleted []string
	sets    int
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.sets++
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

func newTestService(repo *fakeSlotRepo, cache *fakeCache) *TimetableService {
	var view viewCache
	if cache != nil {
		view = cache
	}
	return NewTimetableService(repo, newFakeRefRepo(), view, time.Minute, validator.New(), zap.NewNop(), nil)
}

func request(day, start, end, classID, teacherID, roomID string) SlotRequest {
	return SlotRequest{
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		ClassID:   classID,
		SubjectID: "sub-1",
		TeacherID: teacherID,
		RoomID:    roomID,
	}
}

func TestTimetableServiceCreate(t *testing.T) {
	repo := newFakeSlotRepo()
	cache := &fakeCache{}
	svc := newTestService(repo, cache)

	slot, err := svc.Create(context.Background(), request(models.Monday, "09:00", "10:00", "c1", "t1", "r1"))
	require.NoError(t, err)
	assert.NotEmpty(t, slot.ID)
	assert.Equal(t, models.SlotLecture, slot.SlotType)
	assert.Len(t, repo.slots, 1)
	assert.Contains(t, cache.deleted, "timetable:class:c1")
	assert.Contains(t, cache.deleted, "timetable:teacher:t1")
}

func TestTimetableServiceCreateValidation(t *testing.T) {
	svc := newTestService(newFakeSlotRepo(), nil)

	cases := []struct {
		name string
		req  SlotRequest
	}{
		{"bad day", request("SUNDAY", "09:00", "10:00", "c1", "t1", "r1")},
		{"missing class", request(models.Monday, "09:00", "10:00", "", "t1", "r1")},
		{"bad clock", request(models.Monday, "9am", "10:00", "c1", "t1", "r1")},
		{"start equals end", request(models.Monday, "10:00", "10:00", "c1", "t1", "r1")},
		{"start after end", request(models.Monday, "11:00", "10:00", "c1", "t1", "r1")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestTimetableServiceCreateUnknownReference(t *testing.T) {
	svc := newTestService(newFakeSlotRepo(), nil)

	_, err := svc.Create(context.Background(), request(models.Monday, "09:00", "10:00", "c1", "ghost", "r1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "teacher")
}

func TestTimetableServiceCreateConflictLeavesStoreUnchanged(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), request(models.Monday, "09:00", "10:00", "c1", "t1", "r1"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), request(models.Monday, "09:30", "10:30", "c2", "t1", "r2"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	conflicts, ok := appErr.Details.([]models.Conflict)
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.DimensionTeacher, conflicts[0].Dimension)
	assert.Len(t, repo.slots, 1)
}

func TestTimetableServiceUpdateExcludesSelf(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Create(context.Background(), request(models.Monday, "09:00", "10:00", "c1", "t1", "r1"))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, request(models.Monday, "09:00", "10:00", "c1", "t1", "r1"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
}

func TestTimetableServiceUpdateMissing(t *testing.T) {
	svc := newTestService(newFakeSlotRepo(), nil)

	_, err := svc.Update(context.Background(), "ghost", request(models.Monday, "09:00", "10:00", "c1", "t1", "r1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceDelete(t *testing.T) {
	repo := newFakeSlotRepo()
	cache := &fakeCache{}
	svc := newTestService(repo, cache)

	created, err := svc.Create(context.Background(), request(models.Monday, "09:00", "10:00", "c1", "t1", "r1"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Empty(t, repo.slots)

	week, err := svc.GetClassWeek(context.Background(), "c1")
	require.NoError(t, err)
	for _, day := range week {
		assert.Empty(t, day.Slots)
	}

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceScenarioWalk(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	slotA, err := svc.Create(ctx, request(models.Monday, "09:00", "10:00", "c1", "t1", "r1"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, request(models.Monday, "09:30", "10:30", "c2", "t1", "r2"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	conflicts := appErr.Details.([]models.Conflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, slotA.ID, conflicts[0].WithSlotID)
	assert.Equal(t, models.DimensionTeacher, conflicts[0].Dimension)

	slotC, err := svc.Create(ctx, request(models.Monday, "10:00", "11:00", "c1", "t1", "r1"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, slotC.ID, request(models.Monday, "09:45", "10:15", "c1", "t1", "r1"))
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	conflicts = appErr.Details.([]models.Conflict)
	require.Len(t, conflicts, 3)
	for _, c := range conflicts {
		assert.Equal(t, slotA.ID, c.WithSlotID)
	}

	require.NoError(t, svc.Delete(ctx, slotA.ID))
	require.NoError(t, svc.Delete(ctx, slotC.ID))

	_, err = svc.Create(ctx, request(models.Monday, "09:30", "10:30", "c2", "t1", "r2"))
	require.NoError(t, err)
}

func TestTimetableServiceRetriesAbortedTransaction(t *testing.T) {
	repo := newFakeSlotRepo()
	repo.lockErrs = []error{&pq.Error{Code: "40001"}}
	svc := newTestService(repo, nil)

	slot, err := svc.Create(context.Background(), request(models.Monday, "09:00", "10:00", "c1", "t1", "r1"))
	require.NoError(t, err)
	assert.NotEmpty(t, slot.ID)
	assert.Equal(t, 2, repo.locks)
}

func TestTimetableServiceConcurrencyErrorAfterRetry(t *testing.T) {
	repo := newFakeSlotRepo()
	repo.lockErrs = []error{&pq.Error{Code: "40001"}, &pq.Error{Code: "40001"}}
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), request(models.Monday, "09:00", "10:00", "c1", "t1", "r1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConcurrency.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.slots)
}
