package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veerhooda/campus-timetable-api/internal/models"
)

func slot(id, day, start, end, classID, teacherID, roomID string) models.TimetableSlot {
	return models.TimetableSlot{
		ID:        id,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		ClassID:   classID,
		SubjectID: "sub-1",
		TeacherID: teacherID,
		RoomID:    roomID,
		SlotType:  models.SlotLecture,
	}
}

func TestOverlapsSymmetry(t *testing.T) {
	cases := []struct {
		name           string
		s1, e1, s2, e2 int
		want           bool
	}{
		{"disjoint", 540, 600, 660, 720, false},
		{"contained", 540, 720, 570, 600, true},
		{"partial", 540, 630, 570, 660, true},
		{"identical", 540, 600, 540, 600, true},
		{"touching", 540, 600, 600, 660, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.s1, tc.e1, tc.s2, tc.e2))
			assert.Equal(t, tc.want, Overlaps(tc.s2, tc.e2, tc.s1, tc.e1))
		})
	}
}

func TestFindConflictsTouchingSlotsAllowed(t *testing.T) {
	existing := []models.TimetableSlot{
		slot("a", models.Monday, "09:00", "10:00", "c1", "t1", "r1"),
	}
	candidate := slot("", models.Monday, "10:00", "11:00", "c1", "t1", "r1")

	assert.Empty(t, FindConflicts(candidate, existing, ""))
}

func TestFindConflictsDifferentDayNeverConflicts(t *testing.T) {
	existing := []models.TimetableSlot{
		slot("a", models.Tuesday, "09:00", "10:00", "c1", "t1", "r1"),
	}
	candidate := slot("", models.Monday, "09:00", "10:00", "c1", "t1", "r1")

	assert.Empty(t, FindConflicts(candidate, existing, ""))
}

func TestFindConflictsSingleDimension(t *testing.T) {
	existing := []models.TimetableSlot{
		slot("a", models.Monday, "09:00", "10:00", "c1", "t1", "r1"),
	}
	candidate := slot("", models.Monday, "09:30", "10:30", "c2", "t1", "r2")

	conflicts := FindConflicts(candidate, existing, "")
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a", conflicts[0].WithSlotID)
	assert.Equal(t, models.DimensionTeacher, conflicts[0].Dimension)
	assert.Equal(t, "09:00", conflicts[0].StartTime)
	assert.Equal(t, "10:00", conflicts[0].EndTime)
}

func TestFindConflictsMultipleDimensionsOnePair(t *testing.T) {
	existing := []models.TimetableSlot{
		slot("a", models.Monday, "09:00", "10:00", "c1", "t1", "r1"),
	}
	candidate := slot("", models.Monday, "09:45", "10:15", "c1", "t1", "r1")

	conflicts := FindConflicts(candidate, existing, "")
	require.Len(t, conflicts, 3)
	assert.Equal(t, models.DimensionTeacher, conflicts[0].Dimension)
	assert.Equal(t, models.DimensionRoom, conflicts[1].Dimension)
	assert.Equal(t, models.DimensionClass, conflicts[2].Dimension)
	for _, c := range conflicts {
		assert.Equal(t, "a", c.WithSlotID)
	}
}

func TestFindConflictsOrderedByDimensionThenStart(t *testing.T) {
	existing := []models.TimetableSlot{
		slot("late-teacher", models.Monday, "10:30", "11:30", "c2", "t1", "r2"),
		slot("early-teacher", models.Monday, "09:00", "10:00", "c3", "t1", "r3"),
		slot("room", models.Monday, "09:30", "10:30", "c4", "t2", "r1"),
	}
	candidate := slot("", models.Monday, "09:00", "11:00", "c1", "t1", "r1")

	conflicts := FindConflicts(candidate, existing, "")
	require.Len(t, conflicts, 3)
	assert.Equal(t, "early-teacher", conflicts[0].WithSlotID)
	assert.Equal(t, "late-teacher", conflicts[1].WithSlotID)
	assert.Equal(t, "room", conflicts[2].WithSlotID)
	assert.Equal(t, models.DimensionTeacher, conflicts[0].Dimension)
	assert.Equal(t, models.DimensionTeacher, conflicts[1].Dimension)
	assert.Equal(t, models.DimensionRoom, conflicts[2].Dimension)
}

func TestFindConflictsExcludesSelfOnUpdate(t *testing.T) {
	existing := []models.TimetableSlot{
		slot("a", models.Monday, "09:00", "10:00", "c1", "t1", "r1"),
	}
	candidate := slot("a", models.Monday, "09:00", "10:00", "c1", "t1", "r1")

	assert.Empty(t, FindConflicts(candidate, existing, "a"))
}

func TestFindConflictsNoSharedResourceNoConflict(t *testing.T) {
	existing := []models.TimetableSlot{
		slot("a", models.Monday, "09:00", "10:00", "c1", "t1", "r1"),
	}
	candidate := slot("", models.Monday, "09:00", "10:00", "c2", "t2", "r2")

	assert.Empty(t, FindConflicts(candidate, existing, ""))
}
