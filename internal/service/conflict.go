package service

import (
	"sort"

	"github.com/veerhooda/campus-timetable-api/internal/models"
)

var dimensionRank = map[string]int{
	models.DimensionTeacher: 0,
	models.DimensionRoom:    1,
	models.DimensionClass:   2,
}

// Overlaps reports whether two half-open minute ranges [s1,e1) and [s2,e2)
// intersect. Ranges that touch at a boundary do not overlap, so back-to-back
// sessions are allowed.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// FindConflicts evaluates a candidate slot against a snapshot of committed
// slots and returns every collision, classified by dimension. A pair sharing
// several resources yields one entry per shared dimension. excludeID skips the
// slot being replaced on update so it never conflicts with its own prior
// state. The result is ordered by dimension (teacher, room, class) then by the
// existing slot's start time.
func FindConflicts(candidate models.TimetableSlot, existing []models.TimetableSlot, excludeID string) []models.Conflict {
	candStart, err := models.MinuteOfDay(candidate.StartTime)
	if err != nil {
		return nil
	}
	candEnd, err := models.MinuteOfDay(candidate.EndTime)
	if err != nil {
		return nil
	}

	var conflicts []models.Conflict
	for _, slot := range existing {
		if slot.ID == excludeID || slot.DayOfWeek != candidate.DayOfWeek {
			continue
		}
		start, err := models.MinuteOfDay(slot.StartTime)
		if err != nil {
			continue
		}
		end, err := models.MinuteOfDay(slot.EndTime)
		if err != nil {
			continue
		}
		if !Overlaps(candStart, candEnd, start, end) {
			continue
		}

		if slot.TeacherID == candidate.TeacherID {
			conflicts = append(conflicts, conflictWith(slot, models.DimensionTeacher))
		}
		if slot.RoomID == candidate.RoomID {
			conflicts = append(conflicts, conflictWith(slot, models.DimensionRoom))
		}
		if slot.ClassID == candidate.ClassID {
			conflicts = append(conflicts, conflictWith(slot, models.DimensionClass))
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if dimensionRank[conflicts[i].Dimension] != dimensionRank[conflicts[j].Dimension] {
			return dimensionRank[conflicts[i].Dimension] < dimensionRank[conflicts[j].Dimension]
		}
		return conflicts[i].StartTime < conflicts[j].StartTime
	})
	return conflicts
}

func conflictWith(slot models.TimetableSlot, dimension string) models.Conflict {
	return models.Conflict{
		WithSlotID: slot.ID,
		Dimension:  dimension,
		DayOfWeek:  slot.DayOfWeek,
		StartTime:  slot.StartTime,
		EndTime:    slot.EndTime,
	}
}
