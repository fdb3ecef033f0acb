package models

import (
	"fmt"
	"time"
)

// Days of the week a slot may occupy, in timetable order.
const (
	Monday    = "MONDAY"
	Tuesday   = "TUESDAY"
	Wednesday = "WEDNESDAY"
	Thursday  = "THURSDAY"
	Friday    = "FRIDAY"
	Saturday  = "SATURDAY"
)

// WeekDays lists the scheduling days in display order.
var WeekDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Slot categories. Carried for display; not part of the conflict rule.
const (
	SlotLecture  = "LECTURE"
	SlotLab      = "LAB"
	SlotTutorial = "TUTORIAL"
	SlotSeminar  = "SEMINAR"
)

// TimetableSlot is a weekly recurring class session binding a class, subject,
// teacher and room to a day of week and a time range.
type TimetableSlot struct {
	ID        string    `db:"id" json:"id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	SlotType  string    `db:"slot_type" json:"slot_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableSlotDetail joins a slot with the display names of its references.
type TimetableSlotDetail struct {
	TimetableSlot
	ClassName   string `db:"class_name" json:"class_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	RoomName    string `db:"room_name" json:"room_name"`
}

// SlotFilter describes query params for listing slots.
type SlotFilter struct {
	DayOfWeek string
	ClassID   string
	TeacherID string
	RoomID    string
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// DaySchedule groups the slots of a single day for weekly views.
type DaySchedule struct {
	Day   string                `json:"day"`
	Slots []TimetableSlotDetail `json:"slots"`
}

// GroupByDay buckets slots into the six scheduling days in week order.
// Every day appears, empty or not, so clients can render a full grid.
func GroupByDay(slots []TimetableSlotDetail) []DaySchedule {
	buckets := make(map[string][]TimetableSlotDetail, len(WeekDays))
	for _, slot := range slots {
		buckets[slot.DayOfWeek] = append(buckets[slot.DayOfWeek], slot)
	}

	week := make([]DaySchedule, 0, len(WeekDays))
	for _, day := range WeekDays {
		daySlots := buckets[day]
		if daySlots == nil {
			daySlots = []TimetableSlotDetail{}
		}
		week = append(week, DaySchedule{Day: day, Slots: daySlots})
	}
	return week
}

// MinuteOfDay parses a zero-padded "HH:MM" clock value into minutes since
// midnight. Exactly five characters, all four digit positions required, so
// stored values sort lexicographically in chronological order.
func MinuteOfDay(clock string) (int, error) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", clock)
	}
	for _, i := range [4]int{0, 1, 3, 4} {
		if clock[i] < '0' || clock[i] > '9' {
			return 0, fmt.Errorf("invalid time %q: expected HH:MM", clock)
		}
	}
	h := int(clock[0]-'0')*10 + int(clock[1]-'0')
	m := int(clock[3]-'0')*10 + int(clock[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", clock)
	}
	return h*60 + m, nil
}

// ValidDay reports whether the given value is a scheduling day.
func ValidDay(day string) bool {
	for _, d := range WeekDays {
		if d == day {
			return true
		}
	}
	return false
}
