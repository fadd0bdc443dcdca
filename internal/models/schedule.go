package models

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimeSlot buckets the day into coarse study windows.
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
)

var slotOrder = map[TimeSlot]int{
	SlotMorning:   0,
	SlotAfternoon: 1,
	SlotEvening:   2,
}

// SlotRank orders slots within a day for deterministic output.
func SlotRank(s TimeSlot) int {
	return slotOrder[s]
}

// ValidTimeSlot reports whether s is a known slot bucket.
func ValidTimeSlot(s TimeSlot) bool {
	_, ok := slotOrder[s]
	return ok
}

// Weekday names as stored in preferences, Monday-first.
var dayIndexMap = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
	"SUNDAY":    7,
}

// DayRank returns the Monday-first ordinal for a day name, or 0 when unknown.
func DayRank(day string) int {
	return dayIndexMap[strings.ToUpper(strings.TrimSpace(day))]
}

// SchedulePreferences stores a student's availability grid and weekly budget.
type SchedulePreferences struct {
	StudentID     string         `db:"student_id" json:"student_id"`
	AvailableDays types.JSONText `db:"available_days" json:"available_days"`
	TimeSlots     types.JSONText `db:"time_slots" json:"time_slots"`
	WeeklyHours   float64        `db:"weekly_hours" json:"weekly_hours"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleBlock is one (day, slot, topic) assignment within a snapshot.
type ScheduleBlock struct {
	ID             string    `db:"id" json:"id"`
	SnapshotID     string    `db:"snapshot_id" json:"-"`
	Day            string    `db:"day" json:"day"`
	Slot           TimeSlot  `db:"slot" json:"slot"`
	TopicID        string    `db:"topic_id" json:"topic_id"`
	PlannedMinutes int       `db:"planned_minutes" json:"planned_minutes"`
	Position       int       `db:"position" json:"position"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ScheduleSnapshot is an immutable optimizer output. Each run replaces the
// previous snapshot atomically; readers never observe a partial block set.
type ScheduleSnapshot struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Version   int       `db:"version" json:"version"`
	Reason    string    `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
