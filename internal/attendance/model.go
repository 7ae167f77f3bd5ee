package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Log statuses. Successive taps by one student strictly alternate, starting
// at IN.
const (
	StatusIn  = "IN"
	StatusOut = "OUT"
)

// Log represents a row in the attendance_logs table. Rows are append-only:
// they are written once by a tap and never updated. Exactly one of
// CheckInTime/CheckOutTime is set, matching the status; a full presence
// interval is reconstructed by pairing consecutive IN/OUT rows.
type Log struct {
	ID           int64
	StudentID    uuid.UUID
	StudentName  string // populated by joins on read paths
	TeamID       uuid.UUID
	TeamName     string // populated by joins on read paths
	Status       string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	CreatedAt    time.Time
}

// TapResult is returned from a processed tap for immediate display at the
// reader.
type TapResult struct {
	StudentID   uuid.UUID
	StudentName string
	RFIDUID     string
	TeamID      uuid.UUID
	TeamName    string
	Log         Log
}

// Counts is a point-in-time presence summary derived from each student's
// latest log. Students without any log count as checked out.
type Counts struct {
	InCount       int
	OutCount      int
	TotalStudents int
}

// TeamPresence is one team's slice of a daily snapshot. A student is present
// on a date when an IN log was stamped that date.
type TeamPresence struct {
	TeamID       uuid.UUID
	TeamName     string
	TotalCount   int
	PresentCount int
	AbsentCount  int
	PresenceRate float64 // percentage, 0 for an empty roster
}

// RosterRow is one student's line in the daily attendance export.
type RosterRow struct {
	TeamName    string
	StudentName string
	RFIDUID     string
	Present     bool
	LastAction  *time.Time // latest log written that date, nil if none
}

// Stats is the system status summary shown on the dashboard.
type Stats struct {
	TotalTeams    int
	CompleteTeams int
	TotalStudents int
	CheckedIn     int
	CheckedOut    int
	TapsToday     int
}
