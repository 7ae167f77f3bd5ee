package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnregisteredCard is returned when a tapped RFID has no owning student.
var ErrUnregisteredCard = errors.New("card not registered")

// ErrTeamNotFound is returned when querying history for an unknown team.
var ErrTeamNotFound = errors.New("team not found")

// Repository provides the attendance toggle and the aggregate queries over
// the log stream.
type Repository interface {
	// Tap normalizes the raw UID, resolves the owning student, derives the
	// next status from the student's most recent log (IN when none or OUT,
	// otherwise OUT), and appends a new log — all inside one transaction
	// that holds the student row locked.
	Tap(ctx context.Context, rawUID string) (*TapResult, error)

	// StudentHistory returns a student's logs newest first. A student who
	// has never tapped yields an empty slice, not an error.
	StudentHistory(ctx context.Context, studentID uuid.UUID) ([]Log, error)

	// TeamHistory returns all logs across a team's roster, newest first.
	TeamHistory(ctx context.Context, teamID uuid.UUID) ([]Log, error)

	// LiveCounts derives the current in/out split from each student's
	// latest log.
	LiveCounts(ctx context.Context) (*Counts, error)

	// DailySnapshot partitions each team's roster into present/absent for
	// the calendar day containing day, in the store's time zone handling.
	DailySnapshot(ctx context.Context, day time.Time) ([]TeamPresence, error)

	// DailyRoster returns one row per student for the given day, for the
	// attendance export.
	DailyRoster(ctx context.Context, day time.Time) ([]RosterRow, error)

	// Stats summarizes the system for the dashboard status endpoint.
	Stats(ctx context.Context) (*Stats, error)
}
