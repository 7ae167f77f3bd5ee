package student

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrStudentNotFound is returned when a student record is not found.
var ErrStudentNotFound = errors.New("student not found")

// ErrTeamNotFound is returned when registering against an unknown team.
var ErrTeamNotFound = errors.New("team not found")

// ErrDuplicateRFID is returned when the normalized RFID is already assigned
// to a student, on any team. RFID assignment is permanent.
var ErrDuplicateRFID = errors.New("rfid already registered")

// ErrTeamFull is returned when the target team already has MaxTeamSize students.
var ErrTeamFull = errors.New("team is full")

// Repository provides registration and lookup operations on the students table.
type Repository interface {
	// Register normalizes the student's RFID, validates team capacity and
	// RFID uniqueness, inserts the student, and marks the team complete when
	// the roster reaches MaxTeamSize — all inside one transaction.
	Register(ctx context.Context, s *Student) error
	GetByID(ctx context.Context, id uuid.UUID) (*Student, error)
	// GetByRFID resolves a raw card UID to its student. The UID is
	// normalized before the lookup.
	GetByRFID(ctx context.Context, rawUID string) (*Student, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Student, error)
	List(ctx context.Context) ([]Student, error)
}
