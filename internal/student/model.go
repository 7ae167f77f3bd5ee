package student

import (
	"time"

	"github.com/google/uuid"
)

// MaxTeamSize is the fixed roster cap per team. The sixth registration marks
// the team complete.
const MaxTeamSize = 6

// Student represents a row in the students table. RFIDUID is stored in
// normalized form and is unique across all students.
type Student struct {
	ID           uuid.UUID
	Name         string
	RFIDUID      string
	TeamID       uuid.UUID
	TeamName     string // populated by joins on read paths
	RegisteredAt time.Time
}
