package team

import (
	"time"

	"github.com/google/uuid"
)

// MaxTeams is the system-wide ceiling on the number of teams.
const MaxTeams = 25

// Team represents a row in the teams table. StudentCount is derived from the
// students table on read; IsComplete is flipped by student registration when
// the roster reaches its cap.
type Team struct {
	ID           uuid.UUID
	Name         string
	IsComplete   bool
	StudentCount int
	CreatedAt    time.Time
}
