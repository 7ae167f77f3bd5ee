package auth

import (
	"time"

	"github.com/google/uuid"
)

// Operator represents a row in the operators table. Operators are the humans
// (and reader devices) allowed to call the API: registration staff, the
// dashboard, tap clients.
type Operator struct {
	ID           uuid.UUID
	Name         string
	IsSuperuser  bool
	ApiKeyPrefix string
	ApiKeyHash   string
	CreatedAt    time.Time
	RevokedAt    *time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	OperatorID   uuid.UUID
	OperatorName string
	IsSuperuser  bool
}
