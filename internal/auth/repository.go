package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrOperatorNotFound is returned when an operator record is not found.
var ErrOperatorNotFound = errors.New("operator not found")

// ErrOperatorRevoked is returned when attempting to operate on a revoked operator.
var ErrOperatorRevoked = errors.New("operator is revoked")

// OperatorRepository provides operations on the operators table.
type OperatorRepository interface {
	Create(ctx context.Context, op *Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*Operator, error)
	FindByPrefix(ctx context.Context, prefix string) ([]Operator, error)
	List(ctx context.Context) ([]Operator, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	CountAll(ctx context.Context) (int, error)
}
