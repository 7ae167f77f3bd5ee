package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements OperatorRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new OperatorRepository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) OperatorRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new operator record.
func (r *PostgresRepository) Create(ctx context.Context, op *Operator) error {
	query := `
		INSERT INTO operators (name, is_superuser, api_key_prefix, api_key_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		op.Name,
		op.IsSuperuser,
		op.ApiKeyPrefix,
		op.ApiKeyHash,
	).Scan(&op.ID, &op.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting operator: %w", err)
	}

	return nil
}

// GetByID retrieves a single operator by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Operator, error) {
	query := `
		SELECT id, name, is_superuser, api_key_prefix, api_key_hash,
		       created_at, revoked_at
		FROM operators
		WHERE id = $1`

	var op Operator
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&op.ID, &op.Name, &op.IsSuperuser,
		&op.ApiKeyPrefix, &op.ApiKeyHash,
		&op.CreatedAt, &op.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("querying operator: %w", err)
	}

	return &op, nil
}

// FindByPrefix returns active (non-revoked) operators matching the given API key prefix.
func (r *PostgresRepository) FindByPrefix(ctx context.Context, prefix string) ([]Operator, error) {
	query := `
		SELECT id, name, is_superuser, api_key_prefix, api_key_hash,
		       created_at, revoked_at
		FROM operators
		WHERE api_key_prefix = $1 AND revoked_at IS NULL`

	return r.scanMany(ctx, query, prefix)
}

// List retrieves all operators, ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Operator, error) {
	query := `
		SELECT id, name, is_superuser, api_key_prefix, api_key_hash,
		       created_at, revoked_at
		FROM operators
		ORDER BY created_at ASC`

	return r.scanMany(ctx, query)
}

// Revoke sets revoked_at on an operator. Returns ErrOperatorNotFound if the
// operator does not exist, and ErrOperatorRevoked if already revoked.
func (r *PostgresRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE operators
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoking operator: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Check if the operator exists at all to distinguish not-found from already-revoked
		var exists bool
		err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM operators WHERE id = $1)", id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking operator existence: %w", err)
		}
		if !exists {
			return ErrOperatorNotFound
		}
		return ErrOperatorRevoked
	}

	return nil
}

// CountAll returns the total number of operators in the table (including revoked).
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM operators").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting operators: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) scanMany(ctx context.Context, query string, args ...any) ([]Operator, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying operators: %w", err)
	}
	defer rows.Close()

	var operators []Operator
	for rows.Next() {
		var op Operator
		err := rows.Scan(
			&op.ID, &op.Name, &op.IsSuperuser,
			&op.ApiKeyPrefix, &op.ApiKeyHash,
			&op.CreatedAt, &op.RevokedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning operator row: %w", err)
		}
		operators = append(operators, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operator rows: %w", err)
	}

	if operators == nil {
		operators = []Operator{}
	}

	return operators, nil
}
