package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tapin14/tapin/internal/database"
)

// teamCapacityLockKey serializes the count-then-insert in Create so two
// concurrent creations cannot both pass the MaxTeams check.
const teamCapacityLockKey = 0x7465616D // "team"

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new team record. The system-wide team count is checked
// under a transaction-scoped advisory lock, so the MaxTeams ceiling holds
// under concurrent creations.
func (r *PostgresRepository) Create(ctx context.Context, t *Team) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", teamCapacityLockKey); err != nil {
		return fmt.Errorf("acquiring capacity lock: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM teams").Scan(&count); err != nil {
		return fmt.Errorf("counting teams: %w", err)
	}
	if count >= MaxTeams {
		return ErrTeamCapacity
	}

	query := `
		INSERT INTO teams (name)
		VALUES ($1)
		RETURNING id, is_complete, created_at`

	err = tx.QueryRow(ctx, query, t.Name).Scan(&t.ID, &t.IsComplete, &t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTeamName
		}
		return fmt.Errorf("inserting team: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if database.IsLockConflict(err) {
			return database.ErrConflict
		}
		return fmt.Errorf("committing team creation: %w", err)
	}

	t.StudentCount = 0
	return nil
}

// GetByID retrieves a single team by its UUID, including its student count.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	query := `
		SELECT t.id, t.name, t.is_complete, t.created_at,
		       (SELECT COUNT(*) FROM students s WHERE s.team_id = t.id)
		FROM teams t
		WHERE t.id = $1`

	return r.scanOne(ctx, query, id)
}

// GetByName retrieves a single team by its exact name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Team, error) {
	query := `
		SELECT t.id, t.name, t.is_complete, t.created_at,
		       (SELECT COUNT(*) FROM students s WHERE s.team_id = t.id)
		FROM teams t
		WHERE t.name = $1`

	return r.scanOne(ctx, query, name)
}

// List retrieves all teams with student counts, ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Team, error) {
	query := `
		SELECT t.id, t.name, t.is_complete, t.created_at,
		       (SELECT COUNT(*) FROM students s WHERE s.team_id = t.id)
		FROM teams t
		ORDER BY t.created_at ASC, t.id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		err := rows.Scan(&t.ID, &t.Name, &t.IsComplete, &t.CreatedAt, &t.StudentCount)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}

	if teams == nil {
		teams = []Team{}
	}

	return teams, nil
}

// Delete removes a team by its UUID. Students and their attendance logs
// cascade at the store level.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	return nil
}

// scanOne scans a single Team row from a query. Returns ErrTeamNotFound if no rows.
func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Team, error) {
	var t Team
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.Name, &t.IsComplete, &t.CreatedAt, &t.StudentCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("scanning team row: %w", err)
	}
	return &t, nil
}
