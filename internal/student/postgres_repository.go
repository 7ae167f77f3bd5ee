package student

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tapin14/tapin/internal/database"
	"github.com/tapin14/tapin/internal/rfid"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Register inserts a new student. The team row is locked for the duration of
// the transaction, so the roster count, the insert, and the is_complete flip
// are atomic with respect to concurrent registrations on the same team.
func (r *PostgresRepository) Register(ctx context.Context, s *Student) error {
	s.RFIDUID = rfid.Normalize(s.RFIDUID)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var teamName string
	err = tx.QueryRow(ctx,
		`SELECT name FROM teams WHERE id = $1 FOR UPDATE`, s.TeamID,
	).Scan(&teamName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTeamNotFound
		}
		if database.IsLockConflict(err) {
			return database.ErrConflict
		}
		return fmt.Errorf("locking team row: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM students WHERE team_id = $1`, s.TeamID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("counting roster: %w", err)
	}
	if count >= MaxTeamSize {
		return ErrTeamFull
	}

	query := `
		INSERT INTO students (name, rfid_uid, team_id)
		VALUES ($1, $2, $3)
		RETURNING id, registered_at`

	err = tx.QueryRow(ctx, query, s.Name, s.RFIDUID, s.TeamID).Scan(&s.ID, &s.RegisteredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRFID
		}
		return fmt.Errorf("inserting student: %w", err)
	}

	if count+1 == MaxTeamSize {
		if _, err := tx.Exec(ctx,
			`UPDATE teams SET is_complete = TRUE WHERE id = $1`, s.TeamID,
		); err != nil {
			return fmt.Errorf("marking team complete: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if database.IsLockConflict(err) {
			return database.ErrConflict
		}
		return fmt.Errorf("committing registration: %w", err)
	}

	s.TeamName = teamName
	return nil
}

// GetByID retrieves a single student by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Student, error) {
	query := `
		SELECT s.id, s.name, s.rfid_uid, s.team_id, t.name, s.registered_at
		FROM students s
		JOIN teams t ON t.id = s.team_id
		WHERE s.id = $1`

	return r.scanOne(ctx, query, id)
}

// GetByRFID retrieves a single student by RFID UID. The raw UID is
// normalized before the lookup, so any zero-padded spelling resolves.
func (r *PostgresRepository) GetByRFID(ctx context.Context, rawUID string) (*Student, error) {
	query := `
		SELECT s.id, s.name, s.rfid_uid, s.team_id, t.name, s.registered_at
		FROM students s
		JOIN teams t ON t.id = s.team_id
		WHERE s.rfid_uid = $1`

	return r.scanOne(ctx, query, rfid.Normalize(rawUID))
}

// ListByTeam retrieves a team's roster ordered by registration time.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Student, error) {
	query := `
		SELECT s.id, s.name, s.rfid_uid, s.team_id, t.name, s.registered_at
		FROM students s
		JOIN teams t ON t.id = s.team_id
		WHERE s.team_id = $1
		ORDER BY s.registered_at ASC, s.id ASC`

	return r.scanMany(ctx, query, teamID)
}

// List retrieves all students ordered by team then registration time.
func (r *PostgresRepository) List(ctx context.Context) ([]Student, error) {
	query := `
		SELECT s.id, s.name, s.rfid_uid, s.team_id, t.name, s.registered_at
		FROM students s
		JOIN teams t ON t.id = s.team_id
		ORDER BY t.name ASC, s.registered_at ASC, s.id ASC`

	return r.scanMany(ctx, query)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Student, error) {
	var s Student
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.Name, &s.RFIDUID, &s.TeamID, &s.TeamName, &s.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("scanning student row: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) scanMany(ctx context.Context, query string, args ...any) ([]Student, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		err := rows.Scan(&s.ID, &s.Name, &s.RFIDUID, &s.TeamID, &s.TeamName, &s.RegisteredAt)
		if err != nil {
			return nil, fmt.Errorf("scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating student rows: %w", err)
	}

	if students == nil {
		students = []Student{}
	}

	return students, nil
}
