package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

// Tap appends the next log entry for the card's owner. The student row is
// held FOR UPDATE, so two concurrent taps of the same card serialize: the
// second reads the first one's log and toggles correctly.
func (r *PostgresRepository) Tap(ctx context.Context, rawUID string) (*TapResult, error) {
	uid := rfid.Normalize(rawUID)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &TapResult{RFIDUID: uid}
	err = tx.QueryRow(ctx, `
		SELECT s.id, s.name, s.team_id, t.name
		FROM students s
		JOIN teams t ON t.id = s.team_id
		WHERE s.rfid_uid = $1
		FOR UPDATE OF s`, uid,
	).Scan(&result.StudentID, &result.StudentName, &result.TeamID, &result.TeamName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnregisteredCard
		}
		if database.IsLockConflict(err) {
			return nil, database.ErrConflict
		}
		return nil, fmt.Errorf("resolving card owner: %w", err)
	}

	var lastStatus string
	err = tx.QueryRow(ctx, `
		SELECT status
		FROM attendance_logs
		WHERE student_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, result.StudentID,
	).Scan(&lastStatus)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reading last log: %w", err)
	}

	next := StatusIn
	if lastStatus == StatusIn {
		next = StatusOut
	}

	timeColumn := "check_in_time"
	if next == StatusOut {
		timeColumn = "check_out_time"
	}

	query := fmt.Sprintf(`
		INSERT INTO attendance_logs (student_id, team_id, status, %s)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, check_in_time, check_out_time, created_at`, timeColumn)

	log := Log{
		StudentID:   result.StudentID,
		StudentName: result.StudentName,
		TeamID:      result.TeamID,
		TeamName:    result.TeamName,
		Status:      next,
	}
	err = tx.QueryRow(ctx, query, result.StudentID, result.TeamID, next).Scan(
		&log.ID, &log.CheckInTime, &log.CheckOutTime, &log.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting attendance log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if database.IsLockConflict(err) {
			return nil, database.ErrConflict
		}
		return nil, fmt.Errorf("committing tap: %w", err)
	}

	result.Log = log
	return result, nil
}

// StudentHistory retrieves a student's logs, newest first.
func (r *PostgresRepository) StudentHistory(ctx context.Context, studentID uuid.UUID) ([]Log, error) {
	query := `
		SELECT l.id, l.student_id, s.name, l.team_id, t.name,
		       l.status, l.check_in_time, l.check_out_time, l.created_at
		FROM attendance_logs l
		JOIN students s ON s.id = l.student_id
		JOIN teams t ON t.id = l.team_id
		WHERE l.student_id = $1
		ORDER BY l.created_at DESC, l.id DESC`

	return r.scanLogs(ctx, query, studentID)
}

// TeamHistory retrieves all logs across a team's students, newest first.
// Returns ErrTeamNotFound for an unknown team id.
func (r *PostgresRepository) TeamHistory(ctx context.Context, teamID uuid.UUID) ([]Log, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)`, teamID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking team existence: %w", err)
	}
	if !exists {
		return nil, ErrTeamNotFound
	}

	query := `
		SELECT l.id, l.student_id, s.name, l.team_id, t.name,
		       l.status, l.check_in_time, l.check_out_time, l.created_at
		FROM attendance_logs l
		JOIN students s ON s.id = l.student_id
		JOIN teams t ON t.id = l.team_id
		WHERE l.team_id = $1
		ORDER BY l.created_at DESC, l.id DESC`

	return r.scanLogs(ctx, query, teamID)
}

// LiveCounts derives the current presence split from each student's latest log.
func (r *PostgresRepository) LiveCounts(ctx context.Context) (*Counts, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE latest.status = 'IN')
		FROM students s
		LEFT JOIN LATERAL (
			SELECT status
			FROM attendance_logs
			WHERE student_id = s.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) latest ON TRUE`

	var c Counts
	if err := r.pool.QueryRow(ctx, query).Scan(&c.TotalStudents, &c.InCount); err != nil {
		return nil, fmt.Errorf("computing live counts: %w", err)
	}
	c.OutCount = c.TotalStudents - c.InCount

	return &c, nil
}

// DailySnapshot partitions each team's roster into present and absent for
// the calendar day containing day. Present means an IN log stamped that day.
func (r *PostgresRepository) DailySnapshot(ctx context.Context, day time.Time) ([]TeamPresence, error) {
	start, end := dayBounds(day)

	query := `
		SELECT t.id, t.name,
		       COUNT(s.id),
		       COUNT(s.id) FILTER (WHERE EXISTS (
		           SELECT 1 FROM attendance_logs l
		           WHERE l.student_id = s.id
		             AND l.status = 'IN'
		             AND l.created_at >= $1 AND l.created_at < $2
		       ))
		FROM teams t
		LEFT JOIN students s ON s.team_id = t.id
		GROUP BY t.id, t.name
		ORDER BY t.name ASC`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying daily snapshot: %w", err)
	}
	defer rows.Close()

	var snapshot []TeamPresence
	for rows.Next() {
		var tp TeamPresence
		if err := rows.Scan(&tp.TeamID, &tp.TeamName, &tp.TotalCount, &tp.PresentCount); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		tp.AbsentCount = tp.TotalCount - tp.PresentCount
		if tp.TotalCount > 0 {
			tp.PresenceRate = float64(tp.PresentCount) * 100 / float64(tp.TotalCount)
		}
		snapshot = append(snapshot, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}

	if snapshot == nil {
		snapshot = []TeamPresence{}
	}

	return snapshot, nil
}

// DailyRoster returns one export row per student for the given day.
func (r *PostgresRepository) DailyRoster(ctx context.Context, day time.Time) ([]RosterRow, error) {
	start, end := dayBounds(day)

	query := `
		SELECT t.name, s.name, s.rfid_uid,
		       EXISTS (
		           SELECT 1 FROM attendance_logs l
		           WHERE l.student_id = s.id
		             AND l.status = 'IN'
		             AND l.created_at >= $1 AND l.created_at < $2
		       ),
		       (
		           SELECT l.created_at FROM attendance_logs l
		           WHERE l.student_id = s.id
		             AND l.created_at >= $1 AND l.created_at < $2
		           ORDER BY l.created_at DESC, l.id DESC
		           LIMIT 1
		       )
		FROM students s
		JOIN teams t ON t.id = s.team_id
		ORDER BY t.name ASC, s.name ASC, s.id ASC`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying daily roster: %w", err)
	}
	defer rows.Close()

	var roster []RosterRow
	for rows.Next() {
		var row RosterRow
		if err := rows.Scan(&row.TeamName, &row.StudentName, &row.RFIDUID, &row.Present, &row.LastAction); err != nil {
			return nil, fmt.Errorf("scanning roster row: %w", err)
		}
		roster = append(roster, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roster rows: %w", err)
	}

	if roster == nil {
		roster = []RosterRow{}
	}

	return roster, nil
}

// Stats summarizes the system for the status endpoint.
func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_complete)
		FROM teams`,
	).Scan(&s.TotalTeams, &s.CompleteTeams)
	if err != nil {
		return nil, fmt.Errorf("counting teams: %w", err)
	}

	counts, err := r.LiveCounts(ctx)
	if err != nil {
		return nil, err
	}
	s.TotalStudents = counts.TotalStudents
	s.CheckedIn = counts.InCount
	s.CheckedOut = counts.OutCount

	start, end := dayBounds(time.Now())
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM attendance_logs
		WHERE created_at >= $1 AND created_at < $2`, start, end,
	).Scan(&s.TapsToday)
	if err != nil {
		return nil, fmt.Errorf("counting today's taps: %w", err)
	}

	return &s, nil
}

func (r *PostgresRepository) scanLogs(ctx context.Context, query string, args ...any) ([]Log, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attendance logs: %w", err)
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var l Log
		err := rows.Scan(
			&l.ID, &l.StudentID, &l.StudentName, &l.TeamID, &l.TeamName,
			&l.Status, &l.CheckInTime, &l.CheckOutTime, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning attendance log row: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attendance log rows: %w", err)
	}

	if logs == nil {
		logs = []Log{}
	}

	return logs, nil
}

// dayBounds returns the [start, end) of the calendar day containing t, in
// t's location.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.Add(24 * time.Hour)
}
