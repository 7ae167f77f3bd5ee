package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements are idempotent so Migrate can run on every start.
// Uniqueness and FK constraints live in the store as a second line of
// defense behind the repository-level checks.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

	`CREATE TABLE IF NOT EXISTS teams (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name        TEXT NOT NULL UNIQUE CHECK (name <> ''),
		is_complete BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS students (
		id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name          TEXT NOT NULL CHECK (name <> ''),
		rfid_uid      TEXT NOT NULL UNIQUE CHECK (rfid_uid <> ''),
		team_id       UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_students_team_id ON students(team_id)`,

	`CREATE TABLE IF NOT EXISTS attendance_logs (
		id             BIGSERIAL PRIMARY KEY,
		student_id     UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		team_id        UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		status         TEXT NOT NULL CHECK (status IN ('IN', 'OUT')),
		check_in_time  TIMESTAMPTZ,
		check_out_time TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_attendance_logs_student_recent
		ON attendance_logs(student_id, created_at DESC, id DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_attendance_logs_team_recent
		ON attendance_logs(team_id, created_at DESC, id DESC)`,

	`CREATE TABLE IF NOT EXISTS operators (
		id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name           TEXT NOT NULL CHECK (name <> ''),
		is_superuser   BOOLEAN NOT NULL DEFAULT FALSE,
		api_key_prefix TEXT NOT NULL,
		api_key_hash   TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		revoked_at     TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_operators_prefix ON operators(api_key_prefix)`,
}

// Migrate applies the schema to the given pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
