// Command roster-import loads a registration spreadsheet export into the
// attendance database through the registration engine.
//
// Expected CSV columns: team, student name, registration number, RFID UID.
// A blank team cell carries the previous row's team forward, matching the
// spreadsheet layout.
//
// Usage:
//
//	roster-import -file roster.csv
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tapin14/tapin/internal/config"
	"github.com/tapin14/tapin/internal/database"
	"github.com/tapin14/tapin/internal/student"
	"github.com/tapin14/tapin/internal/team"
)

func main() {
	file := flag.String("file", "", "path to the roster CSV file")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: roster-import -file roster.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool()); err != nil {
		slog.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	summary, err := runImport(ctx, *file, team.NewRepository(db.Pool()), student.NewRepository(db.Pool()))
	if err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}

	slog.Info("import finished",
		"teamsCreated", summary.teamsCreated,
		"studentsCreated", summary.studentsCreated,
		"skipped", summary.skipped,
	)
	for _, msg := range summary.problems {
		slog.Warn("import problem", "detail", msg)
	}
}

type importSummary struct {
	teamsCreated    int
	studentsCreated int
	skipped         int
	problems        []string
}

func runImport(ctx context.Context, path string, teamRepo team.Repository, studentRepo student.Repository) (*importSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// Skip the header row.
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading header row: %w", err)
	}

	summary := &importSummary{}
	teams := map[string]*team.Team{}
	currentTeam := ""
	rowNum := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", rowNum+1, err)
		}
		rowNum++

		if len(row) < 4 {
			continue
		}

		teamName := strings.TrimSpace(row[0])
		name := strings.TrimSpace(row[1])
		uid := strings.TrimSpace(row[3])

		if teamName != "" {
			currentTeam = teamName
		}

		if currentTeam == "" || name == "" || uid == "" {
			summary.problems = append(summary.problems,
				fmt.Sprintf("row %d: missing data (team=%q, name=%q, rfid=%q)", rowNum, currentTeam, name, uid))
			continue
		}

		t, ok := teams[currentTeam]
		if !ok {
			var created bool
			t, created, err = getOrCreateTeam(ctx, teamRepo, currentTeam)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", rowNum, err)
			}
			teams[currentTeam] = t
			if created {
				summary.teamsCreated++
			}
		}

		s := &student.Student{Name: name, RFIDUID: uid, TeamID: t.ID}
		err = studentRepo.Register(ctx, s)
		switch {
		case err == nil:
			summary.studentsCreated++
		case errors.Is(err, student.ErrDuplicateRFID):
			summary.skipped++
			summary.problems = append(summary.problems,
				fmt.Sprintf("row %d: RFID %q already registered, skipped %s", rowNum, uid, name))
		case errors.Is(err, student.ErrTeamFull):
			summary.skipped++
			summary.problems = append(summary.problems,
				fmt.Sprintf("row %d: team %q is full, skipped %s", rowNum, currentTeam, name))
		default:
			return nil, fmt.Errorf("row %d: registering %s: %w", rowNum, name, err)
		}
	}

	return summary, nil
}

func getOrCreateTeam(ctx context.Context, repo team.Repository, name string) (*team.Team, bool, error) {
	t, err := repo.GetByName(ctx, name)
	if err == nil {
		return t, false, nil
	}
	if !errors.Is(err, team.ErrTeamNotFound) {
		return nil, false, fmt.Errorf("looking up team %q: %w", name, err)
	}

	t = &team.Team{Name: name}
	if err := repo.Create(ctx, t); err != nil {
		return nil, false, fmt.Errorf("creating team %q: %w", name, err)
	}
	return t, true, nil
}
