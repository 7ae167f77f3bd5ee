package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapin14/tapin/internal/api/handler"
	"github.com/tapin14/tapin/internal/attendance"
)

// ===== GET /status =====

func TestStatus_Success(t *testing.T) {
	t.Parallel()

	repo := &mockAttendanceRepo{
		statsFn: func(ctx context.Context) (*attendance.Stats, error) {
			return &attendance.Stats{
				TotalTeams:    4,
				CompleteTeams: 2,
				TotalStudents: 20,
				CheckedIn:     12,
				CheckedOut:    8,
				TapsToday:     37,
			}, nil
		},
	}
	h := handler.NewReportHandler(repo)

	req, w := makeChiRequest(http.MethodGet, "/status", nil, nil)

	h.Status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	env := parseEnvelope(t, w)
	assert.Nil(t, env["error"])
	data := env["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["totalTeams"])
	assert.Equal(t, float64(2), data["completeTeams"])
	assert.Equal(t, float64(20), data["totalStudents"])
	assert.Equal(t, float64(12), data["checkedIn"])
	assert.Equal(t, float64(8), data["checkedOut"])
	assert.Equal(t, float64(37), data["tapsToday"])
}

// ===== GET /reports/daily =====

func TestDailySnapshot_DefaultsToToday(t *testing.T) {
	t.Parallel()

	var gotDay time.Time
	repo := &mockAttendanceRepo{
		dailySnapshotFn: func(ctx context.Context, day time.Time) ([]attendance.TeamPresence, error) {
			gotDay = day
			return []attendance.TeamPresence{
				{
					TeamID:       uuid.New(),
					TeamName:     "alpha",
					TotalCount:   6,
					PresentCount: 4,
					AbsentCount:  2,
					PresenceRate: 66.67,
				},
			}, nil
		},
	}
	h := handler.NewReportHandler(repo)

	req, w := makeChiRequest(http.MethodGet, "/reports/daily", nil, nil)

	h.DailySnapshot(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Now().Format("2006-01-02"), gotDay.Format("2006-01-02"))

	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, time.Now().Format("2006-01-02"), data["date"])

	teams := data["teams"].([]interface{})
	require.Len(t, teams, 1)
	tp := teams[0].(map[string]interface{})
	assert.Equal(t, "alpha", tp["teamName"])
	assert.Equal(t, float64(4), tp["presentCount"])
	assert.Equal(t, float64(2), tp["absentCount"])
}

func TestDailySnapshot_ExplicitDate(t *testing.T) {
	t.Parallel()

	var gotDay time.Time
	repo := &mockAttendanceRepo{
		dailySnapshotFn: func(ctx context.Context, day time.Time) ([]attendance.TeamPresence, error) {
			gotDay = day
			return []attendance.TeamPresence{}, nil
		},
	}
	h := handler.NewReportHandler(repo)

	req, w := makeChiRequest(http.MethodGet, "/reports/daily?date=2026-03-14", nil, nil)

	h.DailySnapshot(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-03-14", gotDay.Format("2006-01-02"))
}

func TestDailySnapshot_MalformedDate(t *testing.T) {
	t.Parallel()

	h := handler.NewReportHandler(&mockAttendanceRepo{})

	req, w := makeChiRequest(http.MethodGet, "/reports/daily?date=14-03-2026", nil, nil)

	h.DailySnapshot(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_DATE", errObj["code"])
}

// ===== GET /reports/daily/csv =====

func TestDailyCSV_Export(t *testing.T) {
	t.Parallel()

	lastAction := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	repo := &mockAttendanceRepo{
		dailyRosterFn: func(ctx context.Context, day time.Time) ([]attendance.RosterRow, error) {
			return []attendance.RosterRow{
				{TeamName: "alpha", StudentName: "Ada", RFIDUID: "CARD1", Present: true, LastAction: &lastAction},
				{TeamName: "alpha", StudentName: "Grace", RFIDUID: "CARD2", Present: false},
			}, nil
		},
	}
	h := handler.NewReportHandler(repo)

	req, w := makeChiRequest(http.MethodGet, "/reports/daily/csv?date=2026-03-14", nil, nil)

	h.DailyCSV(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance-2026-03-14.csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Team,Student,RFID,Attendance,Last Action", lines[0])
	assert.Equal(t, "alpha,Ada,CARD1,Present,2026-03-14 09:30:00", lines[1])
	assert.Equal(t, "alpha,Grace,CARD2,Absent,", lines[2])
}
