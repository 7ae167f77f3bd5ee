package handler

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tapin14/tapin/internal/api/middleware"
	"github.com/tapin14/tapin/internal/api/response"
	"github.com/tapin14/tapin/internal/attendance"
)

type statsResponse struct {
	TotalTeams    int `json:"totalTeams"`
	CompleteTeams int `json:"completeTeams"`
	TotalStudents int `json:"totalStudents"`
	CheckedIn     int `json:"checkedIn"`
	CheckedOut    int `json:"checkedOut"`
	TapsToday     int `json:"tapsToday"`
}

type teamPresenceResponse struct {
	TeamID       string  `json:"teamId"`
	TeamName     string  `json:"teamName"`
	TotalCount   int     `json:"totalCount"`
	PresentCount int     `json:"presentCount"`
	AbsentCount  int     `json:"absentCount"`
	PresenceRate float64 `json:"presenceRate"`
}

type dailySnapshotResponse struct {
	Date  string                 `json:"date"`
	Teams []teamPresenceResponse `json:"teams"`
}

// ReportHandler handles the status endpoint and daily attendance reports.
type ReportHandler struct {
	attendanceRepo attendance.Repository
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(attendanceRepo attendance.Repository) *ReportHandler {
	return &ReportHandler{attendanceRepo: attendanceRepo}
}

// Status handles GET /status.
func (h *ReportHandler) Status(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	stats, err := h.attendanceRepo.Stats(r.Context())
	if err != nil {
		slog.Error("failed to compute system stats", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute system status", requestID)
		return
	}

	response.Success(w, http.StatusOK, statsResponse{
		TotalTeams:    stats.TotalTeams,
		CompleteTeams: stats.CompleteTeams,
		TotalStudents: stats.TotalStudents,
		CheckedIn:     stats.CheckedIn,
		CheckedOut:    stats.CheckedOut,
		TapsToday:     stats.TapsToday,
	}, requestID)
}

// DailySnapshot handles GET /reports/daily?date=YYYY-MM-DD (default today).
func (h *ReportHandler) DailySnapshot(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	day, ok := parseDateParam(w, r, requestID)
	if !ok {
		return
	}

	snapshot, err := h.attendanceRepo.DailySnapshot(r.Context(), day)
	if err != nil {
		slog.Error("failed to compute daily snapshot", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute daily snapshot", requestID)
		return
	}

	teams := make([]teamPresenceResponse, 0, len(snapshot))
	for _, tp := range snapshot {
		teams = append(teams, teamPresenceResponse{
			TeamID:       tp.TeamID.String(),
			TeamName:     tp.TeamName,
			TotalCount:   tp.TotalCount,
			PresentCount: tp.PresentCount,
			AbsentCount:  tp.AbsentCount,
			PresenceRate: tp.PresenceRate,
		})
	}

	response.Success(w, http.StatusOK, dailySnapshotResponse{
		Date:  day.Format("2006-01-02"),
		Teams: teams,
	}, requestID)
}

// DailyCSV handles GET /reports/daily/csv?date=YYYY-MM-DD. One row per
// student: team, name, rfid, Present/Absent, last action time.
func (h *ReportHandler) DailyCSV(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	day, ok := parseDateParam(w, r, requestID)
	if !ok {
		return
	}

	roster, err := h.attendanceRepo.DailyRoster(r.Context(), day)
	if err != nil {
		slog.Error("failed to build daily roster", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build attendance export", requestID)
		return
	}

	filename := fmt.Sprintf("attendance-%s.csv", day.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Team", "Student", "RFID", "Attendance", "Last Action"}); err != nil {
		slog.Error("failed to write CSV header", "error", err)
		return
	}

	for _, row := range roster {
		status := "Absent"
		if row.Present {
			status = "Present"
		}
		lastAction := ""
		if row.LastAction != nil {
			lastAction = row.LastAction.UTC().Format("2006-01-02 15:04:05")
		}
		if err := cw.Write([]string{row.TeamName, row.StudentName, row.RFIDUID, status, lastAction}); err != nil {
			slog.Error("failed to write CSV row", "error", err)
			return
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("failed to flush CSV", "error", err)
	}
}

// parseDateParam reads an optional ?date=YYYY-MM-DD query parameter,
// defaulting to today. Writes a 400 and returns false on a malformed value.
func parseDateParam(w http.ResponseWriter, r *http.Request, requestID string) (time.Time, bool) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		return time.Now(), true
	}

	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_DATE", "date must be formatted as YYYY-MM-DD", requestID)
		return time.Time{}, false
	}
	return day, true
}
