package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tapin14/tapin/internal/api/middleware"
	"github.com/tapin14/tapin/internal/api/response"
	"github.com/tapin14/tapin/internal/api/validation"
	"github.com/tapin14/tapin/internal/attendance"
	"github.com/tapin14/tapin/internal/database"
	"github.com/tapin14/tapin/internal/student"
)

type tapRequest struct {
	RFIDUID string `json:"rfidUid"`
}

type logResponse struct {
	ID           int64   `json:"id"`
	StudentID    string  `json:"studentId"`
	StudentName  string  `json:"studentName"`
	TeamID       string  `json:"teamId"`
	TeamName     string  `json:"teamName"`
	Status       string  `json:"status"`
	CheckInTime  *string `json:"checkInTime"`
	CheckOutTime *string `json:"checkOutTime"`
	CreatedAt    string  `json:"createdAt"`
}

type tapResponse struct {
	StudentID   string      `json:"studentId"`
	StudentName string      `json:"studentName"`
	RFIDUID     string      `json:"rfidUid"`
	TeamID      string      `json:"teamId"`
	TeamName    string      `json:"teamName"`
	Status      string      `json:"status"`
	Log         logResponse `json:"log"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func toLogResponse(l *attendance.Log) logResponse {
	resp := logResponse{
		ID:          l.ID,
		StudentID:   l.StudentID.String(),
		StudentName: l.StudentName,
		TeamID:      l.TeamID.String(),
		TeamName:    l.TeamName,
		Status:      l.Status,
		CreatedAt:   formatTimestamp(l.CreatedAt),
	}
	if l.CheckInTime != nil {
		in := formatTimestamp(*l.CheckInTime)
		resp.CheckInTime = &in
	}
	if l.CheckOutTime != nil {
		out := formatTimestamp(*l.CheckOutTime)
		resp.CheckOutTime = &out
	}
	return resp
}

// AttendanceHandler handles the tap endpoint and attendance history queries.
type AttendanceHandler struct {
	attendanceRepo attendance.Repository
	studentRepo    student.Repository
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceRepo attendance.Repository, studentRepo student.Repository) *AttendanceHandler {
	return &AttendanceHandler{attendanceRepo: attendanceRepo, studentRepo: studentRepo}
}

// Tap handles POST /taps. A failed tap writes no log row; a lock conflict is
// surfaced as 409 so the reader client can resend.
func (h *AttendanceHandler) Tap(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req tapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateTapRequest(validation.TapRequest{RFIDUID: req.RFIDUID})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	result, err := h.attendanceRepo.Tap(r.Context(), req.RFIDUID)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrUnregisteredCard):
			response.Err(w, http.StatusNotFound, "UNREGISTERED_CARD", "This card is not registered to any student", requestID)
		case errors.Is(err, database.ErrConflict):
			response.Err(w, http.StatusConflict, "CONFLICT", "A concurrent tap interfered; retry the request", requestID)
		default:
			slog.Error("failed to process tap", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process tap", requestID)
		}
		return
	}

	slog.Info("tap processed",
		"student", result.StudentName,
		"team", result.TeamName,
		"status", result.Log.Status,
	)

	response.Success(w, http.StatusCreated, tapResponse{
		StudentID:   result.StudentID.String(),
		StudentName: result.StudentName,
		RFIDUID:     result.RFIDUID,
		TeamID:      result.TeamID.String(),
		TeamName:    result.TeamName,
		Status:      result.Log.Status,
		Log:         toLogResponse(&result.Log),
	}, requestID)
}

// StudentHistory handles GET /attendance/students/{id}. A student who has
// never tapped yields an empty list.
func (h *AttendanceHandler) StudentHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	if _, err := h.studentRepo.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Student not found", requestID)
			return
		}
		slog.Error("failed to get student", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get attendance history", requestID)
		return
	}

	logs, err := h.attendanceRepo.StudentHistory(r.Context(), id)
	if err != nil {
		slog.Error("failed to get student history", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get attendance history", requestID)
		return
	}

	items := make([]logResponse, 0, len(logs))
	for i := range logs {
		items = append(items, toLogResponse(&logs[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, 100, requestID)
}

// TeamHistory handles GET /attendance/teams/{id}.
func (h *AttendanceHandler) TeamHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	logs, err := h.attendanceRepo.TeamHistory(r.Context(), id)
	if err != nil {
		if errors.Is(err, attendance.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		slog.Error("failed to get team history", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get attendance history", requestID)
		return
	}

	items := make([]logResponse, 0, len(logs))
	for i := range logs {
		items = append(items, toLogResponse(&logs[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, 100, requestID)
}
