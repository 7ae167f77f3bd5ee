package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tapin14/tapin/internal/api/middleware"
	"github.com/tapin14/tapin/internal/api/response"
	"github.com/tapin14/tapin/internal/api/validation"
	"github.com/tapin14/tapin/internal/database"
	"github.com/tapin14/tapin/internal/student"
	"github.com/tapin14/tapin/internal/team"
)

type registerStudentRequest struct {
	TeamID  string `json:"teamId"`
	Name    string `json:"name"`
	RFIDUID string `json:"rfidUid"`
}

type studentResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RFIDUID      string `json:"rfidUid"`
	TeamID       string `json:"teamId"`
	TeamName     string `json:"teamName,omitempty"`
	RegisteredAt string `json:"registeredAt"`
}

type registeredStudentResponse struct {
	studentResponse
	Team teamResponse `json:"team"`
}

func toStudentResponse(s *student.Student) studentResponse {
	return studentResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		RFIDUID:      s.RFIDUID,
		TeamID:       s.TeamID.String(),
		TeamName:     s.TeamName,
		RegisteredAt: s.RegisteredAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// StudentHandler handles student registration and listing endpoints.
type StudentHandler struct {
	studentRepo student.Repository
	teamRepo    team.Repository
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentRepo student.Repository, teamRepo team.Repository) *StudentHandler {
	return &StudentHandler{studentRepo: studentRepo, teamRepo: teamRepo}
}

// Register handles POST /students. The RFID is normalized before any
// validation against existing students.
func (h *StudentHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req registerStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateRegisterStudentRequest(validation.RegisterStudentRequest{
		TeamID:  req.TeamID,
		Name:    req.Name,
		RFIDUID: req.RFIDUID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	teamID, _ := uuid.Parse(req.TeamID) // already validated

	s := &student.Student{
		Name:    strings.TrimSpace(req.Name),
		RFIDUID: strings.TrimSpace(req.RFIDUID),
		TeamID:  teamID,
	}

	if err := h.studentRepo.Register(r.Context(), s); err != nil {
		switch {
		case errors.Is(err, student.ErrTeamNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
		case errors.Is(err, student.ErrDuplicateRFID):
			response.Err(w, http.StatusConflict, "DUPLICATE_RFID", "This RFID card is already registered to a student", requestID)
		case errors.Is(err, student.ErrTeamFull):
			response.Err(w, http.StatusConflict, "TEAM_FULL", "This team already has the maximum of 6 students", requestID)
		case errors.Is(err, database.ErrConflict):
			response.Err(w, http.StatusConflict, "CONFLICT", "A concurrent operation interfered; retry the request", requestID)
		default:
			slog.Error("failed to register student", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register student", requestID)
		}
		return
	}

	// Re-read the team so the response reflects a completion flip.
	t, err := h.teamRepo.GetByID(r.Context(), teamID)
	if err != nil {
		slog.Error("failed to get team after registration", "error", err, "teamId", teamID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register student", requestID)
		return
	}

	response.Success(w, http.StatusCreated, registeredStudentResponse{
		studentResponse: toStudentResponse(s),
		Team:            toTeamResponse(t),
	}, requestID)
}

// List handles GET /students.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	students, err := h.studentRepo.List(r.Context())
	if err != nil {
		slog.Error("failed to list students", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list students", requestID)
		return
	}

	items := make([]studentResponse, 0, len(students))
	for i := range students {
		items = append(items, toStudentResponse(&students[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, 100, requestID)
}
