package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tapin14/tapin/internal/api/middleware"
	"github.com/tapin14/tapin/internal/api/response"
	"github.com/tapin14/tapin/internal/api/validation"
	"github.com/tapin14/tapin/internal/database"
	"github.com/tapin14/tapin/internal/student"
	"github.com/tapin14/tapin/internal/team"
)

type createTeamRequest struct {
	Name string `json:"name"`
}

type teamResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsComplete   bool   `json:"isComplete"`
	StudentCount int    `json:"studentCount"`
	CreatedAt    string `json:"createdAt"`
}

type teamDetailResponse struct {
	teamResponse
	Students []studentResponse `json:"students"`
}

func toTeamResponse(t *team.Team) teamResponse {
	return teamResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		IsComplete:   t.IsComplete,
		StudentCount: t.StudentCount,
		CreatedAt:    t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// TeamHandler handles team endpoints.
type TeamHandler struct {
	teamRepo    team.Repository
	studentRepo student.Repository
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamRepo team.Repository, studentRepo student.Repository) *TeamHandler {
	return &TeamHandler{teamRepo: teamRepo, studentRepo: studentRepo}
}

// Create handles POST /teams.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{
		Name: req.Name,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t := &team.Team{
		Name: strings.TrimSpace(req.Name),
	}

	if err := h.teamRepo.Create(r.Context(), t); err != nil {
		switch {
		case errors.Is(err, team.ErrDuplicateTeamName):
			response.Err(w, http.StatusConflict, "DUPLICATE_NAME", fmt.Sprintf("A team named %q already exists", t.Name), requestID)
		case errors.Is(err, team.ErrTeamCapacity):
			response.Err(w, http.StatusConflict, "CAPACITY_EXCEEDED", fmt.Sprintf("The maximum of %d teams has been reached", team.MaxTeams), requestID)
		case errors.Is(err, database.ErrConflict):
			response.Err(w, http.StatusConflict, "CONFLICT", "A concurrent operation interfered; retry the request", requestID)
		default:
			slog.Error("failed to create team", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create team", requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, toTeamResponse(t), requestID)
}

// List handles GET /teams.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teams, err := h.teamRepo.List(r.Context())
	if err != nil {
		slog.Error("failed to list teams", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list teams", requestID)
		return
	}

	items := make([]teamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, toTeamResponse(&teams[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, 100, requestID)
}

// GetByID handles GET /teams/{id}, returning the team with its roster.
func (h *TeamHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	t, err := h.teamRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		slog.Error("failed to get team", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get team", requestID)
		return
	}

	roster, err := h.studentRepo.ListByTeam(r.Context(), id)
	if err != nil {
		slog.Error("failed to list roster", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get team", requestID)
		return
	}

	detail := teamDetailResponse{
		teamResponse: toTeamResponse(t),
		Students:     make([]studentResponse, 0, len(roster)),
	}
	for i := range roster {
		detail.Students = append(detail.Students, toStudentResponse(&roster[i]))
	}

	response.Success(w, http.StatusOK, detail, requestID)
}

// ListStudents handles GET /teams/{id}/students.
func (h *TeamHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	if _, err := h.teamRepo.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		slog.Error("failed to get team", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list students", requestID)
		return
	}

	roster, err := h.studentRepo.ListByTeam(r.Context(), id)
	if err != nil {
		slog.Error("failed to list roster", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list students", requestID)
		return
	}

	items := make([]studentResponse, 0, len(roster))
	for i := range roster {
		items = append(items, toStudentResponse(&roster[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, 100, requestID)
}

// Delete handles DELETE /teams/{id}. The roster and its logs cascade.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	if err := h.teamRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		slog.Error("failed to delete team", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete team", requestID)
		return
	}

	response.NoContent(w)
}
