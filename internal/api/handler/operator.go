package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tapin14/tapin/internal/api/middleware"
	"github.com/tapin14/tapin/internal/api/response"
	"github.com/tapin14/tapin/internal/api/validation"
	"github.com/tapin14/tapin/internal/auth"
)

type createOperatorRequest struct {
	Name string `json:"name"`
}

type operatorResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ApiKeyPrefix string  `json:"apiKeyPrefix"`
	IsSuperuser  bool    `json:"isSuperuser"`
	CreatedAt    string  `json:"createdAt"`
	RevokedAt    *string `json:"revokedAt,omitempty"`
}

type operatorWithKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ApiKey    string `json:"apiKey"`
	CreatedAt string `json:"createdAt"`
}

// OperatorHandler handles operator (API key) management endpoints.
type OperatorHandler struct {
	authService *auth.Service
	repo        auth.OperatorRepository
}

// NewOperatorHandler creates a new OperatorHandler.
func NewOperatorHandler(authService *auth.Service, repo auth.OperatorRepository) *OperatorHandler {
	return &OperatorHandler{authService: authService, repo: repo}
}

// Create handles POST /operators. The raw API key is returned once and never
// stored.
func (h *OperatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateOperatorRequest(validation.CreateOperatorRequest{
		Name: req.Name,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	rawKey, prefix, hash, err := h.authService.GenerateKey()
	if err != nil {
		slog.Error("failed to generate API key", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create operator", requestID)
		return
	}

	op := &auth.Operator{
		Name:         strings.TrimSpace(req.Name),
		IsSuperuser:  false,
		ApiKeyPrefix: prefix,
		ApiKeyHash:   hash,
	}

	if err := h.repo.Create(r.Context(), op); err != nil {
		slog.Error("failed to create operator", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create operator", requestID)
		return
	}

	response.Success(w, http.StatusCreated, operatorWithKeyResponse{
		ID:        op.ID.String(),
		Name:      op.Name,
		ApiKey:    rawKey,
		CreatedAt: op.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}, requestID)
}

// List handles GET /operators.
func (h *OperatorHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	operators, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("failed to list operators", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list operators", requestID)
		return
	}

	items := make([]operatorResponse, 0, len(operators))
	for i := range operators {
		op := &operators[i]
		resp := operatorResponse{
			ID:           op.ID.String(),
			Name:         op.Name,
			ApiKeyPrefix: op.ApiKeyPrefix,
			IsSuperuser:  op.IsSuperuser,
			CreatedAt:    op.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if op.RevokedAt != nil {
			revoked := op.RevokedAt.UTC().Format("2006-01-02T15:04:05Z")
			resp.RevokedAt = &revoked
		}
		items = append(items, resp)
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, 100, requestID)
}

// Delete handles DELETE /operators/{id} (soft-revoke).
func (h *OperatorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	// Check if the target is the superuser — cannot revoke
	op, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrOperatorNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Operator not found", requestID)
			return
		}
		slog.Error("failed to get operator", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke operator", requestID)
		return
	}

	if op.IsSuperuser {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Cannot revoke the superuser", requestID)
		return
	}

	if err := h.repo.Revoke(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrOperatorNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Operator not found", requestID)
			return
		}
		if errors.Is(err, auth.ErrOperatorRevoked) {
			// Already revoked — treat as success (idempotent)
			response.NoContent(w)
			return
		}
		slog.Error("failed to revoke operator", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke operator", requestID)
		return
	}

	response.NoContent(w)
}
