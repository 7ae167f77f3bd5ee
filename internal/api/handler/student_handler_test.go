package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapin14/tapin/internal/api/handler"
	"github.com/tapin14/tapin/internal/student"
	"github.com/tapin14/tapin/internal/team"
)

// ===== POST /students =====

func TestStudentRegister_Success(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	teamRepo := &mockTeamRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*team.Team, error) {
			tm := sampleTeam(teamID, "alpha")
			tm.StudentCount = 1
			return tm, nil
		},
	}
	h := handler.NewStudentHandler(&mockStudentRepo{}, teamRepo)

	body, _ := json.Marshal(map[string]interface{}{
		"teamId":  teamID.String(),
		"name":    "Ada",
		"rfidUid": "CARD1",
	})
	req, w := makeChiRequest(http.MethodPost, "/students", body, nil)

	h.Register(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	env := parseEnvelope(t, w)
	assert.Nil(t, env["error"])
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "Ada", data["name"])
	assert.Equal(t, "CARD1", data["rfidUid"])
	assert.NotEmpty(t, data["id"])

	tm := data["team"].(map[string]interface{})
	assert.Equal(t, "alpha", tm["name"])
	assert.Equal(t, float64(1), tm["studentCount"])
}

func TestStudentRegister_ReportsCompletionFlip(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	teamRepo := &mockTeamRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*team.Team, error) {
			tm := sampleTeam(teamID, "alpha")
			tm.StudentCount = student.MaxTeamSize
			tm.IsComplete = true
			return tm, nil
		},
	}
	h := handler.NewStudentHandler(&mockStudentRepo{}, teamRepo)

	body, _ := json.Marshal(map[string]interface{}{
		"teamId":  teamID.String(),
		"name":    "Sixth Member",
		"rfidUid": "CARD6",
	})
	req, w := makeChiRequest(http.MethodPost, "/students", body, nil)

	h.Register(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	tm := data["team"].(map[string]interface{})
	assert.Equal(t, true, tm["isComplete"])
}

func TestStudentRegister_ValidationError(t *testing.T) {
	t.Parallel()

	h := handler.NewStudentHandler(&mockStudentRepo{}, &mockTeamRepo{})

	body, _ := json.Marshal(map[string]interface{}{
		"teamId": "not-a-uuid",
		"name":   "",
	})
	req, w := makeChiRequest(http.MethodPost, "/students", body, nil)

	h.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	require.NotNil(t, errObj["details"])
}

func TestStudentRegister_TeamNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockStudentRepo{
		registerFn: func(ctx context.Context, s *student.Student) error {
			return student.ErrTeamNotFound
		},
	}
	h := handler.NewStudentHandler(repo, &mockTeamRepo{})

	body, _ := json.Marshal(map[string]interface{}{
		"teamId":  uuid.New().String(),
		"name":    "Ada",
		"rfidUid": "CARD1",
	})
	req, w := makeChiRequest(http.MethodPost, "/students", body, nil)

	h.Register(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", errObj["code"])
}

func TestStudentRegister_DuplicateRFID(t *testing.T) {
	t.Parallel()

	repo := &mockStudentRepo{
		registerFn: func(ctx context.Context, s *student.Student) error {
			return student.ErrDuplicateRFID
		},
	}
	h := handler.NewStudentHandler(repo, &mockTeamRepo{})

	body, _ := json.Marshal(map[string]interface{}{
		"teamId":  uuid.New().String(),
		"name":    "Ada",
		"rfidUid": "CARD1",
	})
	req, w := makeChiRequest(http.MethodPost, "/students", body, nil)

	h.Register(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "DUPLICATE_RFID", errObj["code"])
}

func TestStudentRegister_TeamFull(t *testing.T) {
	t.Parallel()

	repo := &mockStudentRepo{
		registerFn: func(ctx context.Context, s *student.Student) error {
			return student.ErrTeamFull
		},
	}
	h := handler.NewStudentHandler(repo, &mockTeamRepo{})

	body, _ := json.Marshal(map[string]interface{}{
		"teamId":  uuid.New().String(),
		"name":    "Seventh",
		"rfidUid": "CARD7",
	})
	req, w := makeChiRequest(http.MethodPost, "/students", body, nil)

	h.Register(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "TEAM_FULL", errObj["code"])
}

// ===== GET /students =====

func TestStudentList_Success(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	repo := &mockStudentRepo{
		listFn: func(ctx context.Context) ([]student.Student, error) {
			return []student.Student{
				*sampleStudent(uuid.New(), teamID, "Ada", "CARD1"),
				*sampleStudent(uuid.New(), teamID, "Grace", "CARD2"),
			}, nil
		},
	}
	h := handler.NewStudentHandler(repo, &mockTeamRepo{})

	req, w := makeChiRequest(http.MethodGet, "/students", nil, nil)

	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	env := parseEnvelope(t, w)
	data := env["data"].([]interface{})
	assert.Len(t, data, 2)
}

func TestStudentList_EmptyIsArray(t *testing.T) {
	t.Parallel()

	h := handler.NewStudentHandler(&mockStudentRepo{}, &mockTeamRepo{})

	req, w := makeChiRequest(http.MethodGet, "/students", nil, nil)

	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	env := parseEnvelope(t, w)
	data, ok := env["data"].([]interface{})
	require.True(t, ok, "data must be a JSON array even when empty")
	assert.Empty(t, data)
}
