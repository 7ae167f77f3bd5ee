package validation

import (
	"strings"

	"github.com/google/uuid"
)

// RegisterStudentRequest mirrors the fields needed for student registration validation.
type RegisterStudentRequest struct {
	TeamID  string
	Name    string
	RFIDUID string
}

// ValidateRegisterStudentRequest validates the fields of a student registration request.
func ValidateRegisterStudentRequest(req RegisterStudentRequest) []FieldError {
	var errs []FieldError

	if req.TeamID == "" {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId is required"})
	} else if _, err := uuid.Parse(req.TeamID); err != nil {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId must be a valid UUID"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if strings.TrimSpace(req.RFIDUID) == "" {
		errs = append(errs, FieldError{Field: "rfidUid", Message: "rfidUid is required"})
	} else if len(req.RFIDUID) > 50 {
		errs = append(errs, FieldError{Field: "rfidUid", Message: "rfidUid must be at most 50 characters"})
	}

	return errs
}
