package validation

import "strings"

// CreateOperatorRequest mirrors the fields needed for create operator validation.
type CreateOperatorRequest struct {
	Name string
}

// ValidateCreateOperatorRequest validates the fields of a create operator request.
func ValidateCreateOperatorRequest(req CreateOperatorRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	return errs
}
