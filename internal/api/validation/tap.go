package validation

import "strings"

// TapRequest mirrors the fields needed for tap validation.
type TapRequest struct {
	RFIDUID string
}

// ValidateTapRequest validates the fields of a tap request.
func ValidateTapRequest(req TapRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.RFIDUID) == "" {
		errs = append(errs, FieldError{Field: "rfidUid", Message: "rfidUid is required"})
	} else if len(req.RFIDUID) > 50 {
		errs = append(errs, FieldError{Field: "rfidUid", Message: "rfidUid must be at most 50 characters"})
	}

	return errs
}
