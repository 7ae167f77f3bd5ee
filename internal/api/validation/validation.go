// Package validation holds hand-rolled request field validation. Each
// endpoint gets a mirror struct and a Validate function returning field
// errors suitable for the error envelope's details.
package validation

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
