// Package apierror defines the error envelopes the HTTP layer returns to
// clients. Internal detail (driver errors, stack traces, collaborator URLs)
// never crosses this boundary; handlers log it and respond with these shapes.
package apierror

// APIError is the envelope for every 4xx/5xx response body.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries per-field failures from request binding, keyed by
// field name with the violated rule as the value.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}
