package common

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
	Code    string            `json:"code,omitempty"`
}

// SuccessResponse is the body of operations that only report completion
type SuccessResponse struct {
	Success bool `json:"success"`
}
