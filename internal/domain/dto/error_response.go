package dto

import "time"

// ErrorResponse is the standardized JSON error payload returned by all
// API endpoints and middlewares.
//
// Example:
//
//	{
//	    "message": "Invalid request",
//	    "error": "cnpj is required",
//	    "timestamp": "2025-06-30T14:05:00Z"
//	}
type ErrorResponse struct {
	Message      string    `json:"message" example:"Invalid request"`
	ErrorDetails string    `json:"error,omitempty" example:"cnpj is required"`
	Timestamp    time.Time `json:"timestamp" example:"2025-06-30T14:05:00Z"`
}

// Error implements the error interface so an ErrorResponse can flow
// through gin's c.Error chain.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse with the current timestamp.
// The inner error is optional; when nil only the message is set.
func NewErrorResponse(message string, err error) ErrorResponse {
	e := ErrorResponse{
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		e.ErrorDetails = err.Error()
	}
	return e
}
