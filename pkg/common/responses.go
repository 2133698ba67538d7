package common

import "time"

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func NewHealthResponse(healthy bool, now time.Time) HealthResponse {
	status := "ok"
	if !healthy {
		status = "unavailable"
	}
	return HealthResponse{Status: status, Timestamp: now.UTC()}
}
