package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyActive = errors.New("pro plan already active")
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)
)

// NotFoundError names the missing entity, e.g. "Transaction not found".
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError carries a message safe to return to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// GatewayError is returned when a call to the payment processor fails.
type GatewayError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s failed (status %d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("gateway %s failed: %s", e.Op, msg)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// AlreadyActiveError is returned for an upgrade attempt while a pro plan is still valid.
type AlreadyActiveError struct {
	PlanExpiration time.Time
}

func (e *AlreadyActiveError) Error() string {
	return fmt.Sprintf("pro plan already active until %s", e.PlanExpiration.Format(time.RFC3339))
}

func (e *AlreadyActiveError) Is(target error) bool {
	return target == ErrAlreadyActive
}

func notFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
