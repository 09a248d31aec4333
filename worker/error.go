package worker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the BPMN error code, used to report validation and business rule errors.
const ErrorCode = "TASK_ERROR"

// ValidationError is returned, when task variables are missing or cannot be converted to the declared kind.
type ValidationError struct {
	MissingFields []string // Names of missing required fields, in schema order.
	InvalidFields []string // Names of fields with a value of the wrong kind, in schema order.
}

func (e ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) != 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.InvalidFields) != 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.InvalidFields, ", "))
	}
	return strings.Join(parts, "; ")
}

// BusinessRuleError is returned by a handler, when a task violates a business rule - for example a
// non-positive payment amount. It is reported as BPMN error.
type BusinessRuleError struct {
	Message string
}

func (e BusinessRuleError) Error() string {
	return e.Message
}

// NewBusinessRuleError creates a business rule error with a formatted message.
func NewBusinessRuleError(format string, a ...any) error {
	return BusinessRuleError{Message: fmt.Sprintf(format, a...)}
}

// InfrastructureError is returned by a handler, when a downstream service responded with a non-2xx
// status or is unreachable. It is reported as failure, so that the engine retries the task.
type InfrastructureError struct {
	Service string // Name of the downstream service, e.g. "rooms".
	Err     error
}

func (e InfrastructureError) Error() string {
	if e.Service == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e InfrastructureError) Unwrap() error {
	return e.Err
}

// NewInfrastructureError wraps an error of a downstream service.
func NewInfrastructureError(service string, err error) error {
	return InfrastructureError{Service: service, Err: err}
}

// IsBusinessError determines if an error is a validation or business rule error.
func IsBusinessError(err error) bool {
	var validationErr ValidationError
	var businessRuleErr BusinessRuleError
	return errors.As(err, &validationErr) || errors.As(err, &businessRuleErr)
}
