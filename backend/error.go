package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a [Store], when an entity does not exist.
var ErrNotFound = errors.New("entity not found")

type Error struct {
	Type   ErrorType
	Title  string
	Detail string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Title, e.Detail)
}

type ErrorType int

const (
	ErrorConflict ErrorType = iota + 1
	ErrorNotFound
	ErrorValidation
)

func (v ErrorType) String() string {
	switch v {
	case ErrorConflict:
		return "CONFLICT"
	case ErrorNotFound:
		return "NOT_FOUND"
	case ErrorValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}

func notFound(title string, format string, a ...any) error {
	return Error{Type: ErrorNotFound, Title: title, Detail: fmt.Sprintf(format, a...)}
}
