package common

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hotelbey/bey/engine"
)

// Exception types, used by the Camunda REST API.
const (
	ExceptionBadUserRequest   = "BadUserRequestException"
	ExceptionInvalidRequest   = "InvalidRequestException"
	ExceptionProcessEngine    = "ProcessEngineException"
	ExceptionRestException    = "RestException"
	ExceptionNotFoundResource = "NotFoundException"
)

// CamundaError is the error body of the Camunda REST API.
type CamundaError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

func (v CamundaError) Error() string {
	return fmt.Sprintf("%s: %s", v.Type, v.Message)
}

// NewCamundaError maps an engine error to a HTTP status and an error body.
func NewCamundaError(err engine.Error) (int, CamundaError) {
	message := fmt.Sprintf("%s: %s", err.Title, err.Detail)

	switch err.Type {
	case engine.ErrorNotFound:
		return http.StatusNotFound, CamundaError{Type: ExceptionNotFoundResource, Message: message}
	case engine.ErrorConflict, engine.ErrorValidation:
		return http.StatusBadRequest, CamundaError{Type: ExceptionBadUserRequest, Message: message}
	default:
		return http.StatusInternalServerError, CamundaError{Type: ExceptionProcessEngine, Message: message}
	}
}

// ToEngineError maps an error response of the Camunda REST API to an engine error.
//
// A bad request, whose message refers to a lock (e.g. "locked by worker" or "lock expired"), is
// considered a conflict: the task's lease is held by another worker or has been lost.
func (v CamundaError) ToEngineError(status int, title string) engine.Error {
	var errorType engine.ErrorType
	switch {
	case status == http.StatusNotFound:
		errorType = engine.ErrorNotFound
	case status == http.StatusBadRequest:
		message := strings.ToLower(v.Message)
		if strings.Contains(message, "locked") || strings.Contains(message, "lock expired") {
			errorType = engine.ErrorConflict
		} else {
			errorType = engine.ErrorValidation
		}
	case status == http.StatusConflict:
		errorType = engine.ErrorConflict
	default:
		errorType = engine.ErrorBug
	}

	detail := v.Message
	if v.Type != "" {
		detail = fmt.Sprintf("%s: %s", v.Type, v.Message)
	}
	return engine.Error{Type: errorType, Title: title, Detail: detail}
}

// StartProcessReq starts a process instance by process definition key.
type StartProcessReq struct {
	BusinessKey string                     `json:"businessKey,omitempty"`
	Variables   map[string]engine.Variable `json:"variables,omitempty"`
}

// ProcessInstanceRes is the response of a process start.
type ProcessInstanceRes struct {
	Id           string `json:"id"`
	BusinessKey  string `json:"businessKey,omitempty"`
	DefinitionId string `json:"definitionId"`
	Ended        bool   `json:"ended"`
	Suspended    bool   `json:"suspended"`
}
