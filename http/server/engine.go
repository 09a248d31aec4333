package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hotelbey/bey/engine"
	"github.com/hotelbey/bey/http/common"
)

func (s *Server) handleEngine(basePath string) {
	s.handle("POST "+basePath+common.PathExternalTasksFetchAndLock, s.fetchAndLock)
	s.handle("POST "+basePath+common.PathExternalTasksComplete, s.completeTask)
	s.handle("POST "+basePath+common.PathExternalTasksBpmnError, s.handleBpmnError)
	s.handle("POST "+basePath+common.PathExternalTasksFailure, s.handleFailure)
	s.handle("POST "+basePath+common.PathExternalTasksExtendLock, s.extendLock)
	s.handle("POST "+basePath+common.PathExternalTasksUnlock, s.unlockTask)

	if _, ok := s.engine.(engine.TaskCreator); ok {
		s.handle("POST "+basePath+common.PathExternalTasksCreate, s.createTask)
	}
	if _, ok := s.engine.(engine.TaskQuery); ok {
		s.handle("GET "+basePath+common.PathExternalTasks, s.queryTasks)
	}
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	var cmd engine.CompleteCmd
	if err := decodeJSONRequestBody(w, r, &cmd, false); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	cmd.Id = r.PathValue("id")

	if err := s.engine.Complete(r.Context(), cmd); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var cmd engine.CreateTaskCmd
	if err := decodeJSONRequestBody(w, r, &cmd, true); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	task, err := s.engine.(engine.TaskCreator).CreateTask(r.Context(), cmd)
	if err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	s.encodeJSONResponseBody(w, r, task, http.StatusOK)
}

func (s *Server) extendLock(w http.ResponseWriter, r *http.Request) {
	var cmd engine.ExtendLockCmd
	if err := decodeJSONRequestBody(w, r, &cmd, false); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	cmd.Id = r.PathValue("id")

	if err := s.engine.ExtendLock(r.Context(), cmd); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fetchAndLock(w http.ResponseWriter, r *http.Request) {
	var cmd engine.FetchAndLockCmd
	if err := decodeJSONRequestBody(w, r, &cmd, false); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	tasks, err := s.engine.FetchAndLock(r.Context(), cmd)
	if err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	if tasks == nil {
		tasks = []engine.Task{}
	}

	s.encodeJSONResponseBody(w, r, tasks, http.StatusOK)
}

func (s *Server) handleBpmnError(w http.ResponseWriter, r *http.Request) {
	var cmd engine.BpmnErrorCmd
	if err := decodeJSONRequestBody(w, r, &cmd, false); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	cmd.Id = r.PathValue("id")

	if err := s.engine.HandleBpmnError(r.Context(), cmd); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFailure(w http.ResponseWriter, r *http.Request) {
	var cmd engine.FailureCmd
	if err := decodeJSONRequestBody(w, r, &cmd, false); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	cmd.Id = r.PathValue("id")

	if err := s.engine.HandleFailure(r.Context(), cmd); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) queryTasks(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseTaskCriteria(r)
	if err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	tasks, err := s.engine.(engine.TaskQuery).QueryTasks(r.Context(), criteria)
	if err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	if tasks == nil {
		tasks = []engine.Task{}
	}

	s.encodeJSONResponseBody(w, r, tasks, http.StatusOK)
}

func (s *Server) unlockTask(w http.ResponseWriter, r *http.Request) {
	cmd := engine.UnlockCmd{Id: r.PathValue("id")}

	if err := s.engine.Unlock(r.Context(), cmd); err != nil {
		s.encodeCamundaErrorResponseBody(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// encodeCamundaErrorResponseBody writes an error in the format of the Camunda REST API.
func (s *Server) encodeCamundaErrorResponseBody(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status     int
		camundaErr common.CamundaError
	)

	if problem, ok := err.(common.Problem); ok {
		status = problem.Status
		camundaErr = common.CamundaError{
			Type:    common.ExceptionInvalidRequest,
			Message: fmt.Sprintf("%s: %s", problem.Title, problem.Detail),
		}
		for _, e := range problem.Errors {
			camundaErr.Message += "; " + e.String()
		}
	} else {
		engineErr, ok := err.(engine.Error)
		if !ok {
			s.logger.Error().Err(err).Str("method", r.Method).Str("uri", r.RequestURI).Msg("unexpected error occurred")
			engineErr = engine.Error{Title: "unexpected error occurred", Detail: "see server logs"}
		}
		status, camundaErr = common.NewCamundaError(engineErr)
	}

	w.Header().Set(common.HeaderContentType, common.ContentTypeJson)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(camundaErr); err != nil {
		s.logger.Error().Err(err).Str("method", r.Method).Str("uri", r.RequestURI).Msg("failed to create JSON error response body")
	}
}

func parseTaskCriteria(r *http.Request) (engine.TaskCriteria, error) {
	query := r.URL.Query()

	parseBool := func(name string) (bool, error) {
		value := query.Get(name)
		if value == "" {
			return false, nil
		}

		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, common.Problem{
				Status: http.StatusBadRequest,
				Type:   common.ProblemHttpRequestUri,
				Title:  "invalid query parameter " + name,
				Detail: "failed to parse value " + value,
			}
		}
		return b, nil
	}

	criteria := engine.TaskCriteria{
		Id:        query.Get(common.QueryExternalTaskId),
		TopicName: query.Get(common.QueryTopicName),
		WorkerId:  query.Get(common.QueryWorkerId),
	}

	var err error
	if criteria.Locked, err = parseBool(common.QueryLocked); err != nil {
		return engine.TaskCriteria{}, err
	}
	if criteria.NotLocked, err = parseBool(common.QueryNotLocked); err != nil {
		return engine.TaskCriteria{}, err
	}
	if criteria.WithRetries, err = parseBool(common.QueryWithRetriesLeft); err != nil {
		return engine.TaskCriteria{}, err
	}

	return criteria, nil
}
