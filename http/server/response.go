package server

import (
	"encoding/json"
	"net/http"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/http/common"
)

// encodeJSONProblemResponseBody writes a backend or HTTP related error as RFC 9457 problem.
func (s *Server) encodeJSONProblemResponseBody(w http.ResponseWriter, r *http.Request, err error) {
	problem, ok := err.(common.Problem)
	if !ok {
		backendErr, ok := err.(backend.Error)
		if !ok || backendErr.Type == 0 {
			s.logger.Error().Err(err).Str("method", r.Method).Str("uri", r.RequestURI).Msg("unexpected error occurred")

			problem = common.Problem{
				Status: http.StatusInternalServerError,
				Title:  "unexpected error occurred",
				Detail: "see server logs",
			}
		} else {
			var (
				status      int
				problemType common.ProblemType
			)

			switch backendErr.Type {
			case backend.ErrorConflict:
				status = http.StatusConflict
				problemType = common.ProblemConflict
			case backend.ErrorNotFound:
				status = http.StatusNotFound
				problemType = common.ProblemNotFound
			case backend.ErrorValidation:
				status = http.StatusBadRequest
				problemType = common.ProblemValidation
			}

			problem = common.Problem{
				Status: status,
				Type:   problemType,
				Title:  backendErr.Title,
				Detail: backendErr.Detail,
			}
		}
	}

	w.Header().Set(common.HeaderContentType, common.ContentTypeProblemJson)
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		s.logger.Error().Err(err).Str("method", r.Method).Str("uri", r.RequestURI).Msg("failed to create JSON problem response body")
	}
}

func (s *Server) encodeJSONResponseBody(w http.ResponseWriter, r *http.Request, v any, statusCode int) {
	w.Header().Set(common.HeaderContentType, common.ContentTypeJson)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Str("method", r.Method).Str("uri", r.RequestURI).Msg("failed to create JSON response body")
	}
}
