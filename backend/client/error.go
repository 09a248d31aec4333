package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hotelbey/bey/http/common"
)

// ResponseError is returned, when a backend service responds with a non-2xx status.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int

	Problem *common.Problem // Problem, if the response body is a RFC 9457 problem.
	Body    string          // Raw response body, if it is not a problem.
}

func (e ResponseError) Error() string {
	prefix := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	switch {
	case e.Problem != nil:
		return fmt.Sprintf("%s: %s: %s", prefix, e.Problem.Title, e.Problem.Detail)
	case e.Body != "":
		return fmt.Sprintf("%s: %s", prefix, e.Body)
	default:
		return prefix
	}
}

// IsNotFound determines if an error is a response error with status 404.
func IsNotFound(err error) bool {
	var responseErr ResponseError
	return errors.As(err, &responseErr) && responseErr.StatusCode == http.StatusNotFound
}

// IsStatus determines if an error is a response error with a specific status.
func IsStatus(err error, statusCode int) bool {
	var responseErr ResponseError
	return errors.As(err, &responseErr) && responseErr.StatusCode == statusCode
}

func newResponseError(req *http.Request, res *http.Response) ResponseError {
	responseErr := ResponseError{
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: res.StatusCode,
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil || len(b) == 0 {
		return responseErr
	}

	contentType := res.Header.Get(common.HeaderContentType)
	if strings.HasPrefix(contentType, common.ContentTypeProblemJson) {
		var problem common.Problem
		if err := json.Unmarshal(b, &problem); err == nil {
			responseErr.Problem = &problem
			return responseErr
		}
	}

	responseErr.Body = strings.TrimSpace(string(b))
	return responseErr
}
