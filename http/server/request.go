package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hotelbey/bey/http/common"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0] // e.g. `json:"topicName,omitempty"` -> topicName
	})
	return validate
}

// decodeJSONRequestBody decodes the request body using v and validates it.
// Media type, request body or validation related errors are returned as a Problem.
// Unknown JSON fields are rejected, when strict is true.
//
// inspired by https://www.alexedwards.net/blog/how-to-properly-parse-a-json-request-body
func decodeJSONRequestBody(w http.ResponseWriter, r *http.Request, v any, strict bool) error {
	if contentType := r.Header.Get(common.HeaderContentType); contentType != "" {
		mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if mediaType != common.ContentTypeJson {
			return common.Problem{
				Status: http.StatusUnsupportedMediaType,
				Type:   common.ProblemHttpMediaType,
				Title:  "unsupported media type",
				Detail: fmt.Sprintf("media type %s is not supported", mediaType),
			}
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576) // 1mb = 1024 * 1024

	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(v); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError

		problem := common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemHttpRequestBody,
			Title:  "invalid request body",
		}

		switch {
		case errors.As(err, &syntaxError):
			problem.Detail = fmt.Sprintf("malformed JSON at position %d", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			problem.Detail = "unexpected end of JSON"
		case errors.As(err, &unmarshalTypeError):
			problem.Detail = fmt.Sprintf("JSON field %s has an invalid value at position %d", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			problem.Detail = fmt.Sprintf("unknown JSON field %s", fieldName)
		case errors.Is(err, io.EOF):
			problem.Detail = "request body is empty"
		case err.Error() == "http: request body too large":
			problem.Detail = "request body size must not exceed 1MB"
		default:
			problem.Detail = fmt.Sprintf("failed to unmarshal JSON: %v", err)
		}

		return problem
	}

	if err := validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("failed to validate request body: %v", err)
		}

		problemErrors := make([]common.Error, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			problemErrors = append(problemErrors, newValidationError(fieldError))
		}

		return common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemValidation,
			Title:  "invalid request body",
			Detail: "failed to validate request body",
			Errors: problemErrors,
		}
	}

	return nil
}

// newValidationError converts a field error into an error, which points on the invalid JSON property.
// A namespace like "FetchAndLockCmd.topics[0].topicName" results in the pointer "#/topics/0/topicName".
func newValidationError(fieldError validator.FieldError) common.Error {
	var (
		pointerBuilder strings.Builder
		next           rune
	)
	for _, r := range fieldError.Namespace() {
		if pointerBuilder.Len() == 0 {
			// skip until first dot
			if r == '.' {
				pointerBuilder.WriteString("#/")
			}
			continue
		}

		switch r {
		case '.':
			if next != '/' {
				next = '/'
			} else {
				next = '.'
			}
		case '[':
			next = '/'
		case ']':
			continue
		default:
			next = r
		}

		pointerBuilder.WriteRune(next)
	}

	var (
		detail string
		value  string
	)
	switch fieldError.Tag() {
	case "gt":
		detail = fmt.Sprintf("must be greater than %s", fieldError.Param())
		value = fmt.Sprintf("%v", fieldError.Value())
	case "gte":
		detail = fmt.Sprintf("must be greater than or equal to %s", fieldError.Param())
		value = fmt.Sprintf("%v", fieldError.Value())
	case "lte":
		detail = fmt.Sprintf("must be less than or equal to %s", fieldError.Param())
		value = fmt.Sprintf("%v", fieldError.Value())
	case "max":
		detail = fmt.Sprintf("exceeds a maximum of %s", fieldError.Param())
		value = fmt.Sprintf("%v", fieldError.Value())
	case "min":
		detail = fmt.Sprintf("requires a minimum of %s", fieldError.Param())
	case "oneof":
		detail = fmt.Sprintf("must be one of [%s]", fieldError.Param())
		value = fmt.Sprintf("%v", fieldError.Value())
	case "required":
		detail = "is required"
	default:
		detail = "is invalid"
		value = fmt.Sprintf("%v", fieldError.Value())
	}

	return common.Error{
		Pointer: pointerBuilder.String(),
		Type:    fieldError.Tag(),
		Detail:  detail,
		Value:   value,
	}
}
