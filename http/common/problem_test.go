package common

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemType(t *testing.T) {
	assert := assert.New(t)

	t.Run("marshal and map", func(t *testing.T) {
		for _, problemType := range []ProblemType{
			ProblemHttpMediaType,
			ProblemHttpRequestBody,
			ProblemHttpRequestUri,
			ProblemConflict,
			ProblemNotFound,
			ProblemValidation,
		} {
			b, err := json.Marshal(problemType)
			assert.NoError(err)
			assert.Equal(`"`+problemType.String()+`"`, string(b))
			assert.Equal(problemType, MapProblemType(problemType.String()))
		}
	})

	t.Run("unmarshal short values", func(t *testing.T) {
		for _, data := range []string{"", "1", `""`} {
			v := ProblemNotFound
			assert.NoErrorf(v.UnmarshalJSON([]byte(data)), "data %q", data)
			assert.Equalf(ProblemType(0), v, "data %q", data)
		}
	})

	t.Run("unmarshal unknown type", func(t *testing.T) {
		var v ProblemType
		assert.NoError(json.Unmarshal([]byte(`"TEAPOT"`), &v))
		assert.Equal(ProblemType(0), v)
		assert.Equal("UNKNOWN", v.String())
	})
}

func TestProblem(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	t.Run("unmarshal", func(t *testing.T) {
		var problem Problem
		err := json.Unmarshal([]byte(`{
			"status": 404,
			"type": "NOT_FOUND",
			"title": "not found",
			"detail": "room 999 could not be found"
		}`), &problem)
		require.NoError(err)

		assert.Equal(Problem{
			Status: http.StatusNotFound,
			Type:   ProblemNotFound,
			Title:  "not found",
			Detail: "room 999 could not be found",
		}, problem)
	})

	t.Run("unmarshal numeric type", func(t *testing.T) {
		var problem Problem
		err := json.Unmarshal([]byte(`{"status": 400, "type": 7, "title": "x", "detail": "y"}`), &problem)
		require.NoError(err)

		assert.Equal(ProblemType(0), problem.Type)
	})

	t.Run("error", func(t *testing.T) {
		problem := Problem{
			Status: http.StatusBadRequest,
			Type:   ProblemValidation,
			Title:  "invalid request body",
			Detail: "request body is invalid",
			Errors: []Error{
				{Pointer: "#/email", Type: "required", Detail: "is required"},
			},
		}

		assert.Equal("HTTP 400: VALIDATION: invalid request body: request body is invalid\n#/email: is required", problem.Error())
	})
}
