package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnmarshalTime(t *testing.T) {
	assert := assert.New(t)

	expected := time.Date(2025, 2, 1, 14, 34, 42, 0, time.UTC)

	tests := map[string]struct {
		json     string
		expected time.Time
		err      bool
	}{
		"null": {
			json: "null",
		},
		"empty": {
			json: `""`,
		},
		"number": {
			json: "1",
			err:  true,
		},
		"invalid": {
			json: `"2025-02-XX"`,
			err:  true,
		},
		"camunda": {
			json:     `"2025-02-01T16:34:42.000+0200"`,
			expected: expected,
		},
		"rfc3339": {
			json:     `"2025-02-01T14:34:42Z"`,
			expected: expected,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var actual Time
			err := json.Unmarshal([]byte(test.json), &actual)

			if test.err {
				assert.Error(err)
				return
			}

			assert.NoError(err)
			if test.expected.IsZero() {
				assert.True(actual.IsZero())
			} else {
				assert.True(test.expected.Equal(time.Time(actual)))
			}
		})
	}
}

func TestMarshalTime(t *testing.T) {
	assert := assert.New(t)

	b, err := json.Marshal(Time{})
	assert.NoError(err)
	assert.Equal("null", string(b))

	b, err = json.Marshal(Time(time.Date(2025, 2, 1, 14, 34, 42, 0, time.UTC)))
	assert.NoError(err)
	assert.Equal(`"2025-02-01T14:34:42.000+0000"`, string(b))
}

func TestTaskIsLockExpired(t *testing.T) {
	assert := assert.New(t)

	now := time.Now()

	assert.False(Task{}.IsLockExpired(now))
	assert.False(Task{LockExpirationTime: Time(now.Add(time.Second))}.IsLockExpired(now))
	assert.True(Task{LockExpirationTime: Time(now)}.IsLockExpired(now))
	assert.True(Task{LockExpirationTime: Time(now.Add(-time.Second))}.IsLockExpired(now))
}

func TestMapErrorType(t *testing.T) {
	assert := assert.New(t)

	for _, errorType := range []ErrorType{ErrorBug, ErrorConflict, ErrorNotFound, ErrorValidation} {
		assert.Equal(errorType, MapErrorType(errorType.String()))
	}

	assert.Equal(ErrorType(0), MapErrorType("unknown"))
	assert.Equal("UNKNOWN", ErrorType(0).String())
}
