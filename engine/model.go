package engine

import (
	"fmt"
	"time"
)

// TimeLayout is the date format of the Camunda REST API.
const TimeLayout = "2006-01-02T15:04:05.000-0700"

// Task is an external task, locked by a worker.
type Task struct {
	Id                   string         `json:"id"`
	ActivityId           string         `json:"activityId,omitempty"`
	BusinessKey          string         `json:"businessKey,omitempty"`
	ErrorMessage         string         `json:"errorMessage,omitempty"`
	LockExpirationTime   Time           `json:"lockExpirationTime"`
	Priority             int64          `json:"priority"`
	ProcessDefinitionKey string         `json:"processDefinitionKey,omitempty"`
	ProcessInstanceId    string         `json:"processInstanceId,omitempty"`
	Retries              *int           `json:"retries"`
	TopicName            string         `json:"topicName"`
	Variables            map[string]any `json:"variables,omitempty"`
	WorkerId             string         `json:"workerId,omitempty"`
}

// IsLockExpired determines if the task's lock expired at the given point in time.
// A task without lock expiration time is considered not expired.
func (t Task) IsLockExpired(now time.Time) bool {
	if t.LockExpirationTime.IsZero() {
		return false
	}
	return !now.Before(time.Time(t.LockExpirationTime))
}

func (t Task) String() string {
	return fmt.Sprintf("%s/%s", t.TopicName, t.Id)
}

// Time is a point in time, (un)marshalled in the format of the Camunda REST API.
type Time time.Time

func (v Time) IsZero() bool {
	return time.Time(v).IsZero()
}

func (v Time) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", v.String())), nil
}

func (v Time) String() string {
	return time.Time(v).Format(TimeLayout)
}

func (v *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid time data %s", s)
	}

	s = s[1 : len(s)-1]
	if s == "" {
		return nil
	}

	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return fmt.Errorf("failed to parse time %s", s)
	}

	*v = Time(t)
	return nil
}
