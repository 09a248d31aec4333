package mem

import (
	"time"

	"github.com/hotelbey/bey/engine"
)

type TaskState int

const (
	TaskCreated TaskState = iota + 1
	TaskLocked
	TaskCompleted
	TaskBpmnError
	TaskIncident
)

func (v TaskState) String() string {
	switch v {
	case TaskCreated:
		return "CREATED"
	case TaskLocked:
		return "LOCKED"
	case TaskCompleted:
		return "COMPLETED"
	case TaskBpmnError:
		return "BPMN_ERROR"
	case TaskIncident:
		return "INCIDENT"
	default:
		return "UNKNOWN"
	}
}

// TaskRecord is a snapshot of a task, including its state and outcome.
type TaskRecord struct {
	Task  engine.Task
	State TaskState

	ErrorCode    string
	ErrorDetails string
	ErrorMessage string
	Output       map[string]any // Variables, passed on completion.
}

type taskEntity struct {
	Id string

	BusinessKey   string
	CreatedAt     time.Time
	DueAt         time.Time
	EndedAt       time.Time
	ErrorCode     string
	ErrorDetails  string
	ErrorMessage  string
	LockedBy      string
	LockExpiresAt time.Time
	Output        map[string]any
	Priority      int64
	Retries       *int
	State         TaskState
	TopicName     string
	Variables     map[string]any
}

func (e taskEntity) IsDue(now time.Time) bool {
	switch e.State {
	case TaskCreated:
		return !now.Before(e.DueAt) && (e.Retries == nil || *e.Retries > 0)
	case TaskLocked:
		return !now.Before(e.LockExpiresAt)
	default:
		return false
	}
}

func (e taskEntity) IsEnded() bool {
	return e.State == TaskCompleted || e.State == TaskBpmnError
}

func (e taskEntity) IsLocked(now time.Time) bool {
	return e.State == TaskLocked && now.Before(e.LockExpiresAt)
}

func (e taskEntity) Record() TaskRecord {
	return TaskRecord{
		Task:  e.Task(nil),
		State: e.State,

		ErrorCode:    e.ErrorCode,
		ErrorDetails: e.ErrorDetails,
		ErrorMessage: e.ErrorMessage,
		Output:       copyVariables(e.Output, nil),
	}
}

// Task maps the entity, filtering variables by name if names are given.
func (e taskEntity) Task(names []string) engine.Task {
	var retries *int
	if e.Retries != nil {
		v := *e.Retries
		retries = &v
	}

	var lockExpirationTime engine.Time
	if e.State == TaskLocked {
		lockExpirationTime = engine.Time(e.LockExpiresAt)
	}

	return engine.Task{
		Id:                 e.Id,
		BusinessKey:        e.BusinessKey,
		ErrorMessage:       e.ErrorMessage,
		LockExpirationTime: lockExpirationTime,
		Priority:           e.Priority,
		Retries:            retries,
		TopicName:          e.TopicName,
		Variables:          copyVariables(e.Variables, names),
		WorkerId:           e.LockedBy,
	}
}

func copyVariables(variables map[string]any, names []string) map[string]any {
	if variables == nil {
		return nil
	}

	copied := make(map[string]any, len(variables))
	if len(names) == 0 {
		for name, value := range variables {
			copied[name] = value
		}
		return copied
	}

	for _, name := range names {
		if value, ok := variables[name]; ok {
			copied[name] = value
		}
	}
	return copied
}
