package mem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hotelbey/bey/engine"
	"github.com/rs/zerolog"
)

// Interval, in which a long polling fetch and lock rechecks for tasks with an expired lock.
const recheckInterval = time.Second

func New(customizers ...func(*Options)) (*Engine, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		options: options,
		tasks:   make(map[string]*taskEntity),
		notify:  make(chan struct{}),
	}, nil
}

func NewOptions() Options {
	return Options{
		Logger: zerolog.Nop(),
	}
}

type Options struct {
	Logger zerolog.Logger

	OnTaskCreated func(engine.Task) // Called after a task has been created.
}

func (o Options) Validate() error {
	return nil
}

// Engine is an in-memory engine, which leases external tasks to workers.
//
// It does not execute processes. Tasks are created explicitly via [Engine.CreateTask] and their
// outcome is recorded, so that it can be inspected via [Engine.GetTask].
type Engine struct {
	options Options

	mutex    sync.Mutex
	tasks    map[string]*taskEntity
	ids      []string // task IDs in creation order
	offset   time.Duration
	notify   chan struct{}
	shutdown bool
}

func (e *Engine) Complete(_ context.Context, cmd engine.CompleteCmd) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	entity, err := e.selectLocked(cmd.Id, cmd.WorkerId, "complete")
	if err != nil {
		return err
	}

	output := make(map[string]any, len(cmd.Variables)+len(cmd.LocalVariables))
	for _, variables := range []map[string]engine.Variable{cmd.Variables, cmd.LocalVariables} {
		for name, variable := range variables {
			value, err := variable.Unwrap()
			if err != nil {
				return engine.Error{
					Type:   engine.ErrorValidation,
					Title:  "failed to complete task",
					Detail: fmt.Sprintf("variable %s: %v", name, err),
				}
			}
			output[name] = value
		}
	}

	entity.State = TaskCompleted
	entity.Output = output
	entity.EndedAt = e.now()

	e.options.Logger.Debug().Str("task_id", entity.Id).Str("topic", entity.TopicName).Msg("task completed")
	return nil
}

func (e *Engine) CreateTask(_ context.Context, cmd engine.CreateTaskCmd) (engine.Task, error) {
	if cmd.TopicName == "" {
		return engine.Task{}, engine.Error{
			Type:   engine.ErrorValidation,
			Title:  "failed to create task",
			Detail: "topic name is empty",
		}
	}
	if cmd.Retries != nil && *cmd.Retries < 0 {
		return engine.Task{}, engine.Error{
			Type:   engine.ErrorValidation,
			Title:  "failed to create task",
			Detail: "retries must be greater than or equal to 0",
		}
	}

	e.mutex.Lock()

	now := e.now()

	entity := taskEntity{
		Id:          uuid.NewString(),
		BusinessKey: cmd.BusinessKey,
		CreatedAt:   now,
		DueAt:       now,
		Priority:    cmd.Priority,
		Retries:     cmd.Retries,
		State:       TaskCreated,
		TopicName:   cmd.TopicName,
		Variables:   cmd.Variables,
	}

	e.tasks[entity.Id] = &entity
	e.ids = append(e.ids, entity.Id)
	e.signal()

	task := entity.Task(nil)
	e.mutex.Unlock()

	e.options.Logger.Debug().Str("task_id", task.Id).Str("topic", task.TopicName).Msg("task created")
	if e.options.OnTaskCreated != nil {
		e.options.OnTaskCreated(task)
	}
	return task, nil
}

func (e *Engine) ExtendLock(_ context.Context, cmd engine.ExtendLockCmd) error {
	if cmd.NewDuration <= 0 {
		return engine.Error{
			Type:   engine.ErrorValidation,
			Title:  "failed to extend lock",
			Detail: "new duration must be greater than 0",
		}
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	entity, err := e.selectLocked(cmd.Id, cmd.WorkerId, "extend lock of")
	if err != nil {
		return err
	}

	now := e.now()
	if !now.Before(entity.LockExpiresAt) {
		return engine.Error{
			Type:   engine.ErrorConflict,
			Title:  "failed to extend lock",
			Detail: fmt.Sprintf("external task %s: lock expired at %s", entity.Id, entity.LockExpiresAt.Format(time.RFC3339)),
		}
	}

	entity.LockExpiresAt = now.Add(time.Duration(cmd.NewDuration) * time.Millisecond)
	return nil
}

func (e *Engine) FetchAndLock(ctx context.Context, cmd engine.FetchAndLockCmd) ([]engine.Task, error) {
	if err := validateFetchAndLockCmd(cmd); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(time.Duration(cmd.AsyncResponseTimeout) * time.Millisecond)
	for {
		e.mutex.Lock()
		if e.shutdown {
			e.mutex.Unlock()
			return nil, engine.Error{Type: engine.ErrorBug, Title: "failed to fetch and lock", Detail: "engine is shut down"}
		}

		tasks := e.lock(cmd)
		notify := e.notify
		e.mutex.Unlock()

		if len(tasks) != 0 {
			return tasks, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return []engine.Task{}, nil
		}

		timer := time.NewTimer(min(remaining, recheckInterval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-notify:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// GetTask returns a snapshot of a task, including state and outcome, regardless if it is open or not.
func (e *Engine) GetTask(id string) (TaskRecord, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	entity, ok := e.tasks[id]
	if !ok {
		return TaskRecord{}, false
	}
	return entity.Record(), true
}

func (e *Engine) HandleBpmnError(_ context.Context, cmd engine.BpmnErrorCmd) error {
	if cmd.ErrorCode == "" {
		return engine.Error{
			Type:   engine.ErrorValidation,
			Title:  "failed to handle BPMN error",
			Detail: "error code is empty",
		}
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	entity, err := e.selectLocked(cmd.Id, cmd.WorkerId, "handle BPMN error of")
	if err != nil {
		return err
	}

	entity.State = TaskBpmnError
	entity.ErrorCode = cmd.ErrorCode
	entity.ErrorMessage = cmd.ErrorMessage
	entity.EndedAt = e.now()

	e.options.Logger.Debug().Str("task_id", entity.Id).Str("error_code", cmd.ErrorCode).Msg("task BPMN error")
	return nil
}

func (e *Engine) HandleFailure(_ context.Context, cmd engine.FailureCmd) error {
	if cmd.Retries < 0 || cmd.RetryTimeout < 0 {
		return engine.Error{
			Type:   engine.ErrorValidation,
			Title:  "failed to handle failure",
			Detail: "retries and retry timeout must be greater than or equal to 0",
		}
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	entity, err := e.selectLocked(cmd.Id, cmd.WorkerId, "handle failure of")
	if err != nil {
		return err
	}

	now := e.now()

	retries := cmd.Retries
	entity.Retries = &retries
	entity.ErrorMessage = cmd.ErrorMessage
	entity.ErrorDetails = cmd.ErrorDetails
	entity.LockedBy = ""
	entity.LockExpiresAt = time.Time{}

	if retries == 0 {
		entity.State = TaskIncident
		e.options.Logger.Warn().Str("task_id", entity.Id).Str("topic", entity.TopicName).Msg("task incident created")
		return nil
	}

	entity.State = TaskCreated
	entity.DueAt = now.Add(time.Duration(cmd.RetryTimeout) * time.Millisecond)
	e.signal()
	return nil
}

func (e *Engine) QueryTasks(_ context.Context, criteria engine.TaskCriteria) ([]engine.Task, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	now := e.now()

	results := make([]engine.Task, 0)
	for _, id := range e.ids {
		entity := e.tasks[id]
		if entity.State == TaskCompleted || entity.State == TaskBpmnError {
			continue
		}

		if criteria.Id != "" && criteria.Id != entity.Id {
			continue
		}
		if criteria.TopicName != "" && criteria.TopicName != entity.TopicName {
			continue
		}
		if criteria.WorkerId != "" && criteria.WorkerId != entity.LockedBy {
			continue
		}

		locked := entity.IsLocked(now)
		if criteria.Locked && !locked {
			continue
		}
		if criteria.NotLocked && locked {
			continue
		}
		if criteria.WithRetries && entity.Retries != nil && *entity.Retries == 0 {
			continue
		}

		results = append(results, entity.Task(nil))
	}

	return results, nil
}

// SetTime increases the engine's time for testing purposes.
func (e *Engine) SetTime(t time.Time) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	old := e.now()
	new := t.UTC().Truncate(time.Millisecond)

	sub := new.Sub(old)
	if sub.Milliseconds() < 0 {
		return engine.Error{
			Type:  engine.ErrorConflict,
			Title: "failed to set time",
			Detail: fmt.Sprintf(
				"time %s is before engine time %s",
				new.Format(time.RFC3339),
				old.Format(time.RFC3339),
			),
		}
	}

	e.offset = e.offset + sub
	e.signal()
	return nil
}

// Time returns the engine's current time.
func (e *Engine) Time() time.Time {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.now()
}

func (e *Engine) Unlock(_ context.Context, cmd engine.UnlockCmd) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	entity, ok := e.tasks[cmd.Id]
	if !ok || entity.IsEnded() {
		return engine.Error{
			Type:   engine.ErrorNotFound,
			Title:  "failed to unlock task",
			Detail: fmt.Sprintf("external task %s could not be found", cmd.Id),
		}
	}

	if entity.State == TaskLocked {
		entity.State = TaskCreated
		entity.LockedBy = ""
		entity.LockExpiresAt = time.Time{}
		e.signal()
	}
	return nil
}

func (e *Engine) Shutdown() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.shutdown {
		e.shutdown = true
		close(e.notify)
	}
}

// lock locks due tasks of the requested topics. The caller must hold the mutex.
func (e *Engine) lock(cmd engine.FetchAndLockCmd) []engine.Task {
	now := e.now()

	topics := make(map[string]engine.TopicCmd, len(cmd.Topics))
	for _, topic := range cmd.Topics {
		topics[topic.TopicName] = topic
	}

	var candidates []*taskEntity
	for _, id := range e.ids {
		entity := e.tasks[id]
		if _, ok := topics[entity.TopicName]; ok && entity.IsDue(now) {
			candidates = append(candidates, entity)
		}
	}

	if cmd.UsePriority {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Priority > candidates[j].Priority
		})
	}

	if len(candidates) > cmd.MaxTasks {
		candidates = candidates[:cmd.MaxTasks]
	}

	tasks := make([]engine.Task, len(candidates))
	for i, entity := range candidates {
		topic := topics[entity.TopicName]

		entity.State = TaskLocked
		entity.LockedBy = cmd.WorkerId
		entity.LockExpiresAt = now.Add(time.Duration(topic.LockDuration) * time.Millisecond)

		tasks[i] = entity.Task(topic.Variables)
	}

	return tasks
}

func (e *Engine) now() time.Time {
	// truncated to millis, since the REST API transfers millis only
	return time.Now().UTC().Add(e.offset).Truncate(time.Millisecond)
}

// selectLocked selects a task, which must be locked by the given worker. The caller must hold the mutex.
func (e *Engine) selectLocked(id string, workerId string, op string) (*taskEntity, error) {
	entity, ok := e.tasks[id]
	if !ok || entity.IsEnded() {
		return nil, engine.Error{
			Type:   engine.ErrorNotFound,
			Title:  fmt.Sprintf("failed to %s task", op),
			Detail: fmt.Sprintf("external task %s could not be found", id),
		}
	}

	if entity.State != TaskLocked {
		return nil, engine.Error{
			Type:   engine.ErrorConflict,
			Title:  fmt.Sprintf("failed to %s task", op),
			Detail: fmt.Sprintf("external task %s is not locked", id),
		}
	}
	if entity.LockedBy != workerId {
		return nil, engine.Error{
			Type:   engine.ErrorConflict,
			Title:  fmt.Sprintf("failed to %s task", op),
			Detail: fmt.Sprintf("external task %s is locked by worker %s", id, entity.LockedBy),
		}
	}

	return entity, nil
}

// signal wakes up all waiting fetch and lock calls. The caller must hold the mutex.
func (e *Engine) signal() {
	if e.shutdown {
		return
	}
	close(e.notify)
	e.notify = make(chan struct{})
}

func validateFetchAndLockCmd(cmd engine.FetchAndLockCmd) error {
	var detail string
	switch {
	case cmd.WorkerId == "":
		detail = "worker ID is empty"
	case cmd.MaxTasks < 1:
		detail = "max tasks must be greater than or equal to 1"
	case len(cmd.Topics) == 0:
		detail = "no topic specified"
	case cmd.AsyncResponseTimeout < 0:
		detail = "async response timeout must be greater than or equal to 0"
	}

	for _, topic := range cmd.Topics {
		if detail != "" {
			break
		}
		if topic.TopicName == "" {
			detail = "topic name is empty"
		} else if topic.LockDuration <= 0 {
			detail = fmt.Sprintf("topic %s: lock duration must be greater than 0", topic.TopicName)
		}
	}

	if detail == "" {
		return nil
	}
	return engine.Error{Type: engine.ErrorValidation, Title: "failed to fetch and lock", Detail: detail}
}
