package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Result contains the output variables of a handler, passed to the engine on completion.
type Result map[string]any

// HandlerFunc handles a task, using the values decoded according to the schema of its definition.
//
// A handler returns a [BusinessRuleError] or [ValidationError] to report a BPMN error and an
// [InfrastructureError] to report a retryable failure.
type HandlerFunc func(context.Context, Values) (Result, error)

// Definition binds a task type to a schema and a handler.
type Definition struct {
	TaskType string
	Schema   Schema
	Handler  HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]Definition)}
}

// Registry maps task types to definitions. It is sealed, when a worker is created.
// A sealed registry is read-only and can be used concurrently.
type Registry struct {
	mutex       sync.RWMutex
	definitions map[string]Definition
	taskTypes   []string
	sealed      bool
}

// Register registers a handler for a task type.
// It fails, if the task type is empty or already registered, the handler is nil or the registry is sealed.
func (r *Registry) Register(taskType string, schema Schema, handler HandlerFunc) error {
	if strings.TrimSpace(taskType) == "" {
		return errors.New("task type must not be empty or blank")
	}
	if handler == nil {
		return fmt.Errorf("handler of task type %s is nil", taskType)
	}
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("invalid schema of task type %s: %v", taskType, err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.sealed {
		return fmt.Errorf("failed to register task type %s: registry is sealed", taskType)
	}
	if _, ok := r.definitions[taskType]; ok {
		return fmt.Errorf("task type %s is already registered", taskType)
	}

	r.definitions[taskType] = Definition{
		TaskType: taskType,
		Schema:   schema,
		Handler:  handler,
	}
	r.taskTypes = append(r.taskTypes, taskType)
	return nil
}

// MustRegister registers a handler for a task type or panics.
func (r *Registry) MustRegister(taskType string, schema Schema, handler HandlerFunc) {
	if err := r.Register(taskType, schema, handler); err != nil {
		panic(err)
	}
}

// Resolve returns the definition of a task type, if registered.
func (r *Registry) Resolve(taskType string) (Definition, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	definition, ok := r.definitions[taskType]
	return definition, ok
}

// Seal prevents further registrations.
func (r *Registry) Seal() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sealed = true
}

// TaskTypes returns the registered task types in registration order.
func (r *Registry) TaskTypes() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	taskTypes := make([]string, len(r.taskTypes))
	copy(taskTypes, r.taskTypes)
	return taskTypes
}
