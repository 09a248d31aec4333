package engine

// BpmnErrorCmd reports a business error for a locked task.
type BpmnErrorCmd struct {
	// Task ID.
	Id string `json:"-"`

	// Code of the business error, used to correlate an error boundary event.
	ErrorCode string `json:"errorCode" validate:"required"`
	// Human-readable error message.
	ErrorMessage string `json:"errorMessage,omitempty"`
	// Variables to set, when the error is caught.
	Variables map[string]Variable `json:"variables,omitempty"`
	// ID of the worker that locked the task.
	WorkerId string `json:"workerId" validate:"required"`
}

// CompleteCmd completes a locked task.
type CompleteCmd struct {
	// Task ID.
	Id string `json:"-"`

	// Variables to set at execution scope.
	LocalVariables map[string]Variable `json:"localVariables,omitempty"`
	// Variables to set at process instance scope.
	Variables map[string]Variable `json:"variables,omitempty"`
	// ID of the worker that locked the task.
	WorkerId string `json:"workerId" validate:"required"`
}

// CreateTaskCmd creates an external task, which is not bound to a process instance.
type CreateTaskCmd struct {
	// Optional business key.
	BusinessKey string `json:"businessKey,omitempty"`
	// Task priority, considered when fetching with priority.
	Priority int64 `json:"priority,omitempty"`
	// Initial number of retries. If nil, the task has no retries set.
	Retries *int `json:"retries,omitempty" validate:"omitempty,gte=0"`
	// Topic of the task.
	TopicName string `json:"topicName" validate:"required"`
	// Variables, either flat or enveloped.
	Variables map[string]any `json:"variables,omitempty"`
}

// ExtendLockCmd extends the lock of a task.
type ExtendLockCmd struct {
	// Task ID.
	Id string `json:"-"`

	// New lock duration in milliseconds, starting from now.
	NewDuration int64 `json:"newDuration" validate:"gt=0"`
	// ID of the worker that locked the task.
	WorkerId string `json:"workerId" validate:"required"`
}

// FailureCmd reports a technical failure for a locked task.
type FailureCmd struct {
	// Task ID.
	Id string `json:"-"`

	// Detailed error information like a stack trace or a cause chain.
	ErrorDetails string `json:"errorDetails,omitempty"`
	// Human-readable error message.
	ErrorMessage string `json:"errorMessage,omitempty"`
	// Number of retries left. If 0, an incident is created.
	Retries int `json:"retries" validate:"gte=0"`
	// Timeout in milliseconds, before the task can be fetched again.
	RetryTimeout int64 `json:"retryTimeout" validate:"gte=0"`
	// ID of the worker that locked the task.
	WorkerId string `json:"workerId" validate:"required"`
}

// FetchAndLockCmd fetches and locks tasks of one or more topics.
type FetchAndLockCmd struct {
	// Time in milliseconds to wait for tasks, when none are available. If 0, the call returns immediately.
	AsyncResponseTimeout int64 `json:"asyncResponseTimeout,omitempty" validate:"gte=0,lte=1800000"`
	// Maximum number of tasks to fetch and lock.
	MaxTasks int `json:"maxTasks" validate:"gte=1,lte=1000"`
	// Topics to fetch tasks for.
	Topics []TopicCmd `json:"topics" validate:"required,min=1,dive"`
	// Determines if tasks with a higher priority are fetched first.
	UsePriority bool `json:"usePriority,omitempty"`
	// ID of the worker that fetches and locks.
	WorkerId string `json:"workerId" validate:"required"`
}

// TopicCmd specifies a topic to fetch tasks for.
type TopicCmd struct {
	// Lock duration in milliseconds.
	LockDuration int64 `json:"lockDuration" validate:"gt=0"`
	// Name of the topic.
	TopicName string `json:"topicName" validate:"required"`
	// Names of the variables to fetch. If empty, all variables are fetched.
	Variables []string `json:"variables,omitempty"`
}

// UnlockCmd releases the lock of a task.
type UnlockCmd struct {
	// Task ID.
	Id string `json:"-"`
}

// SubscribeCmd subscribes to tasks of a single topic.
type SubscribeCmd struct {
	// Time in milliseconds a single fetch and lock waits for tasks.
	AsyncResponseTimeout int64
	// Lock duration in milliseconds.
	LockDuration int64
	// Maximum number of tasks to fetch and lock at once.
	MaxTasks int
	// Name of the topic.
	TopicName string
	// Names of the variables to fetch.
	Variables []string
	// ID of the subscribing worker.
	WorkerId string

	// Called when a fetch and lock failed, before the next attempt.
	OnError func(error)
}

// TaskCriteria restricts the tasks returned by a query.
type TaskCriteria struct {
	Id          string `json:"externalTaskId,omitempty"`
	Locked      bool   `json:"locked,omitempty"`
	NotLocked   bool   `json:"notLocked,omitempty"`
	TopicName   string `json:"topicName,omitempty"`
	WithRetries bool   `json:"withRetriesLeft,omitempty"`
	WorkerId    string `json:"workerId,omitempty"`
}
