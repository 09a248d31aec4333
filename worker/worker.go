package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hotelbey/bey/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Modes of a worker.
const (
	ModePoll      = "poll"      // Fetch and lock tasks of all topics in a fixed interval.
	ModeSubscribe = "subscribe" // Long poll tasks per topic and deliver them to a bounded pool.
)

// ErrUnknownTopic is returned, when a task of a topic without registered handler is executed.
var ErrUnknownTopic = errors.New("unknown topic")

// State is the state of a worker.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateDispatching
	StateReporting
	StateStopped
)

func (v State) String() string {
	switch v {
	case StateIdle:
		return "IDLE"
	case StateFetching:
		return "FETCHING"
	case StateDispatching:
		return "DISPATCHING"
	case StateReporting:
		return "REPORTING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New creates a worker, which handles tasks of the topics registered in r.
// The registry is sealed, so that it can be read concurrently.
func New(e engine.Engine, r *Registry, customizers ...func(*Options)) (*Worker, error) {
	if e == nil {
		return nil, errors.New("engine is nil")
	}
	if r == nil {
		return nil, errors.New("registry is nil")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	r.Seal()

	topics := options.Topics
	if len(topics) == 0 {
		topics = r.TaskTypes()
	}
	if len(topics) == 0 {
		return nil, errors.New("no task type registered")
	}
	for _, topic := range topics {
		if _, ok := r.Resolve(topic); !ok {
			return nil, fmt.Errorf("topic %s is not registered", topic)
		}
	}

	m, err := newMetrics(options.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %v", err)
	}

	logger := options.Logger.With().Str("worker_id", options.WorkerId).Logger()

	w := Worker{
		e:        e,
		registry: r,
		options:  options,
		logger:   logger,
		metrics:  m,
		topics:   topics,
		now:      time.Now,
	}

	w.reporter = &reporter{
		e:       e,
		options: options,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return w.now() },
	}

	return &w, nil
}

func NewOptions() Options {
	return Options{
		WorkerId:             "bey-worker-" + uuid.NewString()[:8],
		Mode:                 ModePoll,
		PollInterval:         5 * time.Second,
		MaxTasks:             engine.DefaultMaxTasks,
		LockDuration:         engine.DefaultLockDuration * time.Millisecond,
		AsyncResponseTimeout: engine.DefaultAsyncResponseTimeout * time.Millisecond,
		HandlerTimeout:       30 * time.Second,
		ReportTimeout:        10 * time.Second,
		Concurrency:          1,
		RetryLimit:           3,
		RetryTimeout:         10 * time.Second,

		Logger: zerolog.Nop(),
	}
}

type Options struct {
	WorkerId             string        `validate:"required"`                   // ID of the worker, used to fetch and lock tasks.
	Mode                 string        `validate:"oneof=poll subscribe"`       // Either poll or subscribe.
	PollInterval         time.Duration `validate:"gte=100ms"`                  // Interval between fetch and locks in poll mode.
	MaxTasks             int           `validate:"gte=1,lte=1000"`             // Maximum number of tasks to fetch and lock at once per topic.
	LockDuration         time.Duration `validate:"gte=1s"`                     // Duration of a task lock.
	AsyncResponseTimeout time.Duration `validate:"gte=0,lte=30m"`              // Long polling timeout in subscribe mode.
	HandlerTimeout       time.Duration `validate:"gt=0,ltefield=LockDuration"` // Maximum duration of a handler call.
	ReportTimeout        time.Duration `validate:"gt=0"`                       // Maximum duration of reporting an outcome.
	Concurrency          int           `validate:"gte=1,lte=100"`              // Maximum number of concurrently handled tasks per topic.
	RetryLimit           int           `validate:"gte=0"`                      // Retries of a failed task, which has no retries set.
	RetryTimeout         time.Duration `validate:"gte=0"`                      // Timeout before a failed task can be fetched again.
	Topics               []string      `validate:"dive,required"`              // Topics to handle. If empty, all registered topics are handled.

	// If true, infrastructure errors are reported as BPMN errors with code [ErrorCode], instead of failures.
	InfrastructureErrorsAsBpmnErrors bool

	Logger     zerolog.Logger        `validate:"-"`
	Registerer prometheus.Registerer `validate:"-"` // Optional registerer for worker metrics.

	OnReportFailure func(engine.Task, error) `validate:"-"` // Called when an outcome could not be reported.
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid worker options: %v", err)
	}
	return nil
}

// Worker fetches and locks tasks, dispatches them to the registered handlers and reports their outcomes.
type Worker struct {
	e        engine.Engine
	registry *Registry
	options  Options
	logger   zerolog.Logger
	metrics  *metrics
	reporter *reporter
	topics   []string
	now      func() time.Time

	mutex   sync.Mutex
	cancel  context.CancelFunc
	stopped atomic.Bool
	wg      sync.WaitGroup

	fetching    atomic.Int32
	dispatching atomic.Int32
	reporting   atomic.Int32
}

// ExecuteTask executes a single locked task: it resolves the handler, decodes the variables, calls
// the handler under the handler timeout and reports the outcome. It returns the outcome and an
// error, if the task topic is unknown or the outcome could not be reported.
func (w *Worker) ExecuteTask(ctx context.Context, task engine.Task) (string, error) {
	definition, ok := w.registry.Resolve(task.TopicName)
	if !ok {
		w.metrics.tasksHandled.WithLabelValues(task.TopicName, OutcomeUnknownTopic).Inc()
		w.logger.Warn().
			Str("topic", task.TopicName).
			Str("task_id", task.Id).
			Str("outcome", OutcomeUnknownTopic).
			Msg("skipping task of unknown topic")
		return OutcomeUnknownTopic, fmt.Errorf("%w: %s", ErrUnknownTopic, task.TopicName)
	}

	w.dispatching.Add(1)
	result, handlerErr := w.handle(ctx, definition, task)
	w.dispatching.Add(-1)

	w.reporting.Add(1)
	defer w.reporting.Add(-1)

	return w.reporter.report(ctx, task, result, handlerErr)
}

// Start starts fetching tasks in the background, according to the configured mode.
func (w *Worker) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.stopped.Load() {
		return errors.New("worker is stopped")
	}
	if w.cancel != nil {
		return errors.New("worker is already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.logger.Info().Str("mode", w.options.Mode).Strs("topics", w.topics).Msg("starting worker")

	switch w.options.Mode {
	case ModeSubscribe:
		w.subscribe(ctx)
	default:
		w.wg.Add(1)
		go w.poll(ctx)
	}

	return nil
}

// State returns the current state of the worker. When tasks are handled concurrently, the most
// advanced state of any task is returned.
func (w *Worker) State() State {
	switch {
	case w.stopped.Load():
		return StateStopped
	case w.reporting.Load() > 0:
		return StateReporting
	case w.dispatching.Load() > 0:
		return StateDispatching
	case w.fetching.Load() > 0:
		return StateFetching
	default:
		return StateIdle
	}
}

// Stop stops fetching tasks immediately and waits until all in-flight tasks are reported.
// A stopped worker cannot be started again.
func (w *Worker) Stop() {
	w.mutex.Lock()
	cancel := w.cancel
	w.stopped.Store(true)
	w.mutex.Unlock()

	if cancel != nil {
		cancel()
	}

	w.wg.Wait()
	w.logger.Info().Msg("worker stopped")
}

func (w *Worker) fetchAndLock(ctx context.Context, cmd engine.FetchAndLockCmd) ([]engine.Task, error) {
	w.fetching.Add(1)
	defer w.fetching.Add(-1)

	topicName := cmd.Topics[0].TopicName

	tasks, err := w.e.FetchAndLock(ctx, cmd)
	if err != nil {
		if ctx.Err() == nil {
			w.metrics.fetchErrors.WithLabelValues(topicName).Inc()
			w.logger.Error().Err(err).Str("topic", topicName).Msg("failed to fetch and lock tasks")
		}
		return nil, err
	}

	w.metrics.tasksFetched.WithLabelValues(topicName).Add(float64(len(tasks)))
	return tasks, nil
}

func (w *Worker) handle(ctx context.Context, definition Definition, task engine.Task) (result Result, err error) {
	values, err := Decode(task.Variables, definition.Schema)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, w.options.HandlerTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		w.metrics.handlerDuration.WithLabelValues(task.TopicName).Observe(time.Since(start).Seconds())
	}()

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("handler of task type %s panicked: %v", definition.TaskType, r)
		}
	}()

	// the deadline is enforced by the handler's downstream calls, a returned result is always reported
	return definition.Handler(ctx, values)
}

func (w *Worker) poll(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			w.pollOnce(ctx)
			timer.Reset(w.options.PollInterval)
		case <-ctx.Done():
			return
		}
	}
}

// pollOnce fetches and locks tasks of each topic in turn and waits until all are handled.
func (w *Worker) pollOnce(ctx context.Context) {
	var wg sync.WaitGroup

	for _, topic := range w.topics {
		if ctx.Err() != nil {
			break
		}

		tasks, err := w.fetchAndLock(ctx, w.fetchAndLockCmd(topic, 0))
		if err != nil {
			continue
		}

		sem := make(chan struct{}, w.options.Concurrency)
		for i := range tasks {
			sem <- struct{}{}
			wg.Add(1)
			go func(task engine.Task) {
				defer func() {
					<-sem
					wg.Done()
				}()
				// in-flight tasks are not cancelled, when the worker is stopped
				_, _ = w.ExecuteTask(context.Background(), task)
			}(tasks[i])
		}
	}

	wg.Wait()
}

func (w *Worker) subscribe(ctx context.Context) {
	for _, topic := range w.topics {
		cmd := w.fetchAndLockCmd(topic, w.options.AsyncResponseTimeout)

		tasks := engine.Subscribe(ctx, fetcher{Engine: w.e, w: w}, engine.SubscribeCmd{
			AsyncResponseTimeout: cmd.AsyncResponseTimeout,
			LockDuration:         cmd.Topics[0].LockDuration,
			MaxTasks:             cmd.MaxTasks,
			TopicName:            topic,
			Variables:            cmd.Topics[0].Variables,
			WorkerId:             cmd.WorkerId,
		})

		for i := 0; i < w.options.Concurrency; i++ {
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				for task := range tasks {
					_, _ = w.ExecuteTask(context.Background(), task)
				}
			}()
		}
	}
}

func (w *Worker) fetchAndLockCmd(topic string, asyncResponseTimeout time.Duration) engine.FetchAndLockCmd {
	definition, _ := w.registry.Resolve(topic)

	var variables []string
	if len(definition.Schema) != 0 {
		variables = definition.Schema.Names()
	}

	return engine.FetchAndLockCmd{
		AsyncResponseTimeout: asyncResponseTimeout.Milliseconds(),
		MaxTasks:             w.options.MaxTasks,
		Topics: []engine.TopicCmd{{
			LockDuration: w.options.LockDuration.Milliseconds(),
			TopicName:    topic,
			Variables:    variables,
		}},
		WorkerId: w.options.WorkerId,
	}
}

// fetcher routes the fetch and locks of a subscription through the worker, for state and metrics.
type fetcher struct {
	engine.Engine
	w *Worker
}

func (f fetcher) FetchAndLock(ctx context.Context, cmd engine.FetchAndLockCmd) ([]engine.Task, error) {
	return f.w.fetchAndLock(ctx, cmd)
}
