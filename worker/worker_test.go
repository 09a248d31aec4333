package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hotelbey/bey/engine"
	"github.com/hotelbey/bey/engine/mem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWorkerId = "test-worker"

func mustCreateEngine(t *testing.T) *mem.Engine {
	e, err := mem.New()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(e.Shutdown)
	return e
}

func mustCreateWorker(t *testing.T, e engine.Engine, r *Registry, customizers ...func(*Options)) *Worker {
	customizers = append([]func(*Options){func(o *Options) {
		o.WorkerId = testWorkerId
		o.PollInterval = 100 * time.Millisecond
	}}, customizers...)

	w, err := New(e, r, customizers...)
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}
	return w
}

func mustCreateTask(t *testing.T, e *mem.Engine, topicName string, variables map[string]any) engine.Task {
	task, err := e.CreateTask(context.Background(), engine.CreateTaskCmd{TopicName: topicName, Variables: variables})
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	return task
}

// mustLockTask locks a single task of the given topic, as the test worker.
func mustLockTask(t *testing.T, e *mem.Engine, topicName string) engine.Task {
	tasks, err := e.FetchAndLock(context.Background(), engine.FetchAndLockCmd{
		MaxTasks: 1,
		Topics:   []engine.TopicCmd{{LockDuration: 60000, TopicName: topicName}},
		WorkerId: testWorkerId,
	})
	if err != nil {
		t.Fatalf("failed to fetch and lock: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected one task of topic %s, but got %d", topicName, len(tasks))
	}
	return tasks[0]
}

func mustGetTask(t *testing.T, e *mem.Engine, id string) mem.TaskRecord {
	record, ok := e.GetTask(id)
	if !ok {
		t.Fatalf("task %s not found", id)
	}
	return record
}

func waitForState(t *testing.T, e *mem.Engine, id string, expected mem.TaskState) mem.TaskRecord {
	var record mem.TaskRecord
	require.Eventuallyf(t, func() bool {
		record = mustGetTask(t, e, id)
		return record.State == expected
	}, 5*time.Second, 10*time.Millisecond, "expected task %s to be %s", id, expected)
	return record
}

// failingEngine fails all reports with the given error.
type failingEngine struct {
	engine.Engine
	err error
}

func (e failingEngine) Complete(context.Context, engine.CompleteCmd) error {
	return e.err
}

func (e failingEngine) HandleBpmnError(context.Context, engine.BpmnErrorCmd) error {
	return e.err
}

func (e failingEngine) HandleFailure(context.Context, engine.FailureCmd) error {
	return e.err
}

func echoHandler(_ context.Context, values Values) (Result, error) {
	return Result{"echo": values.String("a")}, nil
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	e := mustCreateEngine(t)

	newRegistry := func() *Registry {
		r := NewRegistry()
		r.MustRegister("a", Schema{Required("a", KindString)}, echoHandler)
		return r
	}

	t.Run("returns error when engine or registry is nil", func(t *testing.T) {
		_, err := New(nil, newRegistry())
		assert.EqualError(err, "engine is nil")

		_, err = New(e, nil)
		assert.EqualError(err, "registry is nil")
	})

	t.Run("returns error when options are invalid", func(t *testing.T) {
		_, err := New(e, newRegistry(), func(o *Options) {
			o.Mode = "push"
		})
		assert.ErrorContains(err, "invalid worker options")
		assert.ErrorContains(err, "Mode")

		_, err = New(e, newRegistry(), func(o *Options) {
			o.LockDuration = 10 * time.Second
			o.HandlerTimeout = 20 * time.Second
		})
		assert.ErrorContains(err, "HandlerTimeout")

		_, err = New(e, newRegistry(), func(o *Options) {
			o.Concurrency = 0
		})
		assert.ErrorContains(err, "Concurrency")

		_, err = New(e, newRegistry(), func(o *Options) {
			o.WorkerId = ""
		})
		assert.ErrorContains(err, "WorkerId")
	})

	t.Run("returns error when topic is not registered", func(t *testing.T) {
		_, err := New(e, newRegistry(), func(o *Options) {
			o.Topics = []string{"a", "b"}
		})
		assert.EqualError(err, "topic b is not registered")
	})

	t.Run("returns error when no task type is registered", func(t *testing.T) {
		_, err := New(e, NewRegistry())
		assert.EqualError(err, "no task type registered")
	})

	t.Run("returns error when metrics are registered twice", func(t *testing.T) {
		registry := prometheus.NewRegistry()

		_, err := New(e, newRegistry(), func(o *Options) {
			o.Registerer = registry
		})
		assert.NoError(err)

		_, err = New(e, newRegistry(), func(o *Options) {
			o.Registerer = registry
		})
		assert.ErrorContains(err, "failed to register metrics")
	})

	t.Run("seals registry", func(t *testing.T) {
		r := newRegistry()
		mustCreateWorker(t, e, r)

		err := r.Register("b", nil, echoHandler)
		assert.EqualError(err, "failed to register task type b: registry is sealed")
	})

	t.Run("default options", func(t *testing.T) {
		options := NewOptions()

		assert.NoError(options.Validate())
		assert.Contains(options.WorkerId, "bey-worker-")
		assert.Equal(ModePoll, options.Mode)
		assert.Equal(5*time.Second, options.PollInterval)
		assert.Equal(1, options.MaxTasks)
		assert.Equal(60*time.Second, options.LockDuration)
		assert.Equal(30*time.Second, options.HandlerTimeout)
	})
}

func TestExecuteTask(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ctx := context.Background()

	t.Run("completes task", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", Schema{Required("a", KindString)}, echoHandler)

		w := mustCreateWorker(t, e, r)

		// given
		created := mustCreateTask(t, e, "a", map[string]any{
			"a": map[string]any{"value": "x", "type": "String"},
		})
		task := mustLockTask(t, e, "a")

		// when
		outcome, err := w.ExecuteTask(ctx, task)
		require.NoError(err)

		// then
		assert.Equal(OutcomeCompleted, outcome)

		record := mustGetTask(t, e, created.Id)
		assert.Equal(mem.TaskCompleted, record.State)
		assert.Equal(map[string]any{"echo": "x"}, record.Output)
	})

	t.Run("reports validation error as BPMN error", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", Schema{
			Required("first_name", KindString),
			Required("last_name", KindString),
			Required("email", KindString),
		}, func(context.Context, Values) (Result, error) {
			t.Fatal("handler must not be called")
			return nil, nil
		})

		w := mustCreateWorker(t, e, r)

		// given
		created := mustCreateTask(t, e, "a", map[string]any{"last_name": "Doe"})
		task := mustLockTask(t, e, "a")

		// when
		outcome, err := w.ExecuteTask(ctx, task)
		require.NoError(err)

		// then
		assert.Equal(OutcomeBpmnError, outcome)

		record := mustGetTask(t, e, created.Id)
		assert.Equal(mem.TaskBpmnError, record.State)
		assert.Equal(ErrorCode, record.ErrorCode)
		assert.Equal("missing required fields: first_name, email", record.ErrorMessage)
	})

	t.Run("reports business rule error as BPMN error", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, func(context.Context, Values) (Result, error) {
			return nil, NewBusinessRuleError("amount must be greater than 0")
		})

		w := mustCreateWorker(t, e, r)

		// given
		created := mustCreateTask(t, e, "a", nil)
		task := mustLockTask(t, e, "a")

		// when
		outcome, err := w.ExecuteTask(ctx, task)
		require.NoError(err)

		// then
		assert.Equal(OutcomeBpmnError, outcome)

		record := mustGetTask(t, e, created.Id)
		assert.Equal(mem.TaskBpmnError, record.State)
		assert.Equal("amount must be greater than 0", record.ErrorMessage)
	})

	t.Run("reports infrastructure error as failure", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, func(context.Context, Values) (Result, error) {
			return nil, NewInfrastructureError("rooms", errors.New("connection refused"))
		})

		w := mustCreateWorker(t, e, r, func(o *Options) {
			o.RetryLimit = 2
			o.RetryTimeout = 0
		})

		// given
		created := mustCreateTask(t, e, "a", nil)

		// when
		outcome, err := w.ExecuteTask(ctx, mustLockTask(t, e, "a"))
		require.NoError(err)

		// then
		assert.Equal(OutcomeFailure, outcome)

		record := mustGetTask(t, e, created.Id)
		assert.Equal(mem.TaskCreated, record.State)
		assert.Equal("rooms service: connection refused", record.ErrorMessage)
		require.NotNil(record.Task.Retries)
		assert.Equal(2, *record.Task.Retries)

		// when
		_, err = w.ExecuteTask(ctx, mustLockTask(t, e, "a"))
		require.NoError(err)
		_, err = w.ExecuteTask(ctx, mustLockTask(t, e, "a"))
		require.NoError(err)

		// then
		record = mustGetTask(t, e, created.Id)
		assert.Equal(mem.TaskIncident, record.State)
		assert.Equal(0, *record.Task.Retries)
	})

	t.Run("reports infrastructure error as BPMN error", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, func(context.Context, Values) (Result, error) {
			return nil, NewInfrastructureError("rooms", errors.New("HTTP 503"))
		})

		w := mustCreateWorker(t, e, r, func(o *Options) {
			o.InfrastructureErrorsAsBpmnErrors = true
		})

		// given
		created := mustCreateTask(t, e, "a", nil)

		// when
		outcome, err := w.ExecuteTask(ctx, mustLockTask(t, e, "a"))
		require.NoError(err)

		// then
		assert.Equal(OutcomeBpmnError, outcome)

		record := mustGetTask(t, e, created.Id)
		assert.Equal(mem.TaskBpmnError, record.State)
		assert.Equal(ErrorCode, record.ErrorCode)
	})

	t.Run("reports failure when handler panics", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, func(context.Context, Values) (Result, error) {
			panic("boom")
		})

		w := mustCreateWorker(t, e, r)

		// given
		created := mustCreateTask(t, e, "a", nil)

		// when
		outcome, err := w.ExecuteTask(ctx, mustLockTask(t, e, "a"))
		require.NoError(err)

		// then
		assert.Equal(OutcomeFailure, outcome)

		record := mustGetTask(t, e, created.Id)
		assert.Equal("handler of task type a panicked: boom", record.ErrorMessage)
	})

	t.Run("reports failure when handler exceeds timeout", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, func(ctx context.Context, _ Values) (Result, error) {
			<-ctx.Done()
			return nil, NewInfrastructureError("rooms", ctx.Err())
		})

		w := mustCreateWorker(t, e, r, func(o *Options) {
			o.HandlerTimeout = 50 * time.Millisecond
		})

		// given
		created := mustCreateTask(t, e, "a", nil)

		// when
		outcome, err := w.ExecuteTask(ctx, mustLockTask(t, e, "a"))
		require.NoError(err)

		// then
		assert.Equal(OutcomeFailure, outcome)

		record := mustGetTask(t, e, created.Id)
		assert.Equal("rooms service: context deadline exceeded", record.ErrorMessage)
	})

	t.Run("completes when handler returns result after timeout", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, func(ctx context.Context, _ Values) (Result, error) {
			<-ctx.Done()
			return Result{"fallback": true}, nil
		})

		w := mustCreateWorker(t, e, r, func(o *Options) {
			o.HandlerTimeout = 50 * time.Millisecond
		})

		// given
		created := mustCreateTask(t, e, "a", nil)

		// when
		outcome, err := w.ExecuteTask(ctx, mustLockTask(t, e, "a"))
		require.NoError(err)

		// then
		assert.Equal(OutcomeCompleted, outcome)

		record := mustGetTask(t, e, created.Id)
		assert.Equal(mem.TaskCompleted, record.State)
		assert.Equal(true, record.Output["fallback"])
	})

	t.Run("reports incident when result cannot be encoded", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, func(context.Context, Values) (Result, error) {
			return Result{"x": make(chan int)}, nil
		})

		w := mustCreateWorker(t, e, r)

		// given
		created := mustCreateTask(t, e, "a", nil)

		// when
		outcome, err := w.ExecuteTask(ctx, mustLockTask(t, e, "a"))
		require.NoError(err)

		// then
		assert.Equal(OutcomeFailure, outcome)

		record := mustGetTask(t, e, created.Id)
		assert.Equal(mem.TaskIncident, record.State)
		assert.Contains(record.ErrorMessage, "failed to encode result")
	})

	t.Run("skips task of unknown topic", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, echoHandler)

		registry := prometheus.NewRegistry()
		w := mustCreateWorker(t, e, r, func(o *Options) {
			o.Registerer = registry
		})

		// given
		created := mustCreateTask(t, e, "unknown", nil)
		task := mustLockTask(t, e, "unknown")

		// when
		outcome, err := w.ExecuteTask(ctx, task)

		// then
		assert.Equal(OutcomeUnknownTopic, outcome)
		assert.ErrorIs(err, ErrUnknownTopic)
		assert.EqualError(err, "unknown topic: unknown")

		assert.Equal(mem.TaskLocked, mustGetTask(t, e, created.Id).State)
		assert.Equal(1.0, testutil.ToFloat64(w.metrics.tasksHandled.WithLabelValues("unknown", OutcomeUnknownTopic)))
	})

	t.Run("reports lease lost when task is locked by another worker", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, echoHandler)

		var reportFailures []error
		registry := prometheus.NewRegistry()
		w := mustCreateWorker(t, e, r, func(o *Options) {
			o.Registerer = registry
			o.OnReportFailure = func(_ engine.Task, err error) {
				reportFailures = append(reportFailures, err)
			}
		})

		// given
		mustCreateTask(t, e, "a", nil)
		task := mustLockTask(t, e, "a")

		// lock expires and another worker locks the task
		require.NoError(e.SetTime(e.Time().Add(2 * time.Minute)))

		tasks, err := e.FetchAndLock(ctx, engine.FetchAndLockCmd{
			MaxTasks: 1,
			Topics:   []engine.TopicCmd{{LockDuration: 60000, TopicName: "a"}},
			WorkerId: "other-worker",
		})
		require.NoError(err)
		require.Len(tasks, 1)

		w.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

		// when
		outcome, err := w.ExecuteTask(ctx, task)

		// then
		assert.Equal(OutcomeCompleted, outcome)
		assertEngineError(t, engine.ErrorConflict, err)

		require.Len(reportFailures, 1)
		assert.Equal(err, reportFailures[0])

		assert.Equal(1.0, testutil.ToFloat64(w.metrics.leasesExpired.WithLabelValues("a")))
		assert.Equal(1.0, testutil.ToFloat64(w.metrics.reportErrors.WithLabelValues("a", OutcomeCompleted)))
		assert.Equal(0.0, testutil.ToFloat64(w.metrics.tasksHandled.WithLabelValues("a", OutcomeCompleted)))
	})

	t.Run("returns error when report fails", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister("a", nil, echoHandler)

		engineErr := engine.Error{Type: engine.ErrorBug, Title: "failed to complete task", Detail: "connection refused"}
		w := mustCreateWorker(t, failingEngine{err: engineErr}, r)

		// when
		outcome, err := w.ExecuteTask(ctx, engine.Task{Id: "1", TopicName: "a"})

		// then
		assert.Equal(OutcomeCompleted, outcome)
		assert.Equal(engineErr, err)
	})
}

func TestReporterRetries(t *testing.T) {
	assert := assert.New(t)

	r := reporter{options: Options{RetryLimit: 3}}

	assert.Equal(3, r.retries(engine.Task{}))

	retries := 2
	assert.Equal(1, r.retries(engine.Task{Retries: &retries}))

	retries = 0
	assert.Equal(0, r.retries(engine.Task{Retries: &retries}))
}

func TestWorker(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	for _, mode := range []string{ModePoll, ModeSubscribe} {
		t.Run(mode+" handles tasks of all topics", func(t *testing.T) {
			e := mustCreateEngine(t)

			r := NewRegistry()
			r.MustRegister("a", Schema{Required("a", KindString)}, echoHandler)
			r.MustRegister("b", Schema{Required("b", KindInteger)}, func(_ context.Context, values Values) (Result, error) {
				return Result{"doubled": values.Int("b") * 2}, nil
			})

			registry := prometheus.NewRegistry()
			w := mustCreateWorker(t, e, r, func(o *Options) {
				o.Mode = mode
				o.MaxTasks = 2
				o.Concurrency = 2
				o.AsyncResponseTimeout = 200 * time.Millisecond
				o.Registerer = registry
			})

			// given
			task1 := mustCreateTask(t, e, "a", map[string]any{"a": "x"})
			task2 := mustCreateTask(t, e, "b", map[string]any{"b": 21})
			task3 := mustCreateTask(t, e, "a", map[string]any{"a": "y"})

			// when
			require.NoError(w.Start())
			defer w.Stop()

			// then
			record1 := waitForState(t, e, task1.Id, mem.TaskCompleted)
			record2 := waitForState(t, e, task2.Id, mem.TaskCompleted)
			record3 := waitForState(t, e, task3.Id, mem.TaskCompleted)

			assert.Equal("x", record1.Output["echo"])
			assert.Equal(42, record2.Output["doubled"])
			assert.Equal("y", record3.Output["echo"])

			require.Eventually(func() bool {
				return testutil.ToFloat64(w.metrics.tasksHandled.WithLabelValues("a", OutcomeCompleted)) == 2
			}, time.Second, 10*time.Millisecond)

			assert.Equal(2.0, testutil.ToFloat64(w.metrics.tasksFetched.WithLabelValues("a")))
			assert.Equal(1.0, testutil.ToFloat64(w.metrics.tasksFetched.WithLabelValues("b")))
			assert.Equal(2, testutil.CollectAndCount(w.metrics.handlerDuration))
		})
	}

	t.Run("returns error when started twice or after stop", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, echoHandler)

		w := mustCreateWorker(t, e, r)

		require.NoError(w.Start())
		assert.EqualError(w.Start(), "worker is already started")

		w.Stop()
		assert.Equal(StateStopped, w.State())
		assert.EqualError(w.Start(), "worker is stopped")
	})

	t.Run("stop waits for in-flight tasks", func(t *testing.T) {
		e := mustCreateEngine(t)

		started := make(chan struct{})
		release := make(chan struct{})

		var calls atomic.Int32

		r := NewRegistry()
		r.MustRegister("a", nil, func(context.Context, Values) (Result, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
			return Result{"done": true}, nil
		})

		w := mustCreateWorker(t, e, r)

		// given
		task1 := mustCreateTask(t, e, "a", nil)
		task2 := mustCreateTask(t, e, "a", nil)

		require.NoError(w.Start())

		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("handler not called")
		}
		assert.Equal(StateDispatching, w.State())

		// when
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Stop()
		}()

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		// then
		assert.Equal(StateStopped, w.State())
		assert.Equal(int32(1), calls.Load())

		assert.Equal(mem.TaskCompleted, mustGetTask(t, e, task1.Id).State)
		assert.Equal(mem.TaskCreated, mustGetTask(t, e, task2.Id).State)
	})

	t.Run("subscription stops on stop", func(t *testing.T) {
		e := mustCreateEngine(t)

		r := NewRegistry()
		r.MustRegister("a", nil, echoHandler)

		w := mustCreateWorker(t, e, r, func(o *Options) {
			o.Mode = ModeSubscribe
			o.AsyncResponseTimeout = 10 * time.Second
		})

		require.NoError(w.Start())
		require.Eventually(func() bool {
			return w.State() == StateFetching
		}, time.Second, 10*time.Millisecond)

		// when
		stopped := make(chan struct{})
		go func() {
			w.Stop()
			close(stopped)
		}()

		// then
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("worker not stopped")
		}

		task := mustCreateTask(t, e, "a", nil)
		time.Sleep(50 * time.Millisecond)
		assert.Equal(mem.TaskCreated, mustGetTask(t, e, task.Id).State)
	})

	t.Run("continues when fetch and lock fails", func(t *testing.T) {
		e := mustCreateEngine(t)
		e.Shutdown()

		r := NewRegistry()
		r.MustRegister("a", nil, echoHandler)

		registry := prometheus.NewRegistry()
		w := mustCreateWorker(t, e, r, func(o *Options) {
			o.Registerer = registry
		})

		require.NoError(w.Start())
		defer w.Stop()

		require.Eventually(func() bool {
			return testutil.ToFloat64(w.metrics.fetchErrors.WithLabelValues("a")) >= 2
		}, 5*time.Second, 10*time.Millisecond)
	})
}

func assertEngineError(t *testing.T, expected engine.ErrorType, err error) {
	var engineErr engine.Error
	if assert.ErrorAsf(t, err, &engineErr, "expected engine error") {
		assert.Equal(t, expected, engineErr.Type)
	}
}
