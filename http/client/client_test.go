package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hotelbey/bey/engine"
	"github.com/hotelbey/bey/engine/mem"
	"github.com/hotelbey/bey/http/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientServer(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	e, err := mem.New()
	require.NoError(err)
	defer e.Shutdown()

	s, err := server.New(func(o *server.Options) {
		o.Engine = e
	})
	require.NoError(err, "failed to create HTTP server")

	httpServer := httptest.NewServer(s.Handler())
	defer httpServer.Close()

	var requests []string

	client, err := New(httpServer.URL+"/engine-rest", func(o *Options) {
		o.OnRequest = func(r *http.Request) error {
			requests = append(requests, r.Method+" "+r.URL.Path)
			return nil
		}
	})
	require.NoError(err, "failed to create HTTP client")

	defer client.Shutdown()

	ctx := context.Background()

	fetchAndLock := func(topicName string) []engine.Task {
		tasks, err := client.FetchAndLock(ctx, engine.FetchAndLockCmd{
			MaxTasks: 10,
			Topics:   []engine.TopicCmd{{TopicName: topicName, LockDuration: 60000}},
			WorkerId: "test-worker",
		})
		require.NoError(err)
		return tasks
	}

	t.Run("create task", func(t *testing.T) {
		// when
		retries := 3
		task, err := client.CreateTask(ctx, engine.CreateTaskCmd{
			BusinessKey: "booking-1",
			Retries:     &retries,
			TopicName:   "validate-input",
			Variables: map[string]any{
				"email":  map[string]any{"value": "jane@example.org", "type": "String"},
				"guests": 2,
			},
		})

		// then
		require.NoError(err)
		assert.NotEmpty(task.Id)
		assert.Equal("booking-1", task.BusinessKey)
		assert.Equal("validate-input", task.TopicName)
		assert.Equal(&retries, task.Retries)
		assert.True(task.LockExpirationTime.IsZero())
	})

	t.Run("fetch and lock", func(t *testing.T) {
		// when
		tasks := fetchAndLock("validate-input")

		// then
		require.Len(tasks, 1)
		assert.Equal("test-worker", tasks[0].WorkerId)
		assert.False(tasks[0].LockExpirationTime.IsZero())
		assert.Equal(map[string]any{
			"email":  map[string]any{"value": "jane@example.org", "type": "String"},
			"guests": float64(2),
		}, tasks[0].Variables)

		// when
		tasks = fetchAndLock("validate-input")

		// then
		assert.Empty(tasks)
	})

	t.Run("complete", func(t *testing.T) {
		// given
		task, err := client.CreateTask(ctx, engine.CreateTaskCmd{TopicName: "search-client"})
		require.NoError(err)

		tasks := fetchAndLock("search-client")
		require.Len(tasks, 1)

		variables, err := engine.NewVariables(map[string]any{"clientFound": true, "client_id": "c1"})
		require.NoError(err)

		// when
		err = client.Complete(ctx, engine.CompleteCmd{Id: task.Id, Variables: variables, WorkerId: "test-worker"})

		// then
		require.NoError(err)

		record, ok := e.GetTask(task.Id)
		require.True(ok)
		assert.Equal(mem.TaskCompleted, record.State)
		assert.Equal(map[string]any{"clientFound": true, "client_id": "c1"}, record.Output)

		// when
		err = client.Complete(ctx, engine.CompleteCmd{Id: task.Id, WorkerId: "test-worker"})

		// then
		assertEngineError(t, err, engine.ErrorNotFound)
	})

	t.Run("complete returns conflict when locked by other worker", func(t *testing.T) {
		// given
		task, err := client.CreateTask(ctx, engine.CreateTaskCmd{TopicName: "create-client"})
		require.NoError(err)

		require.Len(fetchAndLock("create-client"), 1)

		// when
		err = client.Complete(ctx, engine.CompleteCmd{Id: task.Id, WorkerId: "other-worker"})

		// then
		assertEngineError(t, err, engine.ErrorConflict)
		assert.Contains(err.Error(), "is locked by worker test-worker")
	})

	t.Run("handle BPMN error", func(t *testing.T) {
		// given
		task, err := client.CreateTask(ctx, engine.CreateTaskCmd{TopicName: "block-room"})
		require.NoError(err)

		require.Len(fetchAndLock("block-room"), 1)

		// when
		err = client.HandleBpmnError(ctx, engine.BpmnErrorCmd{
			Id:           task.Id,
			ErrorCode:    "TASK_ERROR",
			ErrorMessage: "room r1 is not available",
			WorkerId:     "test-worker",
		})

		// then
		require.NoError(err)

		record, _ := e.GetTask(task.Id)
		assert.Equal(mem.TaskBpmnError, record.State)
		assert.Equal("TASK_ERROR", record.ErrorCode)
		assert.Equal("room r1 is not available", record.ErrorMessage)
	})

	t.Run("handle BPMN error without error code", func(t *testing.T) {
		// when
		err := client.HandleBpmnError(ctx, engine.BpmnErrorCmd{Id: "unknown", WorkerId: "test-worker"})

		// then
		assertEngineError(t, err, engine.ErrorValidation)
	})

	t.Run("handle failure", func(t *testing.T) {
		// given
		task, err := client.CreateTask(ctx, engine.CreateTaskCmd{TopicName: "process-payment"})
		require.NoError(err)

		require.Len(fetchAndLock("process-payment"), 1)

		// when
		err = client.HandleFailure(ctx, engine.FailureCmd{
			Id:           task.Id,
			ErrorMessage: "payment service unavailable",
			Retries:      0,
			WorkerId:     "test-worker",
		})

		// then
		require.NoError(err)

		record, _ := e.GetTask(task.Id)
		assert.Equal(mem.TaskIncident, record.State)
		assert.Equal("payment service unavailable", record.ErrorMessage)

		tasks, err := client.QueryTasks(ctx, engine.TaskCriteria{Id: task.Id, WithRetries: true})
		require.NoError(err)
		assert.Empty(tasks)
	})

	t.Run("extend lock", func(t *testing.T) {
		// given
		task, err := client.CreateTask(ctx, engine.CreateTaskCmd{TopicName: "generate-confirmation"})
		require.NoError(err)

		tasks := fetchAndLock("generate-confirmation")
		require.Len(tasks, 1)

		// when
		err = client.ExtendLock(ctx, engine.ExtendLockCmd{Id: task.Id, NewDuration: 120000, WorkerId: "test-worker"})

		// then
		require.NoError(err)

		queried, err := client.QueryTasks(ctx, engine.TaskCriteria{Id: task.Id})
		require.NoError(err)
		require.Len(queried, 1)
		assert.True(time.Time(queried[0].LockExpirationTime).After(time.Time(tasks[0].LockExpirationTime)))
	})

	t.Run("unlock", func(t *testing.T) {
		// given
		task, err := client.CreateTask(ctx, engine.CreateTaskCmd{TopicName: "get-booking"})
		require.NoError(err)

		require.Len(fetchAndLock("get-booking"), 1)

		// when
		err = client.Unlock(ctx, engine.UnlockCmd{Id: task.Id})

		// then
		require.NoError(err)

		tasks, err := client.QueryTasks(ctx, engine.TaskCriteria{TopicName: "get-booking", NotLocked: true})
		require.NoError(err)
		require.Len(tasks, 1)
		assert.Equal(task.Id, tasks[0].Id)

		// when
		err = client.Unlock(ctx, engine.UnlockCmd{Id: "unknown"})

		// then
		assertEngineError(t, err, engine.ErrorNotFound)
	})

	t.Run("query tasks", func(t *testing.T) {
		// when
		tasks, err := client.QueryTasks(ctx, engine.TaskCriteria{Locked: true, WorkerId: "test-worker"})

		// then
		require.NoError(err)
		assert.NotEmpty(tasks)
		for _, task := range tasks {
			assert.Equal("test-worker", task.WorkerId)
		}
	})

	t.Run("fetch and lock with invalid command", func(t *testing.T) {
		// when
		_, err := client.FetchAndLock(ctx, engine.FetchAndLockCmd{MaxTasks: 1})

		// then
		assertEngineError(t, err, engine.ErrorValidation)
		assert.Contains(err.Error(), "InvalidRequestException")
	})

	t.Run("subscribe", func(t *testing.T) {
		// given
		task, err := client.CreateTask(ctx, engine.CreateTaskCmd{TopicName: "get-client-bookings"})
		require.NoError(err)

		subscribeCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		// when
		tasks := engine.Subscribe(subscribeCtx, client, engine.SubscribeCmd{
			AsyncResponseTimeout: 1000,
			TopicName:            "get-client-bookings",
			WorkerId:             "test-worker",
		})

		// then
		select {
		case received := <-tasks:
			assert.Equal(task.Id, received.Id)
		case <-time.After(5 * time.Second):
			t.Fatal("no task received")
		}

		cancel()

		for range tasks {
		}
	})

	t.Run("requests", func(t *testing.T) {
		assert.Contains(requests, "POST /engine-rest/external-task/create")
		assert.Contains(requests, "POST /engine-rest/external-task/fetchAndLock")
		assert.Contains(requests, "GET /engine-rest/external-task")
	})
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	t.Run("URL is empty", func(t *testing.T) {
		_, err := New("")
		assert.EqualError(err, "URL is empty")
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, err := New("http://localhost:8080/engine-rest", func(o *Options) {
			o.Timeout = 0
		})
		assert.EqualError(err, "timeout must be greater than 0")
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		client, err := New("http://localhost:8080/engine-rest/")
		assert.NoError(err)
		assert.Equal("http://localhost:8080/engine-rest", client.url)
	})
}

func TestDecodeJSONResponseBody(t *testing.T) {
	assert := assert.New(t)

	newResponse := func(status int, contentType string, body string) *http.Response {
		w := httptest.NewRecorder()
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		w.WriteString(body)

		res := w.Result()
		res.Request = httptest.NewRequest(http.MethodPost, "/engine-rest/external-task/1/complete", nil)
		return res
	}

	t.Run("lock expired", func(t *testing.T) {
		res := newResponse(http.StatusBadRequest, "application/json", `{"type":"BadUserRequestException","message":"Lock expired for task 1"}`)

		err := decodeJSONResponseBody(res, nil)
		assertEngineError(t, err, engine.ErrorConflict)
	})

	t.Run("internal server error", func(t *testing.T) {
		res := newResponse(http.StatusInternalServerError, "application/json", `{"type":"ProcessEngineException","message":"database down"}`)

		err := decodeJSONResponseBody(res, nil)
		assertEngineError(t, err, engine.ErrorBug)
		assert.Contains(err.Error(), "POST /engine-rest/external-task/1/complete: HTTP 500")
	})

	t.Run("plain text", func(t *testing.T) {
		res := newResponse(http.StatusBadGateway, "text/plain", "bad gateway")

		err := decodeJSONResponseBody(res, nil)
		assert.EqualError(err, "POST /engine-rest/external-task/1/complete: HTTP 502: bad gateway")
	})

	t.Run("no content", func(t *testing.T) {
		var tasks []engine.Task

		res := newResponse(http.StatusNoContent, "", "")
		assert.NoError(decodeJSONResponseBody(res, &tasks))
		assert.Nil(tasks)
	})
}

func assertEngineError(t *testing.T, err error, expectedType engine.ErrorType) {
	var engineErr engine.Error
	if !assert.True(t, errors.As(err, &engineErr), "expected engine error, but got %v", err) {
		return
	}
	assert.Equal(t, expectedType, engineErr.Type)
}
