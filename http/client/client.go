package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hotelbey/bey/engine"
	"github.com/hotelbey/bey/http/common"
)

func New(url string, customizers ...func(*Options)) (*Client, error) {
	if url == "" {
		return nil, errors.New("URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	httpClient := http.Client{}

	if options.Configure != nil {
		options.Configure(&httpClient)
	}

	client := Client{
		httpClient: &httpClient,
		url:        strings.TrimSuffix(url, "/"),
		options:    options,
	}

	return &client, nil
}

func NewOptions() Options {
	return Options{
		Timeout: 40 * time.Second,
	}
}

type Options struct {
	Timeout time.Duration // Time limit for requests made by the HTTP client, utilized when no external context is provided.

	// OnRequest is an optional function that accepts a [*http.Request]. It is called before a HTTP request is send.
	OnRequest func(*http.Request) error
	// OnResponse is an optional function that accepts a [*http.Response]. It is called after a HTTP response is returned.
	OnResponse func(*http.Response) error

	Configure func(*http.Client) // Optional function, used to configure the underlying HTTP client.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	return nil
}

// Client is a client of the Camunda external task REST API.
type Client struct {
	httpClient *http.Client
	url        string
	options    Options
}

func (c *Client) Complete(ctx context.Context, cmd engine.CompleteCmd) error {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	path := common.Resolve(common.PathExternalTasksComplete, "id", cmd.Id)
	return c.doPost(ctx, path, cmd, nil)
}

func (c *Client) CreateTask(ctx context.Context, cmd engine.CreateTaskCmd) (engine.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var task engine.Task
	if err := c.doPost(ctx, common.PathExternalTasksCreate, cmd, &task); err != nil {
		return engine.Task{}, err
	}
	return task, nil
}

func (c *Client) ExtendLock(ctx context.Context, cmd engine.ExtendLockCmd) error {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	path := common.Resolve(common.PathExternalTasksExtendLock, "id", cmd.Id)
	return c.doPost(ctx, path, cmd, nil)
}

func (c *Client) FetchAndLock(ctx context.Context, cmd engine.FetchAndLockCmd) ([]engine.Task, error) {
	timeout := c.options.Timeout + time.Duration(cmd.AsyncResponseTimeout)*time.Millisecond

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var tasks []engine.Task
	if err := c.doPost(ctx, common.PathExternalTasksFetchAndLock, cmd, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) HandleBpmnError(ctx context.Context, cmd engine.BpmnErrorCmd) error {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	path := common.Resolve(common.PathExternalTasksBpmnError, "id", cmd.Id)
	return c.doPost(ctx, path, cmd, nil)
}

func (c *Client) HandleFailure(ctx context.Context, cmd engine.FailureCmd) error {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	path := common.Resolve(common.PathExternalTasksFailure, "id", cmd.Id)
	return c.doPost(ctx, path, cmd, nil)
}

func (c *Client) QueryTasks(ctx context.Context, criteria engine.TaskCriteria) ([]engine.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var tasks []engine.Task
	if err := c.doGet(ctx, common.PathExternalTasks+encodeTaskCriteria(criteria), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// StartProcess starts the latest version of a process definition, identified by its key.
func (c *Client) StartProcess(ctx context.Context, key string, reqBody common.StartProcessReq) (common.ProcessInstanceRes, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var processInstance common.ProcessInstanceRes
	path := common.Resolve(common.PathProcessDefinitionsStart, "key", key)
	if err := c.doPost(ctx, path, reqBody, &processInstance); err != nil {
		return common.ProcessInstanceRes{}, err
	}
	return processInstance, nil
}

func (c *Client) Unlock(ctx context.Context, cmd engine.UnlockCmd) error {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	path := common.Resolve(common.PathExternalTasksUnlock, "id", cmd.Id)
	return c.doPost(ctx, path, nil, nil)
}

func (c *Client) Shutdown() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) doGet(ctx context.Context, path string, resBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create GET request: %v", err)
	}

	return c.do(req, resBody)
}

func (c *Client) doPost(ctx context.Context, path string, reqBody any, resBody any) error {
	var body []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to create JSON request body: %v", err)
		}
		body = b
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create POST request: %v", err)
	}

	if reqBody != nil {
		req.Header.Set(common.HeaderContentType, common.ContentTypeJson)
	}

	return c.do(req, resBody)
}

func (c *Client) do(req *http.Request, resBody any) error {
	if c.options.OnRequest != nil {
		if err := c.options.OnRequest(req); err != nil {
			return err
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %v", err)
	}

	if c.options.OnResponse != nil {
		if err := c.options.OnResponse(res); err != nil {
			res.Body.Close()
			return err
		}
	}

	return decodeJSONResponseBody(res, resBody)
}

func encodeTaskCriteria(criteria engine.TaskCriteria) string {
	values := make(url.Values)

	if criteria.Id != "" {
		values.Add(common.QueryExternalTaskId, criteria.Id)
	}
	if criteria.Locked {
		values.Add(common.QueryLocked, strconv.FormatBool(true))
	}
	if criteria.NotLocked {
		values.Add(common.QueryNotLocked, strconv.FormatBool(true))
	}
	if criteria.TopicName != "" {
		values.Add(common.QueryTopicName, criteria.TopicName)
	}
	if criteria.WithRetries {
		values.Add(common.QueryWithRetriesLeft, strconv.FormatBool(true))
	}
	if criteria.WorkerId != "" {
		values.Add(common.QueryWorkerId, criteria.WorkerId)
	}

	if len(values) == 0 {
		return ""
	}

	return "?" + values.Encode()
}
