package daemon

import (
	"errors"
	"fmt"

	backendclient "github.com/hotelbey/bey/backend/client"
	"github.com/hotelbey/bey/hotel"
	"github.com/hotelbey/bey/hq"
	"github.com/hotelbey/bey/http/client"
	"github.com/hotelbey/bey/http/server"
	"github.com/hotelbey/bey/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

const (
	optEngineUrl     = "ENGINE_URL"
	optEngineTimeout = "ENGINE_TIMEOUT"

	optWorkerId                         = "WORKER_ID"
	optMode                             = "MODE"
	optPollInterval                     = "POLL_INTERVAL"
	optMaxTasks                         = "MAX_TASKS"
	optLockDuration                     = "LOCK_DURATION"
	optAsyncResponseTimeout             = "ASYNC_RESPONSE_TIMEOUT"
	optHandlerTimeout                   = "HANDLER_TIMEOUT"
	optReportTimeout                    = "REPORT_TIMEOUT"
	optConcurrency                      = "CONCURRENCY"
	optRetryLimit                       = "RETRY_LIMIT"
	optRetryTimeout                     = "RETRY_TIMEOUT"
	optTopics                           = "TOPICS"
	optInfrastructureErrorsAsBpmnErrors = "INFRASTRUCTURE_ERRORS_AS_BPMN_ERRORS"

	optBackendUrl     = "BACKEND_URL"
	optBackendTimeout = "BACKEND_TIMEOUT"

	optHqUrl     = "HQ_URL"
	optHqNatsUrl = "HQ_NATS_URL"
	optHqBranch  = "HQ_BRANCH"

	optMetricsBindAddress = "METRICS_BIND_ADDRESS"
)

func RunWorker(args []string) int {
	conf, wc := newWorkerConf()
	conf.setDefaults()

	if code, exit := parseFlags("bey-worker", conf, args); exit {
		return code
	}

	conf.apply()

	if code := listConfErrors(conf); code != 0 {
		return code
	}

	logger := newLogger(conf.logLevel)

	wd, err := startWorker(*wc, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start worker")
		return 1
	}

	waitForSignal()

	wd.shutdown()
	return 0
}

// workerConf is the configuration of a worker daemon.
type workerConf struct {
	engineUrl     string
	engineOptions client.Options

	workerOptions worker.Options

	backendUrl     string
	backendOptions backendclient.Options

	hqUrl       string
	hqNatsUrl   string
	hotelBranch string

	metricsBindAddress string // If empty, no metrics are exposed.
}

func newWorkerConf() (*conf, *workerConf) {
	wc := workerConf{
		engineOptions: client.NewOptions(),
		workerOptions: worker.NewOptions(),

		backendUrl:     "http://localhost:5000/api",
		backendOptions: backendclient.NewOptions(),

		hotelBranch: hq.DefaultBranch,

		metricsBindAddress: "127.0.0.1:9464",
	}

	conf := newConf()

	conf.addString(optEngineUrl, "URL of the engine REST API, e.g. http://localhost:8080/engine-rest", &wc.engineUrl, false).required = true
	conf.addDuration(optEngineTimeout, "time limit for requests to the engine, must exceed the async response timeout", &wc.engineOptions.Timeout)

	o := &wc.workerOptions
	conf.addString(optWorkerId, "ID of the worker, used to fetch and lock tasks", &o.WorkerId, false)
	conf.addString(optMode, "either poll or subscribe", &o.Mode, false)
	conf.addDuration(optPollInterval, "interval between fetch and locks in poll mode", &o.PollInterval)
	conf.addInt(optMaxTasks, "maximum number of tasks to fetch and lock at once per topic", &o.MaxTasks)
	conf.addDuration(optLockDuration, "duration of a task lock", &o.LockDuration)
	conf.addDuration(optAsyncResponseTimeout, "long polling timeout in subscribe mode", &o.AsyncResponseTimeout)
	conf.addDuration(optHandlerTimeout, "maximum duration of a handler call", &o.HandlerTimeout)
	conf.addDuration(optReportTimeout, "maximum duration of reporting an outcome", &o.ReportTimeout)
	conf.addInt(optConcurrency, "maximum number of concurrently handled tasks per topic", &o.Concurrency)
	conf.addInt(optRetryLimit, "retries of a failed task, which has no retries set", &o.RetryLimit)
	conf.addDuration(optRetryTimeout, "timeout before a failed task can be fetched again", &o.RetryTimeout)
	conf.addStrings(optTopics, "comma-separated list of topics to handle - all if empty", &o.Topics)
	conf.addBool(optInfrastructureErrorsAsBpmnErrors, "report infrastructure errors as BPMN errors instead of failures", &o.InfrastructureErrorsAsBpmnErrors)

	conf.addString(optBackendUrl, "URL of the backend services REST API", &wc.backendUrl, false)
	conf.addDuration(optBackendTimeout, "time limit for requests to the backend services", &wc.backendOptions.Timeout)

	conf.addString(optHqUrl, "URL of the head office ESB - HQ synchronization is disabled if neither ESB nor NATS URL is set", &wc.hqUrl, true)
	conf.addString(optHqNatsUrl, "URL of the NATS server, used for HQ synchronization instead of the ESB", &wc.hqNatsUrl, true)
	conf.addString(optHqBranch, "branch, the hotel is identified by at the head office", &wc.hotelBranch, false)

	conf.addString(optMetricsBindAddress, "TCP address of the metrics endpoint to listen on - disabled if empty", &wc.metricsBindAddress, true)

	return conf, &wc
}

// workerDaemon is a running worker, including its engine and backend clients, HQ syncer and metrics server.
type workerDaemon struct {
	engineClient  *client.Client
	backendClient *backendclient.Client
	syncer        hq.Syncer
	worker        *worker.Worker
	metricsServer *server.Server
	logger        zerolog.Logger
}

func startWorker(wc workerConf, logger zerolog.Logger) (*workerDaemon, error) {
	if wc.workerOptions.Mode == worker.ModeSubscribe && wc.engineOptions.Timeout <= wc.workerOptions.AsyncResponseTimeout {
		return nil, errors.New("engine timeout must exceed async response timeout")
	}
	if wc.backendOptions.Timeout >= wc.workerOptions.HandlerTimeout {
		return nil, errors.New("backend timeout must be less than handler timeout")
	}

	engineClient, err := client.New(wc.engineUrl, func(o *client.Options) {
		*o = wc.engineOptions
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine client: %v", err)
	}

	backendClient, err := backendclient.New(wc.backendUrl, func(o *backendclient.Options) {
		*o = wc.backendOptions
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %v", err)
	}

	syncer, push, err := newSyncer(wc, logger)
	if err != nil {
		return nil, err
	}

	r := worker.NewRegistry()
	if err := hotel.Register(r, backendClient, func(o *hotel.Options) {
		o.Branch = wc.hotelBranch
		o.HQ = syncer
		o.HQPush = push
		o.Logger = logger
	}); err != nil {
		push.Close()
		return nil, fmt.Errorf("failed to register handlers: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	w, err := worker.New(engineClient, r, func(o *worker.Options) {
		*o = wc.workerOptions
		o.Logger = logger
		o.Registerer = registry
	})
	if err != nil {
		push.Close()
		return nil, fmt.Errorf("failed to create worker: %v", err)
	}

	wd := workerDaemon{
		engineClient:  engineClient,
		backendClient: backendClient,
		syncer:        push,
		worker:        w,
		logger:        logger,
	}

	if wc.metricsBindAddress != "" {
		metricsServer, err := server.New(func(o *server.Options) {
			o.BindAddress = wc.metricsBindAddress
			o.Gatherer = registry
			o.Logger = logger
		})
		if err != nil {
			push.Close()
			return nil, fmt.Errorf("failed to create metrics server: %v", err)
		}

		metricsServer.ListenAndServe()
		wd.metricsServer = metricsServer
	}

	if err := w.Start(); err != nil {
		wd.shutdown()
		return nil, err
	}

	logger.Info().Str("version", version).Str("engine_url", wc.engineUrl).Msg("worker started")
	return &wd, nil
}

// newSyncer creates the HQ syncer, used to synchronize guest profiles, and the syncer, used to push
// transactions. Pushes are performed in the background.
func newSyncer(wc workerConf, logger zerolog.Logger) (hq.Syncer, hq.Syncer, error) {
	var (
		syncer hq.Syncer
		err    error
	)

	switch {
	case wc.hqNatsUrl != "":
		syncer, err = hq.NewNATS(wc.hqNatsUrl, func(o *hq.NATSOptions) {
			o.Name = wc.workerOptions.WorkerId
		})
	case wc.hqUrl != "":
		syncer, err = hq.NewHTTP(wc.hqUrl)
	default:
		return hq.Nop{}, hq.Nop{}, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HQ syncer: %v", err)
	}

	async, err := hq.NewAsync(syncer, func(o *hq.AsyncOptions) {
		o.Logger = logger
	})
	if err != nil {
		syncer.Close()
		return nil, nil, fmt.Errorf("failed to create async HQ syncer: %v", err)
	}

	return syncer, async, nil
}

// shutdown stops the worker, waits for in-flight tasks and releases all resources.
func (wd *workerDaemon) shutdown() {
	wd.worker.Stop()

	if wd.metricsServer != nil {
		wd.metricsServer.Shutdown()
	}

	// closes the wrapped syncer as well
	if err := wd.syncer.Close(); err != nil {
		wd.logger.Error().Err(err).Msg("failed to close HQ syncer")
	}

	wd.backendClient.Shutdown()
	wd.engineClient.Shutdown()
}
