package daemon

import (
	"github.com/hotelbey/bey/engine"
	"github.com/hotelbey/bey/engine/mem"
	"github.com/hotelbey/bey/http/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// RunMem runs an in-memory engine, which is accessible via the external task REST API. It is used
// to run workers locally, without a Camunda engine.
func RunMem(args []string) int {
	conf, serverOptions := newMemConf()
	conf.setDefaults()

	if code, exit := parseFlags("bey-memd", conf, args); exit {
		return code
	}

	conf.apply()

	if code := listConfErrors(conf); code != 0 {
		return code
	}

	logger := newLogger(conf.logLevel)

	md, err := startMem(*serverOptions, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start mem engine")
		return 1
	}

	waitForSignal()

	md.shutdown()
	return 0
}

func newMemConf() (*conf, *server.Options) {
	serverOptions := server.NewOptions()

	conf := newConf()

	o := &serverOptions
	conf.addString(optHttpBindAddress, "TCP address of the engine's HTTP API to listen on", &o.BindAddress, false)
	conf.addDuration(optHttpReadTimeout, "maximum duration for reading the entire request - see http.Server#ReadTimeout", &o.ReadTimeout)
	conf.addDuration(optHttpWriteTimeout, "maximum duration before timing out writing the response - see http.Server#WriteTimeout", &o.WriteTimeout)

	return conf, &serverOptions
}

type memDaemon struct {
	e      *mem.Engine
	server *server.Server
	logger zerolog.Logger
}

func startMem(serverOptions server.Options, logger zerolog.Logger) (*memDaemon, error) {
	e, err := mem.New(func(o *mem.Options) {
		o.Logger = logger
		o.OnTaskCreated = func(task engine.Task) {
			logger.Info().Str("task_id", task.Id).Str("topic", task.TopicName).Msg("task created")
		}
	})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()

	s, err := server.New(func(o *server.Options) {
		*o = serverOptions
		o.Engine = e
		o.Gatherer = registry
		o.Registerer = registry
		o.Logger = logger
	})
	if err != nil {
		e.Shutdown()
		return nil, err
	}

	s.ListenAndServe()

	logger.Info().Str("version", version).Msg("mem engine started")
	return &memDaemon{e: e, server: s, logger: logger}, nil
}

func (md *memDaemon) shutdown() {
	md.server.Shutdown()
	md.e.Shutdown()
	md.logger.Info().Msg("engine shut down")
}
