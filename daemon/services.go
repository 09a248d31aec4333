package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/backend/document"
	"github.com/hotelbey/bey/backend/pg"
	"github.com/hotelbey/bey/backend/redis"
	"github.com/hotelbey/bey/http/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	optStore       = "STORE"
	optDatabaseUrl = "DATABASE_URL"
	optRedisUrl    = "REDIS_URL"
	optSeedFile    = "SEED_FILE"

	optDocumentStore     = "DOCUMENT_STORE"
	optDocumentDir       = "DOCUMENT_DIR"
	optDocumentPublicUrl = "DOCUMENT_PUBLIC_URL"
	optS3AccessKey       = "S3_ACCESS_KEY"
	optS3Bucket          = "S3_BUCKET"
	optS3Endpoint        = "S3_ENDPOINT"
	optS3Region          = "S3_REGION"
	optS3SecretKey       = "S3_SECRET_KEY"
)

const (
	storeMem   = "mem"
	storePg    = "pg"
	storeRedis = "redis"
)

func RunServices(args []string) int {
	conf, sc := newServicesConf()
	conf.setDefaults()

	if code, exit := parseFlags("bey-servicesd", conf, args); exit {
		return code
	}

	conf.apply()

	if code := listConfErrors(conf); code != 0 {
		return code
	}

	logger := newLogger(conf.logLevel)

	sd, err := startServices(context.Background(), *sc, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start services")
		return 1
	}

	waitForSignal()

	sd.shutdown()
	return 0
}

// servicesConf is the configuration of a services daemon.
type servicesConf struct {
	store       string
	databaseUrl string
	redisUrl    string
	seedFile    string // If empty, the default seed is used.

	documentOptions document.Options
	serverOptions   server.Options
}

func newServicesConf() (*conf, *servicesConf) {
	serverOptions := server.NewOptions()
	serverOptions.BindAddress = "127.0.0.1:5000"

	sc := servicesConf{
		store: storeMem,

		documentOptions: document.Options{
			Type:           document.TypeLocal,
			Dir:            "documents",
			S3Region:       "us-east-1",
			PresignExpires: time.Hour,
		},
		serverOptions: serverOptions,
	}

	conf := newConf()

	conf.addOption(
		optStore,
		"store of the services: mem, pg or redis",
		func() string {
			return sc.store
		},
		func(value string) error {
			switch value {
			case storeMem, storePg, storeRedis:
				sc.store = value
				return nil
			default:
				return errors.New("must be one of mem, pg or redis")
			}
		},
	)
	conf.addString(optDatabaseUrl, "format: postgres://<username>:<password>@<host>:<port>/<database>?search_path=<schema> - required for store pg", &sc.databaseUrl, true)
	conf.addString(optRedisUrl, "format: redis://<username>:<password>@<host>:<port>/<db> - required for store redis", &sc.redisUrl, true)
	conf.addString(optSeedFile, "YAML file with rooms, menu items and tables - built-in seed if empty", &sc.seedFile, true)

	conf.addOption(
		optDocumentStore,
		"store of accounting documents: local or s3",
		func() string {
			return sc.documentOptions.Type
		},
		func(value string) error {
			switch value {
			case document.TypeLocal, document.TypeS3:
				sc.documentOptions.Type = value
				return nil
			default:
				return errors.New("must be one of local or s3")
			}
		},
	)

	o := &sc.documentOptions
	conf.addString(optDocumentDir, "directory of accounting documents - used for document store local", &o.Dir, true)
	conf.addString(optDocumentPublicUrl, "base URL of downloadable documents - derived from the bind address if empty", &o.PublicURL, true)
	conf.addString(optS3AccessKey, "access key of the S3 bucket", &o.S3AccessKey, true)
	conf.addString(optS3Bucket, "S3 bucket of accounting documents - required for document store s3", &o.S3Bucket, true)
	conf.addString(optS3Endpoint, "endpoint of a S3 compatible storage", &o.S3Endpoint, true)
	conf.addString(optS3Region, "region of the S3 bucket", &o.S3Region, true)
	conf.addString(optS3SecretKey, "secret key of the S3 bucket", &o.S3SecretKey, true)

	so := &sc.serverOptions
	conf.addString(optHttpBindAddress, "TCP address of the services HTTP API to listen on", &so.BindAddress, false)
	conf.addDuration(optHttpReadTimeout, "maximum duration for reading the entire request - see http.Server#ReadTimeout", &so.ReadTimeout)
	conf.addDuration(optHttpWriteTimeout, "maximum duration before timing out writing the response - see http.Server#WriteTimeout", &so.WriteTimeout)

	return conf, &sc
}

// servicesDaemon serves the backend services via HTTP.
type servicesDaemon struct {
	services *backend.Services
	server   *server.Server
	logger   zerolog.Logger
}

func startServices(ctx context.Context, sc servicesConf, logger zerolog.Logger) (*servicesDaemon, error) {
	store, err := newStore(sc)
	if err != nil {
		return nil, err
	}

	documentOptions := sc.documentOptions
	if documentOptions.Type == document.TypeLocal && documentOptions.PublicURL == "" {
		documentOptions.PublicURL = fmt.Sprintf("http://%s%s/documents", sc.serverOptions.BindAddress, strings.TrimSuffix(sc.serverOptions.ApiBasePath, "/"))
	}

	documents, err := document.New(ctx, documentOptions)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create document store: %v", err)
	}

	seed := backend.DefaultSeed()
	if sc.seedFile != "" {
		seed, err = backend.LoadSeed(sc.seedFile)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	services, err := backend.NewServices(store, documents, func(o *backend.Options) {
		o.Logger = logger
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	if err := services.Seed(ctx, seed); err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to seed services: %v", err)
	}

	registry := prometheus.NewRegistry()

	s, err := server.New(func(o *server.Options) {
		*o = sc.serverOptions
		o.Services = services
		o.Gatherer = registry
		o.Registerer = registry
		o.Logger = logger
	})
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to create HTTP server: %v", err)
	}

	s.ListenAndServe()

	logger.Info().Str("version", version).Str("store", sc.store).Str("document_store", documentOptions.Type).Msg("services started")
	return &servicesDaemon{services: services, server: s, logger: logger}, nil
}

func newStore(sc servicesConf) (backend.Store, error) {
	switch sc.store {
	case storePg:
		if sc.databaseUrl == "" {
			return nil, errors.New("database URL is empty")
		}
		store, err := pg.New(sc.databaseUrl, func(o *pg.Options) {
			o.ApplicationName = "bey-servicesd"
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create pg store: %v", err)
		}
		return store, nil
	case storeRedis:
		if sc.redisUrl == "" {
			return nil, errors.New("redis URL is empty")
		}
		store, err := redis.New(sc.redisUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %v", err)
		}
		return store, nil
	default:
		return backend.NewMemStore(), nil
	}
}

func (sd *servicesDaemon) shutdown() {
	sd.server.Shutdown()

	if err := sd.services.Close(); err != nil {
		sd.logger.Error().Err(err).Msg("failed to close store")
	}
}
