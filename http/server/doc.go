// Package server implements the HTTP APIs of the engine and the backend services.
/*
server serves an [engine.Engine] via the Camunda external task REST API (base path "/engine-rest") and the backend services via a JSON REST API (base path "/api"), using the [net/http] package.
Engine errors are written as Camunda error bodies, backend errors as RFC 9457 problems.

Run a Server

A server requires an engine, services or both.

A server is listening on "127.0.0.1:8080".
The TCP bind address as well as various timeouts can be configured by customizing the configuration.

	server, err := server.New(func(o *server.Options) {
		o.Engine = e
		o.Gatherer = prometheus.DefaultGatherer
	})
	if err != nil {
		log.Fatalf("failed to create HTTP server: %v", err)
	}

	server.ListenAndServe()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	server.Shutdown()
*/
package server
