// Package client is used to interact with an engine via the Camunda external task REST API.
/*
client implements the [engine.Engine], [engine.TaskCreator] and [engine.TaskQuery] interfaces.

Create a Client

A client requires the base URL of the engine's REST API - for example
"http://localhost:8080/engine-rest". The same client works against a Camunda 7 engine and the
in-memory engine, served by "bey-memd".

	client, err := client.New("http://localhost:8080/engine-rest")
	if err != nil {
		log.Fatalf("failed to create HTTP client: %v", err)
	}

	defer client.Shutdown()

Long polling

A fetch and lock with an async response timeout keeps the request open until a task is
available. The client extends the request timeout by the async response timeout, so that
[Options].Timeout only limits the time the engine needs to respond.
*/
package client
