/*
Package backend provides the mock hotel backend services: rooms, clients (incl. complaints), booking, payment, accounting and restaurant.

All services share a [Services] instance, which persists entities as JSON documents via an injected [Store]. Besides the in-memory store, PostgreSQL (package backend/pg) and Redis (package backend/redis) stores exist. Rendered accounting documents are kept in a [DocumentStore] (package backend/document).

Create services:

	services, err := backend.NewServices(backend.NewMemStore(), documents)
	if err != nil {
		log.Fatalf("failed to create services: %v", err)
	}

	if err := services.Seed(context.Background(), backend.DefaultSeed()); err != nil {
		log.Fatalf("failed to seed services: %v", err)
	}

Service operations return a [backend.Error] for expected failures, like an unknown entity or a room, which is not available.
*/
package backend
