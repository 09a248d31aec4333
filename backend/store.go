package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

const (
	CollectionBookings     = "bookings"
	CollectionClients      = "clients"
	CollectionComplaints   = "complaints"
	CollectionDocuments    = "documents"
	CollectionMenu         = "menu"
	CollectionOrders       = "orders"
	CollectionRooms        = "rooms"
	CollectionTables       = "tables"
	CollectionTransactions = "transactions"
)

// Store persists entities as JSON documents, grouped in collections.
type Store interface {
	// Get returns the document of an entity or [ErrNotFound].
	Get(ctx context.Context, collection string, id string) ([]byte, error)

	// List returns all documents of a collection, ordered by entity ID.
	List(ctx context.Context, collection string) ([][]byte, error)

	// Put inserts or replaces the document of an entity.
	Put(ctx context.Context, collection string, id string, data []byte) error

	Close() error
}

// NewMemStore creates a [Store], which keeps all documents in memory.
func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string]map[string][]byte)}
}

type MemStore struct {
	mutex       sync.RWMutex
	collections map[string]map[string][]byte
}

func (s *MemStore) Get(_ context.Context, collection string, id string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (s *MemStore) List(_ context.Context, collection string) ([][]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	documents := s.collections[collection]

	ids := make([]string, 0, len(documents))
	for id := range documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([][]byte, len(ids))
	for i, id := range ids {
		results[i] = documents[id]
	}
	return results, nil
}

func (s *MemStore) Put(_ context.Context, collection string, id string, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	documents, ok := s.collections[collection]
	if !ok {
		documents = make(map[string][]byte)
		s.collections[collection] = documents
	}

	documents[id] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) Close() error {
	return nil
}

func getEntity[T any](ctx context.Context, store Store, collection string, id string) (T, error) {
	var entity T

	data, err := store.Get(ctx, collection, id)
	if err != nil {
		return entity, err
	}
	if err := json.Unmarshal(data, &entity); err != nil {
		return entity, fmt.Errorf("failed to unmarshal %s %s: %v", collection, id, err)
	}
	return entity, nil
}

func listEntities[T any](ctx context.Context, store Store, collection string, filter func(T) bool) ([]T, error) {
	documents, err := store.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	entities := make([]T, 0, len(documents))
	for _, data := range documents {
		var entity T
		if err := json.Unmarshal(data, &entity); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %v", collection, err)
		}
		if filter == nil || filter(entity) {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}

func putEntity(ctx context.Context, store Store, collection string, id string, entity any) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %v", collection, id, err)
	}
	return store.Put(ctx, collection, id, data)
}
