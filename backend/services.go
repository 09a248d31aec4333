package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DocumentStore stores the rendered content of accounting documents.
type DocumentStore interface {
	// GenerateURL returns the URL, under which a document can be downloaded.
	GenerateURL(ctx context.Context, name string) (string, error)

	// Get returns the content and the content type of a document or [ErrNotFound].
	Get(ctx context.Context, name string) ([]byte, string, error)

	Save(ctx context.Context, name string, content []byte, contentType string) error
}

func NewServices(store Store, documents DocumentStore, customizers ...func(*Options)) (*Services, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if documents == nil {
		return nil, errors.New("document store is nil")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	return &Services{
		store:     store,
		documents: documents,
		logger:    options.Logger,
		now:       options.Now,
	}, nil
}

func NewOptions() Options {
	return Options{
		Logger: zerolog.Nop(),
		Now:    time.Now,
	}
}

type Options struct {
	Logger zerolog.Logger
	Now    func() time.Time // Clock, used for timestamps of created entities.
}

// Services implements the rooms, clients, booking, payment, accounting and restaurant services.
// Read-modify-write operations are serialized.
type Services struct {
	store     Store
	documents DocumentStore
	logger    zerolog.Logger
	now       func() time.Time

	mutex sync.Mutex
}

func (s *Services) Close() error {
	return s.store.Close()
}

// Seed puts the rooms, menu items and tables of a seed, which are not stored yet.
func (s *Services) Seed(ctx context.Context, seed Seed) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, room := range seed.Rooms {
		if err := s.putIfAbsent(ctx, CollectionRooms, room.Id, room); err != nil {
			return err
		}
	}
	for _, item := range seed.Menu {
		if err := s.putIfAbsent(ctx, CollectionMenu, item.Id, item); err != nil {
			return err
		}
	}
	for _, id := range seed.Tables {
		if err := s.putIfAbsent(ctx, CollectionTables, id, Table{Id: id, Status: TableAvailable}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Services) putIfAbsent(ctx context.Context, collection string, id string, entity any) error {
	_, err := s.store.Get(ctx, collection, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return putEntity(ctx, s.store, collection, id, entity)
}

func (s *Services) time() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func newId() string {
	return uuid.NewString()
}

// get returns an entity or a not found error, titled with the entity name.
func get[T any](ctx context.Context, store Store, collection string, id string, name string) (T, error) {
	entity, err := getEntity[T](ctx, store, collection, id)
	if errors.Is(err, ErrNotFound) {
		return entity, notFound(fmt.Sprintf("failed to get %s", name), "%s %s not found", name, id)
	}
	return entity, err
}
