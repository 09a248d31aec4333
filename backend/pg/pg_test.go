package pg

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hotelbey/bey/backend"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCreateStore(t *testing.T) *Store {
	if testing.Short() {
		t.Skip()
	}

	databaseUrl := os.Getenv("BEY_TEST_DATABASE_URL")
	if databaseUrl == "" {
		t.Skip("BEY_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseUrl)
	if err != nil {
		t.Fatalf("failed to establish database connection: %v", err)
	}

	defer conn.Close(ctx)

	databaseSchema := fmt.Sprintf("test_pg_%s", strings.Replace(time.Now().Format("20060102150405.000"), ".", "", 1))
	if _, err := conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", databaseSchema)); err != nil {
		t.Fatalf("failed to create database schema: %v", err)
	}

	store, err := New(fmt.Sprintf("%s?search_path=%s", databaseUrl, databaseSchema))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	_, err := New("")
	assert.EqualError(err, "database URL is empty")

	_, err = New("postgres://localhost/test", func(o *Options) {
		o.Timeout = 0
	})
	assert.EqualError(err, "timeout must be greater than 0")
}

func TestStore(t *testing.T) {
	assert := assert.New(t)

	store := mustCreateStore(t)
	ctx := context.Background()

	t.Run("get not existing", func(t *testing.T) {
		_, err := store.Get(ctx, backend.CollectionRooms, "101")
		assert.ErrorIs(err, backend.ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, backend.CollectionRooms, "101", []byte(`{"id":"101","status":"available"}`)))
		require.NoError(t, store.Put(ctx, backend.CollectionRooms, "101", []byte(`{"id":"101","status":"blocked"}`)))

		data, err := store.Get(ctx, backend.CollectionRooms, "101")
		require.NoError(t, err)
		assert.JSONEq(`{"id":"101","status":"blocked"}`, string(data))
	})

	t.Run("list ordered by ID", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, backend.CollectionMenu, "2", []byte(`{"id":"2"}`)))
		require.NoError(t, store.Put(ctx, backend.CollectionMenu, "1", []byte(`{"id":"1"}`)))

		documents, err := store.List(ctx, backend.CollectionMenu)
		require.NoError(t, err)
		require.Len(t, documents, 2)
		assert.JSONEq(`{"id":"1"}`, string(documents[0]))
		assert.JSONEq(`{"id":"2"}`, string(documents[1]))
	})

	t.Run("services", func(t *testing.T) {
		services, err := backend.NewServices(store, nopDocuments{})
		require.NoError(t, err)

		require.NoError(t, services.Seed(ctx, backend.DefaultSeed()))

		rooms, err := services.AvailableRooms(ctx, "", "", "superior")
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal("201", rooms[0].Id)
	})
}

type nopDocuments struct{}

func (nopDocuments) GenerateURL(context.Context, string) (string, error) {
	return "", nil
}

func (nopDocuments) Get(context.Context, string) ([]byte, string, error) {
	return nil, "", backend.ErrNotFound
}

func (nopDocuments) Save(context.Context, string, []byte, string) error {
	return nil
}
