package pg

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/hotelbey/bey/backend"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed ddl
var resources embed.FS

func New(databaseUrl string, customizers ...func(*Options)) (*Store, error) {
	if databaseUrl == "" {
		return nil, errors.New("database URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	pgPoolConfig, err := pgxpool.ParseConfig(databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %v", err)
	}

	if _, ok := pgPoolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		pgPoolConfig.ConnConfig.RuntimeParams["application_name"] = options.ApplicationName
	}

	ctx, cancel := context.WithTimeout(context.Background(), options.Timeout)
	defer cancel()

	pgPool, err := pgxpool.NewWithConfig(ctx, pgPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %v", err)
	}

	store := Store{pgPool: pgPool, timeout: options.Timeout}

	if err := store.migrateDatabase(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return &store, nil
}

func NewOptions() Options {
	return Options{
		ApplicationName: "bey",
		Timeout:         30 * time.Second,
	}
}

type Options struct {
	ApplicationName string        // Used as "application_name", if not specified by the database URL.
	Timeout         time.Duration // Time limit for database statements, utilized when no external context is provided.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	return nil
}

// Store is a [backend.Store], which keeps the JSON documents in a PostgreSQL table.
type Store struct {
	pgPool  *pgxpool.Pool
	timeout time.Duration
}

func (s *Store) Get(ctx context.Context, collection string, id string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.pgPool.QueryRow(ctx, "SELECT data FROM document WHERE collection = $1 AND id = $2", collection, id)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return nil, backend.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select %s %s: %v", collection, id, err)
	}

	return data, nil
}

func (s *Store) List(ctx context.Context, collection string) ([][]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pgPool.Query(ctx, "SELECT data FROM document WHERE collection = $1 ORDER BY id", collection)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %v", collection, err)
	}

	defer rows.Close()

	var results [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %v", collection, err)
		}
		results = append(results, data)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to select %s: %v", collection, err)
	}

	return results, nil
}

func (s *Store) Put(ctx context.Context, collection string, id string, data []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pgPool.Exec(ctx, `
INSERT INTO document (
	collection,
	id,
	data,
	updated_at
) VALUES (
	$1,
	$2,
	$3,
	$4
)
ON CONFLICT (collection, id) DO UPDATE SET
	data = EXCLUDED.data,
	updated_at = EXCLUDED.updated_at
`,
		collection,
		id,
		string(data),
		time.Now().UTC().Truncate(time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s %s: %v", collection, id, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pgPool.Close()
	return nil
}

func (s *Store) migrateDatabase(ctx context.Context) error {
	ddl, err := resources.ReadDir("ddl")
	if err != nil {
		return fmt.Errorf("failed to list resources under ddl: %v", err)
	}

	for _, entry := range ddl {
		name := "ddl/" + entry.Name()
		b, err := resources.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read resource %s: %v", name, err)
		}

		if _, err := s.pgPool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("failed to execute %s: %v", name, err)
		}
	}

	return nil
}

// withTimeout applies the store timeout, when the context has no deadline.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
