package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hotelbey/bey/backend"
	"github.com/redis/go-redis/v9"
)

func New(url string, customizers ...func(*Options)) (*Store, error) {
	if url == "" {
		return nil, errors.New("Redis URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	redisOptions, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(redisOptions)

	ctx, cancel := context.WithTimeout(context.Background(), options.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &Store{client: client, keyPrefix: options.KeyPrefix}, nil
}

func NewOptions() Options {
	return Options{
		KeyPrefix: "bey:",
		Timeout:   5 * time.Second,
	}
}

type Options struct {
	KeyPrefix string        // Prefix of the hash keys - a hash is used per collection.
	Timeout   time.Duration // Time limit for the initial connection check.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	return nil
}

// Store is a [backend.Store], which keeps the JSON documents of a collection in a Redis hash.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

func (s *Store) Get(ctx context.Context, collection string, id string) ([]byte, error) {
	data, err := s.client.HGet(ctx, s.key(collection), id).Bytes()
	if err == redis.Nil {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %v", collection, id, err)
	}
	return data, nil
}

func (s *Store) List(ctx context.Context, collection string) ([][]byte, error) {
	values, err := s.client.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %v", collection, err)
	}

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([][]byte, len(ids))
	for i, id := range ids {
		results[i] = []byte(values[id])
	}
	return results, nil
}

func (s *Store) Put(ctx context.Context, collection string, id string, data []byte) error {
	if err := s.client.HSet(ctx, s.key(collection), id, data).Err(); err != nil {
		return fmt.Errorf("failed to set %s %s: %v", collection, id, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(collection string) string {
	return s.keyPrefix + collection
}
