package hq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// NewAsync wraps a syncer, so that synchronizations are queued and performed in the background.
// Calls of the returned syncer never block and always succeed. When the queue is full, data is dropped.
func NewAsync(syncer Syncer, customizers ...func(*AsyncOptions)) (*Async, error) {
	if syncer == nil {
		return nil, errors.New("syncer is nil")
	}

	options := NewAsyncOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	async := Async{
		syncer:  syncer,
		options: options,
		queue:   make(chan func(context.Context) error, options.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	async.wg.Add(1)
	go async.run()

	return &async, nil
}

func NewAsyncOptions() AsyncOptions {
	return AsyncOptions{
		QueueSize:    100,
		CloseTimeout: 10 * time.Second,

		Logger: zerolog.Nop(),
	}
}

type AsyncOptions struct {
	QueueSize    int           // Maximum number of queued synchronizations.
	CloseTimeout time.Duration // Time limit for performing queued synchronizations on close.

	Logger zerolog.Logger

	// OnError is an optional function, called when a synchronization failed or was dropped.
	OnError func(error)
}

func (o AsyncOptions) Validate() error {
	if o.QueueSize < 1 {
		return errors.New("queue size must be greater than or equal to 1")
	}
	if o.CloseTimeout <= 0 {
		return errors.New("close timeout must be greater than 0")
	}
	return nil
}

type Async struct {
	syncer  Syncer
	options AsyncOptions

	queue  chan func(context.Context) error
	ctx    context.Context
	cancel context.CancelFunc

	mutex  sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	dropped atomic.Int64
}

// Dropped returns the number of synchronizations, which were dropped since the queue was full or the syncer closed.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

func (a *Async) PushTransaction(_ context.Context, transaction Transaction) error {
	a.enqueue("push transaction", func(ctx context.Context) error {
		return a.syncer.PushTransaction(ctx, transaction)
	})
	return nil
}

func (a *Async) SyncGuestProfile(_ context.Context, profile GuestProfile) error {
	a.enqueue("sync guest profile", func(ctx context.Context) error {
		return a.syncer.SyncGuestProfile(ctx, profile)
	})
	return nil
}

// Close stops accepting synchronizations, performs the queued ones and closes the wrapped syncer.
func (a *Async) Close() error {
	a.mutex.Lock()
	if a.closed {
		a.mutex.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(a.options.CloseTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		a.cancel()
		<-done
	}

	a.cancel()
	return a.syncer.Close()
}

func (a *Async) enqueue(operation string, fn func(context.Context) error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	if a.closed {
		a.drop(operation, "syncer is closed")
		return
	}

	select {
	case a.queue <- fn:
	default:
		a.drop(operation, "queue is full")
	}
}

func (a *Async) drop(operation string, cause string) {
	a.dropped.Add(1)

	err := SyncError{Operation: operation, Cause: cause}
	a.options.Logger.Warn().Err(err).Msg("head office synchronization dropped")
	if a.options.OnError != nil {
		a.options.OnError(err)
	}
}

func (a *Async) run() {
	defer a.wg.Done()

	for fn := range a.queue {
		if err := fn(a.ctx); err != nil {
			a.options.Logger.Warn().Err(err).Msg("head office synchronization failed")
			if a.options.OnError != nil {
				a.options.OnError(err)
			}
			continue
		}
		a.options.Logger.Debug().Msg("head office synchronized")
	}
}
