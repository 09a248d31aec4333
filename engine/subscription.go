package engine

import (
	"context"
	"time"
)

const (
	DefaultAsyncResponseTimeout = 20000 // Default time in milliseconds a subscription waits for tasks per fetch.
	DefaultSubscriptionBackoff  = 5 * time.Second
)

// Subscribe subscribes to tasks of a single topic, using long polling.
//
// Tasks are delivered via an unbuffered channel. The next fetch and lock is only performed, when
// all previously fetched tasks have been received. When the context is cancelled, undelivered
// tasks are unlocked and the channel is closed.
func Subscribe(ctx context.Context, e Engine, cmd SubscribeCmd) <-chan Task {
	if cmd.AsyncResponseTimeout < 0 {
		cmd.AsyncResponseTimeout = 0
	}
	if cmd.LockDuration <= 0 {
		cmd.LockDuration = DefaultLockDuration
	}
	if cmd.MaxTasks <= 0 {
		cmd.MaxTasks = DefaultMaxTasks
	}

	fetchAndLockCmd := FetchAndLockCmd{
		AsyncResponseTimeout: cmd.AsyncResponseTimeout,
		MaxTasks:             cmd.MaxTasks,
		Topics: []TopicCmd{{
			LockDuration: cmd.LockDuration,
			TopicName:    cmd.TopicName,
			Variables:    cmd.Variables,
		}},
		WorkerId: cmd.WorkerId,
	}

	tasks := make(chan Task)

	go func() {
		defer close(tasks)

		for ctx.Err() == nil {
			fetched, err := e.FetchAndLock(ctx, fetchAndLockCmd)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if cmd.OnError != nil {
					cmd.OnError(err)
				}
				if !sleep(ctx, DefaultSubscriptionBackoff) {
					return
				}
				continue
			}

			if len(fetched) == 0 && cmd.AsyncResponseTimeout == 0 {
				if !sleep(ctx, DefaultSubscriptionBackoff) {
					return
				}
				continue
			}

			for i := range fetched {
				select {
				case tasks <- fetched[i]:
				case <-ctx.Done():
					unlock(e, fetched[i:])
					return
				}
			}
		}
	}()

	return tasks
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func unlock(e Engine, tasks []Task) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, task := range tasks {
		_ = e.Unlock(ctx, UnlockCmd{Id: task.Id})
	}
}
