package hq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects, the head office subscribes to.
const (
	SubjectFinanceTransaction = "hq.finance.transaction"
	SubjectSyncGuestProfile   = "hq.sync.guest-profile"
)

// NewNATS creates a syncer, which publishes JSON messages to the head office via NATS.
func NewNATS(url string, customizers ...func(*NATSOptions)) (*NATSSyncer, error) {
	if url == "" {
		return nil, errors.New("NATS URL is empty")
	}

	options := NewNATSOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	conn, err := nats.Connect(url,
		nats.Name(options.Name),
		nats.MaxReconnects(options.MaxReconnects),
		nats.ReconnectWait(options.ReconnectWait),
		nats.Timeout(options.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %v", err)
	}

	return &NATSSyncer{conn: conn, options: options}, nil
}

func NewNATSOptions() NATSOptions {
	return NATSOptions{
		Name:          "bey-worker",
		MaxReconnects: 5,
		ReconnectWait: time.Second,
		Timeout:       5 * time.Second,
	}
}

type NATSOptions struct {
	Name          string        // Connection name, shown by the NATS server.
	MaxReconnects int           // Maximum number of reconnect attempts.
	ReconnectWait time.Duration // Time to wait between reconnect attempts.
	Timeout       time.Duration // Time limit for connecting and for flushing a published message.
}

func (o NATSOptions) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	return nil
}

// NATSSyncer publishes to the subjects [SubjectFinanceTransaction] and [SubjectSyncGuestProfile].
// A publish is considered successful, when the server acknowledged the flush.
type NATSSyncer struct {
	conn    *nats.Conn
	options NATSOptions
}

func (s *NATSSyncer) PushTransaction(ctx context.Context, transaction Transaction) error {
	return s.publish(ctx, "push transaction", SubjectFinanceTransaction, transaction)
}

func (s *NATSSyncer) SyncGuestProfile(ctx context.Context, profile GuestProfile) error {
	return s.publish(ctx, "sync guest profile", SubjectSyncGuestProfile, profile)
}

func (s *NATSSyncer) Close() error {
	return s.conn.Drain()
}

func (s *NATSSyncer) publish(ctx context.Context, operation string, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %v", err)
	}

	if err := s.conn.Publish(subject, data); err != nil {
		return SyncError{Operation: operation, Cause: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, s.options.Timeout)
	defer cancel()

	if err := s.conn.FlushWithContext(ctx); err != nil {
		return SyncError{Operation: operation, Cause: err.Error()}
	}
	return nil
}
