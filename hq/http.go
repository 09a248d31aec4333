package hq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Paths of the ESB, which forwards data to the head office.
const (
	PathFinanceTransaction = "/api/v1/finance/transaction"
	PathSyncGuestProfile   = "/api/v1/sync/guest-profile"
)

// NewHTTP creates a syncer, which posts JSON to the ESB of the head office, for example "http://localhost:8280".
func NewHTTP(url string, customizers ...func(*HTTPOptions)) (*HTTPSyncer, error) {
	if url == "" {
		return nil, errors.New("ESB URL is empty")
	}

	options := NewHTTPOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	httpClient := http.Client{}

	if options.Configure != nil {
		options.Configure(&httpClient)
	}

	return &HTTPSyncer{
		httpClient: &httpClient,
		url:        strings.TrimSuffix(url, "/"),
		options:    options,
	}, nil
}

func NewHTTPOptions() HTTPOptions {
	return HTTPOptions{
		TransactionTimeout:  5 * time.Second,
		GuestProfileTimeout: 10 * time.Second,
	}
}

type HTTPOptions struct {
	TransactionTimeout  time.Duration // Time limit for pushing a transaction.
	GuestProfileTimeout time.Duration // Time limit for synchronizing a guest profile.

	Configure func(*http.Client) // Optional function, used to configure the underlying HTTP client.
}

func (o HTTPOptions) Validate() error {
	if o.TransactionTimeout <= 0 || o.GuestProfileTimeout <= 0 {
		return errors.New("timeouts must be greater than 0")
	}
	return nil
}

type HTTPSyncer struct {
	httpClient *http.Client
	url        string
	options    HTTPOptions
}

func (s *HTTPSyncer) PushTransaction(ctx context.Context, transaction Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, s.options.TransactionTimeout)
	defer cancel()

	return s.doPost(ctx, "push transaction", PathFinanceTransaction, transaction)
}

func (s *HTTPSyncer) SyncGuestProfile(ctx context.Context, profile GuestProfile) error {
	ctx, cancel := context.WithTimeout(ctx, s.options.GuestProfileTimeout)
	defer cancel()

	return s.doPost(ctx, "sync guest profile", PathSyncGuestProfile, profile)
}

func (s *HTTPSyncer) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *HTTPSyncer) doPost(ctx context.Context, operation string, path string, reqBody any) error {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to create JSON request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to create POST request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return SyncError{Operation: operation, Cause: err.Error()}
	}

	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))

		cause := fmt.Sprintf("POST %s: HTTP %d", path, res.StatusCode)
		if len(body) != 0 {
			cause = cause + ": " + strings.TrimSpace(string(body))
		}
		return SyncError{Operation: operation, Cause: cause}
	}

	return nil
}
