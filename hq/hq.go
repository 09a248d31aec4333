package hq

import (
	"context"
	"fmt"
)

// DefaultBranch identifies the hotel at the head office.
const DefaultBranch = "SOUSSE"

// Transaction is a finance transaction, pushed to the head office after an invoice has been created.
type Transaction struct {
	BookingId string  `json:"booking_id"`
	InvoiceId string  `json:"invoice_id"`
	PaymentId string  `json:"payment_id,omitempty"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"` // Date of the transaction, formatted as "2006-01-02".
}

// GuestProfile references a client and one of its bookings, which are synchronized to the head office.
type GuestProfile struct {
	ClientId  string `json:"client_id"`
	BookingId string `json:"booking_id"`
	Branch    string `json:"branch"`
}

// A Syncer synchronizes data with the head office.
//
// Synchronization is best effort: callers decide whether a failure matters, a task never fails
// because the head office is unreachable.
type Syncer interface {
	PushTransaction(context.Context, Transaction) error
	SyncGuestProfile(context.Context, GuestProfile) error

	Close() error
}

// SyncError is returned, when the head office rejected or did not acknowledge a synchronization.
type SyncError struct {
	Operation string
	Cause     string
}

func (e SyncError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Operation, e.Cause)
}

// Nop is a [Syncer], which discards all data. It is used, when no head office is configured.
type Nop struct{}

func (Nop) PushTransaction(context.Context, Transaction) error {
	return nil
}

func (Nop) SyncGuestProfile(context.Context, GuestProfile) error {
	return nil
}

func (Nop) Close() error {
	return nil
}
