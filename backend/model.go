package backend

import "time"

const (
	RoomAvailable   = "available"
	RoomBlocked     = "blocked"
	RoomMaintenance = "maintenance"
	RoomOccupied    = "occupied"

	BookingCancelled = "cancelled"
	BookingConfirmed = "confirmed"

	ComplaintClosed   = "closed"
	ComplaintReceived = "received"

	DocumentBookingConfirmation = "booking_confirmation"
	DocumentCompensation        = "compensation"
	DocumentInvoice             = "invoice"

	OrderPending = "pending"

	TableAvailable = "available"
)

type Room struct {
	Id       string   `json:"id" yaml:"id"`
	Type     string   `json:"type" yaml:"type"`
	Price    float64  `json:"price" yaml:"price"`
	Status   string   `json:"status" yaml:"status"`
	Features []string `json:"features,omitempty" yaml:"features"`

	AssignedTo   string `json:"assigned_to,omitempty" yaml:"-"`   // ID of the client, the room is assigned to.
	BlockedBy    string `json:"blocked_by,omitempty" yaml:"-"`    // ID of the booking, the room is blocked for.
	StatusReason string `json:"status_reason,omitempty" yaml:"-"` // Reason of the last status change.
}

type Client struct {
	Id            string         `json:"id"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone,omitempty"`
	LoyaltyPoints int            `json:"loyalty_points"`
	Preferences   map[string]any `json:"preferences,omitempty"`
}

type Complaint struct {
	Id          string     `json:"id"`
	ClientId    string     `json:"client_id"`
	BookingId   string     `json:"booking_id,omitempty"`
	RoomId      string     `json:"room_id,omitempty"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

type Booking struct {
	Id          string    `json:"id"`
	ClientId    string    `json:"client_id"`
	RoomId      string    `json:"room_id"`
	CheckIn     string    `json:"check_in"`
	CheckOut    string    `json:"check_out"`
	Guests      int       `json:"guests"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type Transaction struct {
	Id        string    `json:"id"`
	BookingId string    `json:"booking_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
}

// Document is an accounting document like an invoice or a booking confirmation.
type Document struct {
	Id          string    `json:"id"`
	Type        string    `json:"type"`
	BookingId   string    `json:"booking_id,omitempty"`
	PaymentId   string    `json:"payment_id,omitempty"`
	ClientId    string    `json:"client_id,omitempty"`
	ClientName  string    `json:"client_name,omitempty"`
	ComplaintId string    `json:"complaint_id,omitempty"`
	Amount      float64   `json:"amount"`
	Reason      string    `json:"reason,omitempty"`
	Status      string    `json:"status"`
	DownloadURL string    `json:"download_url,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type MenuItem struct {
	Id       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Price    float64 `json:"price" yaml:"price"`
	Category string  `json:"category" yaml:"category"`
}

type Order struct {
	Id          string    `json:"id"`
	BookingId   string    `json:"booking_id,omitempty"`
	RoomNumber  string    `json:"room_number,omitempty"`
	Items       []string  `json:"items"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	OrderType   string    `json:"order_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type Table struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}
