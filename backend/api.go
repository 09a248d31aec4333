package backend

// Request and response bodies of the backend services REST API.

type AssignRoomReq struct {
	ClientId string `json:"client_id" validate:"required"`
	RoomId   string `json:"room_id" validate:"required"`
}

type BlockRoomReq struct {
	BookingId string `json:"booking_id"`
}

type ClientData struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type CreateBookingReq struct {
	ClientId    string  `json:"client_id" validate:"required"`
	RoomId      string  `json:"room_id" validate:"required"`
	CheckIn     string  `json:"check_in" validate:"required"`
	CheckOut    string  `json:"check_out" validate:"required"`
	Guests      int     `json:"guests,omitempty" validate:"gte=0"`
	TotalAmount float64 `json:"total_amount,omitempty" validate:"gte=0"`
}

type CreateBookingRes struct {
	BookingId string `json:"booking_id"`
	Status    string `json:"status"`
}

type CreateClientReq struct {
	FirstName   string         `json:"first_name" validate:"required"`
	LastName    string         `json:"last_name" validate:"required"`
	Email       string         `json:"email" validate:"required"`
	Phone       string         `json:"phone,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

type CreateClientRes struct {
	ClientId string `json:"client_id"`
	Status   string `json:"status"`
}

type CreateCompensationReq struct {
	ClientId    string  `json:"client_id" validate:"required"`
	ComplaintId string  `json:"complaint_id,omitempty"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Reason      string  `json:"reason,omitempty"`
}

type CreateCompensationRes struct {
	CompensationId string `json:"compensation_id"`
	Status         string `json:"status"`
}

type CreateInvoiceReq struct {
	BookingId string  `json:"booking_id" validate:"required"`
	PaymentId string  `json:"payment_id,omitempty"`
	Amount    float64 `json:"amount,omitempty" validate:"gte=0"`
}

type CreateInvoiceRes struct {
	InvoiceId string `json:"invoice_id"`
	Status    string `json:"status"`
}

type CreateOrderReq struct {
	BookingId  string   `json:"booking_id,omitempty"`
	RoomNumber string   `json:"room_number,omitempty"`
	Items      []string `json:"items" validate:"required,min=1,max=100"`
	OrderType  string   `json:"order_type,omitempty" validate:"omitempty,oneof=room_service restaurant"`
}

type CreateOrderRes struct {
	OrderId string `json:"order_id"`
	Status  string `json:"status"`
}

type GenerateConfirmationReq struct {
	BookingId   string     `json:"booking_id" validate:"required"`
	ClientData  ClientData `json:"client_data"`
	TotalAmount float64    `json:"total_amount,omitempty" validate:"gte=0"`
}

type GenerateConfirmationRes struct {
	DocumentId  string `json:"document_id"`
	Status      string `json:"status"`
	DownloadURL string `json:"download_url"`
}

type LogComplaintReq struct {
	ClientId    string `json:"client_id" validate:"required"`
	BookingId   string `json:"booking_id,omitempty"`
	RoomId      string `json:"room_id,omitempty"`
	Description string `json:"description" validate:"required"`
	Status      string `json:"status,omitempty"`
}

type LogComplaintRes struct {
	ComplaintId string `json:"complaint_id"`
	Status      string `json:"status"`
}

type LoyaltyRes struct {
	LoyaltyPoints int `json:"loyalty_points"`
}

type ProcessPaymentReq struct {
	BookingId     string  `json:"booking_id" validate:"required"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method,omitempty"`
}

type ProcessPaymentRes struct {
	TransactionId string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

type SetRoomStatusReq struct {
	Status string `json:"status" validate:"required,oneof=available blocked maintenance occupied"`
	Reason string `json:"reason,omitempty"`
}

// StatusRes is the response of an operation, which changes the status of an entity.
type StatusRes struct {
	Status string `json:"status"`
	RoomId string `json:"room_id,omitempty"`
}

type UpdateLoyaltyReq struct {
	Points int `json:"points"`
}

type UpdateOrderStatusReq struct {
	Status string `json:"status" validate:"required"`
}
