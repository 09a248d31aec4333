package backend

import "context"

func (s *Services) CancelBooking(ctx context.Context, id string) (StatusRes, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	booking, err := get[Booking](ctx, s.store, CollectionBookings, id, "booking")
	if err != nil {
		return StatusRes{}, err
	}

	booking.Status = BookingCancelled

	if err := putEntity(ctx, s.store, CollectionBookings, booking.Id, booking); err != nil {
		return StatusRes{}, err
	}
	return StatusRes{Status: BookingCancelled}, nil
}

func (s *Services) ClientBookings(ctx context.Context, clientId string) ([]Booking, error) {
	return listEntities(ctx, s.store, CollectionBookings, func(booking Booking) bool {
		return booking.ClientId == clientId
	})
}

func (s *Services) CreateBooking(ctx context.Context, req CreateBookingReq) (CreateBookingRes, error) {
	guests := req.Guests
	if guests == 0 {
		guests = 1
	}

	booking := Booking{
		Id:          newId(),
		ClientId:    req.ClientId,
		RoomId:      req.RoomId,
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		Guests:      guests,
		Status:      BookingConfirmed,
		TotalAmount: req.TotalAmount,
		CreatedAt:   s.time(),
	}

	if err := putEntity(ctx, s.store, CollectionBookings, booking.Id, booking); err != nil {
		return CreateBookingRes{}, err
	}
	return CreateBookingRes{BookingId: booking.Id, Status: "success"}, nil
}

func (s *Services) GetBooking(ctx context.Context, id string) (Booking, error) {
	return get[Booking](ctx, s.store, CollectionBookings, id, "booking")
}

func (s *Services) PaymentHistory(ctx context.Context, bookingId string) ([]Transaction, error) {
	return listEntities(ctx, s.store, CollectionTransactions, func(transaction Transaction) bool {
		return transaction.BookingId == bookingId
	})
}

func (s *Services) ProcessPayment(ctx context.Context, req ProcessPaymentReq) (ProcessPaymentRes, error) {
	if req.Amount <= 0 {
		return ProcessPaymentRes{}, Error{
			Type:   ErrorValidation,
			Title:  "failed to process payment",
			Detail: "Invalid amount",
		}
	}

	method := req.PaymentMethod
	if method == "" {
		method = "credit_card"
	}

	transaction := Transaction{
		Id:        newId(),
		BookingId: req.BookingId,
		Amount:    req.Amount,
		Status:    "completed",
		Method:    method,
		Timestamp: s.time(),
	}

	if err := putEntity(ctx, s.store, CollectionTransactions, transaction.Id, transaction); err != nil {
		return ProcessPaymentRes{}, err
	}

	s.logger.Info().Str("booking_id", req.BookingId).Float64("amount", req.Amount).Msg("payment processed")
	return ProcessPaymentRes{
		TransactionId: transaction.Id,
		Status:        "success",
		Message:       "Payment processed successfully",
	}, nil
}
