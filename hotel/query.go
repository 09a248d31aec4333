package hotel

import (
	"context"
	"strconv"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/backend/client"
	"github.com/hotelbey/bey/worker"
)

// Task types, which query bookings and restaurant orders.
const (
	TaskGetBooking          = "get-booking"
	TaskGetClientBookings   = "get-client-bookings"
	TaskGetRestaurantOrders = "get-restaurant-orders"
)

var (
	schemaGetBooking = worker.Schema{
		worker.Required("booking_id", worker.KindString),
	}
	schemaGetClientBookings = worker.Schema{
		worker.Required("client_id", worker.KindString),
	}
	schemaGetRestaurantOrders = worker.Schema{
		worker.Optional("booking_id", worker.KindString),
		worker.Optional("booking", worker.KindAny),
	}
)

func (h handlers) getBooking(ctx context.Context, values worker.Values) (worker.Result, error) {
	booking, err := h.b.GetBooking(ctx, values.String("booking_id"))
	if client.IsNotFound(err) {
		return worker.Result{"booking": nil, "bookingFound": false}, nil
	}
	if err != nil {
		return nil, infrastructureError(serviceBooking, err)
	}

	return worker.Result{"booking": booking, "bookingFound": true}, nil
}

func (h handlers) getClientBookings(ctx context.Context, values worker.Values) (worker.Result, error) {
	bookings, err := h.b.ClientBookings(ctx, values.String("client_id"))
	if err != nil {
		return nil, infrastructureError(serviceBooking, err)
	}

	if bookings == nil {
		bookings = []backend.Booking{}
	}
	return worker.Result{"bookings": bookings}, nil
}

// getRestaurantOrders returns the orders of a booking, identified by a booking ID or the ID of a
// booking object, as returned by get-booking. Without booking ID, no orders are returned.
func (h handlers) getRestaurantOrders(ctx context.Context, values worker.Values) (worker.Result, error) {
	bookingId := values.String("booking_id")
	if bookingId == "" {
		bookingId = bookingIdOf(values.Any("booking"))
	}
	if bookingId == "" {
		return worker.Result{"orders": []backend.Order{}}, nil
	}

	orders, err := h.b.BookingOrders(ctx, bookingId)
	if client.IsNotFound(err) {
		return worker.Result{"orders": []backend.Order{}}, nil
	}
	if err != nil {
		return nil, infrastructureError(serviceRestaurant, err)
	}

	if orders == nil {
		orders = []backend.Order{}
	}
	return worker.Result{"orders": orders}, nil
}

func bookingIdOf(booking any) string {
	m, ok := booking.(map[string]any)
	if !ok {
		return ""
	}

	switch id := m["id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}
