package hotel

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/backend/client"
	"github.com/hotelbey/bey/hq"
	"github.com/hotelbey/bey/worker"
)

// Task types of the reservation process.
const (
	TaskValidateInput         = "validate-input"
	TaskSearchClient          = "search-client"
	TaskCreateClient          = "create-client"
	TaskCheckRoomAvailability = "check-room-availability"
	TaskCheckReservationType  = "check-reservation-type"
	TaskCheckMealPlan         = "check-meal-plan"
	TaskBlockRoom             = "block-room"
	TaskCreateBooking         = "create-booking"
	TaskProcessPayment        = "process-payment"
	TaskGenerateConfirmation  = "generate-confirmation"
	TaskGenerateAccounting    = "generate-accounting"
	TaskSyncToHQ              = "sync-to-hq"
)

const (
	ReservationComplex  = "complex"
	ReservationStandard = "standard"

	// MealPlanNone is the meal plan of a reservation without meals.
	MealPlanNone = "none"

	dateLayout = "2006-01-02"
)

var (
	schemaValidateInput = worker.Schema{
		worker.Required("first_name", worker.KindString),
		worker.Required("last_name", worker.KindString),
		worker.Required("email", worker.KindString),
		worker.Required("check_in", worker.KindString),
		worker.Required("check_out", worker.KindString),
	}
	schemaSearchClient = worker.Schema{
		worker.Optional("email", worker.KindString),
	}
	schemaCreateClient = worker.Schema{
		worker.Required("first_name", worker.KindString),
		worker.Required("last_name", worker.KindString),
		worker.Required("email", worker.KindString),
		worker.Required("phone", worker.KindString),
	}
	schemaCheckRoomAvailability = worker.Schema{
		worker.Required("check_in", worker.KindString),
		worker.Required("check_out", worker.KindString),
	}
	schemaCheckReservationType = worker.Schema{
		worker.Default("guests", worker.KindInteger, 1),
		worker.Default("room_type", worker.KindString, ReservationStandard),
	}
	schemaCheckMealPlan = worker.Schema{
		worker.Default("meal_plan", worker.KindString, MealPlanNone),
	}
	schemaBlockRoom = worker.Schema{
		worker.Optional("selected_room_id", worker.KindString),
		worker.Optional("booking_id", worker.KindString),
	}
	schemaCreateBooking = worker.Schema{
		worker.Required("client_id", worker.KindString),
		worker.Required("room_id", worker.KindString),
		worker.Required("check_in", worker.KindString),
		worker.Required("check_out", worker.KindString),
		worker.Default("guests", worker.KindInteger, 1),
		worker.Optional("room_price", worker.KindNumber),
		worker.Default("meal_plan_daily_cost", worker.KindNumber, 0),
	}
	schemaProcessPayment = worker.Schema{
		worker.Required("booking_id", worker.KindString),
		worker.Required("total_amount", worker.KindNumber),
		worker.Default("payment_method", worker.KindString, "credit_card"),
	}
	schemaGenerateConfirmation = worker.Schema{
		worker.Required("booking_id", worker.KindString),
		worker.Required("total_amount", worker.KindNumber),
		worker.Required("first_name", worker.KindString),
		worker.Required("last_name", worker.KindString),
		worker.Required("email", worker.KindString),
	}
	schemaGenerateAccounting = worker.Schema{
		worker.Required("booking_id", worker.KindString),
		worker.Default("total_amount", worker.KindNumber, 0),
		worker.Optional("payment_id", worker.KindString),
		worker.Optional("transaction_id", worker.KindString),
	}
	schemaSyncToHQ = worker.Schema{
		worker.Required("client_id", worker.KindString),
		worker.Required("booking_id", worker.KindString),
	}
)

func (h handlers) validateInput(_ context.Context, _ worker.Values) (worker.Result, error) {
	// required fields are validated, before the handler is called
	return worker.Result{"valid": true}, nil
}

func (h handlers) searchClient(ctx context.Context, values worker.Values) (worker.Result, error) {
	email := values.String("email")
	if email == "" {
		return worker.Result{"clientFound": false}, nil
	}

	clients, err := h.b.SearchClients(ctx, email)
	if client.IsNotFound(err) {
		return worker.Result{"clientFound": false}, nil
	}
	if err != nil {
		return nil, infrastructureError(serviceClients, err)
	}

	if len(clients) == 0 {
		return worker.Result{"clientFound": false}, nil
	}

	return worker.Result{
		"clientFound": true,
		"client_id":   clients[0].Id,
	}, nil
}

func (h handlers) createClient(ctx context.Context, values worker.Values) (worker.Result, error) {
	res, err := h.b.CreateClient(ctx, backend.CreateClientReq{
		FirstName: values.String("first_name"),
		LastName:  values.String("last_name"),
		Email:     values.String("email"),
		Phone:     values.String("phone"),
	})
	if err != nil {
		return nil, infrastructureError(serviceClients, err)
	}

	return worker.Result{"client_id": res.ClientId}, nil
}

// checkRoomAvailability selects the first available room, as ordered by the rooms service.
func (h handlers) checkRoomAvailability(ctx context.Context, values worker.Values) (worker.Result, error) {
	rooms, err := h.b.AvailableRooms(ctx, values.String("check_in"), values.String("check_out"), "")
	if err != nil {
		return nil, infrastructureError(serviceRooms, err)
	}

	if len(rooms) == 0 {
		return worker.Result{"roomAvailable": false}, nil
	}

	return worker.Result{
		"roomAvailable":    true,
		"selected_room_id": rooms[0].Id,
		"room_price":       rooms[0].Price,
	}, nil
}

// checkReservationType classifies suites and groups of more than 5 guests as complex reservations,
// which require the approval of a manager.
func (h handlers) checkReservationType(_ context.Context, values worker.Values) (worker.Result, error) {
	reservationType := ReservationStandard
	if values.String("room_type") == "suite" || values.Int("guests") > 5 {
		reservationType = ReservationComplex
	}

	return worker.Result{
		"reservation_type":          reservationType,
		"requires_manager_approval": reservationType == ReservationComplex,
	}, nil
}

// checkMealPlan validates a meal plan against the menu categories of the restaurant. The daily
// cost is the price of the first menu item of the category.
//
// If the restaurant service fails, the meal plan is considered valid at no cost, so that a
// reservation is not blocked by the restaurant.
func (h handlers) checkMealPlan(ctx context.Context, values worker.Values) (worker.Result, error) {
	mealPlan := values.String("meal_plan")
	if mealPlan == MealPlanNone {
		return worker.Result{"meal_plan_valid": true, "meal_plan_daily_cost": 0.0}, nil
	}

	items, err := h.b.Menu(ctx, mealPlan)
	if err != nil {
		h.logger.Warn().Err(err).Str("meal_plan", mealPlan).Msg("failed to check meal plan, falling back to valid meal plan at no cost")
		return worker.Result{"meal_plan_valid": true, "meal_plan_daily_cost": 0.0}, nil
	}

	if len(items) == 0 {
		h.logger.Info().Str("meal_plan", mealPlan).Msg("meal plan not found")
		return worker.Result{"meal_plan_valid": false, "meal_plan_daily_cost": 0.0}, nil
	}

	return worker.Result{"meal_plan_valid": true, "meal_plan_daily_cost": items[0].Price}, nil
}

func (h handlers) blockRoom(ctx context.Context, values worker.Values) (worker.Result, error) {
	roomId := values.String("selected_room_id")
	if roomId == "" {
		return nil, worker.NewBusinessRuleError("no room ID provided")
	}

	bookingId := values.String("booking_id")
	if bookingId == "" {
		bookingId = fmt.Sprintf("temp_%d", h.options.now().Unix())
	}

	if _, err := h.b.BlockRoom(ctx, roomId, backend.BlockRoomReq{BookingId: bookingId}); err != nil {
		return nil, infrastructureError(serviceRooms, err)
	}

	return worker.Result{"room_id": roomId, "room_blocked": true}, nil
}

// createBooking creates a confirmed booking. If a room price is provided, the total amount is
// calculated as (room price + daily meal plan cost) * nights.
func (h handlers) createBooking(ctx context.Context, values worker.Values) (worker.Result, error) {
	checkIn := values.String("check_in")
	checkOut := values.String("check_out")

	var totalAmount float64
	if values.Has("room_price") {
		dailyCost := values.Float("room_price") + values.Float("meal_plan_daily_cost")
		totalAmount = math.Round(dailyCost*float64(nights(checkIn, checkOut))*100) / 100
	}

	res, err := h.b.CreateBooking(ctx, backend.CreateBookingReq{
		ClientId:    values.String("client_id"),
		RoomId:      values.String("room_id"),
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      values.Int("guests"),
		TotalAmount: totalAmount,
	})
	if err != nil {
		return nil, infrastructureError(serviceBooking, err)
	}

	result := worker.Result{
		"booking_id": res.BookingId,
		"status":     backend.BookingConfirmed,
	}
	if values.Has("room_price") {
		result["total_amount"] = totalAmount
	}
	return result, nil
}

func (h handlers) processPayment(ctx context.Context, values worker.Values) (worker.Result, error) {
	amount := values.Float("total_amount")
	if amount <= 0 {
		return nil, worker.NewBusinessRuleError("total amount must be greater than 0, but is %v", amount)
	}

	res, err := h.b.ProcessPayment(ctx, backend.ProcessPaymentReq{
		BookingId:     values.String("booking_id"),
		Amount:        amount,
		PaymentMethod: values.String("payment_method"),
	})
	if err != nil {
		return nil, infrastructureError(servicePayment, err)
	}

	return worker.Result{
		"payment_status": res.Status,
		"transaction_id": res.TransactionId,
	}, nil
}

func (h handlers) generateConfirmation(ctx context.Context, values worker.Values) (worker.Result, error) {
	res, err := h.b.GenerateConfirmation(ctx, backend.GenerateConfirmationReq{
		BookingId: values.String("booking_id"),
		ClientData: backend.ClientData{
			FirstName: values.String("first_name"),
			LastName:  values.String("last_name"),
			Email:     values.String("email"),
		},
		TotalAmount: values.Float("total_amount"),
	})
	if err != nil {
		return nil, infrastructureError(serviceAccounting, err)
	}

	return worker.Result{
		"confirmation_doc_id": res.DocumentId,
		"confirmation_sent":   true,
		"download_url":        res.DownloadURL,
	}, nil
}

// generateAccounting creates an invoice and pushes the transaction to the head office.
// The push is best effort and never fails the task.
func (h handlers) generateAccounting(ctx context.Context, values worker.Values) (worker.Result, error) {
	bookingId := values.String("booking_id")
	amount := values.Float("total_amount")

	paymentId := values.String("payment_id")
	if paymentId == "" {
		paymentId = values.String("transaction_id")
	}

	res, err := h.b.CreateInvoice(ctx, backend.CreateInvoiceReq{
		BookingId: bookingId,
		PaymentId: paymentId,
		Amount:    amount,
	})
	if err != nil {
		return nil, infrastructureError(serviceAccounting, err)
	}

	transaction := hq.Transaction{
		BookingId: bookingId,
		InvoiceId: res.InvoiceId,
		PaymentId: paymentId,
		Amount:    amount,
		Date:      h.options.now().Format(dateLayout),
	}
	if err := h.options.HQPush.PushTransaction(ctx, transaction); err != nil {
		h.logger.Warn().Err(err).Str("invoice_id", res.InvoiceId).Msg("failed to push transaction to HQ")
	}

	return worker.Result{
		"confirmation_doc_id": res.InvoiceId,
		"invoice_id":          res.InvoiceId,
		"confirmation_sent":   true,
	}, nil
}

// syncToHQ synchronizes a guest profile with the head office. A failed synchronization is reported
// as result.
func (h handlers) syncToHQ(ctx context.Context, values worker.Values) (worker.Result, error) {
	profile := hq.GuestProfile{
		ClientId:  values.String("client_id"),
		BookingId: values.String("booking_id"),
		Branch:    h.options.Branch,
	}

	if err := h.options.HQ.SyncGuestProfile(ctx, profile); err != nil {
		h.logger.Warn().Err(err).Str("client_id", profile.ClientId).Msg("failed to sync guest profile to HQ")
		return worker.Result{"synced": false, "error": err.Error()}, nil
	}

	return worker.Result{"synced": true}, nil
}

// nights determines the number of nights between two dates. It is at least 1.
func nights(checkIn string, checkOut string) int {
	from, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return 1
	}
	to, err := time.Parse(dateLayout, checkOut)
	if err != nil {
		return 1
	}
	return max(int(to.Sub(from).Hours()/24), 1)
}
