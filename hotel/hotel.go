package hotel

import (
	"context"
	"errors"
	"time"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/hq"
	"github.com/hotelbey/bey/worker"
	"github.com/rs/zerolog"
)

// Names of the downstream services, used in infrastructure errors.
const (
	serviceAccounting = "accounting"
	serviceBooking    = "booking"
	serviceClients    = "clients"
	servicePayment    = "payment"
	serviceRestaurant = "restaurant"
	serviceRooms      = "rooms"
)

// Backend is the backend services API, called by the handlers. It is implemented by the backend client.
type Backend interface {
	AssignRoom(context.Context, backend.AssignRoomReq) (backend.StatusRes, error)
	AvailableRooms(ctx context.Context, checkIn string, checkOut string, roomType string) ([]backend.Room, error)
	BlockRoom(ctx context.Context, id string, req backend.BlockRoomReq) (backend.StatusRes, error)
	BookingOrders(ctx context.Context, bookingId string) ([]backend.Order, error)
	ClientBookings(ctx context.Context, clientId string) ([]backend.Booking, error)
	CloseComplaint(ctx context.Context, id string) (backend.StatusRes, error)
	CreateBooking(context.Context, backend.CreateBookingReq) (backend.CreateBookingRes, error)
	CreateClient(context.Context, backend.CreateClientReq) (backend.CreateClientRes, error)
	CreateCompensation(context.Context, backend.CreateCompensationReq) (backend.CreateCompensationRes, error)
	CreateInvoice(context.Context, backend.CreateInvoiceReq) (backend.CreateInvoiceRes, error)
	GenerateConfirmation(context.Context, backend.GenerateConfirmationReq) (backend.GenerateConfirmationRes, error)
	GetBooking(ctx context.Context, id string) (backend.Booking, error)
	GetRoom(ctx context.Context, id string) (backend.Room, error)
	LogComplaint(context.Context, backend.LogComplaintReq) (backend.LogComplaintRes, error)
	Menu(ctx context.Context, category string) ([]backend.MenuItem, error)
	ProcessPayment(context.Context, backend.ProcessPaymentReq) (backend.ProcessPaymentRes, error)
	SearchClients(ctx context.Context, email string) ([]backend.Client, error)
	SetRoomStatus(ctx context.Context, id string, req backend.SetRoomStatusReq) (backend.StatusRes, error)
}

func NewOptions() Options {
	return Options{
		Branch: hq.DefaultBranch,
		HQ:     hq.Nop{},

		Logger: zerolog.Nop(),
	}
}

type Options struct {
	Branch string    // Branch, the hotel is identified by at the head office.
	HQ     hq.Syncer // Syncer, used by the sync-to-hq handler, which reports the outcome of the synchronization.
	HQPush hq.Syncer // Syncer, used to push finance transactions after an invoice has been created. If nil, HQ is used.

	Logger zerolog.Logger

	now func() time.Time
}

// Register registers the handlers of all hotel task types.
func Register(r *worker.Registry, b Backend, customizers ...func(*Options)) error {
	if r == nil {
		return errors.New("registry is nil")
	}
	if b == nil {
		return errors.New("backend is nil")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if options.HQ == nil {
		return errors.New("HQ syncer is nil")
	}
	if options.HQPush == nil {
		options.HQPush = options.HQ
	}
	if options.now == nil {
		options.now = time.Now
	}

	h := handlers{
		b:       b,
		options: options,
		logger:  options.Logger,
	}

	for _, definition := range h.definitions() {
		if err := r.Register(definition.TaskType, definition.Schema, definition.Handler); err != nil {
			return err
		}
	}
	return nil
}

type handlers struct {
	b       Backend
	options Options
	logger  zerolog.Logger
}

func (h handlers) definitions() []worker.Definition {
	return []worker.Definition{
		// reservation
		{TaskType: TaskValidateInput, Schema: schemaValidateInput, Handler: h.validateInput},
		{TaskType: TaskSearchClient, Schema: schemaSearchClient, Handler: h.searchClient},
		{TaskType: TaskCreateClient, Schema: schemaCreateClient, Handler: h.createClient},
		{TaskType: TaskCheckRoomAvailability, Schema: schemaCheckRoomAvailability, Handler: h.checkRoomAvailability},
		{TaskType: TaskCheckReservationType, Schema: schemaCheckReservationType, Handler: h.checkReservationType},
		{TaskType: TaskCheckMealPlan, Schema: schemaCheckMealPlan, Handler: h.checkMealPlan},
		{TaskType: TaskBlockRoom, Schema: schemaBlockRoom, Handler: h.blockRoom},
		{TaskType: TaskCreateBooking, Schema: schemaCreateBooking, Handler: h.createBooking},
		{TaskType: TaskProcessPayment, Schema: schemaProcessPayment, Handler: h.processPayment},
		{TaskType: TaskGenerateConfirmation, Schema: schemaGenerateConfirmation, Handler: h.generateConfirmation},
		{TaskType: TaskGenerateAccounting, Schema: schemaGenerateAccounting, Handler: h.generateAccounting},
		{TaskType: TaskSyncToHQ, Schema: schemaSyncToHQ, Handler: h.syncToHQ},
		// queries
		{TaskType: TaskGetBooking, Schema: schemaGetBooking, Handler: h.getBooking},
		{TaskType: TaskGetClientBookings, Schema: schemaGetClientBookings, Handler: h.getClientBookings},
		{TaskType: TaskGetRestaurantOrders, Schema: schemaGetRestaurantOrders, Handler: h.getRestaurantOrders},
		// complaints
		{TaskType: TaskReceiveLogComplaint, Schema: schemaReceiveLogComplaint, Handler: h.receiveLogComplaint},
		{TaskType: TaskClassifyRedirect, Schema: schemaClassifyRedirect, Handler: h.classifyRedirect},
		{TaskType: TaskAssessSeverity, Schema: schemaAssessSeverity, Handler: h.assessSeverity},
		{TaskType: TaskRedirectService, Schema: schemaRedirectService, Handler: h.redirectService},
		{TaskType: TaskUpdateDefectiveStatus, Schema: schemaUpdateDefectiveStatus, Handler: h.updateDefectiveStatus},
		{TaskType: TaskExecuteRepair, Schema: schemaExecuteRepair, Handler: h.executeRepair},
		{TaskType: TaskCheckRelocationAvailability, Schema: schemaCheckRelocationAvailability, Handler: h.checkRelocationAvailability},
		{TaskType: TaskInitiateRelocation, Schema: schemaInitiateRelocation, Handler: h.initiateRelocation},
		{TaskType: TaskAssignNewRoom, Schema: schemaAssignNewRoom, Handler: h.assignNewRoom},
		{TaskType: TaskProposeCompensation, Schema: schemaProposeCompensation, Handler: h.proposeCompensation},
		{TaskType: TaskIssueClosed, Schema: schemaIssueClosed, Handler: h.issueClosed},
	}
}

func infrastructureError(service string, err error) error {
	return worker.NewInfrastructureError(service, err)
}
