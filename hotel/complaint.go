package hotel

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/backend/client"
	"github.com/hotelbey/bey/worker"
)

// Task types of the complaint handling process.
const (
	TaskReceiveLogComplaint         = "receive-log-complaint"
	TaskClassifyRedirect            = "classify-redirect"
	TaskAssessSeverity              = "assess-severity"
	TaskRedirectService             = "redirect-service"
	TaskUpdateDefectiveStatus       = "update-defective-status"
	TaskExecuteRepair               = "execute-repair"
	TaskCheckRelocationAvailability = "check-relocation-availability"
	TaskInitiateRelocation          = "initiate-relocation"
	TaskAssignNewRoom               = "assign-new-room"
	TaskProposeCompensation         = "propose-compensation"
	TaskIssueClosed                 = "issue-closed"
)

// Complaint categories and the services, complaints are redirected to.
const (
	CategoryBilling   = "billing"
	CategoryGeneral   = "general"
	CategoryTechnical = "technical"

	TargetClientService  = "client_service"
	TargetPaymentService = "payment_service"
	TargetRoomService    = "room_service"
)

const (
	SeverityHigh   = "high"
	SeverityLow    = "low"
	SeverityMedium = "medium"
)

var (
	schemaReceiveLogComplaint = worker.Schema{
		worker.Required("client_id", worker.KindString),
		worker.Required("description", worker.KindString),
		worker.Optional("booking_id", worker.KindString),
		worker.Optional("room_id", worker.KindString),
	}
	schemaClassifyRedirect = worker.Schema{
		worker.Optional("complaint_id", worker.KindString),
		worker.Required("description", worker.KindString),
	}
	schemaAssessSeverity = worker.Schema{
		worker.Default("category", worker.KindString, CategoryGeneral),
	}
	schemaRedirectService = worker.Schema{
		worker.Optional("complaint_id", worker.KindString),
		worker.Required("service_target", worker.KindString),
	}
	schemaUpdateDefectiveStatus = worker.Schema{
		worker.Required("room_id", worker.KindString),
	}
	schemaExecuteRepair = worker.Schema{
		worker.Required("room_id", worker.KindString),
		worker.Optional("description", worker.KindString),
	}
	schemaCheckRelocationAvailability = worker.Schema{
		worker.Required("room_id", worker.KindString),
		worker.Optional("room_type", worker.KindString),
		worker.Optional("check_in", worker.KindString),
		worker.Optional("check_out", worker.KindString),
	}
	schemaInitiateRelocation = worker.Schema{
		worker.Required("client_id", worker.KindString),
		worker.Required("room_id", worker.KindString),
	}
	schemaAssignNewRoom = worker.Schema{
		worker.Required("client_id", worker.KindString),
		worker.Optional("new_room_id", worker.KindString),
	}
	schemaProposeCompensation = worker.Schema{
		worker.Required("client_id", worker.KindString),
		worker.Optional("complaint_id", worker.KindString),
		worker.Default("severity", worker.KindString, SeverityLow),
	}
	schemaIssueClosed = worker.Schema{
		worker.Required("complaint_id", worker.KindString),
	}
)

var (
	// keywords of technical complaints, matched as word prefix
	technicalKeywords = []string{"ac", "broken", "dirty", "leak", "light", "water"}
	// keywords of billing complaints, matched as word prefix
	billingKeywords = []string{"bill", "money"}

	compensationAmounts = map[string]float64{
		SeverityHigh:   100,
		SeverityMedium: 50,
		SeverityLow:    20,
	}
)

func (h handlers) receiveLogComplaint(ctx context.Context, values worker.Values) (worker.Result, error) {
	res, err := h.b.LogComplaint(ctx, backend.LogComplaintReq{
		ClientId:    values.String("client_id"),
		BookingId:   values.String("booking_id"),
		RoomId:      values.String("room_id"),
		Description: values.String("description"),
		Status:      backend.ComplaintReceived,
	})
	if err != nil {
		return nil, infrastructureError(serviceClients, err)
	}

	return worker.Result{"complaint_id": res.ComplaintId, "complaint_logged": true}, nil
}

// classifyRedirect classifies a complaint by keywords of its description.
func (h handlers) classifyRedirect(_ context.Context, values worker.Values) (worker.Result, error) {
	words := strings.FieldsFunc(strings.ToLower(values.String("description")), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	category, target := CategoryGeneral, TargetClientService
	switch {
	case containsKeyword(words, technicalKeywords):
		category, target = CategoryTechnical, TargetRoomService
	case containsKeyword(words, billingKeywords):
		category, target = CategoryBilling, TargetPaymentService
	}

	h.logger.Info().Str("complaint_id", values.String("complaint_id")).Str("category", category).Msg("complaint classified")

	return worker.Result{"category": category, "service_target": target}, nil
}

// assessSeverity rates technical complaints with high severity, which requires relocation and an immediate repair.
func (h handlers) assessSeverity(_ context.Context, values worker.Values) (worker.Result, error) {
	severity := SeverityLow
	if values.String("category") == CategoryTechnical {
		severity = SeverityHigh
	}

	return worker.Result{
		"severity":                  severity,
		"requires_relocation":       severity == SeverityHigh,
		"requires_immediate_repair": severity == SeverityHigh,
	}, nil
}

func (h handlers) redirectService(_ context.Context, values worker.Values) (worker.Result, error) {
	h.logger.Info().
		Str("complaint_id", values.String("complaint_id")).
		Str("service_target", values.String("service_target")).
		Msg("complaint redirected")

	return worker.Result{"redirected": true}, nil
}

func (h handlers) updateDefectiveStatus(ctx context.Context, values worker.Values) (worker.Result, error) {
	_, err := h.b.SetRoomStatus(ctx, values.String("room_id"), backend.SetRoomStatusReq{
		Status: backend.RoomMaintenance,
		Reason: "client_complaint",
	})
	if err != nil {
		return nil, infrastructureError(serviceRooms, err)
	}

	return worker.Result{"room_status": backend.RoomMaintenance}, nil
}

func (h handlers) executeRepair(_ context.Context, values worker.Values) (worker.Result, error) {
	h.logger.Info().
		Str("room_id", values.String("room_id")).
		Str("description", values.String("description")).
		Msg("maintenance dispatched")

	return worker.Result{"repair_ticket_created": true}, nil
}

// checkRelocationAvailability looks for another available room of the same type. If no room type
// is provided, the type of the current room is used.
func (h handlers) checkRelocationAvailability(ctx context.Context, values worker.Values) (worker.Result, error) {
	roomId := values.String("room_id")

	roomType := values.String("room_type")
	if roomType == "" {
		room, err := h.b.GetRoom(ctx, roomId)
		switch {
		case client.IsNotFound(err):
			roomType = ReservationStandard
		case err != nil:
			return nil, infrastructureError(serviceRooms, err)
		default:
			roomType = room.Type
		}
	}

	rooms, err := h.b.AvailableRooms(ctx, values.String("check_in"), values.String("check_out"), roomType)
	if err != nil {
		return nil, infrastructureError(serviceRooms, err)
	}

	for _, room := range rooms {
		if room.Type == roomType && room.Id != roomId {
			return worker.Result{"new_room_available": true, "new_room_id": room.Id}, nil
		}
	}

	return worker.Result{"new_room_available": false, "new_room_id": nil}, nil
}

func (h handlers) initiateRelocation(_ context.Context, values worker.Values) (worker.Result, error) {
	h.logger.Info().
		Str("client_id", values.String("client_id")).
		Str("room_id", values.String("room_id")).
		Msg("relocation initiated")

	return worker.Result{"relocation_initiated": true}, nil
}

// assignNewRoom assigns the relocation room. A room, which is unknown or not available anymore,
// results in a failed relocation.
func (h handlers) assignNewRoom(ctx context.Context, values worker.Values) (worker.Result, error) {
	newRoomId := values.String("new_room_id")
	if newRoomId == "" {
		return worker.Result{"relocation_success": false}, nil
	}

	_, err := h.b.AssignRoom(ctx, backend.AssignRoomReq{
		ClientId: values.String("client_id"),
		RoomId:   newRoomId,
	})
	if client.IsNotFound(err) || client.IsStatus(err, http.StatusConflict) {
		return worker.Result{"relocation_success": false}, nil
	}
	if err != nil {
		return nil, infrastructureError(serviceRooms, err)
	}

	return worker.Result{"relocation_success": true}, nil
}

// proposeCompensation offers a voucher, whose amount depends on the severity of the complaint.
func (h handlers) proposeCompensation(ctx context.Context, values worker.Values) (worker.Result, error) {
	amount := compensationAmounts[values.String("severity")]
	if amount == 0 {
		return worker.Result{"compensation_amount": 0.0, "compensation_offered": false}, nil
	}

	res, err := h.b.CreateCompensation(ctx, backend.CreateCompensationReq{
		ClientId:    values.String("client_id"),
		ComplaintId: values.String("complaint_id"),
		Amount:      amount,
		Reason:      "complaint_compensation",
	})
	if err != nil {
		return nil, infrastructureError(serviceAccounting, err)
	}

	return worker.Result{
		"compensation_amount":  amount,
		"compensation_offered": true,
		"compensation_id":      res.CompensationId,
	}, nil
}

// issueClosed closes a complaint. Closing a closed complaint succeeds.
func (h handlers) issueClosed(ctx context.Context, values worker.Values) (worker.Result, error) {
	_, err := h.b.CloseComplaint(ctx, values.String("complaint_id"))
	if err != nil && !client.IsStatus(err, http.StatusConflict) {
		return nil, infrastructureError(serviceClients, err)
	}

	return worker.Result{"process_status": backend.ComplaintClosed}, nil
}

func containsKeyword(words []string, keywords []string) bool {
	for _, word := range words {
		for _, keyword := range keywords {
			if word == keyword || (len(keyword) > 2 && strings.HasPrefix(word, keyword)) {
				return true
			}
		}
	}
	return false
}
