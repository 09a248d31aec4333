package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/backend/document"
	"github.com/hotelbey/bey/http/common"
	"github.com/hotelbey/bey/http/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCreateClient(t *testing.T) *Client {
	documents, err := document.NewLocal(t.TempDir(), "http://localhost:5000/api/documents")
	require.NoError(t, err)

	services, err := backend.NewServices(backend.NewMemStore(), documents)
	require.NoError(t, err)
	require.NoError(t, services.Seed(context.Background(), backend.DefaultSeed()))

	s, err := server.New(func(o *server.Options) {
		o.Services = services
	})
	require.NoError(t, err, "failed to create HTTP server")

	httpServer := httptest.NewServer(s.Handler())
	t.Cleanup(httpServer.Close)

	client, err := New(httpServer.URL + "/api")
	require.NoError(t, err, "failed to create client")
	t.Cleanup(client.Shutdown)

	return client
}

func TestClient(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	client := mustCreateClient(t)

	ctx := context.Background()

	t.Run("rooms", func(t *testing.T) {
		// when
		rooms, err := client.AvailableRooms(ctx, "2026-11-01", "2026-11-05", "")

		// then
		require.NoError(err)
		require.Len(rooms, 5)
		assert.Equal("101", rooms[0].Id)

		// when
		rooms, err = client.AvailableRooms(ctx, "2026-11-01", "2026-11-05", "superior")

		// then
		require.NoError(err)
		require.Len(rooms, 2)
		assert.Equal("201", rooms[0].Id)
		assert.Equal("superior", rooms[1].Type)

		// when
		res, err := client.BlockRoom(ctx, "101", backend.BlockRoomReq{BookingId: "b1"})

		// then
		require.NoError(err)
		assert.Equal(backend.StatusRes{Status: "room_blocked", RoomId: "101"}, res)

		room, err := client.GetRoom(ctx, "101")
		require.NoError(err)
		assert.Equal(backend.RoomBlocked, room.Status)
		assert.Equal("b1", room.BlockedBy)

		// when
		_, err = client.BlockRoom(ctx, "101", backend.BlockRoomReq{BookingId: "b2"})

		// then
		assert.True(IsStatus(err, http.StatusConflict))

		var responseErr ResponseError
		require.ErrorAs(err, &responseErr)
		require.NotNil(responseErr.Problem)
		assert.Equal(common.ProblemConflict, responseErr.Problem.Type)
		assert.Equal("room 101 is not available", responseErr.Problem.Detail)
	})

	t.Run("room not found", func(t *testing.T) {
		// when
		_, err := client.GetRoom(ctx, "999")

		// then
		assert.True(IsNotFound(err))
		assert.Contains(err.Error(), "GET /api/rooms/999: HTTP 404")
	})

	t.Run("assign room and set status", func(t *testing.T) {
		// when
		res, err := client.AssignRoom(ctx, backend.AssignRoomReq{ClientId: "c1", RoomId: "201"})

		// then
		require.NoError(err)
		assert.Equal("room_assigned", res.Status)

		// when
		res, err = client.SetRoomStatus(ctx, "202", backend.SetRoomStatusReq{Status: backend.RoomMaintenance, Reason: "air condition broken"})

		// then
		require.NoError(err)
		assert.Equal(backend.StatusRes{Status: backend.RoomMaintenance, RoomId: "202"}, res)

		rooms, err := client.AvailableRooms(ctx, "", "", "superior")
		require.NoError(err)
		assert.Empty(rooms)
	})

	t.Run("invalid room status", func(t *testing.T) {
		// when
		_, err := client.SetRoomStatus(ctx, "301", backend.SetRoomStatusReq{Status: "dirty"})

		// then
		assert.True(IsStatus(err, http.StatusBadRequest))

		var responseErr ResponseError
		require.ErrorAs(err, &responseErr)
		require.NotNil(responseErr.Problem)
		assert.Equal(common.ProblemValidation, responseErr.Problem.Type)
		require.Len(responseErr.Problem.Errors, 1)
		assert.Equal("#/status", responseErr.Problem.Errors[0].Pointer)
	})

	t.Run("clients", func(t *testing.T) {
		// given
		createClientReq := backend.CreateClientReq{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.org",
			Phone:     "+49 123",
		}

		// when
		res, err := client.CreateClient(ctx, createClientReq)

		// then
		require.NoError(err)
		assert.NotEmpty(res.ClientId)
		assert.Equal("created", res.Status)

		// when
		clients, err := client.SearchClients(ctx, "jane@example.org")

		// then
		require.NoError(err)
		require.Len(clients, 1)
		assert.Equal(res.ClientId, clients[0].Id)

		// when
		clients, err = client.SearchClients(ctx, "john@example.org")

		// then
		require.NoError(err)
		assert.Empty(clients)

		// when
		c, err := client.GetClient(ctx, res.ClientId)

		// then
		require.NoError(err)
		assert.Equal("Doe", c.LastName)
	})

	t.Run("booking and payment", func(t *testing.T) {
		// when
		booking, err := client.CreateBooking(ctx, backend.CreateBookingReq{
			ClientId:    "c1",
			RoomId:      "102",
			CheckIn:     "2026-11-01",
			CheckOut:    "2026-11-05",
			TotalAmount: 1000,
		})

		// then
		require.NoError(err)
		assert.Equal("success", booking.Status)

		// when
		payment, err := client.ProcessPayment(ctx, backend.ProcessPaymentReq{BookingId: booking.BookingId, Amount: 1000})

		// then
		require.NoError(err)
		assert.Equal("success", payment.Status)
		assert.NotEmpty(payment.TransactionId)

		// when
		_, err = client.ProcessPayment(ctx, backend.ProcessPaymentReq{BookingId: booking.BookingId, Amount: 0})

		// then
		assert.True(IsStatus(err, http.StatusBadRequest))

		// when
		b, err := client.GetBooking(ctx, booking.BookingId)

		// then
		require.NoError(err)
		assert.Equal(1, b.Guests)
		assert.Equal(float64(1000), b.TotalAmount)

		// when
		bookings, err := client.ClientBookings(ctx, "c1")

		// then
		require.NoError(err)
		require.Len(bookings, 1)
		assert.Equal(booking.BookingId, bookings[0].Id)

		// when
		_, err = client.GetBooking(ctx, "unknown")

		// then
		assert.True(IsNotFound(err))
	})

	t.Run("accounting", func(t *testing.T) {
		// when
		confirmation, err := client.GenerateConfirmation(ctx, backend.GenerateConfirmationReq{
			BookingId:   "b1",
			ClientData:  backend.ClientData{FirstName: "Jane", LastName: "Doe", Email: "jane@example.org"},
			TotalAmount: 1000,
		})

		// then
		require.NoError(err)
		assert.Equal("generated", confirmation.Status)
		assert.Equal("http://localhost:5000/api/documents/"+confirmation.DocumentId+".txt", confirmation.DownloadURL)

		// when
		invoice, err := client.CreateInvoice(ctx, backend.CreateInvoiceReq{BookingId: "b1", PaymentId: "t1", Amount: 1000})

		// then
		require.NoError(err)
		assert.Equal("generated", invoice.Status)

		// when
		compensation, err := client.CreateCompensation(ctx, backend.CreateCompensationReq{ClientId: "c1", ComplaintId: "cp1", Amount: 50})

		// then
		require.NoError(err)
		assert.Equal("proposed", compensation.Status)
	})

	t.Run("complaints", func(t *testing.T) {
		// when
		complaint, err := client.LogComplaint(ctx, backend.LogComplaintReq{ClientId: "c1", Description: "shower is broken"})

		// then
		require.NoError(err)
		assert.Equal("logged", complaint.Status)

		// when
		res, err := client.CloseComplaint(ctx, complaint.ComplaintId)

		// then
		require.NoError(err)
		assert.Equal(backend.ComplaintClosed, res.Status)

		// when
		_, err = client.CloseComplaint(ctx, complaint.ComplaintId)

		// then
		assert.True(IsStatus(err, http.StatusConflict))
	})

	t.Run("restaurant", func(t *testing.T) {
		// when
		menu, err := client.Menu(ctx, "room_service")

		// then
		require.NoError(err)
		require.Len(menu, 2)
		assert.Equal("4", menu[0].Id)

		// when
		orders, err := client.BookingOrders(ctx, "b1")

		// then
		require.NoError(err)
		assert.Empty(orders)
	})
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	_, err := New("")
	assert.EqualError(err, "URL is empty")

	_, err = New("http://localhost:5000/api", func(o *Options) {
		o.Timeout = 0
	})
	assert.EqualError(err, "timeout must be greater than 0")
}

func TestResponseError(t *testing.T) {
	assert := assert.New(t)

	newResponse := func(status int, contentType string, body string) (*http.Request, *http.Response) {
		w := httptest.NewRecorder()
		w.Header().Set(common.HeaderContentType, contentType)
		w.WriteHeader(status)
		w.WriteString(body)

		return httptest.NewRequest(http.MethodGet, "/api/rooms/1", nil), w.Result()
	}

	t.Run("problem", func(t *testing.T) {
		req, res := newResponse(http.StatusNotFound, common.ContentTypeProblemJson, `{"status":404,"type":"NOT_FOUND","title":"failed to get room","detail":"room 1 not found"}`)

		err := newResponseError(req, res)
		assert.Equal("GET /api/rooms/1: HTTP 404: failed to get room: room 1 not found", err.Error())
		assert.True(IsNotFound(err))
	})

	t.Run("plain text", func(t *testing.T) {
		req, res := newResponse(http.StatusServiceUnavailable, common.ContentTypeText, "handler timed out\n")

		err := newResponseError(req, res)
		assert.Equal("GET /api/rooms/1: HTTP 503: handler timed out", err.Error())
		assert.Nil(err.Problem)
		assert.False(IsNotFound(err))
		assert.True(IsStatus(err, http.StatusServiceUnavailable))
	})
}
