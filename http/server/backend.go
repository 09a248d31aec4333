package server

import (
	"net/http"
	"strings"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/http/common"
)

func (s *Server) handleServices(basePath string) {
	services := s.services

	// rooms
	s.handle("GET "+basePath+common.PathRooms, serve(s, func(r *http.Request) ([]backend.Room, error) {
		return services.ListRooms(r.Context())
	}))
	s.handle("GET "+basePath+common.PathRoomsAvailable, serve(s, func(r *http.Request) ([]backend.Room, error) {
		query := r.URL.Query()
		return services.AvailableRooms(r.Context(), query.Get(common.QueryCheckIn), query.Get(common.QueryCheckOut), query.Get(common.QueryType))
	}))
	s.handle("POST "+basePath+common.PathRoomsAssign, decodeAndServe(s, func(r *http.Request, req backend.AssignRoomReq) (backend.StatusRes, error) {
		return services.AssignRoom(r.Context(), req)
	}))
	s.handle("GET "+basePath+common.PathRoomsGet, serve(s, func(r *http.Request) (backend.Room, error) {
		return services.GetRoom(r.Context(), r.PathValue("id"))
	}))
	s.handle("POST "+basePath+common.PathRoomsBlock, decodeAndServe(s, func(r *http.Request, req backend.BlockRoomReq) (backend.StatusRes, error) {
		return services.BlockRoom(r.Context(), r.PathValue("id"), req)
	}))
	s.handle("POST "+basePath+common.PathRoomsRelease, serve(s, func(r *http.Request) (backend.StatusRes, error) {
		return services.ReleaseRoom(r.Context(), r.PathValue("id"))
	}))
	s.handle("PUT "+basePath+common.PathRoomsStatus, decodeAndServe(s, func(r *http.Request, req backend.SetRoomStatusReq) (backend.StatusRes, error) {
		return services.SetRoomStatus(r.Context(), r.PathValue("id"), req)
	}))

	// clients and complaints
	s.handle("POST "+basePath+common.PathClientsCreate, decodeAndServe(s, func(r *http.Request, req backend.CreateClientReq) (backend.CreateClientRes, error) {
		return services.CreateClient(r.Context(), req)
	}))
	s.handle("GET "+basePath+common.PathClientsSearch, serve(s, func(r *http.Request) ([]backend.Client, error) {
		return services.SearchClients(r.Context(), r.URL.Query().Get(common.QueryEmail))
	}))
	s.handle("GET "+basePath+common.PathClientsGet, serve(s, func(r *http.Request) (backend.Client, error) {
		return services.GetClient(r.Context(), r.PathValue("id"))
	}))
	s.handle("PUT "+basePath+common.PathClientsLoyalty, decodeAndServe(s, func(r *http.Request, req backend.UpdateLoyaltyReq) (backend.LoyaltyRes, error) {
		return services.UpdateLoyalty(r.Context(), r.PathValue("id"), req)
	}))
	s.handle("POST "+basePath+common.PathComplaintsLog, decodeAndServe(s, func(r *http.Request, req backend.LogComplaintReq) (backend.LogComplaintRes, error) {
		return services.LogComplaint(r.Context(), req)
	}))
	s.handle("PUT "+basePath+common.PathComplaintsClose, serve(s, func(r *http.Request) (backend.StatusRes, error) {
		return services.CloseComplaint(r.Context(), r.PathValue("id"))
	}))

	// booking
	s.handle("POST "+basePath+common.PathBookingCreate, decodeAndServe(s, func(r *http.Request, req backend.CreateBookingReq) (backend.CreateBookingRes, error) {
		return services.CreateBooking(r.Context(), req)
	}))
	s.handle("GET "+basePath+common.PathBookingGet, serve(s, func(r *http.Request) (backend.Booking, error) {
		return services.GetBooking(r.Context(), r.PathValue("id"))
	}))
	s.handle("PUT "+basePath+common.PathBookingCancel, serve(s, func(r *http.Request) (backend.StatusRes, error) {
		return services.CancelBooking(r.Context(), r.PathValue("id"))
	}))
	s.handle("GET "+basePath+common.PathBookingClient, serve(s, func(r *http.Request) ([]backend.Booking, error) {
		return services.ClientBookings(r.Context(), r.PathValue("id"))
	}))

	// payment
	s.handle("POST "+basePath+common.PathPaymentProcess, decodeAndServe(s, func(r *http.Request, req backend.ProcessPaymentReq) (backend.ProcessPaymentRes, error) {
		return services.ProcessPayment(r.Context(), req)
	}))
	s.handle("GET "+basePath+common.PathPaymentHistory, serve(s, func(r *http.Request) ([]backend.Transaction, error) {
		return services.PaymentHistory(r.Context(), r.PathValue("id"))
	}))

	// accounting
	s.handle("POST "+basePath+common.PathInvoicesCreate, decodeAndServe(s, func(r *http.Request, req backend.CreateInvoiceReq) (backend.CreateInvoiceRes, error) {
		return services.CreateInvoice(r.Context(), req)
	}))
	s.handle("POST "+basePath+common.PathAccountingGenerateConfirmation, decodeAndServe(s, func(r *http.Request, req backend.GenerateConfirmationReq) (backend.GenerateConfirmationRes, error) {
		return services.GenerateConfirmation(r.Context(), req)
	}))
	s.handle("POST "+basePath+common.PathAccountingCompensation, decodeAndServe(s, func(r *http.Request, req backend.CreateCompensationReq) (backend.CreateCompensationRes, error) {
		return services.CreateCompensation(r.Context(), req)
	}))
	s.handle("GET "+basePath+common.PathDocumentsGet, s.getDocumentContent)

	// restaurant
	s.handle("GET "+basePath+common.PathRestaurantMenu, serve(s, func(r *http.Request) ([]backend.MenuItem, error) {
		return services.Menu(r.Context(), r.URL.Query().Get(common.QueryCategory))
	}))
	s.handle("POST "+basePath+common.PathRestaurantOrder, decodeAndServe(s, func(r *http.Request, req backend.CreateOrderReq) (backend.CreateOrderRes, error) {
		return services.CreateOrder(r.Context(), req)
	}))
	s.handle("GET "+basePath+common.PathRestaurantOrderGet, serve(s, func(r *http.Request) (backend.Order, error) {
		return services.GetOrder(r.Context(), r.PathValue("id"))
	}))
	s.handle("PUT "+basePath+common.PathRestaurantOrderStatus, decodeAndServe(s, func(r *http.Request, req backend.UpdateOrderStatusReq) (backend.StatusRes, error) {
		return services.UpdateOrderStatus(r.Context(), r.PathValue("id"), req)
	}))
	s.handle("GET "+basePath+common.PathRestaurantTablesAvailable, serve(s, func(r *http.Request) ([]string, error) {
		return services.AvailableTables(r.Context())
	}))
	s.handle("GET "+basePath+common.PathRestaurantBookingOrders, serve(s, func(r *http.Request) ([]backend.Order, error) {
		return services.BookingOrders(r.Context(), r.PathValue("id"))
	}))
}

// getDocumentContent serves the rendered content of a document. The ID may carry the file extension of the download URL.
func (s *Server) getDocumentContent(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(r.PathValue("id"), ".txt")

	content, contentType, err := s.services.DocumentContent(r.Context(), id)
	if err != nil {
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	w.Header().Set(common.HeaderContentType, contentType)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(content); err != nil {
		s.logger.Error().Err(err).Str("method", r.Method).Str("uri", r.RequestURI).Msg("failed to write document content")
	}
}

// serve creates a handler, which responds with the JSON encoded result of a service operation.
func serve[R any](s *Server, operation func(*http.Request) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := operation(r)
		if err != nil {
			s.encodeJSONProblemResponseBody(w, r, err)
			return
		}
		s.encodeJSONResponseBody(w, r, res, http.StatusOK)
	}
}

// decodeAndServe creates a handler, which decodes and validates the request body before a service operation is called.
func decodeAndServe[T any, R any](s *Server, operation func(*http.Request, T) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if err := decodeJSONRequestBody(w, r, &req, true); err != nil {
			s.encodeJSONProblemResponseBody(w, r, err)
			return
		}

		res, err := operation(r, req)
		if err != nil {
			s.encodeJSONProblemResponseBody(w, r, err)
			return
		}
		s.encodeJSONResponseBody(w, r, res, http.StatusOK)
	}
}
