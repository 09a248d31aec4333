package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/http/common"
)

func New(url string, customizers ...func(*Options)) (*Client, error) {
	if url == "" {
		return nil, errors.New("URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if options.Timeout <= 0 {
		return nil, errors.New("timeout must be greater than 0")
	}

	httpClient := http.Client{}

	if options.Configure != nil {
		options.Configure(&httpClient)
	}

	return &Client{
		httpClient: &httpClient,
		url:        strings.TrimSuffix(url, "/"),
		timeout:    options.Timeout,
	}, nil
}

func NewOptions() Options {
	return Options{
		Timeout: 10 * time.Second,
	}
}

type Options struct {
	Timeout time.Duration // Time limit for a single request, applied in addition to a deadline of the context.

	Configure func(*http.Client) // Optional function, used to configure the underlying HTTP client.
}

// Client is a client of the backend services REST API, for example "http://localhost:5000/api".
type Client struct {
	httpClient *http.Client
	url        string
	timeout    time.Duration
}

func (c *Client) AssignRoom(ctx context.Context, req backend.AssignRoomReq) (backend.StatusRes, error) {
	var res backend.StatusRes
	err := c.do(ctx, http.MethodPost, common.PathRoomsAssign, req, &res)
	return res, err
}

func (c *Client) AvailableRooms(ctx context.Context, checkIn string, checkOut string, roomType string) ([]backend.Room, error) {
	values := make(url.Values)
	if checkIn != "" {
		values.Set(common.QueryCheckIn, checkIn)
	}
	if checkOut != "" {
		values.Set(common.QueryCheckOut, checkOut)
	}
	if roomType != "" {
		values.Set(common.QueryType, roomType)
	}

	var res []backend.Room
	err := c.do(ctx, http.MethodGet, common.PathRoomsAvailable+encodeQuery(values), nil, &res)
	return res, err
}

func (c *Client) BlockRoom(ctx context.Context, id string, req backend.BlockRoomReq) (backend.StatusRes, error) {
	var res backend.StatusRes
	err := c.do(ctx, http.MethodPost, common.Resolve(common.PathRoomsBlock, "id", id), req, &res)
	return res, err
}

func (c *Client) BookingOrders(ctx context.Context, bookingId string) ([]backend.Order, error) {
	var res []backend.Order
	err := c.do(ctx, http.MethodGet, common.Resolve(common.PathRestaurantBookingOrders, "id", bookingId), nil, &res)
	return res, err
}

func (c *Client) ClientBookings(ctx context.Context, clientId string) ([]backend.Booking, error) {
	var res []backend.Booking
	err := c.do(ctx, http.MethodGet, common.Resolve(common.PathBookingClient, "id", clientId), nil, &res)
	return res, err
}

func (c *Client) CloseComplaint(ctx context.Context, id string) (backend.StatusRes, error) {
	var res backend.StatusRes
	err := c.do(ctx, http.MethodPut, common.Resolve(common.PathComplaintsClose, "id", id), nil, &res)
	return res, err
}

func (c *Client) CreateBooking(ctx context.Context, req backend.CreateBookingReq) (backend.CreateBookingRes, error) {
	var res backend.CreateBookingRes
	err := c.do(ctx, http.MethodPost, common.PathBookingCreate, req, &res)
	return res, err
}

func (c *Client) CreateClient(ctx context.Context, req backend.CreateClientReq) (backend.CreateClientRes, error) {
	var res backend.CreateClientRes
	err := c.do(ctx, http.MethodPost, common.PathClientsCreate, req, &res)
	return res, err
}

func (c *Client) CreateCompensation(ctx context.Context, req backend.CreateCompensationReq) (backend.CreateCompensationRes, error) {
	var res backend.CreateCompensationRes
	err := c.do(ctx, http.MethodPost, common.PathAccountingCompensation, req, &res)
	return res, err
}

func (c *Client) CreateInvoice(ctx context.Context, req backend.CreateInvoiceReq) (backend.CreateInvoiceRes, error) {
	var res backend.CreateInvoiceRes
	err := c.do(ctx, http.MethodPost, common.PathInvoicesCreate, req, &res)
	return res, err
}

func (c *Client) GenerateConfirmation(ctx context.Context, req backend.GenerateConfirmationReq) (backend.GenerateConfirmationRes, error) {
	var res backend.GenerateConfirmationRes
	err := c.do(ctx, http.MethodPost, common.PathAccountingGenerateConfirmation, req, &res)
	return res, err
}

func (c *Client) GetBooking(ctx context.Context, id string) (backend.Booking, error) {
	var res backend.Booking
	err := c.do(ctx, http.MethodGet, common.Resolve(common.PathBookingGet, "id", id), nil, &res)
	return res, err
}

func (c *Client) GetClient(ctx context.Context, id string) (backend.Client, error) {
	var res backend.Client
	err := c.do(ctx, http.MethodGet, common.Resolve(common.PathClientsGet, "id", id), nil, &res)
	return res, err
}

func (c *Client) GetRoom(ctx context.Context, id string) (backend.Room, error) {
	var res backend.Room
	err := c.do(ctx, http.MethodGet, common.Resolve(common.PathRoomsGet, "id", id), nil, &res)
	return res, err
}

func (c *Client) LogComplaint(ctx context.Context, req backend.LogComplaintReq) (backend.LogComplaintRes, error) {
	var res backend.LogComplaintRes
	err := c.do(ctx, http.MethodPost, common.PathComplaintsLog, req, &res)
	return res, err
}

func (c *Client) Menu(ctx context.Context, category string) ([]backend.MenuItem, error) {
	values := make(url.Values)
	if category != "" {
		values.Set(common.QueryCategory, category)
	}

	var res []backend.MenuItem
	err := c.do(ctx, http.MethodGet, common.PathRestaurantMenu+encodeQuery(values), nil, &res)
	return res, err
}

func (c *Client) ProcessPayment(ctx context.Context, req backend.ProcessPaymentReq) (backend.ProcessPaymentRes, error) {
	var res backend.ProcessPaymentRes
	err := c.do(ctx, http.MethodPost, common.PathPaymentProcess, req, &res)
	return res, err
}

func (c *Client) SearchClients(ctx context.Context, email string) ([]backend.Client, error) {
	values := make(url.Values)
	values.Set(common.QueryEmail, email)

	var res []backend.Client
	err := c.do(ctx, http.MethodGet, common.PathClientsSearch+encodeQuery(values), nil, &res)
	return res, err
}

func (c *Client) SetRoomStatus(ctx context.Context, id string, req backend.SetRoomStatusReq) (backend.StatusRes, error) {
	var res backend.StatusRes
	err := c.do(ctx, http.MethodPut, common.Resolve(common.PathRoomsStatus, "id", id), req, &res)
	return res, err
}

func (c *Client) Shutdown() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, method string, path string, reqBody any, resBody any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to create JSON request body: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %v", method, err)
	}

	if reqBody != nil {
		req.Header.Set(common.HeaderContentType, common.ContentTypeJson)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s %s: %v", method, path, err)
	}

	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return newResponseError(req, res)
	}

	if resBody == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(resBody); err != nil {
		return fmt.Errorf("failed to decode JSON response body of %s %s: %v", method, path, err)
	}
	return nil
}

func encodeQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
