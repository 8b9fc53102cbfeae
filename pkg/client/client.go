// Package client is the Go client for the reservation API. It attaches
// the bearer credential, maps every non-success outcome onto the
// canonical workflow error kinds, and carries the caller-side pieces of
// the booking flow: debounced search input and last-request-wins slot
// fetching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"reserva-service/api"
	"reserva-service/internal/query"
	"reserva-service/pkg/response"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithToken sets the bearer credential attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) ListRooms(ctx context.Context) ([]api.RoomResponse, error) {
	const op = "client.ListRooms"

	var envelope struct {
		Rooms []api.RoomResponse `json:"rooms"`
	}

	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &envelope); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return envelope.Rooms, nil
}

// AvailableSlots fetches the bookable times for a room on a date. The
// result is advisory only: the slot may be claimed between resolution
// and booking, in which case CreateReservation surfaces the conflict.
func (c *Client) AvailableSlots(ctx context.Context, roomID, date string) ([]string, error) {
	const op = "client.AvailableSlots"

	var envelope api.SlotsResponse

	err := c.do(ctx, http.MethodPost, "/reservations/free/"+url.PathEscape(roomID), api.SlotsRequest{Date: date}, &envelope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return envelope.Slots, nil
}

func (c *Client) CreateReservation(ctx context.Context, req api.ReservationRequest) (*api.ReservationResponse, error) {
	const op = "client.CreateReservation"

	if c.token == "" {
		return nil, fmt.Errorf("%s: no credential attached: %w", op, response.ErrUnauthorized)
	}

	var envelope struct {
		Reservation api.ReservationResponse `json:"reservation"`
	}

	if err := c.do(ctx, http.MethodPost, "/reservations", req, &envelope); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &envelope.Reservation, nil
}

func (c *Client) ConfirmReservation(ctx context.Context, id string) (*api.ReservationResponse, error) {
	const op = "client.ConfirmReservation"

	if c.token == "" {
		return nil, fmt.Errorf("%s: no credential attached: %w", op, response.ErrUnauthorized)
	}

	var envelope struct {
		Status      string                   `json:"status"`
		Reservation *api.ReservationResponse `json:"reservation"`
	}

	err := c.do(ctx, http.MethodPost, "/reservations/"+url.PathEscape(id)+"/confirm", nil, &envelope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return envelope.Reservation, nil
}

func (c *Client) CancelReservation(ctx context.Context, id string) (*api.ReservationResponse, error) {
	const op = "client.CancelReservation"

	if c.token == "" {
		return nil, fmt.Errorf("%s: no credential attached: %w", op, response.ErrUnauthorized)
	}

	var envelope struct {
		Status      string                   `json:"status"`
		Reservation *api.ReservationResponse `json:"reservation"`
	}

	err := c.do(ctx, http.MethodPost, "/reservations/"+url.PathEscape(id)+"/cancel", nil, &envelope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return envelope.Reservation, nil
}

func (c *Client) ListReservations(ctx context.Context, q query.ListQuery) (*api.ReservationListResponse, error) {
	const op = "client.ListReservations"

	if c.token == "" {
		return nil, fmt.Errorf("%s: no credential attached: %w", op, response.ErrUnauthorized)
	}

	path := "/reservations"
	if encoded := q.Values().Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page api.ReservationListResponse

	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &page, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, response.ErrUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromStatus(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", response.ErrUnreachable)
	}

	return nil
}

// errorFromStatus maps an error response onto exactly one workflow
// error kind, carrying the server's human-readable message along.
func errorFromStatus(resp *http.Response) error {
	var envelope response.Response
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	msg := envelope.Message
	if msg == "" {
		msg = resp.Status
	}

	var kind error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = response.ErrUnauthorized
	case http.StatusForbidden:
		kind = response.ErrForbidden
	case http.StatusNotFound:
		kind = response.ErrNotFound
	case http.StatusConflict, http.StatusLocked:
		kind = response.ErrSlotNotAvailable
	case http.StatusUnprocessableEntity:
		kind = response.ErrInvalidState
	case http.StatusBadRequest:
		kind = response.ErrBadRequest
	default:
		kind = response.ErrUnreachable
	}

	return fmt.Errorf("%s: %w", msg, kind)
}
