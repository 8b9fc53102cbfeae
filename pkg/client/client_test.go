package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reserva-service/api"
	"reserva-service/internal/query"
	"reserva-service/pkg/response"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestAvailableSlots(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/reservations/free/room-1", r.URL.Path)

		var req api.SlotsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "2025-06-10", req.Date)

		json.NewEncoder(w).Encode(api.SlotsResponse{
			RoomID: "room-1",
			Date:   req.Date,
			Slots:  []string{"08:00", "10:00", "11:00"},
		})
	})

	c := New(srv.URL)

	slots, err := c.AvailableSlots(context.Background(), "room-1", "2025-06-10")
	require.NoError(t, err)
	require.Equal(t, []string{"08:00", "10:00", "11:00"}, slots)
}

func TestCreateReservation_AttachesBearer(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"reservation": api.ReservationResponse{ID: "res-1", Status: "pending"},
		})
	})

	c := New(srv.URL, WithToken("tok-1"))

	created, err := c.CreateReservation(context.Background(), api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: "room-1",
	})
	require.NoError(t, err)
	require.Equal(t, "res-1", created.ID)
	require.Equal(t, "pending", created.Status)
}

func TestCreateReservation_MissingCredentialIsLocalFailure(t *testing.T) {
	called := false
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	c := New(srv.URL)

	_, err := c.CreateReservation(context.Background(), api.ReservationRequest{})
	require.ErrorIs(t, err, response.ErrUnauthorized)
	require.False(t, called, "request must not be sent without a credential")
}

func TestCreateReservation_SlotRaceIsConflictNotUnreachable(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(response.Error(string(response.SLOT_NOT_AVAILABLE), "slot no longer available"))
	})

	c := New(srv.URL, WithToken("tok-1"))

	_, err := c.CreateReservation(context.Background(), api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: "room-1",
	})
	require.ErrorIs(t, err, response.ErrSlotNotAvailable)
	require.NotErrorIs(t, err, response.ErrUnreachable)
	require.Contains(t, err.Error(), "slot no longer available")
}

func TestConfirmReservation_InvalidState(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(response.Error(string(response.INVALID_STATE), "only pending reservations can be confirmed"))
	})

	c := New(srv.URL, WithToken("tok-1"))

	_, err := c.ConfirmReservation(context.Background(), "res-1")
	require.ErrorIs(t, err, response.ErrInvalidState)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, response.ErrUnauthorized},
		{http.StatusForbidden, response.ErrForbidden},
		{http.StatusNotFound, response.ErrNotFound},
		{http.StatusConflict, response.ErrSlotNotAvailable},
		{http.StatusLocked, response.ErrSlotNotAvailable},
		{http.StatusUnprocessableEntity, response.ErrInvalidState},
		{http.StatusBadRequest, response.ErrBadRequest},
		{http.StatusInternalServerError, response.ErrUnreachable},
	}

	for _, tc := range cases {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})

		c := New(srv.URL, WithToken("tok-1"))

		_, err := c.CancelReservation(context.Background(), "res-1")
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	c := New(srv.URL)

	_, err := c.AvailableSlots(context.Background(), "room-1", "2025-06-10")
	require.ErrorIs(t, err, response.ErrUnreachable)
}

func TestListReservations_QuerySerialization(t *testing.T) {
	var gotQuery string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(api.ReservationListResponse{CurrentPage: 1})
	})

	c := New(srv.URL, WithToken("tok-1"))

	q := query.ListQuery{}.WithSearch("sala").WithPage(2)
	_, err := c.ListReservations(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, "page=2&search=sala", gotQuery)

	// An empty query serializes to no query string at all.
	_, err = c.ListReservations(context.Background(), query.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, "", gotQuery)
}
