package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"reserva-service/api"
	"reserva-service/internal/models"
	"reserva-service/internal/query"
	"reserva-service/pkg/response"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rooms        map[string]*models.Room
	reservations map[string]*models.Reservation
	logs         []*models.LogEntry
	nextID       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:        make(map[string]*models.Room),
		reservations: make(map[string]*models.Reservation),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateRoom(_ context.Context, room *models.Room) (string, error) {
	id := f.id("room")
	cp := *room
	cp.ID = id
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.rooms[id] = &cp
	return id, nil
}

func (f *fakeStore) GetRoom(_ context.Context, id string) (*models.Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	cp := *room
	return &cp, nil
}

func (f *fakeStore) ListRooms(_ context.Context) ([]*models.Room, error) {
	result := make([]*models.Room, 0, len(f.rooms))
	for _, room := range f.rooms {
		cp := *room
		result = append(result, &cp)
	}
	return result, nil
}

func (f *fakeStore) UpdateRoom(_ context.Context, room *models.Room) error {
	if _, ok := f.rooms[room.ID]; !ok {
		return response.ErrNotFound
	}
	cp := *room
	cp.UpdatedAt = time.Now()
	f.rooms[room.ID] = &cp
	return nil
}

func (f *fakeStore) CreateReservation(_ context.Context, res *models.Reservation) (string, error) {
	for _, existing := range f.reservations {
		if existing.RoomID == res.RoomID && existing.Date == res.Date && existing.Time == res.Time &&
			existing.Status != models.ReservationCancelled {
			return "", response.ErrConflict
		}
	}
	id := f.id("res")
	cp := *res
	cp.ID = id
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.reservations[id] = &cp
	return id, nil
}

func (f *fakeStore) GetReservation(_ context.Context, id string) (*models.Reservation, error) {
	res, ok := f.reservations[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeStore) ListReservations(_ context.Context, filters *ReservationFilters) ([]*models.Reservation, int, error) {
	var matched []*models.Reservation
	for _, res := range f.reservations {
		if filters.UserID != nil && res.UserID != *filters.UserID {
			continue
		}
		if filters.Date != nil && res.Date != *filters.Date {
			continue
		}
		cp := *res
		matched = append(matched, &cp)
	}

	total := len(matched)
	if filters.Offset >= total {
		return nil, total, nil
	}
	end := filters.Offset + filters.Limit
	if end > total {
		end = total
	}
	return matched[filters.Offset:end], total, nil
}

func (f *fakeStore) ListReservedTimes(_ context.Context, roomID, date string) ([]string, error) {
	var taken []string
	for _, res := range f.reservations {
		if res.RoomID == roomID && res.Date == date && res.Status != models.ReservationCancelled {
			taken = append(taken, res.Time)
		}
	}
	return taken, nil
}

func (f *fakeStore) UpdateReservationStatus(_ context.Context, id string, status models.ReservationStatus) error {
	res, ok := f.reservations[id]
	if !ok {
		return response.ErrNotFound
	}
	res.Status = status
	res.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) AppendLog(_ context.Context, entry *models.LogEntry) error {
	cp := *entry
	cp.ID = f.id("log")
	cp.CreatedAt = time.Now()
	f.logs = append(f.logs, &cp)
	return nil
}

func (f *fakeStore) ListLogs(_ context.Context, filters *LogFilters) ([]*models.LogEntry, int, error) {
	total := len(f.logs)
	if filters.Offset >= total {
		return nil, total, nil
	}
	end := filters.Offset + filters.Limit
	if end > total {
		end = total
	}
	return f.logs[filters.Offset:end], total, nil
}

type fakeLocker struct {
	denied  bool
	locked  []string
	unlocks []string
}

func (f *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.denied {
		return false, nil
	}
	f.locked = append(f.locked, key)
	return true, nil
}

func (f *fakeLocker) Unlock(_ context.Context, key string) error {
	f.unlocks = append(f.unlocks, key)
	return nil
}

var (
	admin  = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	client = models.Actor{UserID: "user-1", Role: models.RoleUser}
	nobody = models.Actor{}
)

func newTestService(t *testing.T) (*Service, *fakeStore, string) {
	t.Helper()

	store := newFakeStore()
	svc := NewService(store, &fakeLocker{})

	room, err := svc.CreateRoom(context.Background(), admin, &api.RoomRequest{
		Name:      "A",
		StartTime: "08:00",
		EndTime:   "12:00",
		TimeBlock: 60,
	})
	require.NoError(t, err)

	return svc, store, room.ID
}

func TestAvailableSlots_EmptyRoom(t *testing.T) {
	svc, _, roomID := newTestService(t)

	resp, err := svc.AvailableSlots(context.Background(), roomID, "2025-06-10")
	require.NoError(t, err)
	require.Equal(t, []string{"08:00", "09:00", "10:00", "11:00"}, resp.Slots)
}

func TestAvailableSlots_ExcludesConfirmed(t *testing.T) {
	svc, _, roomID := newTestService(t)

	_, err := svc.CreateReservation(context.Background(), admin, &api.ReservationRequest{
		Date: "2025-06-10", Time: "09:00", RoomID: roomID, UserID: "user-9",
	})
	require.NoError(t, err)

	resp, err := svc.AvailableSlots(context.Background(), roomID, "2025-06-10")
	require.NoError(t, err)
	require.Equal(t, []string{"08:00", "10:00", "11:00"}, resp.Slots)
}

func TestAvailableSlots_CancelledSlotFreedAgain(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "09:00", RoomID: roomID,
	})
	require.NoError(t, err)

	_, err = svc.CancelReservation(context.Background(), client, created.ID)
	require.NoError(t, err)

	resp, err := svc.AvailableSlots(context.Background(), roomID, "2025-06-10")
	require.NoError(t, err)
	require.Contains(t, resp.Slots, "09:00")
}

func TestAvailableSlots_UnknownRoom(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AvailableSlots(context.Background(), "missing", "2025-06-10")
	require.ErrorIs(t, err, response.ErrNotFound)
}

func TestAvailableSlots_BadDate(t *testing.T) {
	svc, _, roomID := newTestService(t)

	_, err := svc.AvailableSlots(context.Background(), roomID, "10/06/2025")
	require.ErrorIs(t, err, response.ErrBadRequest)
}

func TestCreateReservation_ClientGetsPending(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)
	require.Equal(t, string(models.ReservationPending), created.Status)
	require.Equal(t, client.UserID, created.UserID)
}

func TestCreateReservation_AdminCreatesConfirmed(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), admin, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID, UserID: "user-7",
	})
	require.NoError(t, err)
	require.Equal(t, string(models.ReservationConfirmed), created.Status)
	require.Equal(t, "user-7", created.UserID)
}

func TestCreateReservation_RequiresCredential(t *testing.T) {
	svc, _, roomID := newTestService(t)

	_, err := svc.CreateReservation(context.Background(), nobody, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.ErrorIs(t, err, response.ErrUnauthorized)
}

func TestCreateReservation_ClientCannotBookForOthers(t *testing.T) {
	svc, _, roomID := newTestService(t)

	_, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID, UserID: "someone-else",
	})
	require.ErrorIs(t, err, response.ErrForbidden)
}

func TestCreateReservation_SlotRaceSurfacesConflict(t *testing.T) {
	svc, _, roomID := newTestService(t)

	_, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "09:00", RoomID: roomID,
	})
	require.NoError(t, err)

	_, err = svc.CreateReservation(context.Background(), admin, &api.ReservationRequest{
		Date: "2025-06-10", Time: "09:00", RoomID: roomID, UserID: "user-2",
	})
	require.ErrorIs(t, err, response.ErrSlotNotAvailable)
}

func TestCreateReservation_OffGridTimeRejected(t *testing.T) {
	svc, _, roomID := newTestService(t)

	_, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:30", RoomID: roomID,
	})
	require.ErrorIs(t, err, response.ErrBadRequest)

	// 12:00 is the closing time: a slot starting there would end past it.
	_, err = svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "12:00", RoomID: roomID,
	})
	require.ErrorIs(t, err, response.ErrBadRequest)
}

func TestCreateReservation_LockContention(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeLocker{denied: true})

	room, err := svc.CreateRoom(context.Background(), admin, &api.RoomRequest{
		Name: "B", StartTime: "08:00", EndTime: "10:00", TimeBlock: 60,
	})
	require.NoError(t, err)

	_, err = svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: room.ID,
	})
	require.ErrorIs(t, err, response.ErrLocked)
}

func TestCreateReservation_ReleasesLock(t *testing.T) {
	store := newFakeStore()
	locker := &fakeLocker{}
	svc := NewService(store, locker)

	room, err := svc.CreateRoom(context.Background(), admin, &api.RoomRequest{
		Name: "B", StartTime: "08:00", EndTime: "10:00", TimeBlock: 60,
	})
	require.NoError(t, err)

	_, err = svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: room.ID,
	})
	require.NoError(t, err)
	require.Len(t, locker.unlocks, 1)
	require.Equal(t, locker.locked, locker.unlocks)
}

func TestConfirmReservation_FromPending(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmReservation(context.Background(), admin, created.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.ReservationConfirmed), confirmed.Status)
}

func TestConfirmReservation_AdminOnly(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)

	_, err = svc.ConfirmReservation(context.Background(), client, created.ID)
	require.ErrorIs(t, err, response.ErrForbidden)

	_, err = svc.ConfirmReservation(context.Background(), nobody, created.ID)
	require.ErrorIs(t, err, response.ErrUnauthorized)
}

func TestConfirmReservation_AlreadyConfirmed(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)

	_, err = svc.ConfirmReservation(context.Background(), admin, created.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmReservation(context.Background(), admin, created.ID)
	require.ErrorIs(t, err, response.ErrInvalidState)
}

func TestConfirmReservation_CancelledIsTerminal(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)

	_, err = svc.CancelReservation(context.Background(), client, created.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmReservation(context.Background(), admin, created.ID)
	require.ErrorIs(t, err, response.ErrInvalidState)
}

func TestConfirmReservation_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ConfirmReservation(context.Background(), admin, "missing")
	require.ErrorIs(t, err, response.ErrNotFound)
}

func TestCancelReservation_OwnerCancels(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelReservation(context.Background(), client, created.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.ReservationCancelled), cancelled.Status)
}

func TestCancelReservation_AdminCancelsConfirmed(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), admin, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID, UserID: "user-5",
	})
	require.NoError(t, err)
	require.Equal(t, string(models.ReservationConfirmed), created.Status)

	cancelled, err := svc.CancelReservation(context.Background(), admin, created.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.ReservationCancelled), cancelled.Status)
}

func TestCancelReservation_StrangerForbidden(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)

	stranger := models.Actor{UserID: "user-2", Role: models.RoleUser}
	_, err = svc.CancelReservation(context.Background(), stranger, created.ID)
	require.ErrorIs(t, err, response.ErrForbidden)
}

func TestCancelReservation_DoubleCancel(t *testing.T) {
	svc, _, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)

	_, err = svc.CancelReservation(context.Background(), client, created.ID)
	require.NoError(t, err)

	_, err = svc.CancelReservation(context.Background(), client, created.ID)
	require.ErrorIs(t, err, response.ErrInvalidState)
}

func TestListReservations_ClientSeesOnlyOwn(t *testing.T) {
	svc, _, roomID := newTestService(t)

	_, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)

	_, err = svc.CreateReservation(context.Background(), admin, &api.ReservationRequest{
		Date: "2025-06-10", Time: "09:00", RoomID: roomID, UserID: "user-2",
	})
	require.NoError(t, err)

	page, err := svc.ListReservations(context.Background(), client, query.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalItems)
	require.Equal(t, client.UserID, page.Data[0].UserID)

	adminPage, err := svc.ListReservations(context.Background(), admin, query.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, adminPage.TotalItems)
}

func TestListReservations_PaginationEnvelope(t *testing.T) {
	svc, _, roomID := newTestService(t)

	for _, slot := range []string{"08:00", "09:00", "10:00"} {
		_, err := svc.CreateReservation(context.Background(), admin, &api.ReservationRequest{
			Date: "2025-06-10", Time: slot, RoomID: roomID, UserID: "user-3",
		})
		require.NoError(t, err)
	}

	page, err := svc.ListReservations(context.Background(), admin, query.ListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, page.TotalItems)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, 1, page.CurrentPage)
	require.True(t, page.HasNextPage)
	require.False(t, page.HasPrevPage)
	require.NotNil(t, page.NextPage)
	require.Equal(t, 2, *page.NextPage)
	require.Nil(t, page.PrevPage)

	last, err := svc.ListReservations(context.Background(), admin, query.ListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, last.Data, 1)
	require.False(t, last.HasNextPage)
	require.True(t, last.HasPrevPage)
}

func TestLifecycleWritesAuditLog(t *testing.T) {
	svc, store, roomID := newTestService(t)

	created, err := svc.CreateReservation(context.Background(), client, &api.ReservationRequest{
		Date: "2025-06-10", Time: "08:00", RoomID: roomID,
	})
	require.NoError(t, err)

	_, err = svc.ConfirmReservation(context.Background(), admin, created.ID)
	require.NoError(t, err)

	_, err = svc.CancelReservation(context.Background(), admin, created.ID)
	require.NoError(t, err)

	require.Len(t, store.logs, 3)
	require.Equal(t, "created", store.logs[0].Action)
	require.Equal(t, "confirmed", store.logs[1].Action)
	require.Equal(t, "cancelled", store.logs[2].Action)

	logs, err := svc.ListLogs(context.Background(), admin, query.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 3, logs.TotalItems)

	_, err = svc.ListLogs(context.Background(), client, query.ListQuery{})
	require.ErrorIs(t, err, response.ErrForbidden)
}

func TestRoomValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateRoom(context.Background(), admin, &api.RoomRequest{
		Name: "C", StartTime: "12:00", EndTime: "08:00", TimeBlock: 60,
	})
	require.ErrorIs(t, err, response.ErrBadRequest)

	_, err = svc.CreateRoom(context.Background(), admin, &api.RoomRequest{
		Name: "C", StartTime: "08:00", EndTime: "12:00", TimeBlock: 0,
	})
	require.ErrorIs(t, err, response.ErrBadRequest)

	_, err = svc.CreateRoom(context.Background(), client, &api.RoomRequest{
		Name: "C", StartTime: "08:00", EndTime: "12:00", TimeBlock: 60,
	})
	require.ErrorIs(t, err, response.ErrForbidden)
}
