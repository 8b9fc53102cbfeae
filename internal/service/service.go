package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reserva-service/api"
	"reserva-service/internal/lock"
	"reserva-service/internal/models"
	"reserva-service/internal/query"
	"reserva-service/internal/schedule"
	"reserva-service/pkg/response"
)

const defaultPageLimit = 10

type Service struct {
	store  Store
	locker lock.Locker
}

func NewService(store Store, locker lock.Locker) *Service {
	return &Service{store: store, locker: locker}
}

type Store interface {
	// Rooms
	CreateRoom(ctx context.Context, room *models.Room) (string, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]*models.Room, error)
	UpdateRoom(ctx context.Context, room *models.Room) error

	// Reservations
	CreateReservation(ctx context.Context, res *models.Reservation) (string, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListReservations(ctx context.Context, f *ReservationFilters) ([]*models.Reservation, int, error)
	ListReservedTimes(ctx context.Context, roomID, date string) ([]string, error)
	UpdateReservationStatus(ctx context.Context, id string, status models.ReservationStatus) error

	// Logs
	AppendLog(ctx context.Context, entry *models.LogEntry) error
	ListLogs(ctx context.Context, f *LogFilters) ([]*models.LogEntry, int, error)
}

// ReservationFilters is the storage-level shape of a listing query.
// UserID is set when the caller may only see its own reservations.
type ReservationFilters struct {
	UserID    *string
	Search    *string
	Date      *string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

type LogFilters struct {
	Search    *string
	Date      *string
	Limit     int
	Offset    int
}

// Rooms

func (s *Service) ListRooms(ctx context.Context) ([]*api.RoomResponse, error) {
	const op = "service.ListRooms"

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, roomResponse(room))
	}

	return result, nil
}

func (s *Service) CreateRoom(ctx context.Context, actor models.Actor, req *api.RoomRequest) (*api.RoomResponse, error) {
	const op = "service.CreateRoom"

	if actor.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if err := validateRoomWindow(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	room := &models.Room{
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		TimeBlock: req.TimeBlock,
	}

	id, err := s.store.CreateRoom(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.getRoom(ctx, id, op)
}

func (s *Service) UpdateRoom(ctx context.Context, actor models.Actor, id string, req *api.RoomRequest) (*api.RoomResponse, error) {
	const op = "service.UpdateRoom"

	if actor.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if err := validateRoomWindow(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	room.Name = req.Name
	room.StartTime = req.StartTime
	room.EndTime = req.EndTime
	room.TimeBlock = req.TimeBlock

	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.getRoom(ctx, id, op)
}

func (s *Service) getRoom(ctx context.Context, id, op string) (*api.RoomResponse, error) {
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return roomResponse(room), nil
}

func validateRoomWindow(req *api.RoomRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required: %w", response.ErrBadRequest)
	}

	// Grid validates the window and block together.
	if _, err := schedule.Grid(req.StartTime, req.EndTime, req.TimeBlock); err != nil {
		return fmt.Errorf("%v: %w", err, response.ErrBadRequest)
	}

	return nil
}

func roomResponse(room *models.Room) *api.RoomResponse {
	return &api.RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		StartTime: room.StartTime,
		EndTime:   room.EndTime,
		TimeBlock: room.TimeBlock,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

// Slots

// AvailableSlots computes the bookable times for a room on a date: the
// room grid minus every time held by a pending or confirmed
// reservation. The result is advisory; the storage uniqueness
// constraint stays authoritative.
func (s *Service) AvailableSlots(ctx context.Context, roomID, date string) (*api.SlotsResponse, error) {
	const op = "service.AvailableSlots"

	if err := schedule.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grid, err := schedule.Grid(room.StartTime, room.EndTime, room.TimeBlock)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	taken, err := s.store.ListReservedTimes(ctx, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.SlotsResponse{
		RoomID: roomID,
		Date:   date,
		Slots:  schedule.Available(grid, taken),
	}, nil
}

// Reservations

// CreateReservation books a slot. A client books only for itself and
// gets a pending reservation; an admin may book for any user and the
// reservation is created confirmed. The slot race window is narrowed
// by a redis lock on (room, date, time); the storage uniqueness
// constraint catches whatever slips through and surfaces as a conflict.
func (s *Service) CreateReservation(ctx context.Context, actor models.Actor, req *api.ReservationRequest) (*api.ReservationResponse, error) {
	const op = "service.CreateReservation"

	if actor.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	userID := req.UserID
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if err := schedule.ParseDate(req.Date); err != nil {
		return nil, fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}

	room, err := s.store.GetRoom(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grid, err := schedule.Grid(room.StartTime, room.EndTime, room.TimeBlock)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !schedule.OnGrid(grid, req.Time) {
		return nil, fmt.Errorf("%s: time %q is not on the room grid: %w", op, req.Time, response.ErrBadRequest)
	}

	lockKey := lock.SlotKey(req.RoomID, req.Date, req.Time)

	locked, err := s.locker.Lock(ctx, lockKey, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	taken, err := s.store.ListReservedTimes(ctx, req.RoomID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, t := range taken {
		if t == req.Time {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
	}

	status := models.ReservationPending
	if actor.IsAdmin() {
		status = models.ReservationConfirmed
	}

	reservation := &models.Reservation{
		UserID: userID,
		RoomID: req.RoomID,
		Date:   req.Date,
		Time:   req.Time,
		Status: status,
	}

	id, err := s.store.CreateReservation(ctx, reservation)
	if err != nil {
		if errors.Is(err, response.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.appendLog(ctx, id, actor.UserID, "created", fmt.Sprintf("room %s on %s at %s", req.RoomID, req.Date, req.Time))

	return s.getReservation(ctx, id, op)
}

func (s *Service) GetReservation(ctx context.Context, actor models.Actor, id string) (*api.ReservationResponse, error) {
	const op = "service.GetReservation"

	if actor.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	reservation, err := s.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if reservation.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	return reservationResponse(reservation), nil
}

// ConfirmReservation transitions pending -> confirmed. Admin only.
// Confirming from any other status fails with an invalid-state error,
// never silent success.
func (s *Service) ConfirmReservation(ctx context.Context, actor models.Actor, id string) (*api.ReservationResponse, error) {
	const op = "service.ConfirmReservation"

	if actor.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	reservation, err := s.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if reservation.Status != models.ReservationPending {
		return nil, fmt.Errorf("%s: cannot confirm a %s reservation: %w", op, reservation.Status, response.ErrInvalidState)
	}

	if err := s.store.UpdateReservationStatus(ctx, id, models.ReservationConfirmed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.appendLog(ctx, id, actor.UserID, "confirmed", "")

	return s.getReservation(ctx, id, op)
}

// CancelReservation transitions pending|confirmed -> cancelled, for
// the owning user or an admin. Cancelled is terminal: cancelling again
// fails, it does not toggle.
func (s *Service) CancelReservation(ctx context.Context, actor models.Actor, id string) (*api.ReservationResponse, error) {
	const op = "service.CancelReservation"

	if actor.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	reservation, err := s.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if reservation.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if reservation.Status == models.ReservationCancelled {
		return nil, fmt.Errorf("%s: reservation already cancelled: %w", op, response.ErrInvalidState)
	}

	if err := s.store.UpdateReservationStatus(ctx, id, models.ReservationCancelled); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.appendLog(ctx, id, actor.UserID, "cancelled", "")

	return s.getReservation(ctx, id, op)
}

// ListReservations returns one page of reservations. A client sees
// only its own; an admin sees all.
func (s *Service) ListReservations(ctx context.Context, actor models.Actor, q query.ListQuery) (*api.ReservationListResponse, error) {
	const op = "service.ListReservations"

	if actor.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}

	filters := &ReservationFilters{
		SortBy:    q.SortBy,
		SortOrder: string(q.SortOrder),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}
	if q.Search != "" {
		filters.Search = &q.Search
	}
	if q.Date != "" {
		if err := schedule.ParseDate(q.Date); err != nil {
			return nil, fmt.Errorf("%s: %w", op, response.ErrBadRequest)
		}
		filters.Date = &q.Date
	}
	if !actor.IsAdmin() {
		userID := actor.UserID
		filters.UserID = &userID
	}

	reservations, total, err := s.store.ListReservations(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data := make([]api.ReservationResponse, 0, len(reservations))
	for _, reservation := range reservations {
		data = append(data, *reservationResponse(reservation))
	}

	return paginate(data, total, page, limit), nil
}

func paginate(data []api.ReservationResponse, total, page, limit int) *api.ReservationListResponse {
	totalPages := (total + limit - 1) / limit

	resp := &api.ReservationListResponse{
		Data:        data,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}

	if resp.HasNextPage {
		next := page + 1
		resp.NextPage = &next
	}
	if resp.HasPrevPage {
		prev := page - 1
		resp.PrevPage = &prev
	}

	return resp
}

func (s *Service) getReservation(ctx context.Context, id, op string) (*api.ReservationResponse, error) {
	reservation, err := s.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reservationResponse(reservation), nil
}

func reservationResponse(r *models.Reservation) *api.ReservationResponse {
	return &api.ReservationResponse{
		ID:        r.ID,
		Date:      r.Date,
		Time:      r.Time,
		UserID:    r.UserID,
		RoomID:    r.RoomID,
		RoomName:  r.RoomName,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Logs

// ListLogs returns one page of the lifecycle audit trail. Admin only.
func (s *Service) ListLogs(ctx context.Context, actor models.Actor, q query.ListQuery) (*api.LogListResponse, error) {
	const op = "service.ListLogs"

	if actor.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}

	filters := &LogFilters{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if q.Search != "" {
		filters.Search = &q.Search
	}
	if q.Date != "" {
		if err := schedule.ParseDate(q.Date); err != nil {
			return nil, fmt.Errorf("%s: %w", op, response.ErrBadRequest)
		}
		filters.Date = &q.Date
	}

	entries, total, err := s.store.ListLogs(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data := make([]api.LogResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, api.LogResponse{
			ID:            entry.ID,
			ReservationID: entry.ReservationID,
			UserID:        entry.UserID,
			Action:        entry.Action,
			Detail:        entry.Detail,
			CreatedAt:     entry.CreatedAt,
		})
	}

	totalPages := (total + limit - 1) / limit

	return &api.LogListResponse{
		Data:        data,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}, nil
}

// appendLog records a lifecycle transition. Audit failures are not
// allowed to fail the transition itself.
func (s *Service) appendLog(ctx context.Context, reservationID, userID, action, detail string) {
	_ = s.store.AppendLog(ctx, &models.LogEntry{
		ReservationID: reservationID,
		UserID:        userID,
		Action:        action,
		Detail:        detail,
	})
}
