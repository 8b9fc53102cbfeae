package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"reserva-service/internal/models"
	"reserva-service/internal/service"
	"reserva-service/pkg/response"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Booking uniqueness lives here: reservations carry a partial unique
// index on (room_id, date, time) WHERE status <> 'cancelled'. The
// availability resolver is advisory; this index is authoritative.
//
// Expected schema:
//
//	CREATE TABLE rooms (
//	    id          TEXT PRIMARY KEY,
//	    name        TEXT NOT NULL,
//	    start_time  TEXT NOT NULL,
//	    end_time    TEXT NOT NULL,
//	    time_block  INT  NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE reservations (
//	    id          TEXT PRIMARY KEY,
//	    user_id     TEXT NOT NULL,
//	    room_id     TEXT NOT NULL REFERENCES rooms(id),
//	    date        TEXT NOT NULL,
//	    time        TEXT NOT NULL,
//	    status      TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE UNIQUE INDEX reservations_slot_idx
//	    ON reservations (room_id, date, time)
//	    WHERE status <> 'cancelled';
//
//	CREATE TABLE reservation_logs (
//	    id              TEXT PRIMARY KEY,
//	    reservation_id  TEXT NOT NULL,
//	    user_id         TEXT NOT NULL,
//	    action          TEXT NOT NULL,
//	    detail          TEXT NOT NULL DEFAULT '',
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// #### rooms ####

func (s *Storage) CreateRoom(ctx context.Context, room *models.Room) (string, error) {
	const op = "storage.postgres.CreateRoom"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, start_time, end_time, time_block)
		VALUES ($1, $2, $3, $4, $5)`,
		id,
		room.Name,
		room.StartTime,
		room.EndTime,
		room.TimeBlock,
	)
	if err != nil {
		if sqlErr, ok := err.(*pq.Error); ok && sqlErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	const op = "storage.postgres.GetRoom"

	var room models.Room

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_time, end_time, time_block, created_at, updated_at
		FROM rooms WHERE id=$1`, id).
		Scan(
			&room.ID,
			&room.Name,
			&room.StartTime,
			&room.EndTime,
			&room.TimeBlock,
			&room.CreatedAt,
			&room.UpdatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &room, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*models.Room, error) {
	const op = "storage.postgres.ListRooms"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start_time, end_time, time_block, created_at, updated_at
		FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		var room models.Room

		err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.StartTime,
			&room.EndTime,
			&room.TimeBlock,
			&room.CreatedAt,
			&room.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		rooms = append(rooms, &room)
	}

	return rooms, nil
}

func (s *Storage) UpdateRoom(ctx context.Context, room *models.Room) error {
	const op = "storage.postgres.UpdateRoom"

	res, err := s.db.ExecContext(ctx,
		`UPDATE rooms
		SET name=$1, start_time=$2, end_time=$3, time_block=$4, updated_at=now()
		WHERE id=$5`,
		room.Name,
		room.StartTime,
		room.EndTime,
		room.TimeBlock,
		room.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### reservations ####

func (s *Storage) CreateReservation(ctx context.Context, reservation *models.Reservation) (string, error) {
	const op = "storage.postgres.CreateReservation"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations (id, user_id, room_id, date, time, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id,
		reservation.UserID,
		reservation.RoomID,
		reservation.Date,
		reservation.Time,
		string(reservation.Status),
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		if ok && sqlErr.Code == "23503" {
			return "", fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	const op = "storage.postgres.GetReservation"

	var reservation models.Reservation

	err := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.user_id, r.room_id, rm.name, r.date, r.time, r.status, r.created_at, r.updated_at
		FROM reservations r
		JOIN rooms rm ON rm.id = r.room_id
		WHERE r.id=$1`, id).
		Scan(
			&reservation.ID,
			&reservation.UserID,
			&reservation.RoomID,
			&reservation.RoomName,
			&reservation.Date,
			&reservation.Time,
			&reservation.Status,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &reservation, nil
}

// ListReservedTimes returns the times held by non-cancelled
// reservations for a room on a date.
func (s *Storage) ListReservedTimes(ctx context.Context, roomID, date string) ([]string, error) {
	const op = "storage.postgres.ListReservedTimes"

	rows, err := s.db.QueryContext(ctx,
		`SELECT time FROM reservations
		WHERE room_id=$1 AND date=$2 AND status <> 'cancelled'
		ORDER BY time`, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var taken []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		taken = append(taken, t)
	}

	return taken, nil
}

// sortColumns whitelists what the listing endpoint may order by.
var sortColumns = map[string]string{
	"date":      "r.date",
	"time":      "r.time",
	"status":    "r.status",
	"createdAt": "r.created_at",
}

func (s *Storage) ListReservations(ctx context.Context, f *service.ReservationFilters) ([]*models.Reservation, int, error) {
	const op = "storage.postgres.ListReservations"

	var where []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != nil {
		where = append(where, "r.user_id="+arg(*f.UserID))
	}
	if f.Date != nil {
		where = append(where, "r.date="+arg(*f.Date))
	}
	if f.Search != nil {
		where = append(where, "rm.name ILIKE "+arg("%"+*f.Search+"%"))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM reservations r JOIN rooms rm ON rm.id = r.room_id` + whereClause

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	orderBy := "r.date DESC, r.time DESC"
	if col, ok := sortColumns[f.SortBy]; ok {
		direction := "ASC"
		if strings.EqualFold(f.SortOrder, "DESC") {
			direction = "DESC"
		}
		orderBy = col + " " + direction
	}

	listQuery := `SELECT r.id, r.user_id, r.room_id, rm.name, r.date, r.time, r.status, r.created_at, r.updated_at
		FROM reservations r
		JOIN rooms rm ON rm.id = r.room_id` +
		whereClause +
		` ORDER BY ` + orderBy +
		` LIMIT ` + arg(f.Limit) +
		` OFFSET ` + arg(f.Offset)

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		var reservation models.Reservation

		err := rows.Scan(
			&reservation.ID,
			&reservation.UserID,
			&reservation.RoomID,
			&reservation.RoomName,
			&reservation.Date,
			&reservation.Time,
			&reservation.Status,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}

		reservations = append(reservations, &reservation)
	}

	return reservations, total, nil
}

func (s *Storage) UpdateReservationStatus(ctx context.Context, id string, status models.ReservationStatus) error {
	const op = "storage.postgres.UpdateReservationStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE reservations SET status=$1, updated_at=now() WHERE id=$2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### logs ####

func (s *Storage) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	const op = "storage.postgres.AppendLog"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reservation_logs (id, reservation_id, user_id, action, detail)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(),
		entry.ReservationID,
		entry.UserID,
		entry.Action,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) ListLogs(ctx context.Context, f *service.LogFilters) ([]*models.LogEntry, int, error) {
	const op = "storage.postgres.ListLogs"

	var where []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != nil {
		where = append(where, "(user_id ILIKE "+arg("%"+*f.Search+"%")+" OR action ILIKE "+arg("%"+*f.Search+"%")+")")
	}
	if f.Date != nil {
		where = append(where, "created_at::date = "+arg(*f.Date))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservation_logs`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	listQuery := `SELECT id, reservation_id, user_id, action, detail, created_at
		FROM reservation_logs` +
		whereClause +
		` ORDER BY created_at DESC` +
		` LIMIT ` + arg(f.Limit) +
		` OFFSET ` + arg(f.Offset)

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var entries []*models.LogEntry
	for rows.Next() {
		var entry models.LogEntry

		err := rows.Scan(
			&entry.ID,
			&entry.ReservationID,
			&entry.UserID,
			&entry.Action,
			&entry.Detail,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}

		entries = append(entries, &entry)
	}

	return entries, total, nil
}
