package models

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller of a workflow operation. A zero
// Actor means the call carries no credential.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsZero() bool {
	return a.UserID == ""
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type Room struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartTime string    `db:"start_time"` // wall clock "HH:MM"
	EndTime   string    `db:"end_time"`   // wall clock "HH:MM"
	TimeBlock int       `db:"time_block"` // minutes
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Reservation.Date is a pure calendar date ("2006-01-02"). It is never
// converted through a time instant, so it cannot drift across timezones.
type Reservation struct {
	ID        string            `db:"id"`
	UserID    string            `db:"user_id"`
	RoomID    string            `db:"room_id"`
	RoomName  string            `db:"room_name"`
	Date      string            `db:"date"`
	Time      string            `db:"time"` // "HH:MM", aligned to the room grid
	Status    ReservationStatus `db:"status"`
	CreatedAt time.Time         `db:"created_at"`
	UpdatedAt time.Time         `db:"updated_at"`
}

type LogEntry struct {
	ID            string    `db:"id"`
	ReservationID string    `db:"reservation_id"`
	UserID        string    `db:"user_id"`
	Action        string    `db:"action"` // created | confirmed | cancelled
	Detail        string    `db:"detail"`
	CreatedAt     time.Time `db:"created_at"`
}
