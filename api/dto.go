package api

import "time"

type RoomRequest struct {
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	TimeBlock int    `json:"time_block"`
}

type RoomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	TimeBlock int       `json:"time_block"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SlotsRequest struct {
	Date string `json:"date"`
}

type SlotsResponse struct {
	RoomID string   `json:"roomId"`
	Date   string   `json:"date"`
	Slots  []string `json:"slots"`
}

type ReservationRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	RoomID string `json:"roomId"`
	UserID string `json:"userId,omitempty"`
}

type ReservationResponse struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	UserID    string    `json:"userId"`
	RoomID    string    `json:"roomId"`
	RoomName  string    `json:"roomName,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ReservationListResponse struct {
	Data        []ReservationResponse `json:"data"`
	TotalItems  int                   `json:"totalItems"`
	TotalPages  int                   `json:"totalPages"`
	CurrentPage int                   `json:"currentPage"`
	HasNextPage bool                  `json:"hasNextPage"`
	HasPrevPage bool                  `json:"hasPrevPage"`
	NextPage    *int                  `json:"nextPage"`
	PrevPage    *int                  `json:"prevPage"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type LogResponse struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservationId"`
	UserID        string    `json:"userId"`
	Action        string    `json:"action"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type LogListResponse struct {
	Data        []LogResponse `json:"data"`
	TotalItems  int           `json:"totalItems"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	HasNextPage bool          `json:"hasNextPage"`
	HasPrevPage bool          `json:"hasPrevPage"`
}
