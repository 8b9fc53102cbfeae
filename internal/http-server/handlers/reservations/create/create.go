package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"reserva-service/api"
	"reserva-service/internal/auth"
	"reserva-service/internal/models"
	"reserva-service/pkg/response"
	"reserva-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ReservationCreator interface {
	CreateReservation(ctx context.Context, actor models.Actor, req *api.ReservationRequest) (*api.ReservationResponse, error)
}

type Request struct {
	api.ReservationRequest
}

type Response struct {
	response.Response
	Reservation api.ReservationResponse `json:"reservation,omitempty"`
}

func New(log *slog.Logger, creator ReservationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reservations.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if req.RoomID == "" {
			log.Error("roomId is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "roomId is required"))
			return
		}

		if req.Date == "" || req.Time == "" {
			log.Error("date or time is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date and time are required"))
			return
		}

		actor := auth.ActorFromContext(r.Context())

		reservation, err := creator.CreateReservation(r.Context(), actor, &req.ReservationRequest)

		if errors.Is(err, response.ErrUnauthorized) {
			log.Error("missing credential")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "missing credential"))
			return
		}

		if errors.Is(err, response.ErrForbidden) {
			log.Error("cannot book for another user")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "cannot book for another user"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("slot is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is locked, try again"))
			return
		}

		if errors.Is(err, response.ErrSlotNotAvailable) {
			log.Error("slot no longer available")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "slot no longer available"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("room not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "room not found"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid reservation request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date or time"))
			return
		}

		if err != nil {
			log.Error("Failed to create reservation", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create reservation"))
			return
		}

		log.Info("Reservation created", slog.Any("reservation", reservation))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Reservation: *reservation,
		})
	}
}
