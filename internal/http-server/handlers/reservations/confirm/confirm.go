package confirm

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
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ReservationConfirmer interface {
	ConfirmReservation(ctx context.Context, actor models.Actor, id string) (*api.ReservationResponse, error)
}

type Response struct {
	response.Response
	Status      string                   `json:"status,omitempty"`
	Reservation *api.ReservationResponse `json:"reservation,omitempty"`
}

func New(log *slog.Logger, confirmer ReservationConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reservations.confirm.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		actor := auth.ActorFromContext(r.Context())

		reservation, err := confirmer.ConfirmReservation(r.Context(), actor, id)

		if errors.Is(err, response.ErrUnauthorized) {
			log.Error("missing credential")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "missing credential"))
			return
		}

		if errors.Is(err, response.ErrForbidden) {
			log.Error("admin role required")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "admin role required"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrInvalidState) {
			log.Error("reservation is not pending")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.INVALID_STATE), "only pending reservations can be confirmed"))
			return
		}

		if err != nil {
			log.Error("Failed to confirm reservation", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to confirm reservation"))
			return
		}

		log.Info("Reservation confirmed", slog.Any("reservation", reservation))

		render.JSON(w, r, Response{
			Status:      reservation.Status,
			Reservation: reservation,
		})
	}
}
