package free

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"reserva-service/api"
	"reserva-service/pkg/response"
	"reserva-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SlotResolver interface {
	AvailableSlots(ctx context.Context, roomID, date string) (*api.SlotsResponse, error)
}

type Request struct {
	api.SlotsRequest
}

type Response struct {
	response.Response
	api.SlotsResponse
}

func New(log *slog.Logger, resolver SlotResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.free.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		roomID := chi.URLParam(r, "roomId")
		if roomID == "" {
			log.Error("roomId is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "roomId is required"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.Date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		slots, err := resolver.AvailableSlots(r.Context(), roomID, req.Date)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("room not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "room not found"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to resolve slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to resolve slots"))
			return
		}

		log.Info("Slots resolved", slog.String("room_id", roomID), slog.Int("count", len(slots.Slots)))

		render.JSON(w, r, Response{
			SlotsResponse: *slots,
		})
	}
}
