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

type RoomCreator interface {
	CreateRoom(ctx context.Context, actor models.Actor, req *api.RoomRequest) (*api.RoomResponse, error)
}

type Request struct {
	api.RoomRequest
}

type Response struct {
	response.Response
	Room api.RoomResponse `json:"newRoom,omitempty"`
}

func New(log *slog.Logger, creator RoomCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rooms.create.New"

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

		actor := auth.ActorFromContext(r.Context())

		room, err := creator.CreateRoom(r.Context(), actor, &req.RoomRequest)

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

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid room window", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid room"))
			return
		}

		if err != nil {
			log.Error("Failed to create room", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create room"))
			return
		}

		log.Info("Room created", slog.Any("room", room))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Room: *room,
		})
	}
}
