package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"reserva-service/api"
	"reserva-service/internal/auth"
	"reserva-service/internal/models"
	"reserva-service/internal/query"
	"reserva-service/pkg/response"
	"reserva-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type LogLister interface {
	ListLogs(ctx context.Context, actor models.Actor, q query.ListQuery) (*api.LogListResponse, error)
}

func New(log *slog.Logger, lister LogLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logs.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q := query.FromValues(r.URL.Query())
		actor := auth.ActorFromContext(r.Context())

		page, err := lister.ListLogs(r.Context(), actor, q)

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
			log.Error("invalid listing query", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid query"))
			return
		}

		if err != nil {
			log.Error("Failed to list logs", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list logs"))
			return
		}

		log.Info("Logs retrieved", slog.Int("count", len(page.Data)))

		render.JSON(w, r, page)
	}
}
