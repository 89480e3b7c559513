package end

import (
	"context"
	"dojo-service/api"
	"dojo-service/pkg/response"
	"dojo-service/pkg/sl"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SessionEnder interface {
	EndSession(ctx context.Context, id int64) (*api.SessionResponse, error)
}

type Response struct {
	response.Response
	Session *api.SessionResponse `json:"session,omitempty"`
}

func New(log *slog.Logger, ender SessionEnder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.end.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			log.Error("invalid id", slog.String("id", chi.URLParam(r, "id")))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id must be a positive integer"))
			return
		}

		session, err := ender.EndSession(r.Context(), id)
		if err != nil {
			log.Error("Failed to end session", sl.Err(err))
			status, resp := response.Classify(err, "failed to end session")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Session ended", slog.Int64("id", id))

		render.JSON(w, r, Response{Session: session})
	}
}
