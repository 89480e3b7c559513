package get

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

type SessionGetter interface {
	GetSession(ctx context.Context, id int64) (*api.SessionResponse, error)
	LiveRoster(ctx context.Context, sessionID int64) (*api.LiveRosterResponse, error)
}

type Response struct {
	response.Response
	Session *api.SessionResponse `json:"session,omitempty"`
}

type LiveResponse struct {
	response.Response
	*api.LiveRosterResponse
}

func New(log *slog.Logger, getter SessionGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := sessionID(w, r, log)
		if !ok {
			return
		}

		session, err := getter.GetSession(r.Context(), id)
		if err != nil {
			log.Error("Failed to get session", sl.Err(err))
			status, resp := response.Classify(err, "failed to get session")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		render.JSON(w, r, Response{Session: session})
	}
}

// NewLive lists who is on the mat and who already left.
func NewLive(log *slog.Logger, getter SessionGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.get.NewLive"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := sessionID(w, r, log)
		if !ok {
			return
		}

		roster, err := getter.LiveRoster(r.Context(), id)
		if err != nil {
			log.Error("Failed to get live attendance", sl.Err(err))
			status, resp := response.Classify(err, "failed to get live attendance")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Live attendance retrieved",
			slog.Int("checked_in", len(roster.CheckedIn)),
			slog.Int("checked_out", len(roster.CheckedOut)),
		)

		render.JSON(w, r, LiveResponse{LiveRosterResponse: roster})
	}
}

func sessionID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Error("invalid id", slog.String("id", chi.URLParam(r, "id")))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id must be a positive integer"))
		return 0, false
	}
	return id, true
}
