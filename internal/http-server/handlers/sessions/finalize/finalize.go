package finalize

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

type SessionFinalizer interface {
	FinalizeSession(ctx context.Context, id int64) (*api.FinalizeResponse, error)
}

type Response struct {
	response.Response
	*api.FinalizeResponse
}

func New(log *slog.Logger, finalizer SessionFinalizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.finalize.New"

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

		result, err := finalizer.FinalizeSession(r.Context(), id)
		if err != nil {
			log.Error("Failed to finalize session", sl.Err(err))
			status, resp := response.Classify(err, "error finalizing attendance")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Session finalized",
			slog.Int64("id", id),
			slog.Int("records_processed", result.RecordsProcessed),
		)

		render.JSON(w, r, Response{FinalizeResponse: result})
	}
}
