package get

import (
	"context"
	"dojo-service/api"
	"dojo-service/internal/models"
	"dojo-service/pkg/response"
	"dojo-service/pkg/sl"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ClassGetter interface {
	GetClass(ctx context.Context, id int64) (*api.ClassResponse, error)
	ListClasses(ctx context.Context, filter models.ClassFilter) ([]api.ClassResponse, error)
}

type Response struct {
	response.Response
	Class *api.ClassResponse `json:"class,omitempty"`
}

type ListResponse struct {
	response.Response
	Classes []api.ClassResponse `json:"classes"`
}

func New(log *slog.Logger, getter ClassGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.classes.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if idStr := chi.URLParam(r, "id"); idStr != "" {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil || id <= 0 {
				log.Error("invalid id", slog.String("id", idStr))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id must be a positive integer"))
				return
			}

			class, err := getter.GetClass(r.Context(), id)
			if err != nil {
				log.Error("Failed to get class", sl.Err(err))
				status, resp := response.Classify(err, "failed to get class")
				w.WriteHeader(status)
				render.JSON(w, r, resp)
				return
			}

			render.JSON(w, r, Response{Class: class})
			return
		}

		var filter models.ClassFilter
		query := r.URL.Query()

		if active := query.Get("active"); active != "" {
			b := active == "true"
			filter.Active = &b
		}
		if raw := query.Get("instructor_id"); raw != "" {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				filter.InstructorID = &n
			}
		}
		if raw := query.Get("dojo_id"); raw != "" {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				filter.DojoID = &n
			}
		}

		classes, err := getter.ListClasses(r.Context(), filter)
		if err != nil {
			log.Error("Failed to list classes", sl.Err(err))
			status, resp := response.Classify(err, "failed to list classes")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Classes retrieved", slog.Int("count", len(classes)))

		render.JSON(w, r, ListResponse{Classes: classes})
	}
}
