package adjust

import (
	"context"
	"dojo-service/api"
	"dojo-service/pkg/middleware/mwAuth"
	"dojo-service/pkg/response"
	"dojo-service/pkg/sl"
	"dojo-service/pkg/validate"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type AttendanceAdjuster interface {
	AdjustAttendance(ctx context.Context, actorID, id int64, req *api.AdjustRequest) (*api.AttendanceResponse, error)
}

type Request struct {
	api.AdjustRequest
}

type Response struct {
	response.Response
	Attendance *api.AttendanceResponse `json:"attendance,omitempty"`
}

var v = validate.New()

func New(log *slog.Logger, adjuster AttendanceAdjuster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.adjust.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, ok := mwAuth.UserFrom(r.Context())
		if !ok {
			log.Error("no authenticated user in context")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "access token required"))
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			log.Error("invalid id", slog.String("id", chi.URLParam(r, "id")))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id must be a positive integer"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if err := v.Struct(req.AdjustRequest); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		attendance, err := adjuster.AdjustAttendance(r.Context(), user.ID, id, &req.AdjustRequest)
		if err != nil {
			log.Error("Failed to adjust attendance", sl.Err(err))
			status, resp := response.Classify(err, "failed to adjust attendance")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Attendance adjusted",
			slog.Int64("id", id),
			slog.Int64("adjusted_by", user.ID),
		)

		render.JSON(w, r, Response{Attendance: attendance})
	}
}
