package create

import (
	"context"
	"dojo-service/api"
	"dojo-service/pkg/response"
	"dojo-service/pkg/sl"
	"dojo-service/pkg/validate"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type AttendanceCreator interface {
	CreateAttendance(ctx context.Context, req *api.AttendanceRequest) (*api.AttendanceResponse, error)
}

type Request struct {
	api.AttendanceRequest
}

type Response struct {
	response.Response
	Attendance *api.AttendanceResponse `json:"attendance,omitempty"`
}

var v = validate.New()

func New(log *slog.Logger, creator AttendanceCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.create.New"

		log := log.With(
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

		if err := v.Struct(req.AttendanceRequest); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		attendance, err := creator.CreateAttendance(r.Context(), &req.AttendanceRequest)
		if err != nil {
			log.Error("Failed to create attendance", sl.Err(err))
			status, resp := response.Classify(err, "failed to create attendance")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Attendance created", slog.Int64("id", attendance.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Attendance: attendance})
	}
}
