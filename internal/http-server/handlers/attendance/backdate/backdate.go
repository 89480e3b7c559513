package backdate

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

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type BackdatedCreator interface {
	CreateBackdatedAttendance(ctx context.Context, actorID int64, req *api.BackdateRequest) (*api.AttendanceResponse, error)
}

type Request struct {
	api.BackdateRequest
}

type Response struct {
	response.Response
	Attendance *api.AttendanceResponse `json:"attendance,omitempty"`
}

var v = validate.New()

func New(log *slog.Logger, creator BackdatedCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.backdate.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if err := v.Struct(req.BackdateRequest); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		attendance, err := creator.CreateBackdatedAttendance(r.Context(), user.ID, &req.BackdateRequest)
		if err != nil {
			log.Error("Failed to backdate attendance", sl.Err(err))
			status, resp := response.Classify(err, "failed to backdate attendance")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Backdated attendance created",
			slog.Int64("id", attendance.ID),
			slog.Int64("adjusted_by", user.ID),
		)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Attendance: attendance})
	}
}
