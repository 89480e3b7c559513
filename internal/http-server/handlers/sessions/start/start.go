package start

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

type SessionStarter interface {
	StartSession(ctx context.Context, instructorID int64, req *api.SessionRequest) (*api.SessionResponse, error)
}

type Request struct {
	api.SessionRequest
}

type Response struct {
	response.Response
	Session *api.SessionResponse `json:"session,omitempty"`
}

var v = validate.New()

func New(log *slog.Logger, starter SessionStarter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.start.New"

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

		if err := v.Struct(req.SessionRequest); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		session, err := starter.StartSession(r.Context(), user.ID, &req.SessionRequest)
		if err != nil {
			log.Error("Failed to start session", sl.Err(err))
			status, resp := response.Classify(err, "failed to start session")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Session started", slog.Int64("id", session.ID), slog.Int64("class_id", session.ClassID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Session: session})
	}
}
