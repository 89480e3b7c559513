package action

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

type LiveRecorder interface {
	CheckIn(ctx context.Context, sessionID, memberID int64) (*api.LiveEntryResponse, error)
	CheckOut(ctx context.Context, sessionID, memberID int64) (*api.LiveEntryResponse, error)
}

type Request struct {
	api.LiveActionRequest
}

type Response struct {
	response.Response
	Action string                 `json:"action,omitempty"`
	Entry  *api.LiveEntryResponse `json:"entry,omitempty"`
}

var v = validate.New()

func New(log *slog.Logger, recorder LiveRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.live.action.New"

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

		if err := v.Struct(req.LiveActionRequest); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		log = log.With(
			slog.Int64("session_id", req.SessionID),
			slog.Int64("member_id", req.MemberID),
			slog.String("action", req.Action),
		)

		var (
			entry  *api.LiveEntryResponse
			err    error
			status = http.StatusOK
		)

		switch req.Action {
		case api.ActionCheckIn:
			entry, err = recorder.CheckIn(r.Context(), req.SessionID, req.MemberID)
			status = http.StatusCreated
		case api.ActionCheckOut:
			entry, err = recorder.CheckOut(r.Context(), req.SessionID, req.MemberID)
		}

		if err != nil {
			log.Error("Failed to record live attendance", sl.Err(err))
			status, resp := response.Classify(err, "failed to record live attendance")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Live attendance recorded")

		w.WriteHeader(status)
		render.JSON(w, r, Response{Action: req.Action, Entry: entry})
	}
}
