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

type MemberCreator interface {
	CreateMember(ctx context.Context, req *api.MemberRequest) (*api.MemberResponse, error)
}

type Request struct {
	api.MemberRequest
}

type Response struct {
	response.Response
	Member *api.MemberResponse `json:"member,omitempty"`
}

var v = validate.New()

func New(log *slog.Logger, creator MemberCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.members.create.New"

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

		if err := v.Struct(req.MemberRequest); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		member, err := creator.CreateMember(r.Context(), &req.MemberRequest)
		if err != nil {
			log.Error("Failed to create member", sl.Err(err))
			status, resp := response.Classify(err, "failed to create member")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Member created", slog.Int64("id", member.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Member: member})
	}
}
