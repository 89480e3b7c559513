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

type MemberGetter interface {
	GetMember(ctx context.Context, id int64) (*api.MemberResponse, error)
	ListMembers(ctx context.Context, status *string) ([]api.MemberResponse, error)
}

type Response struct {
	response.Response
	Member *api.MemberResponse `json:"member,omitempty"`
}

type ListResponse struct {
	response.Response
	Members []api.MemberResponse `json:"members"`
}

func New(log *slog.Logger, getter MemberGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.members.get.New"

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

			member, err := getter.GetMember(r.Context(), id)
			if err != nil {
				log.Error("Failed to get member", sl.Err(err))
				status, resp := response.Classify(err, "failed to get member")
				w.WriteHeader(status)
				render.JSON(w, r, resp)
				return
			}

			render.JSON(w, r, Response{Member: member})
			return
		}

		var status *string
		if s := r.URL.Query().Get("status"); s != "" {
			status = &s
		}

		members, err := getter.ListMembers(r.Context(), status)
		if err != nil {
			log.Error("Failed to list members", sl.Err(err))
			code, resp := response.Classify(err, "failed to list members")
			w.WriteHeader(code)
			render.JSON(w, r, resp)
			return
		}

		render.JSON(w, r, ListResponse{Members: members})
	}
}
