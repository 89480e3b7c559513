package health

import (
	"context"
	"dojo-service/pkg/response"
	"dojo-service/pkg/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Response struct {
	response.Response
	Status string `json:"status,omitempty"`
}

func New(log *slog.Logger, pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			log.Error("Health check failed", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "storage unavailable"))
			return
		}

		render.JSON(w, r, Response{Status: "ok"})
	}
}
