package get

import (
	"context"
	"dojo-service/api"
	"dojo-service/pkg/response"
	"dojo-service/pkg/sl"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AttendanceGetter interface {
	GetAttendance(ctx context.Context, id int64) (*api.AttendanceResponse, error)
	ListAttendance(ctx context.Context, q *api.AttendanceQuery) ([]api.AttendanceResponse, error)
	ClassDayAttendance(ctx context.Context, classID int64, date string) ([]api.AttendanceResponse, error)
}

type Response struct {
	response.Response
	Attendance *api.AttendanceResponse `json:"attendance,omitempty"`
}

type ListResponse struct {
	response.Response
	Attendances []api.AttendanceResponse `json:"attendances"`
}

func New(log *slog.Logger, getter AttendanceGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.get.New"

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

			attendance, err := getter.GetAttendance(r.Context(), id)
			if err != nil {
				log.Error("Failed to get attendance", sl.Err(err))
				status, resp := response.Classify(err, "failed to get attendance")
				w.WriteHeader(status)
				render.JSON(w, r, resp)
				return
			}

			render.JSON(w, r, Response{Attendance: attendance})
			return
		}

		q, err := parseQuery(r.URL.Query())
		if err != nil {
			log.Error("invalid query", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), err.Error()))
			return
		}

		attendances, err := getter.ListAttendance(r.Context(), q)
		if err != nil {
			log.Error("Failed to list attendance", sl.Err(err))
			status, resp := response.Classify(err, "failed to list attendance")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("Attendance retrieved", slog.Int("count", len(attendances)))

		render.JSON(w, r, ListResponse{Attendances: attendances})
	}
}

// NewClassDay serves the register of one class on one date.
func NewClassDay(log *slog.Logger, getter AttendanceGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.get.NewClassDay"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		classID, err := strconv.ParseInt(chi.URLParam(r, "class_id"), 10, 64)
		if err != nil || classID <= 0 {
			log.Error("invalid class_id", slog.String("class_id", chi.URLParam(r, "class_id")))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "class_id must be a positive integer"))
			return
		}

		attendances, err := getter.ClassDayAttendance(r.Context(), classID, chi.URLParam(r, "date"))
		if err != nil {
			log.Error("Failed to get class attendance", sl.Err(err))
			status, resp := response.Classify(err, "failed to get class attendance")
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}

		render.JSON(w, r, ListResponse{Attendances: attendances})
	}
}

func parseQuery(values url.Values) (*api.AttendanceQuery, error) {
	var q api.AttendanceQuery

	for _, p := range []struct {
		name string
		dst  **int64
	}{
		{"member_id", &q.MemberID},
		{"class_id", &q.ClassID},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", p.name)
		}
		*p.dst = &n
	}

	for _, p := range []struct {
		name string
		dst  **string
	}{
		{"date_from", &q.DateFrom},
		{"date_to", &q.DateTo},
		{"status", &q.Status},
		{"attendance_type", &q.AttendanceType},
	} {
		if raw := values.Get(p.name); raw != "" {
			*p.dst = &raw
		}
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &q.Limit},
		{"offset", &q.Offset},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", p.name)
		}
		*p.dst = n
	}

	return &q, nil
}
