package router

import (
	adjustAttendance "dojo-service/internal/http-server/handlers/attendance/adjust"
	backdateAttendance "dojo-service/internal/http-server/handlers/attendance/backdate"
	createAttendance "dojo-service/internal/http-server/handlers/attendance/create"
	getAttendance "dojo-service/internal/http-server/handlers/attendance/get"
	createClass "dojo-service/internal/http-server/handlers/classes/create"
	getClass "dojo-service/internal/http-server/handlers/classes/get"
	"dojo-service/internal/http-server/handlers/health"
	liveAction "dojo-service/internal/http-server/handlers/live/action"
	createMember "dojo-service/internal/http-server/handlers/members/create"
	getMember "dojo-service/internal/http-server/handlers/members/get"
	endSession "dojo-service/internal/http-server/handlers/sessions/end"
	finalizeSession "dojo-service/internal/http-server/handlers/sessions/finalize"
	getSession "dojo-service/internal/http-server/handlers/sessions/get"
	startSession "dojo-service/internal/http-server/handlers/sessions/start"
	"dojo-service/internal/service"
	"dojo-service/pkg/middleware/mwAuth"
	"dojo-service/pkg/middleware/mwLogger"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// New builds the HTTP API. Reads are open to every authenticated user,
// writes need the admin or instructor role.
func New(log *slog.Logger, svc *service.Service, jwtSecret []byte) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(CORS)

	router.Get("/health", health.New(log, svc))

	router.Group(func(r chi.Router) {
		r.Use(mwAuth.New(log, jwtSecret))

		// Attendance
		r.Get("/attendance", getAttendance.New(log, svc))
		r.Get("/attendance/{id}", getAttendance.New(log, svc))
		r.Get("/attendance/class/{class_id}/date/{date}", getAttendance.NewClassDay(log, svc))

		// Live sessions
		r.Get("/attendance/sessions/{id}", getSession.New(log, svc))
		r.Get("/attendance/sessions/{id}/live", getSession.NewLive(log, svc))

		// Classes
		r.Get("/classes", getClass.New(log, svc))
		r.Get("/classes/{id}", getClass.New(log, svc))

		// Members
		r.Get("/members", getMember.New(log, svc))
		r.Get("/members/{id}", getMember.New(log, svc))

		r.Group(func(r chi.Router) {
			r.Use(mwAuth.RequireRole(mwAuth.RoleAdmin, mwAuth.RoleInstructor))

			r.Post("/attendance", createAttendance.New(log, svc))
			r.Post("/attendance/backdate", backdateAttendance.New(log, svc))
			r.Put("/attendance/{id}", adjustAttendance.New(log, svc))

			r.Post("/attendance/sessions", startSession.New(log, svc))
			r.Put("/attendance/sessions/{id}/end", endSession.New(log, svc))
			r.Post("/attendance/sessions/{id}/finalize", finalizeSession.New(log, svc))
			r.Post("/attendance/live", liveAction.New(log, svc))

			r.Post("/classes", createClass.New(log, svc))
			r.Post("/members", createMember.New(log, svc))
		})
	})

	return router
}
