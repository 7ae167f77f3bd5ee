package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/tapin14/tapin/internal/api/handler"
	"github.com/tapin14/tapin/internal/api/middleware"
	"github.com/tapin14/tapin/internal/attendance"
	"github.com/tapin14/tapin/internal/auth"
	"github.com/tapin14/tapin/internal/student"
	"github.com/tapin14/tapin/internal/team"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger       handler.DBPinger
	Version        string
	AuthService    *auth.Service
	OperatorRepo   auth.OperatorRepository
	TeamRepo       team.Repository
	StudentRepo    student.Repository
	AttendanceRepo attendance.Repository
	OpenAPISpec    []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	teamHandler := handler.NewTeamHandler(deps.TeamRepo, deps.StudentRepo)
	studentHandler := handler.NewStudentHandler(deps.StudentRepo, deps.TeamRepo)
	attendanceHandler := handler.NewAttendanceHandler(deps.AttendanceRepo, deps.StudentRepo)
	reportHandler := handler.NewReportHandler(deps.AttendanceRepo)
	operatorHandler := handler.NewOperatorHandler(deps.AuthService, deps.OperatorRepo)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.Create)
			r.Get("/", teamHandler.List)
			r.Get("/{id}", teamHandler.GetByID)
			r.Get("/{id}/students", teamHandler.ListStudents)
			r.Delete("/{id}", teamHandler.Delete)
		})

		r.Route("/students", func(r chi.Router) {
			r.Post("/", studentHandler.Register)
			r.Get("/", studentHandler.List)
		})

		r.Post("/taps", attendanceHandler.Tap)

		r.Route("/attendance", func(r chi.Router) {
			r.Get("/students/{id}", attendanceHandler.StudentHistory)
			r.Get("/teams/{id}", attendanceHandler.TeamHistory)
		})

		r.Get("/status", reportHandler.Status)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", reportHandler.DailySnapshot)
			r.Get("/daily/csv", reportHandler.DailyCSV)
		})

		r.Route("/operators", func(r chi.Router) {
			r.Use(middleware.RequireSuperuser())
			r.Post("/", operatorHandler.Create)
			r.Get("/", operatorHandler.List)
			r.Delete("/{id}", operatorHandler.Delete)
		})
	})

	return r
}
