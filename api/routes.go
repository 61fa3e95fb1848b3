package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/internal/config"
	"github.com/garnizeh/capacity/internal/snapshot"
	"github.com/garnizeh/capacity/internal/validation"
	"github.com/garnizeh/capacity/pkg/repository"
)

// Deps are the collaborators the handlers are built from.
type Deps struct {
	Repo     *repository.Repository
	Guard    *capacity.Guard
	Reader   *snapshot.Reader
	Schemas  *validation.Loader
	Gatherer prometheus.Gatherer
}

func SetupRoutes(cfg *config.Config, version, buildTime string, deps Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	if cfg.APITimeout > 0 {
		r.Use(func(next http.Handler) http.Handler {
			return http.TimeoutHandler(next, cfg.APITimeout, `{"status":"error","message":"request timed out"}`)
		})
	}

	// Create handlers
	systemHandler := &SystemHandler{Gatherer: deps.Gatherer}
	authHandler := NewAuthHandler(deps.Repo.Engineer, cfg.JWTSecret, cfg.TokenDuration, cfg.Capacity.DefaultMaxCapacity)
	assignmentsHandler := NewAssignmentsHandler(deps.Repo.Assignment, deps.Guard, deps.Schemas)
	engineersHandler := NewEngineersHandler(deps.Repo, deps.Schemas)
	projectsHandler := NewProjectsHandler(deps.Repo, deps.Schemas)
	analyticsHandler := NewAnalyticsHandler(deps.Reader)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.Handle("/metrics", systemHandler.MetricsHandler()).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")
	authV1.HandleFunc("/profile", authHandler.Profile).Methods("GET")

	// Assignments endpoints
	apiV1.HandleFunc("/assignments", assignmentsHandler.List).Methods("GET")
	apiV1.HandleFunc("/assignments", assignmentsHandler.Create).Methods("POST")
	apiV1.HandleFunc("/assignments/{id}", assignmentsHandler.Get).Methods("GET")
	apiV1.HandleFunc("/assignments/{id}", assignmentsHandler.Update).Methods("PUT")
	apiV1.HandleFunc("/assignments/{id}", assignmentsHandler.Delete).Methods("DELETE")

	// Engineers endpoints
	apiV1.HandleFunc("/engineers", engineersHandler.List).Methods("GET")
	apiV1.HandleFunc("/engineers/by-project/{projectId}", engineersHandler.ByProject).Methods("GET")
	apiV1.HandleFunc("/engineers/{id}", engineersHandler.Update).Methods("PUT")
	apiV1.HandleFunc("/engineers/{id}", engineersHandler.Delete).Methods("DELETE")
	apiV1.HandleFunc("/engineers/{id}/assignments", engineersHandler.Assignments).Methods("GET")

	// Projects endpoints
	apiV1.HandleFunc("/projects", projectsHandler.List).Methods("GET")
	apiV1.HandleFunc("/projects", projectsHandler.Create).Methods("POST")
	apiV1.HandleFunc("/projects/{id}", projectsHandler.Get).Methods("GET")
	apiV1.HandleFunc("/projects/{id}", projectsHandler.Update).Methods("PUT")
	apiV1.HandleFunc("/projects/{id}", projectsHandler.Delete).Methods("DELETE")
	apiV1.HandleFunc("/projects/{id}/suitable-engineers", engineersHandler.Suitable).Methods("GET")

	// Analytics and dashboards
	apiV1.HandleFunc("/analytics/team", analyticsHandler.Team()).Methods("GET")
	apiV1.HandleFunc("/analytics/capacity", analyticsHandler.Capacity()).Methods("GET")
	apiV1.HandleFunc("/dashboard/manager", analyticsHandler.ManagerDashboard()).Methods("GET")
	apiV1.HandleFunc("/dashboard/engineer", analyticsHandler.EngineerDashboard).Methods("GET")
	apiV1.HandleFunc("/dashboard/analytics", analyticsHandler.TeamUtilization()).Methods("GET")

	return r
}
