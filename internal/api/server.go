package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/traceworks/traceback/internal/event"
	"github.com/traceworks/traceback/internal/layout"
	"github.com/traceworks/traceback/internal/store"
	"github.com/traceworks/traceback/internal/timeline"
)

// Timeline serves assembled views over stored activity.
type Timeline interface {
	TimelineWindow(ctx context.Context, start, end time.Time) ([]event.TimelineEvent, error)
	RecentTimeline(ctx context.Context) ([]event.TimelineEvent, error)
	DayViewDate(ctx context.Context, date string) (timeline.DayEvents, []layout.Block, error)
}

// Storage covers the persistence operations the HTTP surface exposes.
type Storage interface {
	ListProjects(ctx context.Context) ([]store.Project, error)
	GetProject(ctx context.Context, id int64) (*store.Project, error)
	CreateProject(ctx context.Context, name, color string) (int64, error)
	UpdateProject(ctx context.Context, id int64, name, color string) error
	DeleteProject(ctx context.Context, id int64) error
	ListRecordsByProject(ctx context.Context, projectID int64, start, end time.Time) ([]event.Record, error)

	ListRules(ctx context.Context, projectID *int64) ([]store.Rule, error)
	CreateRule(ctx context.Context, projectID int64, ruleType, matchValue string) (int64, error)
	UpdateRule(ctx context.Context, id int64, ruleType, matchValue string) error
	DeleteRule(ctx context.Context, id int64) error
	ApplyRules(ctx context.Context) (int, error)

	AssignProject(ctx context.Context, recordID uuid.UUID, projectID *int64) error
	AssignProjectToAll(ctx context.Context, recordIDs []uuid.UUID, projectID *int64) error

	ListTrustedOrgs(ctx context.Context) ([]string, error)
	AddTrustedOrg(ctx context.Context, name string) error
	RemoveTrustedOrg(ctx context.Context, name string) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	GetSyncStatus(ctx context.Context) (store.SyncStatus, error)
}

type Server struct {
	router   *chi.Mux
	port     int
	timeline Timeline
	store    Storage
}

func NewServer(port int, tl Timeline, db Storage) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		timeline: tl,
		store:    db,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/traceback/status", s.status)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/timeline", s.timelineWindow)
		r.Get("/timeline/{date}/layout", s.dayLayout)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.listProjects)
			r.Post("/", s.createProject)
			r.Get("/{id}", s.getProject)
			r.Put("/{id}", s.updateProject)
			r.Delete("/{id}", s.deleteProject)
			r.Get("/{id}/events", s.projectEvents)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.listRules)
			r.Post("/", s.createRule)
			r.Put("/{id}", s.updateRule)
			r.Delete("/{id}", s.deleteRule)
			r.Post("/apply", s.applyRules)
		})

		r.Put("/events/{id}/project", s.assignEventProject)
		r.Post("/events/assign", s.assignEventsProject)

		r.Get("/settings/{key}", s.getSetting)
		r.Put("/settings/{key}", s.setSetting)

		r.Route("/orgs", func(r chi.Router) {
			r.Get("/", s.listOrgs)
			r.Post("/", s.addOrg)
			r.Delete("/{name}", s.removeOrg)
		})

		r.Get("/sync/status", s.syncStatus)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "traceback",
		"status":  "serving",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
