package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acgh213/pointstracker/internal/audit"
	"github.com/acgh213/pointstracker/internal/auth"
	"github.com/acgh213/pointstracker/internal/config"
	"github.com/acgh213/pointstracker/internal/observability"
	"github.com/acgh213/pointstracker/internal/pagination"
	"github.com/acgh213/pointstracker/internal/requests"
)

// RequestStore is the request data the admin routes read and resolve.
type RequestStore interface {
	ListByStatus(ctx context.Context, status string, page *pagination.Page) ([]requests.Request, error)
	Resolve(ctx context.Context, id int64, in requests.ResolveInput) error
}

type AuditLogger interface {
	Log(ctx context.Context, e audit.Entry) (uuid.UUID, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server is built from.
type Deps struct {
	Config   *config.Config
	Auth     *auth.Service
	Requests RequestStore
	Audit    AuditLogger
	DB       Pinger
}

type Server struct {
	cfg      *config.Config
	db       Pinger
	auth     *auth.Service
	authMw   *auth.Middleware
	audit    AuditLogger
	requests RequestStore
}

// NewRouter wires the production dependencies around a database pool.
func NewRouter(db *pgxpool.Pool, cfg *config.Config, authService *auth.Service) http.Handler {
	return NewHandler(Deps{
		Config:   cfg,
		Auth:     authService,
		Requests: requests.NewRepository(db),
		Audit:    audit.NewLogger(db),
		DB:       db,
	})
}

func NewHandler(deps Deps) http.Handler {
	s := &Server{
		cfg:      deps.Config,
		db:       deps.DB,
		auth:     deps.Auth,
		authMw:   auth.NewMiddleware(deps.Auth),
		audit:    deps.Audit,
		requests: deps.Requests,
	}

	observability.RegisterMetrics()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if deps.Config != nil && deps.Config.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", observability.Handler())

	r.Post("/api/admin/login", s.handleLogin)

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMw.RequireAdmin)

		r.Get("/api/requests/pending", s.handleListRequests(requests.StatusPending))
		r.Get("/api/requests/approved", s.handleListRequests(requests.StatusApproved))
		r.Put("/api/requests/{id}", s.handleResolveRequest)
	})

	return r
}
