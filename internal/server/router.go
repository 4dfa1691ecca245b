package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/arafta/clipdash/internal/buildinfo"
)

// Router wraps chi.Router with the dev-server routes.
type Router struct {
	*chi.Mux
	logger *zap.Logger
	store  *Store
}

// RouterConfig holds configuration for creating a router.
type RouterConfig struct {
	Logger *zap.Logger
	Store  *Store
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg RouterConfig) *Router {
	r := &Router{
		Mux:    chi.NewRouter(),
		logger: cfg.Logger,
		store:  cfg.Store,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", r.handleHealthz)

	// Dashboard data surface
	r.Get("/settings", r.handleGetSettings)
	r.Post("/settings", r.handlePostSettings)
	r.Get("/content-review-queue", r.handleGetQueue)
	r.Post("/content-reviews/bulk", r.handleBulkReviews)
	r.Get("/analytics/locations", r.handleLocations)
	r.Get("/dashboard-v2", r.handleDashboard)
	r.Get("/profiles/{user_id}", r.handleGetProfile)

	// Managed-auth surface
	r.Post("/auth/token", r.handleToken)
	r.Post("/auth/logout", r.handleLogout)
	r.Put("/auth/user", r.handleUpdateUser)

	return r
}

// RequestLogger returns a middleware that logs requests.
func RequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Tenants int    `json:"tenants"`
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: buildinfo.Version,
		Tenants: r.store.TenantCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (r *Router) writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
