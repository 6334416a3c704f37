package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/smbsec/internal/logger"
	"github.com/marmos91/smbsec/pkg/api/auth"
	"github.com/marmos91/smbsec/pkg/api/handlers"
	"github.com/marmos91/smbsec/pkg/api/middleware"
	"github.com/marmos91/smbsec/pkg/identity"
	"github.com/marmos91/smbsec/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET  /health              - Liveness probe
//   - GET  /health/ready        - Readiness probe
//   - GET  /metrics             - Prometheus scrape endpoint (404 when disabled)
//   - POST /api/v1/auth/login   - Credential login, returns a token pair
//   - POST /api/v1/auth/refresh - Token refresh
//   - GET  /api/v1/auth/me      - Current user (authenticated)
//   - /api/v1/users...          - User management (admin only)
func NewRouter(users identity.UserStore, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(users)
	authHandler := handlers.NewAuthHandler(users, jwtService)
	userHandler := handlers.NewUserHandler(users)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Prometheus scrape endpoint - answers 404 when metrics are disabled
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		// Authenticated endpoints. Users who must change their password
		// can still see who they are and change it.
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RequirePasswordChange(
				"/api/v1/auth/me",
				"/api/v1/users/me/password",
			))

			r.Get("/auth/me", authHandler.Me)
			r.Post("/users/me/password", userHandler.ChangeOwnPassword)

			// Admin-only user management
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				r.Post("/users", userHandler.Create)
				r.Get("/users", userHandler.List)
				r.Get("/users/{username}", userHandler.Get)
				r.Put("/users/{username}", userHandler.Update)
				r.Delete("/users/{username}", userHandler.Delete)
				r.Post("/users/{username}/password", userHandler.ResetPassword)
			})
		})
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		)
	})
}
