package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bucketfs/bucketfs/internal/logger"
	"github.com/bucketfs/bucketfs/pkg/registry"
)

// NewRouter builds the admin API's chi router.
//
// Routes:
//   - GET  /health        - liveness probe, unauthenticated
//   - GET  /health/ready  - readiness probe, unauthenticated
//   - POST /api/v1/buckets        - create a bucket
//   - GET  /api/v1/buckets        - list buckets
//   - GET  /api/v1/buckets/{name} - get a bucket
//   - DELETE /api/v1/buckets/{name} - delete a bucket
func NewRouter(reg *registry.Registry, jwtService *JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := NewHealthHandler(reg)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Route("/api/v1/buckets", func(r chi.Router) {
		r.Use(JWTAuth(jwtService))

		bucketHandler := NewBucketHandler(reg)
		r.Post("/", bucketHandler.Create)
		r.Get("/", bucketHandler.List)
		r.Get("/{name}", bucketHandler.Get)
		r.Delete("/{name}", bucketHandler.Delete)
	})

	return r
}

func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs each request at INFO (DEBUG for health probes) once
// it completes, using the wrapped response writer to capture status.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("admin api request completed", logArgs...)
		} else {
			logger.Info("admin api request completed", logArgs...)
		}
	})
}
