package adminapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bucketfs/bucketfs/pkg/registry"
	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

var validate = validator.New()

// HealthHandler serves unauthenticated liveness and readiness probes.
type HealthHandler struct {
	reg       *registry.Registry
	startTime time.Time
}

// NewHealthHandler creates a health handler. reg may be nil, in which
// case readiness always reports unhealthy.
func NewHealthHandler(reg *registry.Registry) *HealthHandler {
	return &HealthHandler{reg: reg, startTime: time.Now()}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	writeOK(w, http.StatusOK, map[string]interface{}{
		"service":    "bucketfs",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
	})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.reg == nil {
		writeError(w, http.StatusServiceUnavailable, "registry not initialized")
		return
	}
	buckets, err := h.reg.ListBuckets(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"buckets": len(buckets)})
}

// BucketHandler implements the authenticated bucket lifecycle routes.
type BucketHandler struct {
	reg *registry.Registry
}

// NewBucketHandler creates a bucket handler backed by reg.
func NewBucketHandler(reg *registry.Registry) *BucketHandler {
	return &BucketHandler{reg: reg}
}

type createBucketRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=63"`
	StorageRoot string `json:"storage_root" validate:"required"`
}

// Create handles POST /api/v1/buckets.
func (h *BucketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBucketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.reg.CreateBucket(r.Context(), uuid.NewString(), req.Name, req.StorageRoot)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, b)
}

// List handles GET /api/v1/buckets.
func (h *BucketHandler) List(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.reg.ListBuckets(r.Context())
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeOK(w, http.StatusOK, buckets)
}

// Get handles GET /api/v1/buckets/{name}.
func (h *BucketHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	b, err := h.reg.GetBucket(r.Context(), name)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeOK(w, http.StatusOK, b)
}

// Delete handles DELETE /api/v1/buckets/{name}.
func (h *BucketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.reg.DeleteBucket(r.Context(), name); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case storeerr.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case storeerr.IsAlreadyExists(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
