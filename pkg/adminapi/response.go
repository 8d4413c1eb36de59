package adminapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bucketfs/bucketfs/internal/logger"
)

// response is the standard envelope every admin API endpoint returns.
type response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("admin api: encode response", "error", err)
	}
}

func writeOK(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, response{Status: "ok", Timestamp: time.Now().UTC(), Data: data})
}

func writeError(w http.ResponseWriter, status int, errMsg string) {
	writeJSON(w, status, response{Status: "error", Timestamp: time.Now().UTC(), Error: errMsg})
}
