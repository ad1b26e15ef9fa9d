package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/keywarden/keywarden/internal/core/domain"
	"github.com/keywarden/keywarden/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIHandler handles HTTP requests for key management.
type APIHandler struct {
	svc      ports.KeyService
	verifier ports.RootKeyVerifier
}

// NewAPIHandler creates and returns a new APIHandler instance.
func NewAPIHandler(svc ports.KeyService, verifier ports.RootKeyVerifier) *APIHandler {
	return &APIHandler{svc: svc, verifier: verifier}
}

// RegisterRoutes registers the API routes with the provided ServeMux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	// Public Routes
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /metrics", h.Metrics)

	// Middleware
	auth := AuthMiddleware(h.verifier)

	// Protected Routes (scoped by the root key's workspace)
	mux.Handle("POST /v1/keys.updateKey", auth(http.HandlerFunc(h.UpdateKey)))
	mux.Handle("GET /v1/keys.getKey", auth(http.HandlerFunc(h.GetKey)))
	mux.Handle("GET /v1/audit-logs", auth(http.HandlerFunc(h.ListAuditLogs)))
}

type errorResponse struct {
	Error struct {
		Code    domain.ErrorCode `json:"code"`
		Message string           `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		derr = domain.Internal("internal server error")
	}

	status := http.StatusInternalServerError
	switch derr.Code {
	case domain.CodeBadRequest:
		status = http.StatusBadRequest
	case domain.CodeUnauthorized:
		status = http.StatusUnauthorized
	case domain.CodeNotFound:
		status = http.StatusNotFound
	}

	var body errorResponse
	body.Error.Code = derr.Code
	body.Error.Message = derr.Message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if errEnc := json.NewEncoder(w).Encode(body); errEnc != nil {
		log.Printf("failed to encode error response: %v", errEnc)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// Metrics handles Prometheus metrics scraping requests.
func (h *APIHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// HealthCheck handles health check requests.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := make(map[string]string)
	checks := h.svc.HealthCheck(r.Context())

	for name, checkErr := range checks {
		if checkErr != nil {
			status = "DEGRADED"
			details[name] = checkErr.Error()
		} else {
			details[name] = "OK"
		}
	}

	resp := map[string]interface{}{
		"status":  status,
		"details": details,
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// UpdateKey applies a partial update to a key in the caller's workspace.
// Success returns an empty object; the caller already knows what it sent.
func (h *APIHandler) UpdateKey(w http.ResponseWriter, r *http.Request) {
	var update domain.KeyUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, domain.BadRequest("invalid request body: "+err.Error()))
		return
	}

	if err := domain.ValidateKeyUpdate(&update); err != nil {
		writeError(w, domain.BadRequest(err.Error()))
		return
	}

	auth, ok := AuthContext(r)
	if !ok {
		log.Printf("UpdateKey: missing auth context")
		writeError(w, domain.Unauthorized("missing authorization context"))
		return
	}

	if err := h.svc.UpdateKey(r.Context(), auth, &update); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// GetKey returns the current state of a key in the caller's workspace.
func (h *APIHandler) GetKey(w http.ResponseWriter, r *http.Request) {
	keyID := r.URL.Query().Get("keyId")
	if keyID == "" {
		writeError(w, domain.BadRequest("keyId is required"))
		return
	}

	auth, ok := AuthContext(r)
	if !ok {
		log.Printf("GetKey: missing auth context")
		writeError(w, domain.Unauthorized("missing authorization context"))
		return
	}

	key, err := h.svc.GetKey(r.Context(), auth, keyID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, key)
}

// ListAuditLogs retrieves audit entries for the caller's workspace.
func (h *APIHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	auth, ok := AuthContext(r)
	if !ok {
		log.Printf("ListAuditLogs: missing auth context")
		writeError(w, domain.Unauthorized("missing authorization context"))
		return
	}

	logs, err := h.svc.ListAuditLogs(r.Context(), auth.WorkspaceID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}
