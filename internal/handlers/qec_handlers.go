package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaskrrish/Go-QEC/internal/logging"
	"github.com/jaskrrish/Go-QEC/internal/models/qec"
	qeccore "github.com/jaskrrish/Go-QEC/internal/qec"
	"github.com/jaskrrish/Go-QEC/internal/qec/correction"
	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
)

// maxBodyBytes caps request bodies; a 7-qubit state is about 2KiB of hex
const maxBodyBytes = 1 << 20

// QECHandler manages correction-run HTTP requests
type QECHandler struct {
	runManager *qeccore.RunManager
	logger     *zap.Logger
}

// NewQECHandler creates a handler backed by a run manager
func NewQECHandler(rm *qeccore.RunManager, logger *zap.Logger) *QECHandler {
	return &QECHandler{
		runManager: rm,
		logger:     logging.OrNop(logger),
	}
}

// Routes registers every QEC route on mux
func (h *QECHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/qec/health", h.HealthCheckHandler)
	mux.HandleFunc("/api/v1/qec/code", h.CodeHandler)
	mux.HandleFunc("/api/v1/qec/runs", h.handleRuns)
	mux.HandleFunc("/api/v1/qec/runs/", h.handleRun)
	mux.HandleFunc("/api/v1/qec/verify", h.VerifyHandler)
}

// handleRuns routes requests on the run collection
func (h *QECHandler) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.ListRunsHandler(w, r)
		return
	}
	h.CreateRunHandler(w, r)
}

// handleRun routes run-specific requests
func (h *QECHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/execute"):
		h.ExecuteRunHandler(w, r)
	case r.Method == http.MethodDelete:
		h.DeleteRunHandler(w, r)
	default:
		h.GetRunHandler(w, r)
	}
}

// CodeHandler handles GET /api/v1/qec/code
func (h *QECHandler) CodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := h.runManager.Code()
	respondWithJSON(w, http.StatusOK, qec.CodeResponse{
		Name:              code.Name(),
		NumQubits:         code.NumQubits(),
		Distance:          code.Distance(),
		CorrectableWeight: code.CorrectableWeight(),
		Stabilizers:       code.Stabilizers(),
		LogicalOperators:  code.LogicalOperators(),
		TableSize:         code.TableSize(),
	})
}

// CreateRunHandler handles POST /api/v1/qec/runs
func (h *QECHandler) CreateRunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req qec.RunCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	run, err := h.runManager.CreateRun(r.Context(), &req)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, qec.RunResponse{Run: run})
}

// ListRunsHandler handles GET /api/v1/qec/runs
func (h *QECHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs, err := h.runManager.ListRuns(r.Context())
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		respondWithError(w, statusFor(err), err.Error())
		return
	}

	resp := qec.RunListResponse{Runs: make([]qec.RunSummary, 0, len(runs)), Count: len(runs)}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, run.Summary())
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// ExecuteRunHandler handles POST /api/v1/qec/runs/{id}/execute
func (h *QECHandler) ExecuteRunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID, ok := runIDFromPath(w, r)
	if !ok {
		return
	}

	run, err := h.runManager.ExecuteRun(r.Context(), runID)
	if err != nil {
		if run != nil {
			respondWithJSON(w, http.StatusInternalServerError, qec.RunResponse{
				Run:   run,
				Error: fmt.Sprintf("Run failed: %v", err),
			})
			return
		}
		respondWithError(w, statusFor(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, qec.RunResponse{Run: run})
}

// GetRunHandler handles GET /api/v1/qec/runs/{id}
func (h *QECHandler) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID, ok := runIDFromPath(w, r)
	if !ok {
		return
	}

	run, err := h.runManager.GetRun(r.Context(), runID)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, qec.RunResponse{Run: run})
}

// DeleteRunHandler handles DELETE /api/v1/qec/runs/{id}
func (h *QECHandler) DeleteRunHandler(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.runManager.DeleteRun(r.Context(), runID); err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Run deleted successfully",
	})
}

// VerifyHandler handles POST /api/v1/qec/verify
// A state that does not carry the claimed syndrome is reported as
// inconsistent rather than as a request error.
func (h *QECHandler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req qec.VerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	recovery, err := h.runManager.Verify(&req)
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, qec.VerifyResponse{Consistent: true, Recovery: &recovery})
	case errors.Is(err, correction.ErrSyndromeMismatch), errors.Is(err, correction.ErrUnknownSyndrome):
		respondWithJSON(w, http.StatusOK, qec.VerifyResponse{Error: err.Error()})
	default:
		respondWithError(w, statusFor(err), err.Error())
	}
}

// HealthCheckHandler handles GET /api/v1/qec/health
func (h *QECHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":  "healthy",
		"service": "Quantum Error Correction",
		"code":    h.runManager.Code().Name(),
		"version": "1.0.0",
	}

	respondWithJSON(w, http.StatusOK, health)
}

// decodeBody reads a size-limited JSON body into v, answering the request
// itself when it cannot
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	respondWithError(w, http.StatusBadRequest, "Invalid request body")
	return false
}

// runIDFromPath extracts the run ID from /api/v1/qec/runs/{id}[/execute]
func runIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 6 {
		respondWithError(w, http.StatusBadRequest, "Invalid URL format")
		return uuid.Nil, false
	}

	runID, err := uuid.Parse(pathParts[5])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, qec.ErrInvalidRunID.Error())
		return uuid.Nil, false
	}
	return runID, true
}

// statusFor maps manager errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, qec.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, qec.ErrRunExpired):
		return http.StatusGone
	case errors.Is(err, qec.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, correction.ErrSyndromeLength),
		errors.Is(err, quantum.ErrInvalidQubitIndex),
		errors.Is(err, quantum.ErrDimensionMismatch):
		return http.StatusBadRequest
	}
	var qerr *qec.QECError
	if errors.As(err, &qerr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
