package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/veritylabs/fosight/internal/db"
	"github.com/veritylabs/fosight/internal/metrics"
	"github.com/veritylabs/fosight/internal/models"
	"github.com/veritylabs/fosight/internal/service"
)

// AnalysisAPI is the service surface the HTTP handlers depend on.
type AnalysisAPI interface {
	Submit(ctx context.Context, complaintPDF, frlPDF []byte) (string, error)
	Job(ctx context.Context, jobID string) (*models.Job, error)
	Explain(ctx context.Context, jobID string) ([]string, error)
	ExplainConfidence(ctx context.Context, jobID string) ([]string, error)
	Stats(ctx context.Context) (*service.DashboardStats, error)
	RecentCases(ctx context.Context, limit int) ([]service.DashboardCase, error)
}

type handlers struct {
	svc       AnalysisAPI
	collector *metrics.Collector
	logger    *slog.Logger
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type reportResponse struct {
	JobID        string         `json:"job_id"`
	Status       string         `json:"status"`
	Report       *models.Report `json:"report,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

type explanationResponse struct {
	Explanation []string `json:"explanation"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// analyze accepts a multipart upload of the two case documents, creates a
// PENDING job and returns immediately with 202.
func (h *handlers) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.Warn("rejected upload", "error", truncate(err.Error(), 200))
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	complaintPDF, err := formFileBytes(r, "complaint_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "complaint_file is required")
		return
	}
	frlPDF, err := formFileBytes(r, "frl_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "frl_file is required")
		return
	}

	jobID, err := h.svc.Submit(r.Context(), complaintPDF, frlPDF)
	if err != nil {
		h.logger.Error("job submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create analysis job")
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:  jobID,
		Status: string(models.JobStatusPending),
	})
}

// report returns the job's current status and, once complete, the report.
func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	job, err := h.svc.Job(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("job lookup failed", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{
		JobID:        job.JobID(),
		Status:       string(job.Status),
		Report:       job.Report,
		ErrorMessage: job.ErrorMessage,
	})
}

func (h *handlers) explain(w http.ResponseWriter, r *http.Request) {
	h.serveExplanation(w, r, h.svc.Explain)
}

func (h *handlers) explainConfidence(w http.ResponseWriter, r *http.Request) {
	h.serveExplanation(w, r, h.svc.ExplainConfidence)
}

func (h *handlers) serveExplanation(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) ([]string, error)) {
	jobID := mux.Vars(r)["job_id"]

	bullets, err := fn(r.Context(), jobID)
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, service.ErrExplainUnavailable):
		writeError(w, http.StatusNotFound, "required data for explanation not found")
		return
	case err != nil:
		h.logger.Error("explanation failed", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate explanation")
		return
	}

	writeJSON(w, http.StatusOK, explanationResponse{Explanation: bullets})
}

func (h *handlers) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.Error("dashboard stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) dashboardCases(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	cases, err := h.svc.RecentCases(r.Context(), limit)
	if err != nil {
		h.logger.Error("dashboard cases failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load cases")
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (h *handlers) metricsSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.collector == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, h.collector.Snapshot())
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func formFileBytes(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)
	return io.ReadAll(file)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
