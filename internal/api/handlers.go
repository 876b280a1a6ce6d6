package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/spacesedan/feedbackflow/internal/analysis"
	"github.com/spacesedan/feedbackflow/internal/ingest"
	"github.com/spacesedan/feedbackflow/internal/models"
	"github.com/spacesedan/feedbackflow/internal/reports"
	"github.com/spacesedan/feedbackflow/internal/sentiment"
)

const (
	apiTitle   = "Customer Feedback & Sentiment Analysis API"
	apiVersion = "1.0.0"

	maxUploadBytes = 32 << 20
	maxAnalyzeBody = 4 << 20
)

// HealthFlags are kept current by the monitoring tickers. A nil Cache means
// caching is disabled.
type HealthFlags struct {
	Store *atomic.Bool
	Cache *atomic.Bool
}

type Handler struct {
	pipeline *ingest.Pipeline
	reports  *reports.Service
	analyzer *analysis.BatchAnalyzer
	health   HealthFlags

	// request body limits in bytes
	uploadLimit  int64
	analyzeLimit int64
}

func NewHandler(pipeline *ingest.Pipeline, reportSvc *reports.Service, analyzer *analysis.BatchAnalyzer, health HealthFlags) *Handler {
	return &Handler{
		pipeline: pipeline,
		reports:  reportSvc,
		analyzer: analyzer,
		health:   health,

		uploadLimit:  maxUploadBytes,
		analyzeLimit: maxAnalyzeBody,
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"message": apiTitle,
		"version": apiVersion,
		"endpoints": map[string]string{
			"upload":   "/upload-feedback",
			"analyze":  "/analyze",
			"summary":  "/sentiment-summary",
			"keywords": "/keywords",
			"samples":  "/sample-feedback",
			"health":   "/healthz",
		},
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok", "store": "healthy"}

	if h.health.Store != nil && !h.health.Store.Load() {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["store"] = "unhealthy"
	}

	// the cache is optional, so an unhealthy cache never fails the probe
	switch {
	case h.health.Cache == nil:
		body["cache"] = "disabled"
	case h.health.Cache.Load():
		body["cache"] = "healthy"
	default:
		body["cache"] = "unhealthy"
	}

	respondWithJSON(w, status, body)
}

func (h *Handler) UploadFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit)
	file, header, err := r.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte upload limit.", h.uploadLimit))
			return
		}
		respondWithError(w, http.StatusBadRequest, "A CSV file must be sent in the 'file' form field.")
		return
	}
	defer file.Close()

	if !ingest.IsCSVFilename(header.Filename) {
		respondWithError(w, http.StatusBadRequest, "Invalid file type. Please upload a CSV file.")
		return
	}

	result, err := h.pipeline.IngestUpload(r.Context(), header.Filename, file)
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, result)
	case isTooLarge(err):
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte upload limit.", h.uploadLimit))
	case isClientError(err):
		slog.Warn("[FeedbackAPI] Rejected upload",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("[FeedbackAPI] Upload failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing file: %s", err))
	}
}

func isClientError(err error) bool {
	return errors.Is(err, ingest.ErrEmptyCSV) ||
		errors.Is(err, ingest.ErrMalformedCSV) ||
		errors.Is(err, ingest.ErrNoFeedbackColumn) ||
		errors.Is(err, ingest.ErrNoFeedbackRows)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

type analyzeRequest struct {
	Texts  []*string `json:"texts"`
	Format string    `json:"format"`
}

type analyzeResponse struct {
	Records []models.FeedbackRecord `json:"records"`
	Summary models.SentimentSummary `json:"summary"`
}

// Analyze scores texts without storing them. Null entries score as empty
// text.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.analyzeLimit)).Decode(&req); err != nil {
		if isTooLarge(err) {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds the %d byte limit.", h.analyzeLimit))
			return
		}
		respondWithError(w, http.StatusBadRequest, "Request body must be JSON with a 'texts' array.")
		return
	}

	var pre analysis.Preprocessor
	switch req.Format {
	case "", "plain":
	case "markdown":
		pre = sentiment.MarkdownToText
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported format %q. Use 'plain' or 'markdown'.", req.Format))
		return
	}

	texts := make([]string, len(req.Texts))
	for i, t := range req.Texts {
		if t != nil {
			texts[i] = *t
		}
	}

	records := h.analyzer.AnalyzeWith(texts, pre)
	labels := make([]string, len(records))
	for i, rec := range records {
		labels[i] = rec.SentimentLabel.String()
	}

	respondWithJSON(w, http.StatusOK, analyzeResponse{
		Records: records,
		Summary: analysis.Summarize(labels),
	})
}

func (h *Handler) SentimentSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.Summary(r.Context())
	if err != nil {
		h.reportFailed(w, "summary", err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (h *Handler) Keywords(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, reports.DefaultKeywordLimit)
	if !ok {
		return
	}
	resp, err := h.reports.NegativeKeywords(r.Context(), limit)
	if err != nil {
		h.reportFailed(w, "keywords", err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) SampleFeedback(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, reports.DefaultSampleLimit)
	if !ok {
		return
	}
	resp, err := h.reports.Sample(r.Context(), limit)
	if err != nil {
		h.reportFailed(w, "sample", err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) reportFailed(w http.ResponseWriter, report string, err error) {
	slog.Error("[FeedbackAPI] Report failed",
		slog.String("report", report),
		slog.String("error", err.Error()))
	respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Error retrieving %s: %s", report, err))
}

// queryLimit writes a 400 and returns false when ?limit is not an integer.
func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "limit must be an integer")
		return 0, false
	}
	return n, true
}
