package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/risknavigator/document-classifier/internal/core/domain"
	"github.com/risknavigator/document-classifier/internal/core/ports"
	"github.com/risknavigator/document-classifier/internal/observability/metrics"
)

const ServiceName = "document-classifier-api"

const (
	actionClassifyNew      = "classify_new"
	actionClassifyExisting = "classify_existing"
	actionListFiles        = "list_files"
)

// Options tunes the traffic-control middleware the router wraps itself in.
type Options struct {
	RequestBudget   time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
	MaxInFlight     int
	BackpressureMax time.Duration
}

type Router struct {
	classifier ports.DocumentClassifyService
	lister     ports.FileListService
	metrics    *metrics.HTTPServerMetrics
	opts       Options
}

func NewRouter(
	classifier ports.DocumentClassifyService,
	lister ports.FileListService,
	m *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	if opts.BackpressureMax <= 0 {
		opts.BackpressureMax = 50 * time.Millisecond
	}
	return &Router{
		classifier: classifier,
		lister:     lister,
		metrics:    m,
		opts:       opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", rt.health)
	mux.HandleFunc("/api/aarm/classify", rt.classify)
	mux.HandleFunc("/api/aarm/list-files", rt.listFiles)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = budgetMiddleware(handler, rt.opts.RequestBudget)
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.BackpressureMax)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = corsMiddleware(handler)
	return handler
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"document-classifier-api"}`))
}

type classifyRequest struct {
	Action string       `json:"action"`
	S3Keys []string     `json:"s3_keys"`
	Files  []inlineFile `json:"files"`
}

type inlineFile struct {
	Filename      string `json:"filename"`
	Base64Content string `json:"base64content"`
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	var (
		outcome *domain.BatchOutcome
		err     error
	)
	switch req.Action {
	case actionClassifyNew:
		if len(req.Files) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "files is required for classify_new"})
			return
		}
		uploads, decodeErr := decodeUploads(req.Files)
		if decodeErr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": decodeErr.Error()})
			return
		}
		outcome, err = rt.classifier.ClassifyNew(r.Context(), uploads)
	case actionClassifyExisting:
		if len(req.S3Keys) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "s3_keys is required for classify_existing"})
			return
		}
		outcome, err = rt.classifier.ClassifyExisting(r.Context(), req.S3Keys)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "action must be classify_new or classify_existing",
		})
		return
	}
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.recordOutcome(req.Action, outcome)

	status := http.StatusOK
	if outcome.OracleUnreachableForAll() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, outcome)
}

func decodeUploads(files []inlineFile) ([]domain.FileUpload, error) {
	uploads := make([]domain.FileUpload, 0, len(files))
	for _, f := range files {
		filename := strings.TrimSpace(f.Filename)
		if filename == "" {
			return nil, fmt.Errorf("every file needs a filename")
		}
		content, err := base64.StdEncoding.DecodeString(f.Base64Content)
		if err != nil {
			return nil, fmt.Errorf("file %q: content is not valid base64", filename)
		}
		uploads = append(uploads, domain.FileUpload{
			Filename: filename,
			Content:  content,
		})
	}
	return uploads, nil
}

type listFilesRequest struct {
	Action string `json:"action"`
	Prefix string `json:"prefix"`
}

func (rt *Router) listFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req listFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Action != "" && req.Action != actionListFiles {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "action must be list_files"})
		return
	}

	files, err := rt.lister.ListFiles(r.Context(), req.Prefix)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (rt *Router) recordOutcome(action string, outcome *domain.BatchOutcome) {
	if rt.metrics == nil || outcome == nil {
		return
	}
	rt.metrics.RecordBatch(ServiceName, action, len(outcome.Results), outcome.Partial)
	for _, res := range outcome.Results {
		rt.metrics.RecordClassification(ServiceName, string(res.Category), string(res.Status), string(res.Reason))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
