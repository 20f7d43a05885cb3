package httpadapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/risknavigator/document-classifier/internal/core/domain"
)

type classifyFake struct {
	uploads []domain.FileUpload
	keys    []string
	outcome *domain.BatchOutcome
	err     error
	calls   int
}

func (f *classifyFake) ClassifyNew(_ context.Context, files []domain.FileUpload) (*domain.BatchOutcome, error) {
	f.calls++
	f.uploads = files
	if f.err != nil {
		return nil, f.err
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	results := make([]domain.DocumentResult, 0, len(files))
	for _, file := range files {
		results = append(results, domain.DocumentResult{
			Key:      "documents/" + file.Filename,
			Filename: file.Filename,
			Category: domain.CategoryLossRun,
			Status:   domain.ResultOK,
		})
	}
	return &domain.BatchOutcome{Results: results}, nil
}

func (f *classifyFake) ClassifyExisting(_ context.Context, keys []string) (*domain.BatchOutcome, error) {
	f.calls++
	f.keys = keys
	if f.err != nil {
		return nil, f.err
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	results := make([]domain.DocumentResult, 0, len(keys))
	for _, key := range keys {
		results = append(results, domain.DocumentResult{
			Key:      key,
			Category: domain.CategoryAcordForm,
			Status:   domain.ResultOK,
		})
	}
	return &domain.BatchOutcome{Results: results}, nil
}

type listFake struct {
	prefix string
	files  []domain.StoredObject
	err    error
	calls  int
}

func (f *listFake) ListFiles(_ context.Context, prefix string) ([]domain.StoredObject, error) {
	f.calls++
	f.prefix = prefix
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}

func newTestRouter(classifier *classifyFake, lister *listFake) http.Handler {
	return NewRouter(classifier, lister, nil, Options{}).Handler()
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestHealthReturnsExactBody(t *testing.T) {
	handler := newTestRouter(&classifyFake{}, &listFake{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	want := `{"status":"healthy","service":"document-classifier-api"}`
	if res.Body.String() != want {
		t.Fatalf("unexpected health body: %q", res.Body.String())
	}
}

func TestClassifyNewDecodesFilesAndPreservesOrder(t *testing.T) {
	classifier := &classifyFake{}
	handler := newTestRouter(classifier, &listFake{})

	res := postJSON(t, handler, "/api/aarm/classify", map[string]any{
		"action": "classify_new",
		"files": []map[string]string{
			{"filename": "a.pdf", "base64content": base64.StdEncoding.EncodeToString([]byte("first"))},
			{"filename": "b.xlsx", "base64content": base64.StdEncoding.EncodeToString([]byte("second"))},
		},
	})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if len(classifier.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(classifier.uploads))
	}
	if string(classifier.uploads[0].Content) != "first" || string(classifier.uploads[1].Content) != "second" {
		t.Fatalf("upload content not decoded from base64")
	}

	var resp struct {
		Results []domain.DocumentResult `json:"results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Filename != "a.pdf" || resp.Results[1].Filename != "b.xlsx" {
		t.Fatalf("results out of request order: %+v", resp.Results)
	}
}

func TestClassifyExistingDispatchesKeys(t *testing.T) {
	classifier := &classifyFake{}
	handler := newTestRouter(classifier, &listFake{})

	res := postJSON(t, handler, "/api/aarm/classify", map[string]any{
		"action":  "classify_existing",
		"s3_keys": []string{"documents/x.pdf", "documents/y.csv"},
	})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if len(classifier.keys) != 2 || classifier.keys[0] != "documents/x.pdf" {
		t.Fatalf("keys not forwarded: %v", classifier.keys)
	}
}

func TestClassifyRejectsUnknownActionWithoutSideEffects(t *testing.T) {
	classifier := &classifyFake{}
	handler := newTestRouter(classifier, &listFake{})

	res := postJSON(t, handler, "/api/aarm/classify", map[string]any{"action": "reclassify"})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if classifier.calls != 0 {
		t.Fatalf("expected no classify call for malformed request, got %d", classifier.calls)
	}
}

func TestClassifyRejectsEmptyBatch(t *testing.T) {
	classifier := &classifyFake{}
	handler := newTestRouter(classifier, &listFake{})

	res := postJSON(t, handler, "/api/aarm/classify", map[string]any{
		"action": "classify_new",
		"files":  []map[string]string{},
	})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if classifier.calls != 0 {
		t.Fatalf("expected no classify call, got %d", classifier.calls)
	}
}

func TestClassifyRejectsInvalidBase64(t *testing.T) {
	classifier := &classifyFake{}
	handler := newTestRouter(classifier, &listFake{})

	res := postJSON(t, handler, "/api/aarm/classify", map[string]any{
		"action": "classify_new",
		"files": []map[string]string{
			{"filename": "a.pdf", "base64content": "%%not-base64%%"},
		},
	})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if classifier.calls != 0 {
		t.Fatalf("expected no classify call, got %d", classifier.calls)
	}
}

func TestClassifyMapsUploadsDisabledTo400(t *testing.T) {
	classifier := &classifyFake{
		err: domain.WrapError(domain.ErrUploadsDisabled, "classify_new", errors.New("read-only deployment")),
	}
	handler := newTestRouter(classifier, &listFake{})

	res := postJSON(t, handler, "/api/aarm/classify", map[string]any{
		"action": "classify_new",
		"files": []map[string]string{
			{"filename": "a.pdf", "base64content": base64.StdEncoding.EncodeToString([]byte("x"))},
		},
	})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestClassifyReturns502WhenOracleUnreachableForAll(t *testing.T) {
	classifier := &classifyFake{
		outcome: &domain.BatchOutcome{
			Results: []domain.DocumentResult{
				{Key: "documents/a.pdf", Status: domain.ResultFailed, Reason: domain.ReasonOracleUnreachable},
				{Key: "documents/b.pdf", Status: domain.ResultFailed, Reason: domain.ReasonOracleUnreachable},
			},
		},
	}
	handler := newTestRouter(classifier, &listFake{})

	res := postJSON(t, handler, "/api/aarm/classify", map[string]any{
		"action":  "classify_existing",
		"s3_keys": []string{"documents/a.pdf", "documents/b.pdf"},
	})

	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for total oracle unavailability, got %d", res.Code)
	}

	var resp struct {
		Results []domain.DocumentResult `json:"results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected per-document results even on 502, got %d", len(resp.Results))
	}
}

func TestClassifyMixedFailuresStay200(t *testing.T) {
	classifier := &classifyFake{
		outcome: &domain.BatchOutcome{
			Results: []domain.DocumentResult{
				{Key: "documents/a.pdf", Category: domain.CategoryModSheet, Status: domain.ResultOK},
				{Key: "documents/b.pdf", Status: domain.ResultFailed, Reason: domain.ReasonOracleUnreachable},
			},
		},
	}
	handler := newTestRouter(classifier, &listFake{})

	res := postJSON(t, handler, "/api/aarm/classify", map[string]any{
		"action":  "classify_existing",
		"s3_keys": []string{"documents/a.pdf", "documents/b.pdf"},
	})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for partial failure, got %d", res.Code)
	}
}

func TestListFilesForwardsPrefix(t *testing.T) {
	lister := &listFake{
		files: []domain.StoredObject{
			{Key: "documents/2026/a.pdf", Size: 42},
		},
	}
	handler := newTestRouter(&classifyFake{}, lister)

	res := postJSON(t, handler, "/api/aarm/list-files", map[string]any{
		"action": "list_files",
		"prefix": "documents/2026",
	})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if lister.prefix != "documents/2026" {
		t.Fatalf("prefix not forwarded, got %q", lister.prefix)
	}

	var resp struct {
		Files []domain.StoredObject `json:"files"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Files) != 1 || resp.Files[0].Key != "documents/2026/a.pdf" {
		t.Fatalf("unexpected files payload: %+v", resp.Files)
	}
}

func TestListFilesRejectsInvalidJSON(t *testing.T) {
	lister := &listFake{}
	handler := newTestRouter(&classifyFake{}, lister)

	req := httptest.NewRequest(http.MethodPost, "/api/aarm/list-files", bytes.NewReader([]byte("{not json")))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if lister.calls != 0 {
		t.Fatalf("expected no list call for malformed body, got %d", lister.calls)
	}
}

func TestCORSHeadersOnAllResponses(t *testing.T) {
	handler := newTestRouter(&classifyFake{}, &listFake{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected permissive CORS origin header")
	}

	preflight := httptest.NewRequest(http.MethodOptions, "/api/aarm/classify", nil)
	preflightRes := httptest.NewRecorder()
	handler.ServeHTTP(preflightRes, preflight)

	if preflightRes.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", preflightRes.Code)
	}
	if preflightRes.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("expected allow-methods header on preflight")
	}
}
