package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/risknavigator/document-classifier/internal/core/domain"
	"github.com/risknavigator/document-classifier/internal/infrastructure/resilience"
)

func newTestExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: 1,
		BreakerEnabled:   false,
	})
}

func answerHandler(t *testing.T, answer string, captured *map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Fatalf("decode request: %v", err)
			}
		}
		body := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": answer}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestClassifyReturnsClassificationField(t *testing.T) {
	server := httptest.NewServer(answerHandler(t, `{"classification": "Loss Run"}`, nil))
	defer server.Close()

	client := New(server.URL, "key", "gemini-1.5-flash", newTestExecutor())
	answer, err := client.Classify(context.Background(), domain.OracleDocument{
		Filename: "a.pdf",
		MimeType: "application/pdf",
		Content:  []byte("raw"),
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if answer != "Loss Run" {
		t.Fatalf("expected Loss Run, got %q", answer)
	}
}

func TestClassifyPromptNamesEveryCategoryAndFilename(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(answerHandler(t, `{"classification": "Mod sheet"}`, &captured))
	defer server.Close()

	client := New(server.URL, "key", "gemini-1.5-flash", newTestExecutor())
	if _, err := client.Classify(context.Background(), domain.OracleDocument{
		Filename: "emod-2025.pdf",
		MimeType: "application/pdf",
		Content:  []byte("raw"),
	}); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	raw, _ := json.Marshal(captured)
	prompt := string(raw)
	for _, category := range domain.Categories() {
		if !strings.Contains(prompt, category.DisplayName()) {
			t.Fatalf("prompt missing category %s", category.DisplayName())
		}
	}
	if !strings.Contains(prompt, "emod-2025.pdf") {
		t.Fatalf("prompt missing filename")
	}
}

func TestClassifySendsInlineBytesWhenNoText(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(answerHandler(t, `{"classification": "ACORD form"}`, &captured))
	defer server.Close()

	client := New(server.URL, "key", "gemini-1.5-flash", newTestExecutor())
	if _, err := client.Classify(context.Background(), domain.OracleDocument{
		Filename: "cert.pdf",
		MimeType: "application/pdf",
		Content:  []byte("binary pdf"),
	}); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	raw, _ := json.Marshal(captured)
	if !strings.Contains(string(raw), "inline_data") {
		t.Fatalf("expected inline_data part, got %s", raw)
	}
	if !strings.Contains(string(raw), "application/pdf") {
		t.Fatalf("expected mime type in request, got %s", raw)
	}
}

func TestClassifySendsExtractedTextWhenAvailable(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(answerHandler(t, `{"classification": "Loss Run"}`, &captured))
	defer server.Close()

	client := New(server.URL, "key", "gemini-1.5-flash", newTestExecutor())
	if _, err := client.Classify(context.Background(), domain.OracleDocument{
		Filename: "claims.csv",
		MimeType: "text/csv",
		Text:     "claim,amount\n1,2000",
		Content:  []byte("claim,amount\n1,2000"),
	}); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	raw, _ := json.Marshal(captured)
	if strings.Contains(string(raw), "inline_data") {
		t.Fatalf("expected text part only, got %s", raw)
	}
	if !strings.Contains(string(raw), "claim,amount") {
		t.Fatalf("expected extracted text in request, got %s", raw)
	}
}

func TestClassifyFallsBackToRawTextOnUnparseableJSON(t *testing.T) {
	server := httptest.NewServer(answerHandler(t, "The document is a Loss Run.", nil))
	defer server.Close()

	client := New(server.URL, "key", "gemini-1.5-flash", newTestExecutor())
	answer, err := client.Classify(context.Background(), domain.OracleDocument{
		Filename: "a.pdf", MimeType: "application/pdf", Content: []byte("x"),
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if answer != "The document is a Loss Run." {
		t.Fatalf("expected raw answer passthrough, got %q", answer)
	}
}

func TestClassifyWrapsUpstreamOutage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "key", "gemini-1.5-flash", newTestExecutor())
	_, err := client.Classify(context.Background(), domain.OracleDocument{
		Filename: "a.pdf", MimeType: "application/pdf", Content: []byte("x"),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary for 502, got %v", err)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestClassifyEmptyCandidateIsUnrecognized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	client := New(server.URL, "key", "gemini-1.5-flash", newTestExecutor())
	_, err := client.Classify(context.Background(), domain.OracleDocument{
		Filename: "a.pdf", MimeType: "application/pdf", Content: []byte("x"),
	})
	if !domain.IsKind(err, domain.ErrAnswerUnrecognized) {
		t.Fatalf("expected ErrAnswerUnrecognized, got %v", err)
	}
}
