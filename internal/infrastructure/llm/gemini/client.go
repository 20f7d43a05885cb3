package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/risknavigator/document-classifier/internal/core/domain"
	"github.com/risknavigator/document-classifier/internal/infrastructure/resilience"
)

// Client talks to a Gemini-style generateContent endpoint. It returns the
// oracle's raw category answer; mapping into the closed taxonomy happens in
// the use case layer.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Model reports the configured model identifier, used for audit records.
func (c *Client) Model() string {
	return c.model
}

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Parts []contentPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"responseMimeType,omitempty"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Classify(ctx context.Context, doc domain.OracleDocument) (string, error) {
	var request generateRequest
	parts := []contentPart{{Text: buildClassificationPrompt(doc.Filename)}}
	if doc.Text != "" {
		parts = append(parts, contentPart{Text: doc.Text})
	} else {
		parts = append(parts, contentPart{InlineData: &inlineData{
			MimeType: doc.MimeType,
			Data:     base64.StdEncoding.EncodeToString(doc.Content),
		}})
	}
	request.Contents = append(request.Contents, struct {
		Parts []contentPart `json:"parts"`
	}{Parts: parts})
	request.GenerationConfig.ResponseMimeType = "application/json"

	var response generateResponse
	err := c.executor.Execute(ctx, "oracle_classify", func(ctx context.Context) error {
		return c.postJSON(ctx, c.generatePath(), request, &response, "classify")
	}, classifyGeminiError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("oracle classify", err)
	}

	answer := candidateText(response)
	if strings.TrimSpace(answer) == "" {
		return "", domain.WrapError(domain.ErrAnswerUnrecognized, "oracle classify", fmt.Errorf("empty candidate text"))
	}
	return extractAnswer(answer), nil
}

func (c *Client) generatePath() string {
	return fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
}

func candidateText(response generateResponse) string {
	if len(response.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

// extractAnswer pulls the classification field out of the oracle's JSON
// answer. Models sometimes wrap the object in prose or fences, so the first
// balanced object is brace-extracted before decoding. When no JSON can be
// recovered the raw text is returned as-is and the taxonomy's synonym
// matching gets a final say.
func extractAnswer(raw string) string {
	var parsed struct {
		Classification string `json:"classification"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err == nil && parsed.Classification != "" {
		return parsed.Classification
	}
	return strings.TrimSpace(raw)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
