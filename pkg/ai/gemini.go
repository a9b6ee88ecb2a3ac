package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/pkg/config"
	"github.com/johnquangdev/meeting-functions/pkg/metrics"
)

const serviceName = "gemini"

// Embedding task types
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

const (
	summaryTemperature     = 0.2
	summaryMaxOutputTokens = 4096
)

var errRetryableStatus = errors.New("retryable status")

// GeminiClient is a minimal client for the generative language API
type GeminiClient struct {
	apiKey         string
	baseURL        string
	summaryModel   string
	embeddingModel string
	maxRetries     uint64
	client         *http.Client
	logger         *zap.Logger
}

// NewGeminiClient creates a Gemini client using values from the provided config.
// A zero timeout means no client-side timeout.
func NewGeminiClient(cfg *config.GeminiConfig, timeout time.Duration, logger *zap.Logger) *GeminiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		summaryModel:   cfg.SummaryModel,
		embeddingModel: cfg.EmbeddingModel,
		maxRetries:     cfg.MaxRetries,
		client:         &http.Client{Timeout: timeout},
		logger:         logger.Named("gemini"),
	}
}

// Content is a list of parts sent to or returned by the model
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single text part
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig controls sampling and output format
type GenerationConfig struct {
	Temperature      float64     `json:"temperature"`
	MaxOutputTokens  int         `json:"maxOutputTokens"`
	ResponseMimeType string      `json:"responseMimeType,omitempty"`
	ResponseSchema   interface{} `json:"responseSchema,omitempty"`
}

// GenerateContentRequest is the body of models/{model}:generateContent
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerateContentResponse is the subset of the response we read
type GenerateContentResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

// EmbedContentRequest is the body of models/{model}:embedContent
type EmbedContentRequest struct {
	Model    string  `json:"model"`
	Content  Content `json:"content"`
	TaskType string  `json:"taskType"`
}

// EmbedContentResponse carries the embedding values
type EmbedContentResponse struct {
	Embedding *struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// APIError is the error envelope returned by the API
type APIError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// EmbedContent returns the embedding of text for the given task type
func (g *GeminiClient) EmbedContent(ctx context.Context, text, taskType string) ([]float32, error) {
	reqBody := EmbedContentRequest{
		Model:    g.embeddingModel,
		Content:  Content{Parts: []Part{{Text: text}}},
		TaskType: taskType,
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	endpoint := g.endpoint("v1", g.embeddingModel, "embedContent")
	status, body, err := g.post(ctx, "embed_content", endpoint, b)
	if err != nil {
		return nil, err
	}

	if status < 200 || status >= 300 {
		message := "Unknown error"
		var apiErr APIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return nil, apperrors.ErrUpstreamAPI(serviceName, status, fmt.Sprintf("Error generating embedding: %s", message))
	}

	var er EmbedContentResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, apperrors.ErrAIResponseInvalid("Failed to decode embedding response", err)
	}
	if er.Embedding == nil || len(er.Embedding.Values) == 0 {
		return nil, apperrors.ErrAIResponseInvalid("Embedding response carried no values", nil)
	}
	return er.Embedding.Values, nil
}

// GenerateJSON sends the prompt with a response schema and returns the text of
// the first candidate part, "{}" when the model returned none.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, schema interface{}) (string, error) {
	reqBody := GenerateContentRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			Temperature:      summaryTemperature,
			MaxOutputTokens:  summaryMaxOutputTokens,
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperrors.ErrInternal(err)
	}

	endpoint := g.endpoint("v1beta", g.summaryModel, "generateContent")
	status, body, err := g.post(ctx, "generate_content", endpoint, b)
	if err != nil {
		return "", err
	}

	if status < 200 || status >= 300 {
		return "", apperrors.ErrUpstreamAPI(serviceName, status, fmt.Sprintf("Gemini API error: %s", string(body)))
	}

	var gr GenerateContentResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", apperrors.ErrAIResponseInvalid("Failed to decode Gemini response", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 || gr.Candidates[0].Content.Parts[0].Text == "" {
		return "{}", nil
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

func (g *GeminiClient) endpoint(version, model, method string) string {
	return fmt.Sprintf("%s/%s/models/%s:%s?key=%s", g.baseURL, version, model, method, url.QueryEscape(g.apiKey))
}

// post sends the request, retrying transport failures and 429/5xx answers up to
// maxRetries times. The last status and body are returned for non-2xx answers.
func (g *GeminiClient) post(ctx context.Context, op, endpoint string, payload []byte) (int, []byte, error) {
	var (
		status int
		body   []byte
	)

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(apperrors.ErrInternal(err))
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := g.client.Do(req)
		if err != nil {
			metrics.RecordUpstreamCall(serviceName, op, metrics.OutcomeTransportError, time.Since(start))
			return apperrors.ErrUpstreamTransport(serviceName, redactKey(err, g.apiKey))
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			metrics.RecordUpstreamCall(serviceName, op, metrics.OutcomeTransportError, time.Since(start))
			return apperrors.ErrUpstreamTransport(serviceName, err)
		}
		status, body = resp.StatusCode, b

		if status >= 200 && status < 300 {
			metrics.RecordUpstreamCall(serviceName, op, metrics.OutcomeSuccess, time.Since(start))
			return nil
		}
		metrics.RecordUpstreamCall(serviceName, op, metrics.OutcomeAPIError, time.Since(start))
		if isRetryableStatus(status) {
			return errRetryableStatus
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		g.logger.Warn("retrying gemini call",
			zap.String("operation", op),
			zap.Int("status", status),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(attempt, policy, notify); err != nil && !errors.Is(err, errRetryableStatus) {
		return 0, nil, err
	}
	return status, body, nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// redactKey strips the API key from transport errors, which embed the request URL
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED")
	if msg == err.Error() {
		return err
	}
	return errors.New(msg)
}
