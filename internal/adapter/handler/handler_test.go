package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/internal/adapter/dto/common"
	httpmw "github.com/johnquangdev/meeting-functions/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-functions/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-functions/pkg/config"
	"github.com/johnquangdev/meeting-functions/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/meeting-functions/pkg/validator"
)

type fakeMeetingService struct {
	startBody   json.RawMessage
	startErr    error
	startCalls  int
	lastStart   meeting.StartBotInput
	fetchResult *meeting.FetchTranscriptResult
	fetchErr    error
	fetchCalls  int
}

func (f *fakeMeetingService) StartBot(_ context.Context, in meeting.StartBotInput) (json.RawMessage, error) {
	f.startCalls++
	f.lastStart = in
	return f.startBody, f.startErr
}

func (f *fakeMeetingService) FetchTranscript(_ context.Context, _ meeting.FetchTranscriptInput) (*meeting.FetchTranscriptResult, error) {
	f.fetchCalls++
	return f.fetchResult, f.fetchErr
}

type fakeAIService struct {
	summary        json.RawMessage
	summarizeErr   error
	summarizeCalls int
	embedErr       error
	embedCalls     int
	embedding      []float32
	queryErr       error
	queryCalls     int
}

func (f *fakeAIService) SummarizeTranscription(_ context.Context, _ string) (json.RawMessage, error) {
	f.summarizeCalls++
	return f.summary, f.summarizeErr
}

func (f *fakeAIService) GenerateSummaryEmbedding(_ context.Context, _ string) error {
	f.embedCalls++
	return f.embedErr
}

func (f *fakeAIService) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.queryCalls++
	return f.embedding, f.queryErr
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Environment: "test"},
		Database: config.DatabaseConfig{URL: "postgres://localhost/meetings"},
		Vexa:     config.VexaConfig{APIKey: "vexa-key"},
		Gemini:   config.GeminiConfig{APIKey: "gemini-key"},
	}
}

func newTestServer(cfg *config.Config, bot *fakeMeetingService, ai *fakeAIService, auth echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(nil)

	router := NewRouter(cfg,
		NewBotHandler(bot, nil),
		NewSummaryHandler(ai, nil),
		NewEmbeddingHandler(ai, nil),
		auth,
	)
	router.Setup(e)
	return e
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const meetBody = `{"meeting_url":"https://meet.google.com/abc-defg-hij","meeting_id":"m-1"}`

func TestStartBot_PassesGatewayBodyThrough(t *testing.T) {
	bot := &fakeMeetingService{startBody: json.RawMessage(`{"id":7,"status":"requested"}`)}
	e := newTestServer(testConfig(), bot, &fakeAIService{}, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/start-bot", meetBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.JSONEq(t, `{"id":7,"status":"requested"}`, rec.Body.String())
	assert.Equal(t, meeting.StartBotInput{MeetingURL: "https://meet.google.com/abc-defg-hij", MeetingID: "m-1"}, bot.lastStart)
}

func TestStartBot_UnsupportedPlatform(t *testing.T) {
	bot := &fakeMeetingService{startErr: apperrors.ErrUnsupportedPlatform("https://zoom.us/j/1")}
	e := newTestServer(testConfig(), bot, &fakeAIService{}, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/start-bot", `{"meeting_url":"https://zoom.us/j/1","meeting_id":"m-1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only Google Meet URLs are supported", decodeError(t, rec).Error)
}

func TestStartBot_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"meeting_url":`, "Invalid JSON body"},
		{"missing meeting id", `{"meeting_url":"https://meet.google.com/abc"}`, "Missing meeting_url or meeting_id"},
		{"empty body", ``, "Missing meeting_url or meeting_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &fakeMeetingService{}
			e := newTestServer(testConfig(), bot, &fakeAIService{}, nil)

			rec := serve(e, http.MethodPost, "/functions/v1/start-bot", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec).Error)
			assert.Zero(t, bot.startCalls)
		})
	}
}

func TestStartBot_MissingConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.Vexa.APIKey = ""
	bot := &fakeMeetingService{}
	e := newTestServer(cfg, bot, &fakeAIService{}, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/start-bot", meetBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Missing environment variables", body.Error)
	assert.Equal(t, apperrors.ErrorCode_CONFIG_MISSING.String(), body.Code)
	assert.Zero(t, bot.startCalls)
}

func TestStartBot_GetReturnsUsage(t *testing.T) {
	e := newTestServer(testConfig(), &fakeMeetingService{}, &fakeAIService{}, nil)

	rec := serve(e, http.MethodGet, "/functions/v1/start-bot", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, startBotUsage, decodeError(t, rec).Error)
}

func TestFetchTranscript_Success(t *testing.T) {
	bot := &fakeMeetingService{fetchResult: &meeting.FetchTranscriptResult{
		Transcript: "hello world",
		Message:    "Transcript fetched but the bot could not be stopped",
	}}
	e := newTestServer(testConfig(), bot, &fakeAIService{}, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/fetch-transcript", meetBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"transcript":"hello world","message":"Transcript fetched but the bot could not be stopped"}`, rec.Body.String())
}

func TestFetchTranscript_UpstreamError(t *testing.T) {
	bot := &fakeMeetingService{fetchErr: apperrors.ErrUpstreamAPI("vexa", http.StatusNotFound, "Failed to fetch transcript: not found")}
	e := newTestServer(testConfig(), bot, &fakeAIService{}, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/fetch-transcript", meetBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Failed to fetch transcript: not found", body.Error)
	assert.Equal(t, "404", body.Details["upstream_status"])
}

func TestSummarize(t *testing.T) {
	ai := &fakeAIService{summary: json.RawMessage(`{"overall_summary":"ok"}`)}
	e := newTestServer(testConfig(), &fakeMeetingService{}, ai, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/summarize-transcription", `{"meeting_id":"m-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"summary":{"overall_summary":"ok"}}`, rec.Body.String())
}

func TestSummarize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"missing meeting id", `{}`, nil, http.StatusBadRequest, "Missing meeting_id"},
		{"no transcription", `{"meeting_id":"m-1"}`, apperrors.ErrTranscriptionMissing("m-1"), http.StatusInternalServerError, "No transcription available"},
		{"meeting not found", `{"meeting_id":"m-1"}`, apperrors.ErrMeetingNotFound("m-1"), http.StatusInternalServerError, "Meeting not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeAIService{summarizeErr: tt.err}
			e := newTestServer(testConfig(), &fakeMeetingService{}, ai, nil)

			rec := serve(e, http.MethodPost, "/functions/v1/summarize-transcription", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rec).Error)
		})
	}
}

func TestGenerateEmbeddings(t *testing.T) {
	ai := &fakeAIService{}
	e := newTestServer(testConfig(), &fakeMeetingService{}, ai, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/generate-embeddings", `{"meeting_id":"m-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, 1, ai.embedCalls)
}

func TestGenerateEmbeddings_FailuresAreClientErrors(t *testing.T) {
	ai := &fakeAIService{embedErr: apperrors.ErrSummaryMissing("m-1")}
	e := newTestServer(testConfig(), &fakeMeetingService{}, ai, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/generate-embeddings", `{"meeting_id":"m-1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error fetching meeting: No summary found", decodeError(t, rec).Error)
	assert.Equal(t, corsAllowHeaders, rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
}

func TestGetEmbedding(t *testing.T) {
	ai := &fakeAIService{embedding: []float32{0.5, -1}}
	e := newTestServer(testConfig(), &fakeMeetingService{}, ai, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/get-embedding", `{"text":"budget decisions"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"embedding":[0.5,-1]}`, rec.Body.String())
}

func TestGetEmbedding_UpstreamErrorIsClientError(t *testing.T) {
	ai := &fakeAIService{queryErr: apperrors.ErrUpstreamAPI("gemini", http.StatusForbidden, "Error generating embedding: API key not valid")}
	e := newTestServer(testConfig(), &fakeMeetingService{}, ai, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/get-embedding", `{"text":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error generating embedding: API key not valid", decodeError(t, rec).Error)
}

func TestGetEmbedding_MissingConfigurationStays500(t *testing.T) {
	cfg := testConfig()
	cfg.Gemini.APIKey = ""
	ai := &fakeAIService{}
	e := newTestServer(cfg, &fakeMeetingService{}, ai, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/get-embedding", `{"text":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, ai.queryCalls)
}

func TestEmbeddingPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Gemini.APIKey = ""
	e := newTestServer(cfg, &fakeMeetingService{}, &fakeAIService{}, nil)

	for _, path := range []string{"/functions/v1/generate-embeddings", "/functions/v1/get-embedding"} {
		rec := serve(e, http.MethodOptions, path, "")

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "ok", rec.Body.String(), path)
		assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin), path)
		assert.Equal(t, corsAllowHeaders, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), path)
	}
}

func TestAuthRequiredWhenEnabled(t *testing.T) {
	manager := jwt.NewManager("secret")
	bot := &fakeMeetingService{startBody: json.RawMessage(`{}`)}
	e := newTestServer(testConfig(), bot, &fakeAIService{}, httpmw.EchoAuth(manager))

	rec := serve(e, http.MethodPost, "/functions/v1/start-bot", meetBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing authorization header", decodeError(t, rec).Error)
	assert.Zero(t, bot.startCalls)

	token, err := manager.GenerateToken("user-1", "authenticated", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/start-bot", strings.NewReader(meetBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, bot.startCalls)
}

func TestUnknownRouteRendersErrorBody(t *testing.T) {
	e := newTestServer(testConfig(), &fakeMeetingService{}, &fakeAIService{}, nil)

	rec := serve(e, http.MethodPost, "/functions/v1/unknown", `{}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeError(t, rec).Error)
}

func TestHealth(t *testing.T) {
	e := newTestServer(testConfig(), &fakeMeetingService{}, &fakeAIService{}, nil)

	rec := serve(e, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","environment":"test"}`, rec.Body.String())
}

func functionLabels(t *testing.T) map[string]struct{} {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	labels := map[string]struct{}{}
	for _, family := range families {
		if family.GetName() != "meetfn_function_requests_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "function" {
					labels[lp.GetValue()] = struct{}{}
				}
			}
		}
	}
	return labels
}

func TestUnknownPathsShareOneFunctionLabel(t *testing.T) {
	e := newTestServer(testConfig(), &fakeMeetingService{}, &fakeAIService{}, nil)

	for i := 0; i < 50; i++ {
		for _, p := range []string{
			fmt.Sprintf("/random-%d", i),
			fmt.Sprintf("/functions/v1/random-%d", i),
			fmt.Sprintf("/functions/v1/random-%d/start-bot", i),
		} {
			rec := serve(e, http.MethodGet, p, "")
			require.Equal(t, http.StatusNotFound, rec.Code, p)
		}
	}

	labels := functionLabels(t)
	assert.Contains(t, labels, fnUnmatched)
	assert.LessOrEqual(t, len(labels), len(functionNames)+1)
	for label := range labels {
		if label == fnUnmatched {
			continue
		}
		assert.Contains(t, functionNames, label)
	}
}

func TestCallerFieldsIncludeClaims(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())

	assert.Len(t, callerFields(c), 0)

	c.Set(httpmw.ClaimsContextKey, &jwt.Claims{
		Role:             "authenticated",
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: "user-1"},
	})
	fields := callerFields(c, zap.String("request_id", "r-1"))

	require.Len(t, fields, 3)
	assert.Equal(t, "user-1", fields[1].String)
	assert.Equal(t, "authenticated", fields[2].String)
}
