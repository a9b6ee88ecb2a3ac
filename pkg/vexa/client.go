package vexa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/pkg/config"
	"github.com/johnquangdev/meeting-functions/pkg/metrics"
)

const serviceName = "vexa"

// PlatformGoogleMeet is the gateway's platform tag for Google Meet
const PlatformGoogleMeet = "google_meet"

// Client talks to the meeting bot gateway
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a gateway client. A zero timeout means no client-side timeout.
func NewClient(cfg *config.VexaConfig, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("vexa"),
	}
}

// StartBotRequest is the body of POST /bots
type StartBotRequest struct {
	Platform        string `json:"platform"`
	NativeMeetingID string `json:"native_meeting_id"`
	BotName         string `json:"bot_name"`
}

// StartBotResponse is the gateway answer to a bot start. Body is passed to the
// caller unchanged; Status tells whether the gateway accepted the start.
type StartBotResponse struct {
	Body   json.RawMessage
	Status int
}

// Rejected reports whether the gateway refused to start the bot
func (r *StartBotResponse) Rejected() bool {
	return r.Status >= http.StatusBadRequest
}

// Segment is one transcript segment as returned by the gateway
type Segment struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Transcript holds the gateway body verbatim plus any segments it carried
type Transcript struct {
	Raw      string
	Segments []Segment
}

// StartBot asks the gateway to send a bot into the meeting. The gateway body is
// returned whatever the status code; only transport failures and non-JSON bodies fail.
func (c *Client) StartBot(ctx context.Context, req StartBotRequest) (*StartBotResponse, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	status, body, err := c.do(ctx, "start_bot", http.MethodPost, "/bots", b)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, apperrors.ErrUpstreamAPI(serviceName, status, "Bot gateway returned a non-JSON response")
	}
	if status >= http.StatusBadRequest {
		c.logger.Warn("bot start rejected by gateway",
			zap.String("native_meeting_id", req.NativeMeetingID),
			zap.Int("status", status),
		)
	}
	return &StartBotResponse{Body: json.RawMessage(body), Status: status}, nil
}

// GetTranscript fetches the transcript of a meeting
func (c *Client) GetTranscript(ctx context.Context, platform, nativeID string) (*Transcript, error) {
	path := fmt.Sprintf("/transcripts/%s/%s", url.PathEscape(platform), url.PathEscape(nativeID))
	status, body, err := c.do(ctx, "get_transcript", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, apperrors.ErrUpstreamAPI(serviceName, status, fmt.Sprintf("Failed to fetch transcript: %s", strings.TrimSpace(string(body))))
	}

	t := &Transcript{Raw: string(body)}
	var decoded struct {
		Segments []Segment `json:"segments"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		t.Segments = decoded.Segments
	}
	return t, nil
}

// StopBot removes the bot from the meeting
func (c *Client) StopBot(ctx context.Context, platform, nativeID string) error {
	path := fmt.Sprintf("/bots/%s/%s", url.PathEscape(platform), url.PathEscape(nativeID))
	status, body, err := c.do(ctx, "stop_bot", http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return apperrors.ErrUpstreamAPI(serviceName, status, fmt.Sprintf("Failed to stop bot: %s", strings.TrimSpace(string(body))))
	}
	return nil
}

// do sends a request and returns the status and body. Non-2xx answers are
// recorded as API errors but returned without error so callers decide.
func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, apperrors.ErrInternal(err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall(serviceName, op, metrics.OutcomeTransportError, time.Since(start))
		return 0, nil, apperrors.ErrUpstreamTransport(serviceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordUpstreamCall(serviceName, op, metrics.OutcomeTransportError, time.Since(start))
		return 0, nil, apperrors.ErrUpstreamTransport(serviceName, err)
	}

	outcome := metrics.OutcomeSuccess
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = metrics.OutcomeAPIError
	}
	metrics.RecordUpstreamCall(serviceName, op, outcome, time.Since(start))

	c.logger.Debug("gateway call",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.StatusCode, body, nil
}
