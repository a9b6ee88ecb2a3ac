package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-functions/errors"
	meetingdto "github.com/johnquangdev/meeting-functions/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-functions/internal/usecase/meeting"
)

const startBotUsage = "Send a POST request with meeting_url and meeting_id"

// Bot handles the meeting bot functions
type Bot struct {
	svc    meeting.Service
	logger *zap.Logger
}

// NewBotHandler creates a new bot handler
func NewBotHandler(svc meeting.Service, logger *zap.Logger) *Bot {
	return &Bot{svc: svc, logger: logger}
}

// StartBot sends a transcription bot into a Google Meet meeting and returns the
// gateway response unchanged
// @Summary      Start meeting bot
// @Description  Requests a transcription bot for a Google Meet meeting and records the start time
// @Tags         Bot
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      meetingdto.StartBotRequest  true  "Meeting to join"
// @Success      200      {object}  map[string]interface{}      "Bot gateway response"
// @Failure      400      {object}  common.ErrorResponse        "Invalid body or unsupported meeting URL"
// @Failure      401      {object}  common.ErrorResponse        "Missing or invalid token"
// @Failure      409      {object}  common.ErrorResponse        "Bot start already in progress"
// @Failure      500      {object}  common.ErrorResponse        "Missing configuration or upstream failure"
// @Router       /functions/v1/start-bot [post]
func (h *Bot) StartBot(c echo.Context) error {
	var req meetingdto.StartBotRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Missing meeting_url or meeting_id"))
	}

	body, err := h.svc.StartBot(c.Request().Context(), meeting.StartBotInput{
		MeetingURL: req.MeetingURL,
		MeetingID:  req.MeetingID,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, body)
}

// StartBotUsage answers GET requests with a usage hint
// @Summary      Start meeting bot usage
// @Tags         Bot
// @Produce      json
// @Failure      400  {object}  common.ErrorResponse  "Usage hint"
// @Router       /functions/v1/start-bot [get]
func (h *Bot) StartBotUsage(c echo.Context) error {
	return HandleError(h.logger, c, errors.ErrMethodNotSupported(startBotUsage))
}

// FetchTranscript collects the finished transcript, stops the bot and stores the text
// @Summary      Fetch meeting transcript
// @Description  Downloads the transcript from the bot gateway, stops the bot and stores the transcript on the meeting
// @Tags         Bot
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      meetingdto.FetchTranscriptRequest   true  "Meeting to collect"
// @Success      200      {object}  meetingdto.FetchTranscriptResponse  "Transcript"
// @Failure      400      {object}  common.ErrorResponse                "Invalid body or unsupported meeting URL"
// @Failure      401      {object}  common.ErrorResponse                "Missing or invalid token"
// @Failure      500      {object}  common.ErrorResponse                "Missing configuration or upstream failure"
// @Router       /functions/v1/fetch-transcript [post]
func (h *Bot) FetchTranscript(c echo.Context) error {
	var req meetingdto.FetchTranscriptRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Missing meeting_url or meeting_id"))
	}

	result, err := h.svc.FetchTranscript(c.Request().Context(), meeting.FetchTranscriptInput{
		MeetingURL: req.MeetingURL,
		MeetingID:  req.MeetingID,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, meetingdto.FetchTranscriptResponse{
		Success:    true,
		Transcript: result.Transcript,
		Message:    result.Message,
	})
}
