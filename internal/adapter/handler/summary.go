package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-functions/errors"
	aidto "github.com/johnquangdev/meeting-functions/internal/adapter/dto/ai"
	aiuse "github.com/johnquangdev/meeting-functions/internal/usecase/ai"
)

// Summary handles the summarize-transcription function
type Summary struct {
	svc    aiuse.Service
	logger *zap.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(svc aiuse.Service, logger *zap.Logger) *Summary {
	return &Summary{svc: svc, logger: logger}
}

// Summarize builds the structured summary of a stored transcription
// @Summary      Summarize meeting transcription
// @Description  Generates the structured summary of the final transcription and stores it on the meeting
// @Tags         AI
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      aidto.SummarizeRequest   true  "Meeting to summarize"
// @Success      200      {object}  aidto.SummarizeResponse  "Stored summary"
// @Failure      400      {object}  common.ErrorResponse     "Missing meeting_id"
// @Failure      401      {object}  common.ErrorResponse     "Missing or invalid token"
// @Failure      404      {object}  common.ErrorResponse     "Meeting or transcription not found"
// @Failure      500      {object}  common.ErrorResponse     "Missing configuration or model failure"
// @Router       /functions/v1/summarize-transcription [post]
func (h *Summary) Summarize(c echo.Context) error {
	var req aidto.SummarizeRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Missing meeting_id"))
	}

	summary, err := h.svc.SummarizeTranscription(c.Request().Context(), req.MeetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, aidto.SummarizeResponse{Success: true, Summary: summary})
}
