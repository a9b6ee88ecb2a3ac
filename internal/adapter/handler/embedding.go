package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-functions/errors"
	aidto "github.com/johnquangdev/meeting-functions/internal/adapter/dto/ai"
	"github.com/johnquangdev/meeting-functions/internal/adapter/dto/common"
	aiuse "github.com/johnquangdev/meeting-functions/internal/usecase/ai"
)

const corsAllowHeaders = "authorization, x-client-info, apikey, content-type"

// Embedding handles the generate-embeddings and get-embedding functions.
// Both are called from browsers and answer with permissive CORS headers.
type Embedding struct {
	svc    aiuse.Service
	logger *zap.Logger
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(svc aiuse.Service, logger *zap.Logger) *Embedding {
	return &Embedding{svc: svc, logger: logger}
}

// CORS sets the browser headers on every response of the embedding functions
func (h *Embedding) CORS(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Response().Header()
		header.Set(echo.HeaderAccessControlAllowOrigin, "*")
		header.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
		return next(c)
	}
}

// Preflight answers CORS preflight requests
// @Summary      Embedding CORS preflight
// @Tags         AI
// @Produce      plain
// @Success      200  {string}  string  "ok"
// @Router       /functions/v1/generate-embeddings [options]
// @Router       /functions/v1/get-embedding [options]
func (h *Embedding) Preflight(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// GenerateEmbeddings embeds the stored summary of a meeting and stores the vector
// @Summary      Generate summary embedding
// @Description  Embeds the stored meeting summary as a retrieval document and stores the vector
// @Tags         AI
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      aidto.GenerateEmbeddingsRequest  true  "Meeting to embed"
// @Success      200      {object}  common.SuccessResponse           "Embedding stored"
// @Failure      400      {object}  common.ErrorResponse             "Invalid request, missing summary or upstream failure"
// @Failure      401      {object}  common.ErrorResponse             "Missing or invalid token"
// @Failure      500      {object}  common.ErrorResponse             "Missing configuration"
// @Router       /functions/v1/generate-embeddings [post]
func (h *Embedding) GenerateEmbeddings(c echo.Context) error {
	var req aidto.GenerateEmbeddingsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, asClientError(errors.ErrInvalidPayload()))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Missing meeting_id"))
	}

	if err := h.svc.GenerateSummaryEmbedding(c.Request().Context(), req.MeetingID); err != nil {
		return HandleError(h.logger, c, asClientError(err))
	}

	return HandleSuccess(h.logger, c, common.SuccessResponse{Success: true})
}

// GetEmbedding embeds a search query. Nothing is stored.
// @Summary      Embed search query
// @Description  Returns the retrieval query embedding of the given text
// @Tags         AI
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      aidto.GetEmbeddingRequest   true  "Text to embed"
// @Success      200      {object}  aidto.GetEmbeddingResponse  "Embedding"
// @Failure      400      {object}  common.ErrorResponse        "Missing text or upstream failure"
// @Failure      401      {object}  common.ErrorResponse        "Missing or invalid token"
// @Failure      500      {object}  common.ErrorResponse        "Missing configuration"
// @Router       /functions/v1/get-embedding [post]
func (h *Embedding) GetEmbedding(c echo.Context) error {
	var req aidto.GetEmbeddingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, asClientError(errors.ErrInvalidPayload()))
	}

	embedding, err := h.svc.EmbedQuery(c.Request().Context(), req.Text)
	if err != nil {
		return HandleError(h.logger, c, asClientError(err))
	}

	return HandleSuccess(h.logger, c, aidto.GetEmbeddingResponse{Embedding: embedding})
}
