package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/internal/domain/entities"
	domainrepo "github.com/johnquangdev/meeting-functions/internal/domain/repositories"
	pkgai "github.com/johnquangdev/meeting-functions/pkg/ai"
)

// Service defines AI orchestration methods
type Service interface {
	SummarizeTranscription(ctx context.Context, meetingID string) (json.RawMessage, error)
	GenerateSummaryEmbedding(ctx context.Context, meetingID string) error
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Model is the subset of the generative AI client the service uses
type Model interface {
	GenerateJSON(ctx context.Context, prompt string, schema interface{}) (string, error)
	EmbedContent(ctx context.Context, text, taskType string) ([]float32, error)
}

type aiService struct {
	repo   domainrepo.MeetingRepository
	model  Model
	parser *Parser
	logger *zap.Logger
}

// NewAIService constructs a new AI service
func NewAIService(repo domainrepo.MeetingRepository, model Model, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &aiService{
		repo:   repo,
		model:  model,
		parser: NewParser(),
		logger: logger,
	}
}

// SummarizeTranscription produces and stores the structured summary of a meeting.
// Nothing is stored unless the model output parses and carries every required key.
func (s *aiService) SummarizeTranscription(ctx context.Context, meetingID string) (json.RawMessage, error) {
	segments, err := s.repo.GetFinalTranscription(ctx, meetingID)
	if err != nil {
		if errors.Is(err, entities.ErrMeetingNotFound) {
			return nil, apperrors.ErrMeetingNotFound(meetingID)
		}
		return nil, apperrors.ErrDBQueryFailed("load final transcription", err)
	}
	if len(segments) == 0 {
		return nil, apperrors.ErrTranscriptionMissing(meetingID)
	}

	prompt := BuildSummaryPrompt(FlattenTranscript(segments))
	text, err := s.model.GenerateJSON(ctx, prompt, SummarySchema)
	if err != nil {
		return nil, err
	}

	summary, err := s.parser.ParseSummary(text)
	if err != nil {
		s.logger.Warn("model returned an unusable summary",
			zap.String("meeting_id", meetingID),
			zap.Int("response_length", len(text)),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.repo.SaveSummary(ctx, meetingID, summary); err != nil {
		return nil, apperrors.ErrDBQueryFailed("save summary", err)
	}

	s.logger.Info("meeting summarized", zap.String("meeting_id", meetingID), zap.Int("segments", len(segments)))
	return summary, nil
}

// GenerateSummaryEmbedding embeds the stored summary as a retrieval document and stores the vector
func (s *aiService) GenerateSummaryEmbedding(ctx context.Context, meetingID string) error {
	summary, err := s.repo.GetSummary(ctx, meetingID)
	if err != nil {
		if errors.Is(err, entities.ErrMeetingNotFound) {
			return apperrors.ErrMeetingNotFound(meetingID)
		}
		return apperrors.ErrDBQueryFailed("load summary", err)
	}
	if len(summary) == 0 {
		return apperrors.ErrSummaryMissing(meetingID)
	}

	var text bytes.Buffer
	if err := json.Compact(&text, summary); err != nil {
		return apperrors.ErrInternal(err)
	}

	embedding, err := s.model.EmbedContent(ctx, text.String(), pkgai.TaskRetrievalDocument)
	if err != nil {
		return err
	}
	if len(embedding) != entities.EmbeddingDimensions {
		return apperrors.ErrAIResponseInvalid(
			fmt.Sprintf("Embedding has %d dimensions, expected %d", len(embedding), entities.EmbeddingDimensions), nil)
	}

	if err := s.repo.SaveSummaryEmbedding(ctx, meetingID, embedding); err != nil {
		return apperrors.ErrDBQueryFailed("save summary embedding", err)
	}

	s.logger.Info("summary embedding stored", zap.String("meeting_id", meetingID), zap.Int("dimensions", len(embedding)))
	return nil
}

// EmbedQuery embeds free text as a retrieval query. Nothing is stored.
func (s *aiService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, apperrors.ErrInvalidArgument("No text provided for embedding")
	}
	return s.model.EmbedContent(ctx, text, pkgai.TaskRetrievalQuery)
}
