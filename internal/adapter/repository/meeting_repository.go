package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-functions/internal/domain/entities"
	"github.com/johnquangdev/meeting-functions/internal/domain/repositories"
)

// MeetingRepository implements the meeting repository interface using GORM
type MeetingRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ repositories.MeetingRepository = (*MeetingRepository)(nil)

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB, logger *zap.Logger) *MeetingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingRepository{
		db:     db,
		logger: logger,
	}
}

// jsonColumn reads a single JSON column as text so NULL stays distinguishable
type jsonColumn struct {
	Value *string
}

func (r *MeetingRepository) readJSONColumn(ctx context.Context, id, column string) (*string, error) {
	var row jsonColumn
	res := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Select(column+" AS value").
		Where("id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to read %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, entities.ErrMeetingNotFound
	}
	return row.Value, nil
}

// GetFinalTranscription returns the diarized transcript segments of a meeting
func (r *MeetingRepository) GetFinalTranscription(ctx context.Context, id string) ([]entities.TranscriptSegment, error) {
	raw, err := r.readJSONColumn(ctx, id, "final_transcription")
	if err != nil {
		return nil, err
	}
	if raw == nil || *raw == "" {
		return nil, nil
	}

	var segments []entities.TranscriptSegment
	if err := json.Unmarshal([]byte(*raw), &segments); err != nil {
		return nil, fmt.Errorf("failed to decode final_transcription: %w", err)
	}
	return segments, nil
}

// GetSummary returns the stored summary document of a meeting
func (r *MeetingRepository) GetSummary(ctx context.Context, id string) (json.RawMessage, error) {
	raw, err := r.readJSONColumn(ctx, id, "meeting_summary_json")
	if err != nil {
		return nil, err
	}
	if raw == nil || *raw == "" || *raw == "null" {
		return nil, nil
	}
	return json.RawMessage(*raw), nil
}

// MarkBotStarted sets the bot start timestamp
func (r *MeetingRepository) MarkBotStarted(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, "mark bot started", id, map[string]interface{}{
		"bot_started_at": at.UTC(),
	})
}

// SaveTranscript writes the transcript text, its segments when present and the attempt time
func (r *MeetingRepository) SaveTranscript(ctx context.Context, id string, update entities.TranscriptUpdate) error {
	columns := map[string]interface{}{
		"transcription":              update.Text,
		"transcription_attempted_at": update.AttemptedAt.UTC(),
		"transcription_error":        nil,
	}
	if len(update.Segments) > 0 {
		segments, err := json.Marshal(update.Segments)
		if err != nil {
			return fmt.Errorf("failed to encode transcript segments: %w", err)
		}
		columns["final_transcription"] = datatypes.JSON(segments)
	}
	return r.update(ctx, "save transcript", id, columns)
}

// MarkTranscriptionFailed records the attempt time and failure reason only
func (r *MeetingRepository) MarkTranscriptionFailed(ctx context.Context, id string, at time.Time, reason string) error {
	return r.update(ctx, "mark transcription failed", id, map[string]interface{}{
		"transcription_attempted_at": at.UTC(),
		"transcription_error":        reason,
	})
}

// SaveSummary writes the structured summary document
func (r *MeetingRepository) SaveSummary(ctx context.Context, id string, summary json.RawMessage) error {
	return r.update(ctx, "save summary", id, map[string]interface{}{
		"meeting_summary_json": datatypes.JSON(summary),
	})
}

// SaveSummaryEmbedding writes the summary embedding vector
func (r *MeetingRepository) SaveSummaryEmbedding(ctx context.Context, id string, embedding []float32) error {
	return r.update(ctx, "save summary embedding", id, map[string]interface{}{
		"summary_embedding": pgvector.NewVector(embedding),
	})
}

func (r *MeetingRepository) update(ctx context.Context, op, id string, columns map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		return fmt.Errorf("failed to %s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		r.logger.Warn("meeting update matched no rows",
			zap.String("operation", op),
			zap.String("meeting_id", id),
		)
	}
	return nil
}
