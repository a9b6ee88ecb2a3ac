package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/johnquangdev/meeting-functions/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting record access.
// Updates never insert rows; an update that matches no row is not an error.
type MeetingRepository interface {
	// GetFinalTranscription returns the diarized transcript segments, empty when none are stored
	GetFinalTranscription(ctx context.Context, id string) ([]entities.TranscriptSegment, error)

	// GetSummary returns the stored summary document, nil when none is stored
	GetSummary(ctx context.Context, id string) (json.RawMessage, error)

	// MarkBotStarted sets bot_started_at
	MarkBotStarted(ctx context.Context, id string, at time.Time) error

	// SaveTranscript writes the fetched transcript and clears any previous failure reason
	SaveTranscript(ctx context.Context, id string, update entities.TranscriptUpdate) error

	// MarkTranscriptionFailed records a failed attempt without touching the transcript
	MarkTranscriptionFailed(ctx context.Context, id string, at time.Time, reason string) error

	// SaveSummary writes meeting_summary_json
	SaveSummary(ctx context.Context, id string, summary json.RawMessage) error

	// SaveSummaryEmbedding writes summary_embedding
	SaveSummaryEmbedding(ctx context.Context, id string, embedding []float32) error
}
