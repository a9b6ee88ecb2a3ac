package entities

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// EmbeddingDimensions is the length of vectors stored in summary_embedding
const EmbeddingDimensions = 768

// Meeting represents a row of the meetings table. Rows are created elsewhere;
// this service only updates columns of existing rows.
type Meeting struct {
	ID         string `json:"id" gorm:"type:text;primaryKey"`
	MeetingURL string `json:"meeting_url" gorm:"type:text"`

	BotStartedAt *time.Time `json:"bot_started_at,omitempty" gorm:"type:timestamptz"`

	// Transcript bookkeeping
	Transcription            *string        `json:"transcription,omitempty" gorm:"type:text"`
	FinalTranscription       datatypes.JSON `json:"final_transcription,omitempty" gorm:"type:jsonb"`
	TranscriptionAttemptedAt *time.Time     `json:"transcription_attempted_at,omitempty" gorm:"type:timestamptz"`
	TranscriptionError       *string        `json:"transcription_error,omitempty" gorm:"type:text"`

	// AI results
	MeetingSummaryJSON datatypes.JSON   `json:"meeting_summary_json,omitempty" gorm:"column:meeting_summary_json;type:jsonb"`
	SummaryEmbedding   *pgvector.Vector `json:"-" gorm:"type:vector(768)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name
func (Meeting) TableName() string {
	return "meetings"
}

// TranscriptSegment is one speaker turn of a finished transcript
type TranscriptSegment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// TranscriptUpdate carries the columns written after a successful transcript fetch
type TranscriptUpdate struct {
	Text        string
	Segments    []TranscriptSegment
	AttemptedAt time.Time
}
