package ai

// SummarizeRequest represents the request to summarize a stored transcription
type SummarizeRequest struct {
	MeetingID string `json:"meeting_id" validate:"required"`
}

// GenerateEmbeddingsRequest represents the request to embed a stored summary
type GenerateEmbeddingsRequest struct {
	MeetingID string `json:"meeting_id" validate:"required"`
}

// GetEmbeddingRequest represents a query-time embedding request. An empty text is
// rejected by the service so the error message stays the same for every caller.
type GetEmbeddingRequest struct {
	Text string `json:"text"`
}
