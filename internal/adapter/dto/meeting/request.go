package meeting

// StartBotRequest represents the request to send a transcription bot into a meeting
type StartBotRequest struct {
	MeetingURL string `json:"meeting_url" validate:"required"`
	MeetingID  string `json:"meeting_id" validate:"required"`
}

// FetchTranscriptRequest represents the request to collect a finished transcript
type FetchTranscriptRequest struct {
	MeetingURL string `json:"meeting_url" validate:"required"`
	MeetingID  string `json:"meeting_id" validate:"required"`
}
