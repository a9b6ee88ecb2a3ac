package meeting

// FetchTranscriptResponse represents a fetched transcript.
// Message is set when the transcript was stored but the bot could not be stopped.
type FetchTranscriptResponse struct {
	Success    bool   `json:"success"`
	Transcript string `json:"transcript"`
	Message    string `json:"message,omitempty"`
}
