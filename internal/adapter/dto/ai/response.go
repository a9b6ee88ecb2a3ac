package ai

import "encoding/json"

// SummarizeResponse represents a stored meeting summary
type SummarizeResponse struct {
	Success bool            `json:"success"`
	Summary json.RawMessage `json:"summary"`
}

// GetEmbeddingResponse carries the query embedding
type GetEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}
