package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/internal/domain/entities"
)

// Parser handles parsing and validation of model summary responses
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseSummary parses the model output and checks every required key is present.
// The returned document is compact JSON and keeps any extra keys the model added.
func (p *Parser) ParseSummary(text string) (json.RawMessage, error) {
	content := extractJSON(text)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, apperrors.ErrAIResponseInvalid(fmt.Sprintf("Failed to parse JSON: %v", err), err)
	}

	for _, key := range entities.SummaryRequiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, apperrors.ErrAIResponseInvalid(fmt.Sprintf("Missing required key in response: %s", key), nil)
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(content)); err != nil {
		return nil, apperrors.ErrAIResponseInvalid(fmt.Sprintf("Failed to parse JSON: %v", err), err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

// extractJSON strips a markdown code fence around the JSON document, if any
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
