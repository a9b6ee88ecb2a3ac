package ai

import (
	"strings"

	"github.com/johnquangdev/meeting-functions/internal/domain/entities"
)

const unknownSpeaker = "Unknown"

const summaryInstructions = `
      You're an expert meeting analyst. Analyze the meeting transcript and generate a comprehensive summary in strict JSON format with these keys:
      - "key_discussion_points": array of key topics discussed (minimum 5 items)
      - "important_decisions": array of important decisions made
      - "action_items": array of objects with "item", "owner", and "deadline" properties
      - "meeting_highlights": array of notable moments/achievements
      - "follow_up_tasks": array of objects with "task" and "deadline" properties
      - "overall_summary": string (minimum 200 words) providing comprehensive analysis
      
      Requirements:
      1. Use detailed, professional language
      2. Include all important technical details
      3. Extract deadlines where mentioned
      4. Identify action owners from speaker names
      5. Maintain strict JSON format - no additional text
      
      Meeting transcript:
    `

// schemaNode is one node of the response schema accepted by generateContent
type schemaNode struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Items       *schemaNode            `json:"items,omitempty"`
	Properties  map[string]*schemaNode `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

func stringNode(description string) *schemaNode {
	return &schemaNode{Type: "STRING", Description: description}
}

func stringArray(description string) *schemaNode {
	return &schemaNode{Type: "ARRAY", Items: &schemaNode{Type: "STRING"}, Description: description}
}

// SummarySchema is the structured output the model must return
var SummarySchema = &schemaNode{
	Type: "OBJECT",
	Properties: map[string]*schemaNode{
		"key_discussion_points": stringArray("A list of the key topics that were discussed in the meeting."),
		"important_decisions":   stringArray("A list of the important decisions that were officially made."),
		"action_items": {
			Type: "ARRAY",
			Items: &schemaNode{
				Type: "OBJECT",
				Properties: map[string]*schemaNode{
					"item":     stringNode("The specific action item or task to be completed."),
					"owner":    stringNode("The person or team assigned to the action item."),
					"deadline": stringNode("The deadline for the task, e.g., 'YYYY-MM-DD' or 'N/A' if not specified."),
				},
				Required: []string{"item", "owner", "deadline"},
			},
			Description: "A list of all actionable tasks assigned during the meeting.",
		},
		"meeting_highlights": stringArray("A list of notable moments, positive outcomes, or key achievements from the meeting."),
		"follow_up_tasks": {
			Type: "ARRAY",
			Items: &schemaNode{
				Type: "OBJECT",
				Properties: map[string]*schemaNode{
					"task":     stringNode("The follow-up task to be completed."),
					"deadline": stringNode("The deadline for the task, or 'N/A'."),
				},
				Required: []string{"task", "deadline"},
			},
			Description: "A list of follow-up tasks discussed that are not formal action items.",
		},
		"overall_summary": stringNode("A comprehensive, professional analysis of the entire meeting, written in a narrative format (minimum 200 words)."),
	},
	Required: entities.SummaryRequiredKeys,
}

// FlattenTranscript renders segments as "<speaker>: <text>" blocks separated by a blank line
func FlattenTranscript(segments []entities.TranscriptSegment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = unknownSpeaker
		}
		lines = append(lines, speaker+": "+seg.Text)
	}
	return strings.Join(lines, "\n\n")
}

// BuildSummaryPrompt appends the transcript to the fixed analysis instructions
func BuildSummaryPrompt(transcript string) string {
	return summaryInstructions + transcript
}
