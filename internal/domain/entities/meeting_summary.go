package entities

// MeetingSummary is the structured analysis stored in meeting_summary_json
type MeetingSummary struct {
	KeyDiscussionPoints []string       `json:"key_discussion_points"`
	ImportantDecisions  []string       `json:"important_decisions"`
	ActionItems         []ActionItem   `json:"action_items"`
	MeetingHighlights   []string       `json:"meeting_highlights"`
	FollowUpTasks       []FollowUpTask `json:"follow_up_tasks"`
	OverallSummary      string         `json:"overall_summary"`
}

// ActionItem is a task assigned during the meeting
type ActionItem struct {
	Item     string `json:"item"`
	Owner    string `json:"owner"`
	Deadline string `json:"deadline"`
}

// FollowUpTask is a follow-up that is not a formal action item
type FollowUpTask struct {
	Task     string `json:"task"`
	Deadline string `json:"deadline"`
}

// SummaryRequiredKeys lists the top-level keys every stored summary must carry, in check order
var SummaryRequiredKeys = []string{
	"key_discussion_points",
	"important_decisions",
	"action_items",
	"meeting_highlights",
	"follow_up_tasks",
	"overall_summary",
}
