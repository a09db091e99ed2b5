package models

// Role identifies who spoke a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Turn is one finalized utterance of a call transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// FeedbackRequest carries a finished call to the feedback generator.
type FeedbackRequest struct {
	InterviewID string
	UserID      string
	Transcript  []Turn
	// FeedbackID is set when an earlier attempt already produced a record to overwrite
	FeedbackID string
}

// CreateInterviewParams describes a new interview session record.
type CreateInterviewParams struct {
	UserID    string   `json:"user_id"`
	Role      string   `json:"role"`
	Type      string   `json:"type"`
	Level     string   `json:"level,omitempty"`
	Techstack []string `json:"techstack"`
	Questions []string `json:"questions,omitempty"`
	Finalized bool     `json:"finalized"`
}
