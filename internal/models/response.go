package models

// result of an LLM generation call
type GenerationResponse struct {
	Content   string             `json:"content"`
	RequestID string             `json:"request_id"`
	Metadata  GenerationMetadata `json:"metadata"`
}

// additional information about the generation
type GenerationMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

// generic envelope used by simple endpoints
type Resp struct {
	OK   bool        `json:"ok"`
	Info interface{} `json:"info"`
}

// agent state returned to the UI
type AgentResponse struct {
	AgentID     string `json:"agent_id"`
	Status      string `json:"status"`
	InterviewID string `json:"interview_id,omitempty"`
	FeedbackID  string `json:"feedback_id,omitempty"`
	IsSpeaking  bool   `json:"is_speaking"`
	LastMessage string `json:"last_message,omitempty"`
	Transcript  []Turn `json:"transcript"`
	Redirect    string `json:"redirect,omitempty"`
}

// interview page data
type FeedbackViewResponse struct {
	Interview Interview `json:"interview"`
	Feedback  *Feedback `json:"feedback,omitempty"`
}

type QuestionSetResponse struct {
	Role      string   `json:"role"`
	Level     string   `json:"level"`
	Questions []string `json:"questions"`
}

// uniform error responses
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
