package models

import (
	"strconv"
	"strings"
)

type StartCallRequest struct {
	UserName    string   `json:"user_name"`
	Type        string   `json:"type"`
	InterviewID string   `json:"interview_id,omitempty"`
	FeedbackID  string   `json:"feedback_id,omitempty"`
	Questions   []string `json:"questions,omitempty"`
}

// implements the Validator interface
func (r *StartCallRequest) Validate() error {
	// an empty name falls back to the session's name claim
	r.UserName = strings.TrimSpace(r.UserName)

	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if r.Type == "" {
		r.Type = "generate"
	}
	if !ValidCallTypes[r.Type] {
		return &ErrorResponse{
			Code:    "invalid_call_type",
			Message: "type must be one of: " + strings.Join(ValidCallTypesList(), ", "),
		}
	}

	if r.Type == "interview" {
		if r.InterviewID == "" {
			return &ErrorResponse{Code: "missing_interview_id", Message: "interview_id is required for interview calls"}
		}
		if len(r.Questions) == 0 {
			return &ErrorResponse{Code: "missing_questions", Message: "questions are required for interview calls"}
		}
	}

	var details []ValidationErrorDetail
	for i, q := range r.Questions {
		if strings.TrimSpace(q) == "" {
			details = append(details, ValidationErrorDetail{
				Field:  "questions[" + strconv.Itoa(i) + "]",
				Reason: "must not be empty",
			})
		}
	}
	if len(details) > 0 {
		return &ErrorResponse{Code: "invalid_questions", Message: "questions must not be empty", Details: details}
	}

	return nil
}

type CreateInterviewRequest struct {
	Role      string   `json:"role"`
	Type      string   `json:"type"`
	Level     string   `json:"level"`
	Techstack []string `json:"techstack"`
	Questions []string `json:"questions,omitempty"`
	Finalized bool     `json:"finalized"`
}

func (r *CreateInterviewRequest) Validate() error {
	if strings.TrimSpace(r.Role) == "" {
		return &ErrorResponse{Code: "missing_role", Message: "role is required"}
	}
	if !ValidInterviewTypes[strings.ToLower(strings.TrimSpace(r.Type))] {
		return &ErrorResponse{
			Code:    "invalid_interview_type",
			Message: "type must be one of: " + strings.Join(ValidInterviewTypesList(), ", "),
		}
	}
	if len(r.Techstack) > 10 {
		return &ErrorResponse{Code: "too_many_techs", Message: "techstack accepts at most 10 entries"}
	}
	return nil
}

// AddQuestionsRequest contributes questions for a role to the question bank.
type AddQuestionsRequest struct {
	Level     string   `json:"level"`
	Type      string   `json:"type"`
	Techstack []string `json:"techstack"`
	Questions []string `json:"questions"`
}

func (r *AddQuestionsRequest) Validate() error {
	if len(r.Questions) == 0 {
		return &ErrorResponse{Code: "missing_questions", Message: "questions are required"}
	}
	if len(r.Questions) > 50 {
		return &ErrorResponse{Code: "too_many_questions", Message: "at most 50 questions can be added at once"}
	}
	if r.Type != "" && !ValidInterviewTypes[strings.ToLower(strings.TrimSpace(r.Type))] {
		return &ErrorResponse{
			Code:    "invalid_interview_type",
			Message: "type must be one of: " + strings.Join(ValidInterviewTypesList(), ", "),
		}
	}
	for i, q := range r.Questions {
		if strings.TrimSpace(q) == "" {
			return &ErrorResponse{
				Code:    "invalid_questions",
				Message: "questions must not be empty",
				Details: []ValidationErrorDetail{{Field: "questions[" + strconv.Itoa(i) + "]", Reason: "must not be empty"}},
			}
		}
	}
	return nil
}
