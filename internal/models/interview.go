package models

import (
	"time"
)

// Interview is the persisted session record a call is attached to.
type Interview struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Role      string    `gorm:"not null" json:"role"`
	Type      string    `gorm:"not null" json:"type"`
	Level     string    `json:"level,omitempty"`
	Techstack []string  `gorm:"serializer:json" json:"techstack"`
	Questions []string  `gorm:"serializer:json" json:"questions,omitempty"`
	Finalized bool      `gorm:"not null;default:false;index" json:"finalized"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Feedback is the structured score breakdown produced for one interview attempt.
type Feedback struct {
	ID                  string          `gorm:"primaryKey;size:36" json:"id"`
	InterviewID         string          `gorm:"index:idx_feedback_interview_user;not null" json:"interview_id"`
	UserID              string          `gorm:"index:idx_feedback_interview_user;not null" json:"user_id"`
	TotalScore          int             `gorm:"not null" json:"total_score"`
	CategoryScores      []CategoryScore `gorm:"serializer:json" json:"category_scores"`
	Strengths           []string        `gorm:"serializer:json" json:"strengths"`
	AreasForImprovement []string        `gorm:"serializer:json" json:"areas_for_improvement"`
	FinalAssessment     string          `gorm:"type:text" json:"final_assessment"`
	ModelVersion        string          `json:"model_version,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// InterviewSummary is the card view of an interview with its score, if any.
type InterviewSummary struct {
	Interview
	TotalScore *int `json:"total_score,omitempty"`
}
