package agents

import (
	"context"

	"prepai/interview/internal/models"
	"prepai/interview/internal/utils"
)

// InterviewCreator is the persistence side of session creation.
type InterviewCreator interface {
	CreateInterview(ctx context.Context, params models.CreateInterviewParams) (string, error)
}

// SessionStore normalizes session parameters before they reach the interview repository.
type SessionStore struct {
	Interviews InterviewCreator
}

func (s SessionStore) CreateInterview(ctx context.Context, params models.CreateInterviewParams) (string, error) {
	params.Techstack = utils.NormalizeTechstack(params.Techstack)
	params.Level = utils.NormalizeLevel(params.Level)
	if params.Level == "" {
		params.Level = utils.NormalizeLevel(models.DefaultInterviewLevel)
	}
	return s.Interviews.CreateInterview(ctx, params)
}
