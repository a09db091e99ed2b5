package repositories

import (
	"context"
	"errors"

	"prepai/interview/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInterviewNotFound = errors.New("interview not found")

type InterviewRepository struct {
	DB *gorm.DB
}

// CreateInterview stores a new session record and returns its id
func (r *InterviewRepository) CreateInterview(ctx context.Context, params models.CreateInterviewParams) (string, error) {
	interview := &models.Interview{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		Role:      params.Role,
		Type:      params.Type,
		Level:     params.Level,
		Techstack: params.Techstack,
		Questions: params.Questions,
		Finalized: params.Finalized,
	}
	if interview.Techstack == nil {
		interview.Techstack = []string{}
	}
	if err := r.DB.WithContext(ctx).Create(interview).Error; err != nil {
		return "", err
	}
	return interview.ID, nil
}

func (r *InterviewRepository) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	var interview models.Interview
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&interview).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &interview, nil
}

// ListByUser returns the user's interviews, newest first, with the latest feedback score attached
func (r *InterviewRepository) ListByUser(ctx context.Context, userID string) ([]models.InterviewSummary, error) {
	interviews := []models.Interview{}
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&interviews).Error
	if err != nil {
		return nil, err
	}
	if len(interviews) == 0 {
		return []models.InterviewSummary{}, nil
	}

	ids := make([]string, 0, len(interviews))
	for _, iv := range interviews {
		ids = append(ids, iv.ID)
	}
	var feedbacks []models.Feedback
	err = r.DB.WithContext(ctx).
		Select("interview_id", "total_score", "updated_at").
		Where("user_id = ? AND interview_id IN ?", userID, ids).
		Order("updated_at ASC").
		Find(&feedbacks).Error
	if err != nil {
		return nil, err
	}
	// later rows win
	scores := make(map[string]int, len(feedbacks))
	for _, fb := range feedbacks {
		scores[fb.InterviewID] = fb.TotalScore
	}

	out := make([]models.InterviewSummary, 0, len(interviews))
	for _, iv := range interviews {
		summary := models.InterviewSummary{Interview: iv}
		if score, ok := scores[iv.ID]; ok {
			s := score
			summary.TotalScore = &s
		}
		out = append(out, summary)
	}
	return out, nil
}

// ListLatest returns finalized interviews created by other users
func (r *InterviewRepository) ListLatest(ctx context.Context, userID string, limit int) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 20
	}
	interviews := []models.Interview{}
	err := r.DB.WithContext(ctx).
		Where("finalized = ? AND user_id <> ?", true, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&interviews).Error
	return interviews, err
}
