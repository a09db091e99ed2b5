package repositories

import (
	"context"
	"errors"

	"prepai/interview/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrFeedbackNotFound = errors.New("feedback not found")
	// ErrFeedbackConflict means the id is taken by feedback of another user or interview
	ErrFeedbackConflict = errors.New("feedback id belongs to another user or interview")
)

type FeedbackRepository struct {
	DB *gorm.DB
}

// Save inserts the feedback, or overwrites the record with the same id when it belongs to
// the same user and interview
func (r *FeedbackRepository) Save(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "? = excluded.user_id", Vars: []interface{}{clause.Column{Table: clause.CurrentTable, Name: "user_id"}}},
				clause.Expr{SQL: "? = excluded.interview_id", Vars: []interface{}{clause.Column{Table: clause.CurrentTable, Name: "interview_id"}}},
			}},
			UpdateAll: true,
		}).
		Create(feedback)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFeedbackConflict
	}
	return nil
}

// GetByInterview returns the most recent feedback the user received for an interview
func (r *FeedbackRepository) GetByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	var feedback models.Feedback
	err := r.DB.WithContext(ctx).
		Where("interview_id = ? AND user_id = ?", interviewID, userID).
		Order("updated_at DESC").
		First(&feedback).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFeedbackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}
