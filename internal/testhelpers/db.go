package testhelpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"prepai/interview/internal/models"
)

var (
	openSQLite    = func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), &gorm.Config{}) }
	migrateSchema = func(db *gorm.DB) error { return db.AutoMigrate(&models.Interview{}, &models.Feedback{}) }
)

// SetupTestDB opens a private in-memory SQLite database with the interview schema.
// The database lives until the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := openSQLite(dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := migrateSchema(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { sqlDB.Close() })
	}
	return db
}

// SeedInterview inserts an interview owned by userID and returns it.
func SeedInterview(t *testing.T, db *gorm.DB, userID string, finalized bool) *models.Interview {
	t.Helper()
	interview := &models.Interview{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      models.DefaultInterviewRole,
		Type:      "technical",
		Level:     "junior",
		Techstack: []string{"Go"},
		Questions: []string{"What is a goroutine?"},
		Finalized: finalized,
	}
	if err := db.Create(interview).Error; err != nil {
		t.Fatalf("failed to seed interview: %v", err)
	}
	return interview
}

// SeedFeedback stores a feedback record with every category at the given score.
func SeedFeedback(t *testing.T, db *gorm.DB, interviewID, userID string, score int) *models.Feedback {
	t.Helper()
	categories := make([]models.CategoryScore, 0, len(models.FeedbackCategories))
	for _, name := range models.FeedbackCategories {
		categories = append(categories, models.CategoryScore{Name: name, Score: score})
	}
	fb := &models.Feedback{
		ID:                  uuid.NewString(),
		InterviewID:         interviewID,
		UserID:              userID,
		TotalScore:          score,
		CategoryScores:      categories,
		Strengths:           []string{},
		AreasForImprovement: []string{},
		FinalAssessment:     "seeded",
	}
	if err := db.Create(fb).Error; err != nil {
		t.Fatalf("failed to seed feedback: %v", err)
	}
	return fb
}

// DropFeedbackTable removes the feedbacks table to force repository errors.
func DropFeedbackTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := db.Migrator().DropTable(&models.Feedback{}); err != nil {
		t.Fatalf("failed to drop feedback table: %v", err)
	}
}
