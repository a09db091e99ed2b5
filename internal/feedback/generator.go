package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prepai/interview/internal/llm"
	"prepai/interview/internal/models"
	"prepai/interview/internal/prompts"
	"prepai/interview/internal/utils"
)

const promptMode = "feedback"

var (
	ErrEmptyTranscript = errors.New("transcript is empty")
	ErrInvalidFeedback = errors.New("model returned invalid feedback")
)

// FeedbackStore persists generated feedback
type FeedbackStore interface {
	Save(ctx context.Context, feedback *models.Feedback) error
}

// InterviewLookup resolves the interview a transcript belongs to
type InterviewLookup interface {
	GetByID(ctx context.Context, id string) (*models.Interview, error)
}

// Generator scores a finished call transcript with an LLM and stores the result
type Generator struct {
	provider   llm.Provider
	prompts    prompts.PromptProvider
	store      FeedbackStore
	interviews InterviewLookup
	logger     *zap.Logger
}

func NewGenerator(provider llm.Provider, pm prompts.PromptProvider, store FeedbackStore, interviews InterviewLookup, logger *zap.Logger) *Generator {
	return &Generator{
		provider:   provider,
		prompts:    pm,
		store:      store,
		interviews: interviews,
		logger:     utils.LoggerOrDefault(logger),
	}
}

type promptData struct {
	Role       string
	Type       string
	Transcript string
	Categories []string
}

type categoryPayload struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

type payload struct {
	TotalScore          float64           `json:"totalScore"`
	CategoryScores      []categoryPayload `json:"categoryScores"`
	Strengths           []string          `json:"strengths"`
	AreasForImprovement []string          `json:"areasForImprovement"`
	FinalAssessment     string            `json:"finalAssessment"`
}

// GenerateFeedback builds the feedback prompt, calls the provider and upserts the record.
// It returns the stored feedback id.
func (g *Generator) GenerateFeedback(ctx context.Context, req models.FeedbackRequest) (string, error) {
	if len(req.Transcript) == 0 {
		return "", ErrEmptyTranscript
	}

	data := promptData{
		Role:       models.DefaultInterviewRole,
		Type:       models.DefaultInterviewType,
		Transcript: FormatTranscript(req.Transcript),
		Categories: models.FeedbackCategories,
	}
	if g.interviews != nil {
		interview, err := g.interviews.GetByID(ctx, req.InterviewID)
		if err != nil {
			g.logger.Warn("Interview lookup failed, using default role", zap.String("interview_id", req.InterviewID), zap.Error(err))
		} else {
			data.Role = interview.Role
			data.Type = interview.Type
		}
	}

	variant := "default"
	if req.FeedbackID != "" {
		variant = "retake"
	}
	prompt, err := g.prompts.BuildPrompt(promptMode, variant, data)
	if err != nil {
		return "", fmt.Errorf("failed to build feedback prompt: %w", err)
	}

	requestID := uuid.NewString()
	resp, err := g.provider.GenerateContent(ctx, prompt, requestID, llm.GenerateOptions{
		JSON:              true,
		SystemInstruction: g.prompts.SystemInstruction(promptMode),
	})
	if err != nil {
		return "", err
	}

	fb, err := ParseFeedback(resp.Content)
	if err != nil {
		g.logger.Error("Failed to parse feedback",
			zap.String("request_id", requestID),
			zap.String("interview_id", req.InterviewID),
			zap.Error(err))
		return "", err
	}
	fb.ID = req.FeedbackID
	fb.InterviewID = req.InterviewID
	fb.UserID = req.UserID
	fb.ModelVersion = resp.Metadata.Model

	if err := g.store.Save(ctx, fb); err != nil {
		return "", fmt.Errorf("failed to store feedback: %w", err)
	}

	g.logger.Info("Stored interview feedback",
		zap.String("request_id", requestID),
		zap.String("interview_id", fb.InterviewID),
		zap.String("feedback_id", fb.ID),
		zap.Int("total_score", fb.TotalScore))
	return fb.ID, nil
}

// FormatTranscript renders turns as "- role: content" lines
func FormatTranscript(turns []models.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString("- ")
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// ParseFeedback decodes model output into a Feedback with every category present, in display order
func ParseFeedback(raw string) (*models.Feedback, error) {
	var p payload
	if err := json.Unmarshal([]byte(utils.StripFences(raw)), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeedback, err)
	}

	byName := make(map[string]models.CategoryScore, len(p.CategoryScores))
	for _, cs := range p.CategoryScores {
		key := strings.ToLower(strings.TrimSpace(cs.Name))
		byName[key] = models.CategoryScore{Score: clampScore(cs.Score), Comment: strings.TrimSpace(cs.Comment)}
	}

	scores := make([]models.CategoryScore, 0, len(models.FeedbackCategories))
	var missing []string
	for _, name := range models.FeedbackCategories {
		cs, ok := byName[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cs.Name = name
		scores = append(scores, cs)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing categories %s", ErrInvalidFeedback, strings.Join(missing, ", "))
	}
	if strings.TrimSpace(p.FinalAssessment) == "" {
		return nil, fmt.Errorf("%w: missing final assessment", ErrInvalidFeedback)
	}

	strengths := p.Strengths
	if strengths == nil {
		strengths = []string{}
	}
	improvements := p.AreasForImprovement
	if improvements == nil {
		improvements = []string{}
	}
	return &models.Feedback{
		TotalScore:          clampScore(p.TotalScore),
		CategoryScores:      scores,
		Strengths:           strengths,
		AreasForImprovement: improvements,
		FinalAssessment:     strings.TrimSpace(p.FinalAssessment),
	}, nil
}

func clampScore(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(v + 0.5)
}
