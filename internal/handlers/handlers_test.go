package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"text/template"

	"prepai/interview/internal/channel"
	"prepai/interview/internal/events"
	"prepai/interview/internal/llm"
	"prepai/interview/internal/middleware"
	"prepai/interview/internal/models"
	"prepai/interview/internal/repositories/mongo"
)

const (
	testUserHeader = "X-Test-User"
	testNameHeader = "X-Test-Name"
)

// withTestUser stands in for the auth middleware
func withTestUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(testUserHeader)
		if userID == "" {
			userID = "user-1"
		}
		ctx := middleware.WithUserID(r.Context(), userID)
		if name := r.Header.Get(testNameHeader); name != "" {
			ctx = middleware.WithUserName(ctx, name)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (body %q)", status, rec.Code, rec.Body.String())
	}
	resp := decodeJSON[models.ErrorResponse](t, rec)
	if resp.Code != code {
		t.Fatalf("expected error code %s, got %s", code, resp.Code)
	}
}

type mockProvider struct {
	generateContentFn func(ctx context.Context, prompt string, requestID string, opts llm.GenerateOptions) (*models.GenerationResponse, error)
}

func (m *mockProvider) GenerateContent(ctx context.Context, prompt string, requestID string, opts llm.GenerateOptions) (*models.GenerationResponse, error) {
	if m.generateContentFn == nil {
		return &models.GenerationResponse{}, nil
	}
	return m.generateContentFn(ctx, prompt, requestID, opts)
}

func (m *mockProvider) GetProviderName() string { return "mock" }

type mockPromptManager struct {
	getTemplatesFn func() map[string]map[string]*template.Template
}

func (m *mockPromptManager) BuildPrompt(mode, variant string, data interface{}) (string, error) {
	return "mock prompt", nil
}

func (m *mockPromptManager) SystemInstruction(mode string) string { return "" }

func (m *mockPromptManager) GetTemplates() map[string]map[string]*template.Template {
	if m.getTemplatesFn == nil {
		return map[string]map[string]*template.Template{
			"feedback": {
				"default": template.Must(template.New("test").Parse("test")),
			},
		}
	}
	return m.getTemplatesFn()
}

type mockChannel struct {
	*channel.Emitter
	startErr error

	mu     sync.Mutex
	starts int
	stops  int
	vars   map[string]any
}

func newMockChannel() *mockChannel {
	return &mockChannel{Emitter: channel.NewEmitter()}
}

func (m *mockChannel) Start(_ context.Context, _ channel.Target, vars map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	m.vars = vars
	return m.startErr
}

func (m *mockChannel) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

type mockInterviewStore struct {
	createFn func(ctx context.Context, params models.CreateInterviewParams) (string, error)
	getFn    func(ctx context.Context, id string) (*models.Interview, error)
	listFn   func(ctx context.Context, userID string) ([]models.InterviewSummary, error)
	latestFn func(ctx context.Context, userID string, limit int) ([]models.Interview, error)
}

func (m *mockInterviewStore) CreateInterview(ctx context.Context, params models.CreateInterviewParams) (string, error) {
	if m.createFn == nil {
		return "interview-1", nil
	}
	return m.createFn(ctx, params)
}

func (m *mockInterviewStore) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	if m.getFn == nil {
		return &models.Interview{ID: id, UserID: "user-1", Role: "Backend Engineer", Type: "technical"}, nil
	}
	return m.getFn(ctx, id)
}

func (m *mockInterviewStore) ListByUser(ctx context.Context, userID string) ([]models.InterviewSummary, error) {
	if m.listFn == nil {
		return []models.InterviewSummary{}, nil
	}
	return m.listFn(ctx, userID)
}

func (m *mockInterviewStore) ListLatest(ctx context.Context, userID string, limit int) ([]models.Interview, error) {
	if m.latestFn == nil {
		return []models.Interview{}, nil
	}
	return m.latestFn(ctx, userID, limit)
}

type mockFeedbackReader struct {
	getFn func(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
}

func (m *mockFeedbackReader) GetByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	return m.getFn(ctx, interviewID, userID)
}

type mockFeedbackGenerator struct{}

func (mockFeedbackGenerator) GenerateFeedback(context.Context, models.FeedbackRequest) (string, error) {
	return "feedback-1", nil
}

type mockQuestionBank struct {
	getSetFn func(ctx context.Context, role, level string, amount int) ([]string, error)
	insertFn func(ctx context.Context, questions []mongo.Question) error
}

func (m *mockQuestionBank) GetSet(ctx context.Context, role, level string, amount int) ([]string, error) {
	return m.getSetFn(ctx, role, level, amount)
}

func (m *mockQuestionBank) Insert(ctx context.Context, questions []mongo.Question) error {
	if m.insertFn == nil {
		return nil
	}
	return m.insertFn(ctx, questions)
}

// stubSubscriber hands the registered handler back to the test
type stubSubscriber struct {
	subscribeErr error
	subscribed   chan func(events.Event)
	stopped      chan struct{}
}

func newStubSubscriber() *stubSubscriber {
	return &stubSubscriber{
		subscribed: make(chan func(events.Event), 1),
		stopped:    make(chan struct{}),
	}
}

func (s *stubSubscriber) Subscribe(_ context.Context, handler func(events.Event)) (func(), error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	s.subscribed <- handler
	var once sync.Once
	return func() { once.Do(func() { close(s.stopped) }) }, nil
}
