package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"prepai/interview/internal/middleware"
	"prepai/interview/internal/models"
	"prepai/interview/internal/repositories"
	"prepai/interview/internal/testhelpers"
)

func newInterviewRouter(store InterviewStore, feedback FeedbackReader) http.Handler {
	h := NewInterviewHandler(store, feedback, zap.NewNop())
	r := chi.NewRouter()
	r.Use(withTestUser)
	r.With(middleware.ValidateRequest[*models.CreateInterviewRequest]()).Post("/interviews", h.CreateInterviewHandler)
	r.Get("/interviews", h.ListInterviewsHandler)
	r.Get("/interviews/latest", h.LatestInterviewsHandler)
	r.Get("/interviews/{interviewID}", h.GetInterviewHandler)
	r.Get("/interviews/{interviewID}/feedback", h.GetFeedbackHandler)
	return r
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func noFeedback() *mockFeedbackReader {
	return &mockFeedbackReader{getFn: func(context.Context, string, string) (*models.Feedback, error) {
		return nil, repositories.ErrFeedbackNotFound
	}}
}

func TestCreateInterviewHandler_Normalizes(t *testing.T) {
	var got models.CreateInterviewParams
	store := &mockInterviewStore{createFn: func(_ context.Context, params models.CreateInterviewParams) (string, error) {
		got = params
		return "iv-1", nil
	}}
	router := newInterviewRouter(store, noFeedback())

	rec := serve(router, http.MethodPost, "/interviews",
		`{"role":"Backend Engineer","type":" Technical ","level":"Senior","techstack":["Go"," go ","","Postgres"],"finalized":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got.UserID != "user-1" {
		t.Fatalf("expected user id from context, got %q", got.UserID)
	}
	if got.Type != "technical" || got.Level != "senior" {
		t.Fatalf("expected normalized type and level, got %q %q", got.Type, got.Level)
	}
	if len(got.Techstack) != 2 || got.Techstack[0] != "Go" || got.Techstack[1] != "Postgres" {
		t.Fatalf("unexpected techstack: %v", got.Techstack)
	}
	if !got.Finalized {
		t.Fatalf("expected finalized flag to pass through")
	}
}

func TestCreateInterviewHandler_Errors(t *testing.T) {
	router := newInterviewRouter(&mockInterviewStore{}, noFeedback())
	expectErrorCode(t, serve(router, http.MethodPost, "/interviews", `{"type":"technical"}`), http.StatusBadRequest, "missing_role")

	failing := &mockInterviewStore{createFn: func(context.Context, models.CreateInterviewParams) (string, error) {
		return "", errors.New("insert failed")
	}}
	router = newInterviewRouter(failing, noFeedback())
	expectErrorCode(t, serve(router, http.MethodPost, "/interviews", `{"role":"Dev","type":"mixed"}`), http.StatusInternalServerError, "interview_create_failed")
}

func TestLatestInterviewsHandler(t *testing.T) {
	var gotUser string
	var gotLimit int
	store := &mockInterviewStore{latestFn: func(_ context.Context, userID string, limit int) ([]models.Interview, error) {
		gotUser, gotLimit = userID, limit
		return []models.Interview{{ID: "iv-2", UserID: "user-2"}}, nil
	}}
	router := newInterviewRouter(store, noFeedback())

	rec := serve(router, http.MethodGet, "/interviews/latest?limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotUser != "user-1" || gotLimit != 3 {
		t.Fatalf("unexpected query args: %q %d", gotUser, gotLimit)
	}
	if list := decodeJSON[[]models.Interview](t, rec); len(list) != 1 {
		t.Fatalf("expected one interview, got %d", len(list))
	}

	expectErrorCode(t, serve(router, http.MethodGet, "/interviews/latest?limit=zero", ""), http.StatusBadRequest, "invalid_limit")
}

func TestGetInterviewHandler_NotFound(t *testing.T) {
	store := &mockInterviewStore{getFn: func(context.Context, string) (*models.Interview, error) {
		return nil, repositories.ErrInterviewNotFound
	}}
	router := newInterviewRouter(store, noFeedback())

	expectErrorCode(t, serve(router, http.MethodGet, "/interviews/nope", ""), http.StatusNotFound, "interview_not_found")
	expectErrorCode(t, serve(router, http.MethodGet, "/interviews/nope/feedback", ""), http.StatusNotFound, "interview_not_found")
}

func TestGetFeedbackHandler_NoFeedbackYet(t *testing.T) {
	router := newInterviewRouter(&mockInterviewStore{}, noFeedback())

	expectErrorCode(t, serve(router, http.MethodGet, "/interviews/iv-1/feedback", ""), http.StatusNotFound, "feedback_not_found")

	rec := serve(router, http.MethodGet, "/interviews/iv-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if view := decodeJSON[models.FeedbackViewResponse](t, rec); view.Feedback != nil || view.Interview.ID != "iv-1" {
		t.Fatalf("unexpected view: %+v", view)
	}
}

// runs the handler against the gorm repositories on sqlite
func TestInterviewHandler_WithRepositories(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	interviews := &repositories.InterviewRepository{DB: db}
	feedback := &repositories.FeedbackRepository{DB: db}
	router := newInterviewRouter(interviews, feedback)

	id := testhelpers.SeedInterview(t, db, "user-1", false).ID
	testhelpers.SeedFeedback(t, db, id, "user-1", 72)

	rec := serve(router, http.MethodGet, "/interviews/"+id+"/feedback", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if fb := decodeJSON[models.Feedback](t, rec); fb.TotalScore != 72 {
		t.Fatalf("expected stored score, got %d", fb.TotalScore)
	}

	rec = serve(router, http.MethodGet, "/interviews", "")
	summaries := decodeJSON[[]models.InterviewSummary](t, rec)
	if len(summaries) != 1 || summaries[0].TotalScore == nil || *summaries[0].TotalScore != 72 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
}
