package call

import (
	"context"
	"strings"

	"prepai/interview/internal/models"
)

// Status is the lifecycle state of a call.
type Status string

const (
	StatusInactive   Status = "INACTIVE"
	StatusConnecting Status = "CONNECTING"
	StatusActive     Status = "ACTIVE"
	StatusFinished   Status = "FINISHED"
)

// Type selects how the call is driven.
type Type string

const (
	// TypeGenerate runs the hosted workflow that generates a fresh interview.
	TypeGenerate Type = "generate"
	// TypeInterview runs the interviewer assistant against a fixed question set.
	TypeInterview Type = "interview"
)

// FinishReason records which signal ended a call.
type FinishReason string

const (
	FinishUserEnded    FinishReason = "user_ended"
	FinishChannelError FinishReason = "channel_error"
	FinishDisconnected FinishReason = "disconnected"
	FinishClosed       FinishReason = "closed"
)

// FeedbackOutcome is reported to listeners once feedback handling completes.
type FeedbackOutcome string

const (
	FeedbackSucceeded FeedbackOutcome = "succeeded"
	FeedbackFailed    FeedbackOutcome = "failed"
	FeedbackSkipped   FeedbackOutcome = "skipped"
)

const (
	DefaultRoute = "/"
)

// FeedbackRoute is the view that shows feedback for an interview.
func FeedbackRoute(interviewID string) string {
	return "/interview/" + interviewID + "/feedback"
}

// StartParams are the inputs of StartCall. A non-empty InterviewID or FeedbackID
// replaces the id the controller currently holds.
type StartParams struct {
	UserName    string
	UserID      string
	Type        Type
	Questions   []string
	InterviewID string
	FeedbackID  string
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Status      Status
	InterviewID string
	FeedbackID  string
	UserID      string
	IsSpeaking  bool
	LastMessage string
	Transcript  []models.Turn
}

// SessionCreator persists interview session records.
type SessionCreator interface {
	CreateInterview(ctx context.Context, params models.CreateInterviewParams) (string, error)
}

// FeedbackGenerator turns a finished transcript into a stored feedback record and returns its id.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, req models.FeedbackRequest) (string, error)
}

// Navigator routes the owning view. Navigate runs under the controller lock and must not
// call back into the controller.
type Navigator interface {
	Navigate(route string)
}

// RouteResetter is implemented by navigators that hold the last route for polling. StartCall
// resets it so a new call does not report the previous call's destination.
type RouteResetter interface {
	Reset()
}

// Listener observes controller changes. Implementations must not block.
type Listener interface {
	StatusChanged(interviewID string, from, to Status, reason FinishReason)
	TurnAdded(interviewID string, turn models.Turn)
	SpeakingChanged(interviewID string, speaking bool)
	FeedbackCompleted(interviewID string, outcome FeedbackOutcome)
}

// FormatQuestions renders a question list the way the interviewer assistant expects it.
func FormatQuestions(questions []string) string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		lines = append(lines, "- "+q)
	}
	return strings.Join(lines, "\n")
}

type nopListener struct{}

func (nopListener) StatusChanged(string, Status, Status, FinishReason) {}
func (nopListener) TurnAdded(string, models.Turn) {}
func (nopListener) SpeakingChanged(string, bool) {}
func (nopListener) FeedbackCompleted(string, FeedbackOutcome) {}

// Listeners fans every notification out to each listener in order.
type Listeners []Listener

func (ls Listeners) StatusChanged(interviewID string, from, to Status, reason FinishReason) {
	for _, l := range ls {
		l.StatusChanged(interviewID, from, to, reason)
	}
}

func (ls Listeners) TurnAdded(interviewID string, turn models.Turn) {
	for _, l := range ls {
		l.TurnAdded(interviewID, turn)
	}
}

func (ls Listeners) SpeakingChanged(interviewID string, speaking bool) {
	for _, l := range ls {
		l.SpeakingChanged(interviewID, speaking)
	}
}

func (ls Listeners) FeedbackCompleted(interviewID string, outcome FeedbackOutcome) {
	for _, l := range ls {
		l.FeedbackCompleted(interviewID, outcome)
	}
}
