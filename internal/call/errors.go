package call

import (
	"errors"
)

var (
	ErrCallInProgress = errors.New("call already in progress")
	ErrClosed         = errors.New("call controller is closed")
)

// SessionCreateError means the session record could not be created, so the call was not started.
type SessionCreateError struct {
	UserID string
	Err    error
}

func (e *SessionCreateError) Error() string {
	return "failed to create interview session for user " + e.UserID + ": " + errString(e.Err)
}

func (e *SessionCreateError) Unwrap() error { return e.Err }

// ChannelStartError means the voice channel refused to open.
type ChannelStartError struct {
	InterviewID string
	Err         error
}

func (e *ChannelStartError) Error() string {
	return "failed to start call channel: " + errString(e.Err)
}

func (e *ChannelStartError) Unwrap() error { return e.Err }

// ChannelStopError is reported when stopping the channel fails. The call still finishes.
type ChannelStopError struct {
	InterviewID string
	Err         error
}

func (e *ChannelStopError) Error() string {
	return "failed to stop call channel: " + errString(e.Err)
}

func (e *ChannelStopError) Unwrap() error { return e.Err }

// FeedbackGenerationError means the finished call produced no feedback record.
type FeedbackGenerationError struct {
	InterviewID string
	UserID      string
	Attempts    int
	Err         error
}

func (e *FeedbackGenerationError) Error() string {
	if e.Err == nil {
		return "feedback generation skipped: missing interview or user id"
	}
	return "failed to generate feedback for interview " + e.InterviewID + ": " + e.Err.Error()
}

func (e *FeedbackGenerationError) Unwrap() error { return e.Err }

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
