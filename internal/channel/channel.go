package channel

import (
	"context"
	"errors"
)

// EventType names the events a call channel emits.
type EventType string

const (
	EventCallStart        EventType = "call-start"
	EventCallEnd          EventType = "call-end"
	EventMessage          EventType = "message"
	EventSpeechStart      EventType = "speech-start"
	EventSpeechEnd        EventType = "speech-end"
	EventError            EventType = "error"
	EventConnectionStatus EventType = "connection-status"
)

// connection status values
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// provider error types that mean the call can no longer continue
const (
	ErrorTypeNoRoom       = "no-room"
	ErrorTypeEjected      = "ejected"
	ErrorTypeMeetingEnded = "meeting-ended"
)

var (
	ErrNotStarted     = errors.New("channel: no call in progress")
	ErrAlreadyStarted = errors.New("channel: call already in progress")
	ErrNoTarget       = errors.New("channel: target needs a workflow id or an assistant")
)

// Message is a provider message event. Only transcript messages carry role and text.
type Message struct {
	Type           string `json:"type"`
	TranscriptType string `json:"transcriptType,omitempty"`
	Role           string `json:"role,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
}

// IsFinalTranscript reports whether the message is a finalized transcript entry.
func (m *Message) IsFinalTranscript() bool {
	return m != nil && m.Type == "transcript" && m.TranscriptType == "final"
}

// Error is an error reported by the provider over the channel.
type Error struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *Error) Error() string {
	if e.Type == "" {
		return "channel error: " + e.Message
	}
	return "channel error (" + e.Type + "): " + e.Message
}

// Event is a single channel event. Payload fields are set according to Type.
type Event struct {
	Type    EventType
	Message *Message
	Error   *Error
	Status  string
}

type Handler func(Event)

// Target selects what the provider runs for a call: a hosted workflow or an inline assistant.
type Target struct {
	WorkflowID string
	Assistant  *Assistant
}

// Assistant is an inline assistant definition sent with the start request.
type Assistant struct {
	Name         string            `json:"name" yaml:"name"`
	FirstMessage string            `json:"firstMessage" yaml:"first_message"`
	Transcriber  map[string]any    `json:"transcriber,omitempty" yaml:"transcriber"`
	Voice        map[string]any    `json:"voice,omitempty" yaml:"voice"`
	Model        AssistantModel    `json:"model" yaml:"model"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata"`
}

type AssistantModel struct {
	Provider string             `json:"provider" yaml:"provider"`
	Model    string             `json:"model" yaml:"model"`
	Messages []AssistantMessage `json:"messages" yaml:"messages"`
}

type AssistantMessage struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Channel is a real-time voice call connection.
type Channel interface {
	Start(ctx context.Context, target Target, variableValues map[string]any) error
	Stop() error
	// On subscribes h to event and returns the function that removes exactly that subscription.
	On(event EventType, h Handler) (off func())
}
