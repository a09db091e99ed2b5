package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"prepai/interview/internal/call"
	"prepai/interview/internal/models"
	"prepai/interview/internal/utils"
)

const (
	Channel        = "interview:calls"
	publishTimeout = 2 * time.Second
	queueSize      = 256
)

// event types
const (
	TypeStatus   = "status"
	TypeTurn     = "turn"
	TypeSpeaking = "speaking"
	TypeFeedback = "feedback"
)

// Event is one call update fanned out over redis.
type Event struct {
	Type        string               `json:"type"`
	InstanceID  string               `json:"instance_id"`
	AgentID     string               `json:"agent_id"`
	InterviewID string               `json:"interview_id,omitempty"`
	From        call.Status          `json:"from,omitempty"`
	To          call.Status          `json:"to,omitempty"`
	Reason      call.FinishReason    `json:"reason,omitempty"`
	Turn        *models.Turn         `json:"turn,omitempty"`
	Speaking    *bool                `json:"speaking,omitempty"`
	Outcome     call.FeedbackOutcome `json:"outcome,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

// Publisher sends call events to redis. Listener updates go through a bounded queue drained
// by a single worker, so they keep their order and never wait on redis.
type Publisher struct {
	rdb        *redis.Client
	instanceID string
	logger     *zap.Logger

	mu     sync.RWMutex
	queue  chan *Event
	closed bool
	done   chan struct{}
}

func NewPublisher(rdb *redis.Client, logger *zap.Logger) *Publisher {
	return newPublisher(rdb, logger, queueSize)
}

func newPublisher(rdb *redis.Client, logger *zap.Logger, size int) *Publisher {
	p := &Publisher{
		rdb:        rdb,
		instanceID: uuid.New().String(),
		logger:     utils.LoggerOrDefault(logger),
		queue:      make(chan *Event, size),
		done:       make(chan struct{}),
	}
	go p.drain()
	return p
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := p.Publish(ctx, event); err != nil {
			p.logger.Warn("Failed to publish call event",
				zap.String("agent_id", event.AgentID),
				zap.String("type", event.Type),
				zap.Error(err))
		}
		cancel()
	}
}

// enqueue hands event to the worker. It reports false when the queue is full or closed.
func (p *Publisher) enqueue(event *Event) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- event:
		return true
	default:
		return false
	}
}

// Close stops accepting listener updates and waits until the queued ones are sent.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}

func (p *Publisher) InstanceID() string {
	return p.instanceID
}

func (p *Publisher) Publish(ctx context.Context, event *Event) error {
	event.InstanceID = p.instanceID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal call event: %w", err)
	}
	return p.rdb.Publish(ctx, Channel, data).Err()
}

// Subscribe delivers every call event to handler until ctx is done or stop is called.
// It returns once the subscription is confirmed by redis.
func (p *Publisher) Subscribe(ctx context.Context, handler func(Event)) (stop func(), err error) {
	pubsub := p.rdb.Subscribe(ctx, Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", Channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					p.logger.Warn("Failed to unmarshal call event", zap.Error(err))
					continue
				}
				handler(event)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

// ForAgent returns a call listener that publishes the agent's updates.
func (p *Publisher) ForAgent(agentID string) call.Listener {
	return &agentListener{p: p, agentID: agentID}
}

type agentListener struct {
	p       *Publisher
	agentID string
}

func (l *agentListener) publish(event *Event) {
	event.AgentID = l.agentID
	event.Timestamp = time.Now()
	if !l.p.enqueue(event) {
		l.p.logger.Warn("Dropping call event, publish queue unavailable",
			zap.String("agent_id", l.agentID),
			zap.String("type", event.Type))
	}
}

func (l *agentListener) StatusChanged(interviewID string, from, to call.Status, reason call.FinishReason) {
	l.publish(&Event{Type: TypeStatus, InterviewID: interviewID, From: from, To: to, Reason: reason})
}

func (l *agentListener) TurnAdded(interviewID string, turn models.Turn) {
	l.publish(&Event{Type: TypeTurn, InterviewID: interviewID, Turn: &turn})
}

func (l *agentListener) SpeakingChanged(interviewID string, speaking bool) {
	l.publish(&Event{Type: TypeSpeaking, InterviewID: interviewID, Speaking: &speaking})
}

func (l *agentListener) FeedbackCompleted(interviewID string, outcome call.FeedbackOutcome) {
	l.publish(&Event{Type: TypeFeedback, InterviewID: interviewID, Outcome: outcome})
}
