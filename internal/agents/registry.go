package agents

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prepai/interview/internal/call"
	"prepai/interview/internal/channel"
	"prepai/interview/internal/models"
	"prepai/interview/internal/utils"
)

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrForbidden     = errors.New("agent belongs to another user")
	ErrTooManyAgents = errors.New("too many agents for user")
)

const DefaultMaxAgentsPerUser = 5

// Agent is one UI instance with its own call controller.
type Agent struct {
	ID         string
	UserID     string
	Controller *call.Controller
	CreatedAt  time.Time

	nav *routeRecorder
}

// Redirect is the route the controller last asked the view to move to.
func (a *Agent) Redirect() string {
	return a.nav.Route()
}

// View returns the agent state in its API shape.
func (a *Agent) View() models.AgentResponse {
	snap := a.Controller.Snapshot()
	transcript := snap.Transcript
	if transcript == nil {
		transcript = []models.Turn{}
	}
	return models.AgentResponse{
		AgentID:     a.ID,
		Status:      string(snap.Status),
		InterviewID: snap.InterviewID,
		FeedbackID:  snap.FeedbackID,
		IsSpeaking:  snap.IsSpeaking,
		LastMessage: snap.LastMessage,
		Transcript:  transcript,
		Redirect:    a.Redirect(),
	}
}

// Options configures a Registry.
type Options struct {
	NewChannel func() channel.Channel
	Sessions   call.SessionCreator
	Feedback   call.FeedbackGenerator
	// Listeners returns the listeners attached to a new agent's controller.
	Listeners        func(agentID string) []call.Listener
	Call             call.Config
	MaxAgentsPerUser int
	Logger           *zap.Logger
}

// Registry owns the live agents of this instance.
type Registry struct {
	opts   Options
	logger *zap.Logger

	mu     sync.RWMutex
	agents map[string]*Agent
}

func NewRegistry(opts Options) *Registry {
	if opts.MaxAgentsPerUser <= 0 {
		opts.MaxAgentsPerUser = DefaultMaxAgentsPerUser
	}
	return &Registry{
		opts:   opts,
		logger: utils.LoggerOrDefault(opts.Logger),
		agents: make(map[string]*Agent),
	}
}

func (r *Registry) Create(userID string) (*Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := 0
	for _, a := range r.agents {
		if a.UserID == userID {
			owned++
		}
	}
	if owned >= r.opts.MaxAgentsPerUser {
		return nil, ErrTooManyAgents
	}

	id := uuid.NewString()
	nav := &routeRecorder{}
	var listener call.Listener
	if r.opts.Listeners != nil {
		listener = call.Listeners(r.opts.Listeners(id))
	}
	ctl := call.NewController(call.Dependencies{
		Channel:   r.opts.NewChannel(),
		Sessions:  r.opts.Sessions,
		Feedback:  r.opts.Feedback,
		Navigator: nav,
		Listener:  listener,
		Logger:    r.logger.With(zap.String("agent_id", id)),
	}, r.opts.Call)

	agent := &Agent{
		ID:         id,
		UserID:     userID,
		Controller: ctl,
		CreatedAt:  time.Now(),
		nav:        nav,
	}
	r.agents[id] = agent
	r.logger.Info("Created agent", zap.String("agent_id", id), zap.String("user_id", userID))
	return agent, nil
}

// Get returns the agent if it exists and is owned by userID.
func (r *Registry) Get(agentID, userID string) (*Agent, error) {
	r.mu.RLock()
	agent, ok := r.agents[agentID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrAgentNotFound
	}
	if agent.UserID != userID {
		return nil, ErrForbidden
	}
	return agent, nil
}

// Dispose closes the agent's controller, which unsubscribes its channel handlers.
func (r *Registry) Dispose(agentID, userID string) error {
	if _, err := r.Get(agentID, userID); err != nil {
		return err
	}
	r.remove(agentID)
	return nil
}

func (r *Registry) remove(agentID string) {
	r.mu.Lock()
	agent, ok := r.agents[agentID]
	delete(r.agents, agentID)
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := agent.Controller.Close(); err != nil {
		r.logger.Warn("Error closing agent", zap.String("agent_id", agentID), zap.Error(err))
	}
	r.logger.Info("Disposed agent", zap.String("agent_id", agentID))
}

// ReapIdle disposes agents with no activity for longer than maxIdle and returns how many it removed.
func (r *Registry) ReapIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.RLock()
	var stale []string
	for id, a := range r.agents {
		if a.Controller.IdleSince().Before(cutoff) {
			r.logger.Info("Reaping idle agent",
				zap.String("agent_id", id),
				zap.String("status", string(a.Controller.Status())))
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range stale {
		r.remove(id)
	}
	return len(stale)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Close disposes every agent and waits for feedback requests that were already running.
func (r *Registry) Close() {
	r.mu.RLock()
	all := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		all = append(all, a)
	}
	r.mu.RUnlock()

	for _, a := range all {
		r.remove(a.ID)
	}
	for _, a := range all {
		a.Controller.Wait()
	}
}
