package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"prepai/interview/internal/agents"
	"prepai/interview/internal/call"
	"prepai/interview/internal/events"
	"prepai/interview/internal/middleware"
	"prepai/interview/internal/models"
	"prepai/interview/internal/repositories"
	"prepai/interview/internal/utils"
)

const keepAliveInterval = 20 * time.Second

// EventSubscriber streams call events published by any instance
type EventSubscriber interface {
	Subscribe(ctx context.Context, handler func(events.Event)) (stop func(), err error)
}

// InterviewLookup resolves the owner of an interview named in a start request
type InterviewLookup interface {
	GetByID(ctx context.Context, id string) (*models.Interview, error)
}

type AgentHandler struct {
	registry   *agents.Registry
	interviews InterviewLookup
	events     EventSubscriber
	logger     *zap.Logger
}

func NewAgentHandler(registry *agents.Registry, interviews InterviewLookup, subscriber EventSubscriber, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		registry:   registry,
		interviews: interviews,
		events:     subscriber,
		logger:     utils.LoggerOrDefault(logger),
	}
}

func (h *AgentHandler) CreateAgentHandler(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	agent, err := h.registry.Create(userID)
	if err != nil {
		if errors.Is(err, agents.ErrTooManyAgents) {
			utils.JSON(w, http.StatusTooManyRequests, models.ErrorResponse{
				Code:    "too_many_agents",
				Message: "Too many open interview sessions, close one and try again",
			})
			return
		}
		h.logger.Error("Failed to create agent", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "agent_error", Message: "Failed to create agent"})
		return
	}
	utils.JSON(w, http.StatusCreated, agent.View())
}

func (h *AgentHandler) GetAgentHandler(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, agent.View())
}

func (h *AgentHandler) StartCallHandler(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req := middleware.GetValidatedRequest[*models.StartCallRequest](r)

	userName := req.UserName
	if userName == "" {
		userName = middleware.UserNameFromContext(r.Context())
	}
	if userName == "" {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{Code: "missing_user_name", Message: "user_name is required"})
		return
	}
	if req.InterviewID != "" && !h.checkInterviewOwner(w, r, agent.UserID, req.InterviewID) {
		return
	}

	params := call.StartParams{
		UserName:    userName,
		UserID:      agent.UserID,
		Type:        call.Type(req.Type),
		Questions:   req.Questions,
		InterviewID: req.InterviewID,
		FeedbackID:  req.FeedbackID,
	}
	if err := agent.Controller.StartCall(r.Context(), params); err != nil {
		h.writeCallError(w, agent.ID, err)
		return
	}

	h.logger.Info("Call started",
		zap.String("agent_id", agent.ID),
		zap.String("type", req.Type))
	utils.JSON(w, http.StatusAccepted, agent.View())
}

// checkInterviewOwner writes an error response and returns false unless userID owns the interview.
func (h *AgentHandler) checkInterviewOwner(w http.ResponseWriter, r *http.Request, userID, interviewID string) bool {
	if h.interviews == nil {
		return true
	}
	interview, err := h.interviews.GetByID(r.Context(), interviewID)
	switch {
	case errors.Is(err, repositories.ErrInterviewNotFound):
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{Code: "interview_not_found", Message: "Interview not found"})
		return false
	case err != nil:
		h.logger.Error("Failed to load interview", zap.String("interview_id", interviewID), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "interview_lookup_failed", Message: "Failed to load interview"})
		return false
	case interview.UserID != userID:
		h.logger.Warn("Start request names another user's interview",
			zap.String("interview_id", interviewID),
			zap.String("user_id", userID))
		utils.JSON(w, http.StatusForbidden, models.ErrorResponse{Code: "forbidden", Message: "Interview belongs to another user"})
		return false
	}
	return true
}

func (h *AgentHandler) EndCallHandler(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := agent.Controller.EndCall(); err != nil {
		// the call is finished regardless; report the stop failure without failing the request
		h.logger.Warn("Call ended with channel stop error", zap.String("agent_id", agent.ID), zap.Error(err))
	}
	utils.JSON(w, http.StatusOK, agent.View())
}

func (h *AgentHandler) DeleteAgentHandler(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if err := h.registry.Dispose(chi.URLParam(r, "agentID"), userID); err != nil {
		h.writeLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EventsHandler streams the agent's call events as server-sent events.
func (h *AgentHandler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok || h.events == nil {
		utils.JSON(w, http.StatusNotImplemented, models.ErrorResponse{Code: "streaming_unsupported", Message: "Event streaming is not available"})
		return
	}

	pending := make(chan events.Event, 32)
	stop, err := h.events.Subscribe(r.Context(), func(ev events.Event) {
		if ev.AgentID != agent.ID {
			return
		}
		select {
		case pending <- ev:
		default:
			h.logger.Warn("Dropping call event for slow stream", zap.String("agent_id", agent.ID))
		}
	})
	if err != nil {
		h.logger.Error("Failed to subscribe to call events", zap.Error(err))
		utils.JSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Code: "events_unavailable", Message: "Event stream unavailable"})
		return
	}
	defer stop()

	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// current state first so the client does not miss what happened before it connected
	if err := writeSSE(w, "snapshot", agent.View()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-pending:
			if err := writeSSE(w, ev.Type, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

func (h *AgentHandler) lookup(w http.ResponseWriter, r *http.Request) (*agents.Agent, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	agent, err := h.registry.Get(chi.URLParam(r, "agentID"), userID)
	if err != nil {
		h.writeLookupError(w, err)
		return nil, false
	}
	return agent, true
}

func (h *AgentHandler) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agents.ErrAgentNotFound):
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{Code: "agent_not_found", Message: "Agent not found"})
	case errors.Is(err, agents.ErrForbidden):
		utils.JSON(w, http.StatusForbidden, models.ErrorResponse{Code: "forbidden", Message: "Agent belongs to another user"})
	default:
		h.logger.Error("Agent lookup failed", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "agent_error", Message: "Agent lookup failed"})
	}
}

func (h *AgentHandler) writeCallError(w http.ResponseWriter, agentID string, err error) {
	var (
		sessionErr *call.SessionCreateError
		startErr   *call.ChannelStartError
	)
	switch {
	case errors.Is(err, call.ErrCallInProgress):
		utils.JSON(w, http.StatusConflict, models.ErrorResponse{Code: "call_in_progress", Message: "A call is already in progress"})
	case errors.Is(err, call.ErrClosed):
		utils.JSON(w, http.StatusGone, models.ErrorResponse{Code: "agent_closed", Message: "Agent has been closed"})
	case errors.As(err, &sessionErr):
		h.logger.Error("Failed to create interview session", zap.String("agent_id", agentID), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "session_create_failed", Message: "Failed to create interview session"})
	case errors.As(err, &startErr):
		h.logger.Error("Failed to start call", zap.String("agent_id", agentID), zap.Error(err))
		utils.JSON(w, http.StatusBadGateway, models.ErrorResponse{Code: "call_start_failed", Message: "Failed to start the call"})
	default:
		h.logger.Error("Unexpected call error", zap.String("agent_id", agentID), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "call_error", Message: "Failed to start the call"})
	}
}
