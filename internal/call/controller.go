package call

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"prepai/interview/internal/channel"
	"prepai/interview/internal/models"
	"prepai/interview/internal/utils"
)

const (
	DefaultFeedbackTimeout  = 60 * time.Second
	DefaultFeedbackAttempts = 3
	DefaultFeedbackBackoff  = 500 * time.Millisecond
)

// DefaultRecoverableErrors are provider error types that end the call.
var DefaultRecoverableErrors = []string{
	channel.ErrorTypeNoRoom,
	channel.ErrorTypeEjected,
	channel.ErrorTypeMeetingEnded,
}

// Config holds per-controller settings. Zero values fall back to the defaults above.
type Config struct {
	InterviewID string
	FeedbackID  string

	WorkflowID  string
	Interviewer *channel.Assistant

	FeedbackTimeout   time.Duration
	FeedbackAttempts  int
	FeedbackBackoff   time.Duration
	RecoverableErrors []string
}

func (c Config) withDefaults() Config {
	if c.FeedbackTimeout <= 0 {
		c.FeedbackTimeout = DefaultFeedbackTimeout
	}
	if c.FeedbackAttempts <= 0 {
		c.FeedbackAttempts = DefaultFeedbackAttempts
	}
	if c.FeedbackBackoff <= 0 {
		c.FeedbackBackoff = DefaultFeedbackBackoff
	}
	if c.RecoverableErrors == nil {
		c.RecoverableErrors = DefaultRecoverableErrors
	}
	return c
}

// Dependencies are the collaborators a Controller drives.
type Dependencies struct {
	Channel   channel.Channel
	Sessions  SessionCreator
	Feedback  FeedbackGenerator
	Navigator Navigator
	Listener  Listener
	Logger    *zap.Logger
}

// Controller owns the call lifecycle of one UI instance.
type Controller struct {
	ch        channel.Channel
	sessions  SessionCreator
	feedback  FeedbackGenerator
	nav       Navigator
	listener  Listener
	logger    *zap.Logger
	cfg       Config
	fatalErrs map[string]bool

	mu          sync.Mutex
	status      Status
	interviewID string
	feedbackID  string
	userID      string
	transcript  []models.Turn
	speaking    bool
	lastMessage string
	disposers   []func()
	closed      bool
	lastActive  time.Time
	// generation identifies the current call; work started by an earlier call checks it before touching state
	generation uint64

	// set by the first termination signal of a call, cleared by StartCall
	disconnecting atomic.Bool

	wg sync.WaitGroup
}

func NewController(deps Dependencies, cfg Config) *Controller {
	cfg = cfg.withDefaults()
	listener := deps.Listener
	if listener == nil {
		listener = nopListener{}
	}
	recoverable := make(map[string]bool, len(cfg.RecoverableErrors))
	for _, t := range cfg.RecoverableErrors {
		recoverable[t] = true
	}
	now := time.Now()
	return &Controller{
		ch:          deps.Channel,
		sessions:    deps.Sessions,
		feedback:    deps.Feedback,
		nav:         deps.Navigator,
		listener:    listener,
		logger:      utils.LoggerOrDefault(deps.Logger),
		cfg:         cfg,
		fatalErrs:   recoverable,
		status:      StatusInactive,
		interviewID: cfg.InterviewID,
		feedbackID:  cfg.FeedbackID,
		lastActive:  now,
	}
}

// StartCall creates the session record when needed and opens the call channel.
func (c *Controller) StartCall(ctx context.Context, params StartParams) error {
	if params.Type == "" {
		params.Type = TypeGenerate
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.status == StatusConnecting || c.status == StatusActive {
		c.mu.Unlock()
		return ErrCallInProgress
	}
	from := c.status
	if params.InterviewID != "" {
		c.interviewID = params.InterviewID
	}
	if params.FeedbackID != "" {
		c.feedbackID = params.FeedbackID
	}
	c.subscribeLocked()
	c.status = StatusConnecting
	c.userID = params.UserID
	c.transcript = nil
	c.speaking = false
	c.lastMessage = ""
	c.lastActive = time.Now()
	c.generation++
	gen := c.generation
	if r, ok := c.nav.(RouteResetter); ok {
		r.Reset()
	}
	interviewID := c.interviewID
	c.disconnecting.Store(false)
	c.mu.Unlock()

	c.listener.StatusChanged(interviewID, from, StatusConnecting, "")
	c.logger.Info("Starting call",
		zap.String("type", string(params.Type)),
		zap.String("interview_id", interviewID),
		zap.String("user_id", params.UserID))

	if params.Type == TypeGenerate && interviewID == "" && params.UserID != "" {
		id, err := c.sessions.CreateInterview(ctx, models.CreateInterviewParams{
			UserID:    params.UserID,
			Role:      models.DefaultInterviewRole,
			Type:      models.DefaultInterviewType,
			Techstack: append([]string(nil), models.DefaultTechstack...),
			Finalized: false,
		})
		if err == nil && id == "" {
			err = errors.New("empty interview id")
		}
		if err != nil {
			c.abortStart(gen, interviewID)
			c.logger.Error("Failed to create interview record", zap.String("user_id", params.UserID), zap.Error(err))
			return &SessionCreateError{UserID: params.UserID, Err: err}
		}
		interviewID = id
		c.mu.Lock()
		if c.generation == gen {
			c.interviewID = id
		}
		c.mu.Unlock()
		c.logger.Info("Created interview record", zap.String("interview_id", id))
	}

	if c.endedDuringStart(gen) {
		c.logger.Info("Call ended before dialing", zap.String("interview_id", interviewID))
		return nil
	}

	target, vars := c.target(params, interviewID)
	if err := c.ch.Start(ctx, target, vars); err != nil {
		c.abortStart(gen, interviewID)
		c.logger.Error("Failed to start call channel", zap.String("interview_id", interviewID), zap.Error(err))
		return &ChannelStartError{InterviewID: interviewID, Err: err}
	}

	// EndCall or Close may have run while the channel was still dialing
	if c.endedDuringStart(gen) {
		c.logger.Info("Call ended while connecting, stopping channel", zap.String("interview_id", interviewID))
		if err := c.ch.Stop(); err != nil && !errors.Is(err, channel.ErrNotStarted) {
			c.logger.Warn("Failed to stop call ended during connect", zap.Error(err))
		}
	}
	return nil
}

func (c *Controller) endedDuringStart(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen && c.disconnecting.Load()
}

func (c *Controller) target(params StartParams, interviewID string) (channel.Target, map[string]any) {
	if params.Type == TypeInterview {
		return channel.Target{Assistant: c.cfg.Interviewer}, map[string]any{
			"questions":   FormatQuestions(params.Questions),
			"interviewid": interviewID,
		}
	}
	return channel.Target{WorkflowID: c.cfg.WorkflowID}, map[string]any{
		"username":    params.UserName,
		"userid":      params.UserID,
		"interviewid": interviewID,
	}
}

func (c *Controller) abortStart(gen uint64, interviewID string) {
	c.mu.Lock()
	changed := c.generation == gen && c.status == StatusConnecting
	if changed {
		c.status = StatusInactive
	}
	c.mu.Unlock()
	if changed {
		c.listener.StatusChanged(interviewID, StatusConnecting, StatusInactive, "")
	}
}

// EndCall stops the channel and finishes the call. Only the first call per session has any effect.
// A ChannelStopError is returned when stopping fails; the call is finished regardless.
func (c *Controller) EndCall() error {
	c.touch()
	return c.disconnect(FinishUserEnded, true)
}

// disconnect is the single guarded path into Finished.
func (c *Controller) disconnect(reason FinishReason, withFeedback bool) error {
	c.mu.Lock()
	live := c.status == StatusConnecting || c.status == StatusActive
	if !live || !c.disconnecting.CompareAndSwap(false, true) {
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	interviewID := c.interviewID
	c.mu.Unlock()

	var stopErr error
	if err := c.ch.Stop(); err != nil && !errors.Is(err, channel.ErrNotStarted) {
		stopErr = &ChannelStopError{InterviewID: interviewID, Err: err}
		c.logger.Error("Failed to stop call channel", zap.String("interview_id", interviewID), zap.Error(err))
	}

	c.finish(gen, reason, withFeedback)
	return stopErr
}

func (c *Controller) finish(gen uint64, reason FinishReason, withFeedback bool) {
	c.mu.Lock()
	if c.generation != gen || (c.status != StatusConnecting && c.status != StatusActive) {
		c.mu.Unlock()
		return
	}
	from := c.status
	c.status = StatusFinished
	c.speaking = false
	req := models.FeedbackRequest{
		InterviewID: c.interviewID,
		UserID:      c.userID,
		Transcript:  append([]models.Turn(nil), c.transcript...),
		FeedbackID:  c.feedbackID,
	}
	c.mu.Unlock()

	c.listener.StatusChanged(req.InterviewID, from, StatusFinished, reason)
	c.logger.Info("Call finished",
		zap.String("interview_id", req.InterviewID),
		zap.String("reason", string(reason)),
		zap.Int("turns", len(req.Transcript)))

	if !withFeedback {
		return
	}
	c.wg.Add(1)
	go c.handleFinished(gen, req)
}

func (c *Controller) handleFinished(gen uint64, req models.FeedbackRequest) {
	defer c.wg.Done()

	if len(req.Transcript) == 0 {
		c.logger.Info("Call finished without transcript, skipping feedback", zap.String("interview_id", req.InterviewID))
		c.listener.FeedbackCompleted(req.InterviewID, FeedbackSkipped)
		return
	}
	if req.InterviewID == "" || req.UserID == "" {
		err := &FeedbackGenerationError{InterviewID: req.InterviewID, UserID: req.UserID}
		c.logger.Error("Missing interview or user id", zap.Error(err))
		c.settle(gen, "", DefaultRoute)
		c.listener.FeedbackCompleted(req.InterviewID, FeedbackSkipped)
		return
	}

	id, attempts, err := c.requestFeedback(context.Background(), req)
	if err == nil && id == "" {
		err = errors.New("feedback generator returned no id")
	}
	if err != nil {
		ferr := &FeedbackGenerationError{InterviewID: req.InterviewID, UserID: req.UserID, Attempts: attempts, Err: err}
		c.logger.Error("Failed to generate feedback", zap.Int("attempts", attempts), zap.Error(ferr))
		c.settle(gen, "", DefaultRoute)
		c.listener.FeedbackCompleted(req.InterviewID, FeedbackFailed)
		return
	}

	c.logger.Info("Feedback generated",
		zap.String("interview_id", req.InterviewID),
		zap.String("feedback_id", id),
		zap.Int("attempts", attempts))
	c.settle(gen, id, FeedbackRoute(req.InterviewID))
	c.listener.FeedbackCompleted(req.InterviewID, FeedbackSucceeded)
}

func (c *Controller) requestFeedback(ctx context.Context, req models.FeedbackRequest) (string, int, error) {
	var (
		feedbackID string
		attempts   int
	)
	backoff := retry.WithMaxRetries(uint64(c.cfg.FeedbackAttempts-1), retry.NewExponential(c.cfg.FeedbackBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.FeedbackTimeout)
		defer cancel()

		id, err := c.feedback.GenerateFeedback(attemptCtx, req)
		if err != nil {
			if isTemporary(err) {
				c.logger.Warn("Feedback attempt failed, retrying",
					zap.String("interview_id", req.InterviewID),
					zap.Int("attempt", attempts),
					zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		feedbackID = id
		return nil
	})
	return feedbackID, attempts, err
}

func isTemporary(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}

// settle applies the outcome of a finished call's feedback handling, unless a newer call
// has started since.
func (c *Controller) settle(gen uint64, feedbackID, route string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		c.logger.Info("Dropping feedback outcome of a superseded call", zap.String("route", route))
		return
	}
	if feedbackID != "" {
		c.feedbackID = feedbackID
	}
	if c.nav != nil {
		c.nav.Navigate(route)
	}
}

// subscribeLocked registers the channel handlers once per controller.
func (c *Controller) subscribeLocked() {
	if c.disposers != nil {
		return
	}
	c.disposers = []func(){
		c.ch.On(channel.EventCallStart, c.onCallStart),
		c.ch.On(channel.EventCallEnd, c.onCallEnd),
		c.ch.On(channel.EventMessage, c.onMessage),
		c.ch.On(channel.EventSpeechStart, c.onSpeechStart),
		c.ch.On(channel.EventSpeechEnd, c.onSpeechEnd),
		c.ch.On(channel.EventError, c.onError),
		c.ch.On(channel.EventConnectionStatus, c.onConnectionStatus),
	}
}

func (c *Controller) onCallStart(channel.Event) {
	c.mu.Lock()
	changed := c.status == StatusConnecting
	if changed {
		c.status = StatusActive
		c.lastActive = time.Now()
	}
	interviewID := c.interviewID
	c.mu.Unlock()
	if changed {
		c.logger.Info("Call started", zap.String("interview_id", interviewID))
		c.listener.StatusChanged(interviewID, StatusConnecting, StatusActive, "")
	}
}

// the disconnect path owns the transition into Finished
func (c *Controller) onCallEnd(channel.Event) {
	c.logger.Info("Call ended by provider", zap.String("interview_id", c.InterviewID()))
}

func (c *Controller) onMessage(ev channel.Event) {
	if !ev.Message.IsFinalTranscript() {
		return
	}
	turn := models.Turn{Role: models.Role(ev.Message.Role), Content: ev.Message.Transcript}
	if !turn.Role.Valid() {
		c.logger.Warn("Dropping transcript with unknown role", zap.String("role", ev.Message.Role))
		return
	}

	c.mu.Lock()
	if c.status != StatusConnecting && c.status != StatusActive {
		c.mu.Unlock()
		return
	}
	c.transcript = append(c.transcript, turn)
	c.lastMessage = turn.Content
	c.lastActive = time.Now()
	interviewID := c.interviewID
	c.mu.Unlock()

	c.listener.TurnAdded(interviewID, turn)
}

func (c *Controller) onSpeechStart(channel.Event) { c.setSpeaking(true) }
func (c *Controller) onSpeechEnd(channel.Event) { c.setSpeaking(false) }

func (c *Controller) setSpeaking(speaking bool) {
	c.mu.Lock()
	changed := c.speaking != speaking && c.status == StatusActive
	if changed {
		c.speaking = speaking
	}
	interviewID := c.interviewID
	c.mu.Unlock()
	if changed {
		c.listener.SpeakingChanged(interviewID, speaking)
	}
}

func (c *Controller) onError(ev channel.Event) {
	errType := ""
	if ev.Error != nil {
		errType = ev.Error.Type
	}
	if !c.fatalErrs[errType] {
		c.logger.Warn("Call channel error", zap.String("type", errType), zap.Any("error", ev.Error))
		return
	}
	c.logger.Warn("Call channel error ended the call", zap.String("type", errType))
	_ = c.disconnect(FinishChannelError, true)
}

func (c *Controller) onConnectionStatus(ev channel.Event) {
	if ev.Status != channel.StatusDisconnected {
		return
	}
	_ = c.disconnect(FinishDisconnected, true)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Status:      c.status,
		InterviewID: c.interviewID,
		FeedbackID:  c.feedbackID,
		UserID:      c.userID,
		IsSpeaking:  c.speaking,
		LastMessage: c.lastMessage,
		Transcript:  append([]models.Turn(nil), c.transcript...),
	}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) InterviewID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interviewID
}

// IdleSince reports when the controller last saw user or call activity.
func (c *Controller) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// Wait blocks until any in-flight feedback handling has completed.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close removes every channel subscription and stops a live call without requesting feedback.
// It is safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	disposers := c.disposers
	c.disposers = nil
	c.mu.Unlock()

	for _, off := range disposers {
		off()
	}
	return c.disconnect(FinishClosed, false)
}
