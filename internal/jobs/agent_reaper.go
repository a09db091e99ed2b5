package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"prepai/interview/internal/utils"
)

// IdleReaper is implemented by the agent registry
type IdleReaper interface {
	ReapIdle(maxIdle time.Duration) int
}

// AgentReaperJob disposes agents whose UI went away without deleting them
type AgentReaperJob struct {
	registry IdleReaper
	config   *ReaperConfig
	cron     *cron.Cron
	logger   *zap.Logger
}

// ReaperConfig contains configuration for the reaper job
type ReaperConfig struct {
	Schedule string        // Cron schedule (e.g., "@every 1m")
	MaxIdle  time.Duration // Agents idle longer than this are disposed
	Enabled  bool
}

func NewAgentReaperJob(registry IdleReaper, config *ReaperConfig, logger *zap.Logger) *AgentReaperJob {
	return &AgentReaperJob{
		registry: registry,
		config:   config,
		cron:     cron.New(),
		logger:   utils.LoggerOrDefault(logger),
	}
}

// Start schedules the reaper
func (j *AgentReaperJob) Start() error {
	if !j.config.Enabled {
		j.logger.Info("Agent reaper is disabled, skipping scheduler")
		return nil
	}
	if j.config.MaxIdle <= 0 {
		return fmt.Errorf("agent reaper max idle must be positive, got %s", j.config.MaxIdle)
	}

	if _, err := j.cron.AddFunc(j.config.Schedule, func() { j.RunOnce() }); err != nil {
		return fmt.Errorf("failed to schedule agent reaper: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Agent reaper started",
		zap.String("schedule", j.config.Schedule),
		zap.Duration("max_idle", j.config.MaxIdle))
	return nil
}

// Stop stops the scheduler and waits for a running reap to finish
func (j *AgentReaperJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.logger.Info("Agent reaper stopped")
	}
}

// RunOnce performs a single reap and returns the number of disposed agents
func (j *AgentReaperJob) RunOnce() int {
	n := j.registry.ReapIdle(j.config.MaxIdle)
	if n > 0 {
		j.logger.Info("Reaped idle agents", zap.Int("count", n))
	}
	return n
}
