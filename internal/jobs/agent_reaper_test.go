package jobs

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeRegistry struct {
	mu    sync.Mutex
	calls []time.Duration
	n     int
}

func (f *fakeRegistry) ReapIdle(maxIdle time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, maxIdle)
	return f.n
}

func (f *fakeRegistry) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRunOnceUsesMaxIdle(t *testing.T) {
	reg := &fakeRegistry{n: 3}
	job := NewAgentReaperJob(reg, &ReaperConfig{MaxIdle: 10 * time.Minute, Enabled: true}, zap.NewNop())

	if got := job.RunOnce(); got != 3 {
		t.Fatalf("expected 3 reaped agents, got %d", got)
	}
	if len(reg.calls) != 1 || reg.calls[0] != 10*time.Minute {
		t.Fatalf("unexpected calls: %v", reg.calls)
	}
}

func TestStartDisabled(t *testing.T) {
	job := NewAgentReaperJob(&fakeRegistry{}, &ReaperConfig{Schedule: "not a schedule", Enabled: false}, zap.NewNop())
	if err := job.Start(); err != nil {
		t.Fatalf("disabled job should not error, got %v", err)
	}
	job.Stop()
}

func TestStartInvalidSchedule(t *testing.T) {
	job := NewAgentReaperJob(&fakeRegistry{}, &ReaperConfig{Schedule: "not a schedule", MaxIdle: time.Minute, Enabled: true}, zap.NewNop())
	if err := job.Start(); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestStartRequiresMaxIdle(t *testing.T) {
	job := NewAgentReaperJob(&fakeRegistry{}, &ReaperConfig{Schedule: "@every 1s", Enabled: true}, zap.NewNop())
	if err := job.Start(); err == nil {
		t.Fatal("expected error for zero max idle")
	}
}

func TestStartRunsOnSchedule(t *testing.T) {
	reg := &fakeRegistry{}
	job := NewAgentReaperJob(reg, &ReaperConfig{Schedule: "@every 1s", MaxIdle: time.Minute, Enabled: true}, zap.NewNop())
	if err := job.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer job.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for reg.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if reg.count() == 0 {
		t.Fatal("expected the reaper to run at least once")
	}
}
