package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"prepai/interview/internal/config"
	"prepai/interview/internal/llm"
	"prepai/interview/internal/prompts"
	"prepai/interview/internal/utils"
)

const dependencyCheckTimeout = 2 * time.Second

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"`  // "ready" | "not_ready"
	Service string                    `json:"service"` // Service name
	Checks  map[string]ReadinessCheck `json:"checks"`  // Individual check results
}

// PingFunc reports whether a backing store is reachable.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	provider      llm.Provider
	promptManager prompts.PromptProvider
	config        *config.Config
	dependencies  map[string]PingFunc
}

func NewHealthHandler(provider llm.Provider, promptManager prompts.PromptProvider, cfg *config.Config, dependencies map[string]PingFunc) *HealthHandler {
	return &HealthHandler{
		provider:      provider,
		promptManager: promptManager,
		config:        cfg,
		dependencies:  dependencies,
	}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "interview",
		"version": "1.0.0",
	})
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	checks := make(map[string]ReadinessCheck)
	allChecksPass := true
	record := func(name string, err error, failMsg string) {
		if err != nil || failMsg != "" {
			msg := failMsg
			if err != nil {
				msg = err.Error()
			}
			checks[name] = ReadinessCheck{Status: "failed", Message: msg}
			allChecksPass = false
			return
		}
		checks[name] = ReadinessCheck{Status: "ok"}
	}

	if handler.provider == nil {
		record("provider", nil, "AI provider not initialized")
	} else {
		record("provider", nil, "")
	}

	switch {
	case handler.promptManager == nil:
		record("prompt_manager", nil, "Prompt manager not initialized")
	case len(handler.promptManager.GetTemplates()) == 0:
		record("prompt_manager", nil, "No prompt templates loaded")
	default:
		record("prompt_manager", nil, "")
	}

	if handler.config == nil {
		record("configuration", nil, "Configuration not loaded")
	} else {
		record("configuration", nil, "")
	}

	names := make([]string, 0, len(handler.dependencies))
	for name := range handler.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ctx, cancel := context.WithTimeout(request.Context(), dependencyCheckTimeout)
		record(name, handler.dependencies[name](ctx), "")
		cancel()
	}

	response := ReadinessResponse{
		Service: "interview",
		Checks:  checks,
	}

	if allChecksPass {
		response.Status = "ready"
		utils.JSON(writer, http.StatusOK, response)
	} else {
		response.Status = "not_ready"
		utils.JSON(writer, http.StatusServiceUnavailable, response)
	}
}
