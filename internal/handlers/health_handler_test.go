package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"text/template"

	"prepai/interview/internal/config"
)

func readyz(handler *HealthHandler) (*httptest.ResponseRecorder, ReadinessResponse) {
	rec := httptest.NewRecorder()
	handler.ReadyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	var resp ReadinessResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestHealthzHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, nil, nil, nil).HealthzHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestReadyzHandler_AllHealthy(t *testing.T) {
	handler := NewHealthHandler(&mockProvider{}, &mockPromptManager{}, &config.Config{Provider: "gemini"}, map[string]PingFunc{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return nil },
	})

	rec, resp := readyz(handler)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp.Status != "ready" || resp.Service != "interview" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	for _, name := range []string{"provider", "prompt_manager", "configuration", "database", "redis"} {
		if resp.Checks[name].Status != "ok" {
			t.Errorf("expected %s check to pass, got %+v", name, resp.Checks[name])
		}
	}
}

func TestReadyzHandler_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler *HealthHandler
		check   string
	}{
		{"missing provider", NewHealthHandler(nil, &mockPromptManager{}, &config.Config{}, nil), "provider"},
		{"missing prompts", NewHealthHandler(&mockProvider{}, nil, &config.Config{}, nil), "prompt_manager"},
		{"no templates", NewHealthHandler(&mockProvider{}, &mockPromptManager{
			getTemplatesFn: func() map[string]map[string]*template.Template { return nil },
		}, &config.Config{}, nil), "prompt_manager"},
		{"missing config", NewHealthHandler(&mockProvider{}, &mockPromptManager{}, nil, nil), "configuration"},
		{"mongo down", NewHealthHandler(&mockProvider{}, &mockPromptManager{}, &config.Config{}, map[string]PingFunc{
			"mongo": func(context.Context) error { return errors.New("no reachable servers") },
		}), "mongo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := readyz(tt.handler)
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected status 503, got %d", rec.Code)
			}
			if resp.Status != "not_ready" {
				t.Fatalf("expected not_ready, got %s", resp.Status)
			}
			if resp.Checks[tt.check].Status != "failed" || resp.Checks[tt.check].Message == "" {
				t.Fatalf("expected %s check to fail with a message, got %+v", tt.check, resp.Checks[tt.check])
			}
		})
	}
}
