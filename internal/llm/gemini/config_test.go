package gemini

import "testing"

func TestNewConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GEMINI_MODEL", "custom")
	t.Setenv("GEMINI_PROJECT_ID", "")
	t.Setenv("GEMINI_TEMPERATURE", "")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}

	if cfg.APIKey != "key" || cfg.Model != "custom" {
		t.Fatalf("unexpected config values: %+v", cfg)
	}
	if cfg.Location != defaultLocation {
		t.Fatalf("expected default location, got %s", cfg.Location)
	}
	if cfg.Temperature != defaultTemperature {
		t.Fatalf("expected default temperature, got %v", cfg.Temperature)
	}
	if cfg.UseVertex() {
		t.Fatal("expected Gemini API backend without a project")
	}
}

func TestNewConfigMissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_PROJECT_ID", "")
	if _, err := NewConfig(); err == nil {
		t.Fatal("expected error when API key missing")
	}
}

func TestNewConfigVertexNeedsNoKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_PROJECT_ID", "prepai-prod")
	t.Setenv("GEMINI_LOCATION", "europe-west4")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if !cfg.UseVertex() || cfg.Location != "europe-west4" {
		t.Fatalf("unexpected vertex config: %+v", cfg)
	}
}

func TestNewConfigTemperature(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")

	t.Setenv("GEMINI_TEMPERATURE", "0.7")
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if cfg.Temperature != float32(0.7) {
		t.Fatalf("expected temperature 0.7, got %v", cfg.Temperature)
	}

	for _, bad := range []string{"hot", "-1", "3"} {
		t.Setenv("GEMINI_TEMPERATURE", bad)
		if _, err := NewConfig(); err == nil {
			t.Fatalf("expected error for temperature %q", bad)
		}
	}
}
