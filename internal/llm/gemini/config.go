package gemini

import (
	"errors"
	"os"
	"strconv"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultLocation    = "us-central1"
	defaultTemperature = 0.2
)

// Config selects the Gemini backend. Setting Project switches to Vertex AI,
// which authenticates with application default credentials instead of an API key.
type Config struct {
	APIKey      string
	Model       string
	Project     string
	Location    string
	Temperature float32
}

func (c *Config) UseVertex() bool {
	return c.Project != ""
}

func NewConfig() (*Config, error) {
	cfg := &Config{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		Model:       os.Getenv("GEMINI_MODEL"),
		Project:     os.Getenv("GEMINI_PROJECT_ID"),
		Location:    os.Getenv("GEMINI_LOCATION"),
		Temperature: defaultTemperature,
	}
	if cfg.APIKey == "" && !cfg.UseVertex() {
		return nil, errors.New("GEMINI_API_KEY environment variable is required unless GEMINI_PROJECT_ID is set")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Location == "" {
		cfg.Location = defaultLocation
	}

	if raw := os.Getenv("GEMINI_TEMPERATURE"); raw != "" {
		t, err := strconv.ParseFloat(raw, 32)
		if err != nil || t < 0 || t > 2 {
			return nil, errors.New("GEMINI_TEMPERATURE must be a number between 0 and 2")
		}
		cfg.Temperature = float32(t)
	}

	return cfg, nil
}
