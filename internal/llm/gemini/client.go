package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"prepai/interview/internal/llm"
	"prepai/interview/internal/models"
)

// Client represents a Gemini LLM client
type Client struct {
	client *genai.Client
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.UseVertex() {
		clientConfig = &genai.ClientConfig{
			Project:  config.Project,
			Location: config.Location,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: ProviderName,
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	return &Client{
		client: client,
		config: config,
	}, nil
}

// GenerateContent sends a single-turn prompt and returns the text of the first candidate
func (c *Client) GenerateContent(ctx context.Context, prompt string, requestID string, opts llm.GenerateOptions) (*models.GenerationResponse, error) {
	startTime := time.Now()

	temperature := opts.Temperature
	if temperature == nil {
		temperature = genai.Ptr(c.config.Temperature)
	}
	genConfig := &genai.GenerateContentConfig{
		Temperature: temperature,
	}
	if opts.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}
	if opts.SystemInstruction != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.config.Model,
		genai.Text(prompt),
		genConfig,
	)
	if err != nil {
		code := llm.ErrCodeServiceDown
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			code = llm.ErrCodeTimeout
		case isRateLimitError(err):
			code = llm.ErrCodeRateLimit
		}
		return nil, &llm.ProviderError{
			Provider: ProviderName,
			Code:     code,
			Message:  "Failed to generate content",
			Err:      err,
		}
	}

	// Extract the response text
	if result == nil {
		return nil, &llm.ProviderError{
			Provider: ProviderName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &llm.ProviderError{
			Provider: ProviderName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}

	processingTime := time.Since(startTime).Milliseconds()

	model := c.config.Model
	if result.ModelVersion != "" {
		model = result.ModelVersion
	}

	return &models.GenerationResponse{
		Content:   text,
		RequestID: requestID,
		Metadata: models.GenerationMetadata{
			ProcessingTime: int(processingTime),
			Provider:       ProviderName,
			Model:          model,
		},
	}, nil
}

func (c *Client) GetProviderName() string {
	return ProviderName
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "quota")
}
