package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

// Config holds the settings for an OpenAI-compatible chat completion endpoint.
type Config struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://models.github.ai/inference",
		Model:       "openai/gpt-4.1",
		Temperature: 0.9,
		MaxTokens:   2000,
		Timeout:     60 * time.Second,
	}
}

// OpenAIGenerator asks a chat model for candidates using a JSON schema
// response format.
type OpenAIGenerator struct {
	client *openai.Client
	config Config
	logger *zap.Logger
}

func NewOpenAIGenerator(config Config, logger *zap.Logger) (*OpenAIGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("generator api key is not configured")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("generator model is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger.Named("generator"),
	}, nil
}

type batchResponse struct {
	Activities []json.RawMessage `json:"activities"`
}

// Generate performs one chat completion call. Transport failures and replies
// without an activities array are returned as errors. Items are decoded one by
// one so a mistyped item only marks that candidate malformed for Validate.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) ([]Candidate, error) {
	if req.Count <= 0 {
		req.Count = DefaultBatchSize
	}

	request := openai.ChatCompletionRequest{
		Model:       g.config.Model,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "activity_batch",
				Schema: responseSchema(),
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	g.logger.Debug("chat completion finished",
		zap.String("model", g.config.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("success", err == nil))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := cleanJSON(resp.Choices[0].Message.Content)
	var batch batchResponse
	if err := json.Unmarshal([]byte(content), &batch); err != nil {
		return nil, fmt.Errorf("failed to decode activity batch: %w", err)
	}

	candidates := make([]Candidate, len(batch.Activities))
	for i, raw := range batch.Activities {
		if err := json.Unmarshal(raw, &candidates[i]); err != nil {
			candidates[i] = Candidate{Malformed: err.Error()}
		}
	}

	g.logger.Info("generated candidates",
		zap.Int("requested", req.Count),
		zap.Int("received", len(batch.Activities)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return candidates, nil
}

// cleanJSON strips a markdown code fence some models wrap around JSON output.
func cleanJSON(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func responseSchema() *jsonschema.Definition {
	activity := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"title":       {Type: jsonschema.String},
			"category":    {Type: jsonschema.String, Enum: categoryLabels()},
			"description": {Type: jsonschema.String},
			"location":    {Type: jsonschema.String},
			"address":     {Type: jsonschema.String},
			"coordinates": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"lat": {Type: jsonschema.Number},
					"lng": {Type: jsonschema.Number},
				},
				Required: []string{"lat", "lng"},
			},
			"distance": {Type: jsonschema.Number, Description: "kilometres from the user"},
			"duration": {Type: jsonschema.String, Description: `minutes, e.g. "45 min"`},
			"why":      {Type: jsonschema.String},
			"tasks": {
				Type:  jsonschema.Array,
				Items: &jsonschema.Definition{Type: jsonschema.String},
			},
		},
		Required: []string{"title", "category", "description", "location", "address", "distance", "duration", "why", "tasks"},
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"activities": {Type: jsonschema.Array, Items: &activity},
		},
		Required: []string{"activities"},
	}
}
