package reschedule

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	defaultRequestTimeout = 15 * time.Second

	temperature = 0.7
	maxTokens   = 500
)

// Generator produces raw suggestion payloads from the chat completions API.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// OpenAIGenerator calls OpenAI chat completions in JSON mode.
type OpenAIGenerator struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator builds a generator for the given API key. An empty model
// selects DefaultModel.
func NewOpenAIGenerator(apiKey, model string, timeout time.Duration) *OpenAIGenerator {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
	}
}

// Model returns the configured model identifier.
func (g *OpenAIGenerator) Model() string { return g.model }

// Generate requests one suggestion payload. Transport and empty-content
// failures surface as TransportError; payload problems are left to the
// validator.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(req)),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, &types.TransportError{Provider: "openai", Attempts: 1, Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &types.TransportError{Provider: "openai", Attempts: 1,
			Err: types.NewParseError("response missing choices")}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, &types.TransportError{Provider: "openai", Attempts: 1,
			Err: types.NewParseError("response missing content")}
	}
	return []byte(content), nil
}
