package disambiguate

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-scraper/pkg/anthropic"
)

// AnthropicResolver asks a Claude model for all answers in one message.
type AnthropicResolver struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicResolver returns a resolver over client. Empty model uses
// anthropic.DefaultModel.
func NewAnthropicResolver(client anthropic.Client, model string, maxTokens int64) *AnthropicResolver {
	if model == "" {
		model = anthropic.DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicResolver{client: client, model: model, maxTokens: maxTokens}
}

func (r *AnthropicResolver) Name() string { return "anthropic" }

// Resolve sends one CreateMessage call for the whole batch.
func (r *AnthropicResolver) Resolve(ctx context.Context, reqs []Request) ([]string, error) {
	temp := 0.0
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   r.maxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: userPrompt(reqs)}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "disambiguate: anthropic call")
	}
	resp.Usage.LogCost(r.model, "disambiguate")
	return ParseAnswers(resp.Text())
}
