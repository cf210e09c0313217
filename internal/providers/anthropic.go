package providers

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/sells-group/adinsights-cli/internal/gateway"
	"github.com/sells-group/adinsights-cli/pkg/anthropic"
)

// AnthropicProvider adapts the Anthropic client to the gateway contract.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates the Claude provider.
func NewAnthropicProvider(client anthropic.Client, model string) *AnthropicProvider {
	return &AnthropicProvider{client: client, model: model}
}

func (p *AnthropicProvider) ID() string { return IDAnthropic }

// Model returns the configured model id for cost attribution.
func (p *AnthropicProvider) Model() string { return p.model }

func (p *AnthropicProvider) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.model,
		MaxTokens: int64(req.MaxTokens),
		System:    req.System,
		Messages: []anthropic.Message{
			{Role: "user", Content: req.Prompt},
		},
	})
	if err != nil {
		return nil, p.classify(err)
	}

	return &gateway.Response{
		Text:         resp.Text(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

func (p *AnthropicProvider) classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(IDAnthropic, apiErr.StatusCode, 0, err)
	}
	return err
}
