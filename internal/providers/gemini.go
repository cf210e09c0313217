package providers

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/sells-group/adinsights-cli/internal/gateway"
	"github.com/sells-group/adinsights-cli/pkg/gemini"
)

// GeminiProvider adapts the Gemini client to the gateway contract.
type GeminiProvider struct {
	client gemini.Client
	model  string
}

// NewGeminiProvider creates the Gemini provider.
func NewGeminiProvider(client gemini.Client, model string) *GeminiProvider {
	return &GeminiProvider{client: client, model: model}
}

func (p *GeminiProvider) ID() string { return IDGemini }

// Model returns the configured model id for cost attribution.
func (p *GeminiProvider) Model() string { return p.model }

func (p *GeminiProvider) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	resp, err := p.client.GenerateText(ctx, gemini.GenerateRequest{
		Model:     p.model,
		System:    req.System,
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, p.classify(err)
	}

	return &gateway.Response{
		Text:         resp.Text,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

func (p *GeminiProvider) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(IDGemini, apiErr.Code, 0, err)
	}
	return err
}
