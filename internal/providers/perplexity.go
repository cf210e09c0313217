package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/adinsights-cli/internal/gateway"
	"github.com/sells-group/adinsights-cli/internal/model"
	"github.com/sells-group/adinsights-cli/pkg/perplexity"
)

// PerplexityProvider adapts the Perplexity client to the gateway contract.
// The same client also serves as the knowledge source via KnowledgeSource.
type PerplexityProvider struct {
	client perplexity.Client
	model  string
}

// NewPerplexityProvider creates the Perplexity provider.
func NewPerplexityProvider(client perplexity.Client, model string) *PerplexityProvider {
	return &PerplexityProvider{client: client, model: model}
}

func (p *PerplexityProvider) ID() string { return IDPerplexity }

// Model returns the configured model id for cost attribution.
func (p *PerplexityProvider) Model() string { return p.model }

func (p *PerplexityProvider) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	msgs := make([]perplexity.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, perplexity.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, perplexity.Message{Role: "user", Content: req.Prompt})

	creq := perplexity.ChatCompletionRequest{
		Model:    p.model,
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		creq.MaxTokens = &req.MaxTokens
	}

	resp, err := p.client.ChatCompletion(ctx, creq)
	if err != nil {
		return nil, classifyPerplexity(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("perplexity: empty choices in response")
	}

	return &gateway.Response{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}

func classifyPerplexity(err error) error {
	var apiErr *perplexity.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(IDPerplexity, apiErr.StatusCode, apiErr.RetryAfter, err)
	}
	return err
}

// KnowledgeSource answers benchmark queries through the Perplexity search
// models, mapping the answer and its citations into knowledge chunks.
type KnowledgeSource struct {
	client perplexity.Client
	model  string
}

// NewKnowledgeSource creates the Perplexity-backed knowledge source.
func NewKnowledgeSource(client perplexity.Client, model string) *KnowledgeSource {
	return &KnowledgeSource{client: client, model: model}
}

const knowledgeSystemPrompt = "You are an advertising analytics research assistant. " +
	"Answer with concrete industry benchmark figures and their context. Be concise."

// Search resolves one benchmark query into knowledge chunks. The answer text
// becomes the primary chunk; each citation becomes a source-only chunk so
// the report can show provenance.
func (s *KnowledgeSource) Search(ctx context.Context, query string) ([]model.KnowledgeChunk, error) {
	resp, err := s.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: s.model,
		Messages: []perplexity.Message{
			{Role: "system", Content: knowledgeSystemPrompt},
			{Role: "user", Content: query},
		},
	})
	if err != nil {
		return nil, classifyPerplexity(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("perplexity: empty choices in response")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	chunks := []model.KnowledgeChunk{
		{Source: IDPerplexity, Title: query, Text: answer},
	}
	for _, cite := range resp.Citations {
		chunks = append(chunks, model.KnowledgeChunk{
			Source: cite,
			Title:  query,
			Text:   "",
		})
	}
	return chunks, nil
}
