// Package gemini wraps the Google GenAI SDK behind a narrow generation API.
package gemini

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Client defines the Gemini operations used by the analysis pipeline.
type Client interface {
	GenerateText(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest is our own request type for GenerateText.
type GenerateRequest struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// GenerateResponse is our own response type from GenerateText.
type GenerateResponse struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// genaiClient implements Client using google.golang.org/genai.
type genaiClient struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. The model falls back to a sensible
// default when empty.
func NewClient(ctx context.Context, apiKey, model string) (Client, error) {
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &genaiClient{client: client, model: model}, nil
}

func (c *genaiClient) GenerateText(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		// Keep the SDK error in the chain so callers can classify it by
		// status code.
		return nil, eris.Wrap(err, "gemini: generate content")
	}

	out := &GenerateResponse{
		Text:  result.Text(),
		Model: model,
	}
	if result.UsageMetadata != nil {
		out.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
