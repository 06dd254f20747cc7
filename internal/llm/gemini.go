package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentGenerator is the part of *genai.Models the completer uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiCompleter calls the Gemini API through the genai SDK.
type GeminiCompleter struct {
	models contentGenerator
	model  string
}

// NewGeminiCompleter creates a client bound to the Gemini API backend.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiCompleter: create genai client: %w", err)
	}
	return &GeminiCompleter{
		models: client.Models,
		model:  model,
	}, nil
}

// Name implements Completer.
func (g *GeminiCompleter) Name() string {
	return ProviderGemini
}

// Complete sends the prompt as a single user turn.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	temp := float32(temperature)
	config := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("GeminiCompleter.Complete: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("GeminiCompleter.Complete: empty response from model")
	}
	return text, nil
}
