package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompleter calls an OpenAI-compatible chat completions endpoint.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter creates a client. An empty baseURL keeps the SDK default.
func NewOpenAICompleter(apiKey, baseURL, model string) *OpenAICompleter {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAICompleter{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Name implements Completer.
func (o *OpenAICompleter) Name() string {
	return ProviderOpenAI
}

// Complete sends the prompt as a single user message.
func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAICompleter.Complete: create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAICompleter.Complete: no choices in response")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("OpenAICompleter.Complete: empty response from model")
	}
	return text, nil
}
