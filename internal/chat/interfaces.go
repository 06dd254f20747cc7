package chat

import "context"

// Completer sends one prompt to a language model and returns its raw text.
// Implementations live in internal/llm.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
