package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Default values for completion providers.
const (
	// ProviderGemini selects Google's Gemini API.
	ProviderGemini = "gemini"

	// ProviderOpenAI selects any OpenAI-compatible chat completions API.
	ProviderOpenAI = "openai"

	// DefaultGeminiModel is the default Gemini model used for chat parsing.
	DefaultGeminiModel = "gemini-2.5-flash"

	// DefaultOpenAIModel is the default model for OpenAI-compatible backends.
	DefaultOpenAIModel = "gpt-4o-mini"

	// temperature keeps JSON output stable.
	temperature = 0.2
)

// ErrNoAPIKey is returned by New when the selected provider has no key.
var ErrNoAPIKey = errors.New("llm: API key not configured")

// Completer sends a prompt to a model and returns the raw completion text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Options selects and configures a provider.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string // OpenAI-compatible only
}

// New builds the Completer described by opts. It returns ErrNoAPIKey when
// the key is empty so callers can start without a provider.
func New(ctx context.Context, opts Options) (Completer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	switch strings.ToLower(opts.Provider) {
	case "", ProviderGemini:
		model := opts.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		return NewGeminiCompleter(ctx, opts.APIKey, model)
	case ProviderOpenAI:
		model := opts.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAICompleter(opts.APIKey, opts.BaseURL, model), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}
}
