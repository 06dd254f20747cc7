package chat

import "errors"

var (
	// ErrMessageRequired means the message was missing or blank.
	ErrMessageRequired = errors.New("Message is required")

	// ErrNotConfigured means no completion provider is available.
	ErrNotConfigured = errors.New("Gemini API key not configured")

	// ErrUnparsableOutput means no JSON object could be read from the completion.
	ErrUnparsableOutput = errors.New("Failed to parse Gemini response as JSON")
)
