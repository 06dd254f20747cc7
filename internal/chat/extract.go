package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	jsonFence   = regexp.MustCompile("```json\\n?")
	plainFence  = regexp.MustCompile("```\\n?")
	objectBlock = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSON pulls the JSON object out of a raw completion.
// It first strips code fences and parses the rest; if that fails it parses
// the widest {...} span of the original text. Valid JSON that is not an
// object comes back as an empty map so normalization applies defaults.
func ExtractJSON(raw string) (map[string]interface{}, error) {
	clean := stripFences(raw)

	parsed, err := decodeObject(clean)
	if err == nil {
		return parsed, nil
	}

	block := objectBlock.FindString(raw)
	if block == "" {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableOutput, err)
	}

	parsed, blockErr := decodeObject(block)
	if blockErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableOutput, blockErr)
	}
	return parsed, nil
}

func stripFences(raw string) string {
	s := jsonFence.ReplaceAllString(raw, "")
	s = plainFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// decodeObject parses s as a single JSON value. Numbers stay json.Number
// so an out-of-range literal such as 1e400 is left to the normalizer
// instead of failing the decode.
func decodeObject(s string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	if obj, ok := v.(map[string]interface{}); ok {
		return obj, nil
	}
	return map[string]interface{}{}, nil
}
