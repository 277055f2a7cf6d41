package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/hupe1980/agentpool/core"
)

// Model responses are not reliably well-formed, so tool-call detection runs a
// cascade of acceptance rules from most to least certain: the whole response
// as bare JSON, then JSON inside a fenced code block, then brace-balanced
// JSON objects embedded in prose. The first rule that yields a valid call
// wins.
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseToolCall extracts a tool invocation from a raw model response. It
// returns false when the response contains no valid tool call, which callers
// treat as a final-answer candidate rather than an error.
func ParseToolCall(text string) (*core.ToolCall, bool) {
	// Rule 1: the entire trimmed response is the JSON object.
	if call, ok := decodeToolCall(strings.TrimSpace(text)); ok {
		return call, true
	}

	// Rule 2: JSON inside a fenced code block.
	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		if call, ok := decodeToolCall(m[1]); ok {
			return call, true
		}
	}

	// Rule 3: scan for brace-balanced {...} substrings mixed into prose.
	depth := 0
	start := -1
	for i, ch := range text {
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidate := text[start : i+1]
				if strings.Contains(candidate, `"tool"`) && strings.Contains(candidate, `"args"`) {
					if call, ok := decodeToolCall(candidate); ok {
						return call, true
					}
				}
				start = -1
			}
		}
	}

	return nil, false
}

// decodeToolCall accepts a JSON object carrying both a "tool" string and an
// "args" object. Anything else is not a tool call.
func decodeToolCall(text string) (*core.ToolCall, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, false
	}

	toolRaw, hasTool := raw["tool"]
	argsRaw, hasArgs := raw["args"]
	if !hasTool || !hasArgs {
		return nil, false
	}

	var name string
	if err := json.Unmarshal(toolRaw, &name); err != nil || name == "" {
		return nil, false
	}

	var args map[string]any
	if err := json.Unmarshal(argsRaw, &args); err != nil {
		return nil, false
	}

	return &core.ToolCall{Tool: name, Args: args}, true
}
