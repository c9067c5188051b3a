package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenced = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// RecoverJSON extracts a JSON object from model text. It tries, in order, the
// whole text, the inside of the first fenced code block, and the span from
// the first '{' to the last '}' of the fence-stripped text. It returns nil
// when none of them is a JSON object.
func RecoverJSON(text string) map[string]any {
	if m := decodeObject(text); m != nil {
		return m
	}

	inner := text
	if match := fenced.FindStringSubmatch(text); match != nil {
		inner = match[1]
		if m := decodeObject(inner); m != nil {
			return m
		}
	}

	start := strings.Index(inner, "{")
	end := strings.LastIndex(inner, "}")
	if start >= 0 && end > start {
		return decodeObject(inner[start : end+1])
	}
	return nil
}

func decodeObject(s string) map[string]any {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}
