package tokenizer

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// CountTokens returns the number of tokens in the given text for the specified model.
// Model ids may carry a vendor prefix ("openai/gpt-4o"); unknown models fall back
// to cl100k_base, and to a character estimate if no encoding can be loaded.
func CountTokens(text string, model string) int {
	if text == "" {
		return 0
	}

	encoding, err := tiktoken.EncodingForModel(bareModel(model))
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			// Typical ratio is 1 token ≈ 3.5 characters for English text
			return EstimateTokens(text)
		}
	}

	return len(encoding.Encode(text, nil, nil))
}

// EstimateTokens approximates the token count from the byte length.
func EstimateTokens(text string) int {
	return int(float64(len(text)) / 3.5)
}

// ModelTokenLimit returns a conservative input-token limit for a model id such
// as "anthropic/claude-3.5-sonnet". These leave room for the response.
func ModelTokenLimit(model string) int {
	model = strings.ToLower(model)
	vendor := ""
	if i := strings.Index(model, "/"); i >= 0 {
		vendor = model[:i]
	}

	switch {
	case vendor == "openai" || strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		if strings.Contains(model, "gpt-3.5-turbo") {
			if strings.Contains(model, "16k") {
				return 12000
			}
			return 3000
		}
		return 100000
	case vendor == "anthropic" || strings.Contains(model, "claude"):
		return 180000
	case vendor == "google" || strings.Contains(model, "gemini"):
		if strings.Contains(model, "1.0") {
			return 30000
		}
		return 900000
	case vendor == "ollama":
		return 8000
	default:
		return 100000
	}
}

func bareModel(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}
