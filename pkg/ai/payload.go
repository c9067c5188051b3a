package ai

import (
	"net/url"
	"strings"

	"github.com/johnstilia/commitscope/pkg/collect"
	"github.com/johnstilia/commitscope/pkg/config"
)

// Request is one call to the model endpoint.
type Request struct {
	Endpoint string
	Headers  map[string]string
	Payload  any
}

// Message is a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type inputText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Type    string      `json:"type"`
	Role    string      `json:"role"`
	Content []inputText `json:"content"`
}

type responsesPayload struct {
	Model           string         `json:"model"`
	Input           []inputMessage `json:"input"`
	Temperature     float64        `json:"temperature"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
	Text            *responsesText `json:"text,omitempty"`
}

type responsesText struct {
	Format jsonSchemaFormat `json:"format"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// jsonSchemaFormat is the flattened schema directive of the responses API.
type jsonSchemaFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// Schema is a structured-output schema. Every property is required and no
// other property is allowed.
type Schema struct {
	Name       string
	Required   []string
	Properties map[string]any
}

func (s Schema) object() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           s.Properties,
		"required":             s.Required,
		"additionalProperties": false,
	}
}

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func commitTypeEnum() []any {
	out := make([]any, 0, len(collect.CommitTypes))
	for _, t := range collect.CommitTypes {
		out = append(out, t)
	}
	return out
}

// CommitSchema constrains the commit answer.
var CommitSchema = Schema{
	Name:     "commit_message",
	Required: []string{"type", "scope", "subject", "body", "breaking_change", "issues", "rationale"},
	Properties: map[string]any{
		"type":            map[string]any{"type": "string", "enum": commitTypeEnum()},
		"scope":           map[string]any{"type": "string"},
		"subject":         map[string]any{"type": "string"},
		"body":            stringArray(),
		"breaking_change": map[string]any{"type": "string"},
		"issues":          stringArray(),
		"rationale":       map[string]any{"type": "string"},
	},
}

// PRSchema constrains the pull-request answer.
var PRSchema = Schema{
	Name:     "pull_request",
	Required: []string{"title", "body"},
	Properties: map[string]any{
		"title": map[string]any{"type": "string"},
		"body":  map[string]any{"type": "string"},
	},
}

// IsResponsesEndpoint reports whether the endpoint speaks the responses API.
func IsResponsesEndpoint(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.TrimRight(u.Path, "/"), "/responses")
}

// NormalizeEndpoint rewrites OpenRouter's /api/v1/responses to the alpha path
// when rewrite is enabled. It returns the endpoint and whether it changed.
func NormalizeEndpoint(endpoint string, rewrite bool) (string, bool) {
	if !rewrite {
		return endpoint, false
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Path != "/api/v1/responses" {
		return endpoint, false
	}
	u.Path = "/api/alpha/responses"
	return u.String(), true
}

var modelAliases = map[string]string{
	"google/gemini-flash-lite-latest": "google/gemini-2.5-flash-lite",
}

// NormalizeModel maps retired model aliases to a current id.
func NormalizeModel(model string) string {
	if m, ok := modelAliases[model]; ok {
		return m
	}
	return model
}

// BuildRequest assembles the request for the configured endpoint. The schema
// is attached only when structured output is enabled.
func BuildRequest(cfg *config.Config, system, user string, schema Schema) Request {
	endpoint, _ := NormalizeEndpoint(cfg.AI.Endpoint, cfg.AI.EndpointRewrite)
	model := NormalizeModel(cfg.AI.Model)

	headers := map[string]string{
		"Authorization": "Bearer " + cfg.AI.APIKey,
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}
	if cfg.AI.Referer != "" {
		headers["HTTP-Referer"] = cfg.AI.Referer
	}
	if cfg.AI.Title != "" {
		headers["X-Title"] = cfg.AI.Title
	}

	var payload any
	if IsResponsesEndpoint(endpoint) {
		p := responsesPayload{
			Model: model,
			Input: []inputMessage{
				{Type: "message", Role: "system", Content: []inputText{{Type: "input_text", Text: system}}},
				{Type: "message", Role: "user", Content: []inputText{{Type: "input_text", Text: user}}},
			},
			Temperature:     cfg.AI.Temperature,
			MaxOutputTokens: cfg.AI.MaxOutputTokens,
		}
		if cfg.AI.StructuredOutput {
			p.Text = &responsesText{Format: jsonSchemaFormat{
				Type:   "json_schema",
				Name:   schema.Name,
				Strict: true,
				Schema: schema.object(),
			}}
		}
		payload = p
	} else {
		p := chatPayload{
			Model: model,
			Messages: []Message{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxOutputTokens,
		}
		if cfg.AI.StructuredOutput {
			p.ResponseFormat = &responseFormat{
				Type: "json_schema",
				JSONSchema: jsonSchema{
					Name:   schema.Name,
					Strict: true,
					Schema: schema.object(),
				},
			}
		}
		payload = p
	}

	return Request{Endpoint: endpoint, Headers: headers, Payload: payload}
}
