package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/johnstilia/commitscope/pkg/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.AI.APIKey = "sk-test"
	return cfg
}

func TestBuildRequestChat(t *testing.T) {
	cfg := testConfig()
	req := BuildRequest(cfg, "sys", "user", CommitSchema)

	if req.Endpoint != config.DefaultEndpoint {
		t.Fatalf("endpoint = %s", req.Endpoint)
	}
	p, ok := req.Payload.(chatPayload)
	if !ok {
		t.Fatalf("expected a chat payload, got %T", req.Payload)
	}
	if len(p.Messages) != 2 || p.Messages[0].Role != "system" || p.Messages[1].Content != "user" {
		t.Fatalf("unexpected messages %+v", p.Messages)
	}
	if p.ResponseFormat == nil || p.ResponseFormat.Type != "json_schema" || p.ResponseFormat.JSONSchema.Name != "commit_message" {
		t.Fatalf("expected a json_schema response format, got %+v", p.ResponseFormat)
	}
	if p.MaxTokens != cfg.AI.MaxOutputTokens || p.Temperature != cfg.AI.Temperature {
		t.Fatalf("sampling settings not carried: %+v", p)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"response_format":{"type":"json_schema"`) {
		t.Fatalf("unexpected wire shape %s", data)
	}
}

func TestBuildRequestWithoutStructuredOutput(t *testing.T) {
	cfg := testConfig()
	cfg.AI.StructuredOutput = false
	p := BuildRequest(cfg, "sys", "user", CommitSchema).Payload.(chatPayload)
	if p.ResponseFormat != nil {
		t.Fatalf("schema should be omitted, got %+v", p.ResponseFormat)
	}
	data, _ := json.Marshal(p)
	if strings.Contains(string(data), "response_format") {
		t.Fatalf("response_format should not be serialized: %s", data)
	}
}

func TestBuildRequestResponses(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Endpoint = "https://openrouter.ai/api/v1/responses"
	cfg.AI.EndpointRewrite = true

	req := BuildRequest(cfg, "sys", "user", PRSchema)
	if req.Endpoint != "https://openrouter.ai/api/alpha/responses" {
		t.Fatalf("endpoint not rewritten: %s", req.Endpoint)
	}
	p, ok := req.Payload.(responsesPayload)
	if !ok {
		t.Fatalf("expected a responses payload, got %T", req.Payload)
	}
	if len(p.Input) != 2 || p.Input[0].Role != "system" || p.Input[1].Content[0].Type != "input_text" {
		t.Fatalf("unexpected input %+v", p.Input)
	}
	if p.Text == nil || p.Text.Format.Name != "pull_request" || !p.Text.Format.Strict {
		t.Fatalf("unexpected text format %+v", p.Text)
	}
	if p.MaxOutputTokens != cfg.AI.MaxOutputTokens {
		t.Fatalf("max_output_tokens = %d", p.MaxOutputTokens)
	}
}

func TestBuildRequestHeaders(t *testing.T) {
	cfg := testConfig()
	req := BuildRequest(cfg, "", "", CommitSchema)
	if req.Headers["Authorization"] != "Bearer sk-test" {
		t.Fatalf("authorization = %q", req.Headers["Authorization"])
	}
	if req.Headers["HTTP-Referer"] == "" || req.Headers["X-Title"] != "commitscope" {
		t.Fatalf("attribution headers missing: %v", req.Headers)
	}

	cfg.AI.Referer = ""
	cfg.AI.Title = ""
	req = BuildRequest(cfg, "", "", CommitSchema)
	if _, ok := req.Headers["HTTP-Referer"]; ok {
		t.Fatal("empty referer should not be sent")
	}
	if _, ok := req.Headers["X-Title"]; ok {
		t.Fatal("empty title should not be sent")
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		rewrite bool
		want    string
		changed bool
	}{
		{"https://openrouter.ai/api/v1/responses", true, "https://openrouter.ai/api/alpha/responses", true},
		{"https://openrouter.ai/api/v1/responses", false, "https://openrouter.ai/api/v1/responses", false},
		{"https://openrouter.ai/api/v1/chat/completions", true, "https://openrouter.ai/api/v1/chat/completions", false},
		{"https://example.com/v1/responses", true, "https://example.com/v1/responses", false},
	}
	for _, tt := range tests {
		got, changed := NormalizeEndpoint(tt.in, tt.rewrite)
		if got != tt.want || changed != tt.changed {
			t.Fatalf("NormalizeEndpoint(%q, %v) = %q, %v", tt.in, tt.rewrite, got, changed)
		}
	}
}

func TestIsResponsesEndpoint(t *testing.T) {
	if !IsResponsesEndpoint("https://example.com/v1/responses/") {
		t.Fatal("trailing slash should still be a responses endpoint")
	}
	if IsResponsesEndpoint("https://example.com/v1/chat/completions") {
		t.Fatal("chat endpoint misclassified")
	}
}

func TestNormalizeModel(t *testing.T) {
	if got := NormalizeModel("google/gemini-flash-lite-latest"); got != "google/gemini-2.5-flash-lite" {
		t.Fatalf("alias not mapped: %s", got)
	}
	if got := NormalizeModel("openai/gpt-4o-mini"); got != "openai/gpt-4o-mini" {
		t.Fatalf("unknown model changed: %s", got)
	}
	cfg := testConfig()
	cfg.AI.Model = "google/gemini-flash-lite-latest"
	if p := BuildRequest(cfg, "", "", CommitSchema).Payload.(chatPayload); p.Model != "google/gemini-2.5-flash-lite" {
		t.Fatalf("payload model = %s", p.Model)
	}
}

func TestCommitSchema(t *testing.T) {
	obj := CommitSchema.object()
	if obj["additionalProperties"] != false {
		t.Fatal("schema must forbid additional properties")
	}
	required := obj["required"].([]string)
	props := obj["properties"].(map[string]any)
	if len(required) != len(props) {
		t.Fatalf("every property must be required: %v", required)
	}
	for _, name := range required {
		if _, ok := props[name]; !ok {
			t.Fatalf("required %q has no property", name)
		}
	}
	enum := props["type"].(map[string]any)["enum"].([]any)
	if len(enum) != 11 {
		t.Fatalf("type enum has %d entries", len(enum))
	}
}
