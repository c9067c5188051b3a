package ai

import (
	"encoding/json"
	"strings"
)

// ResponseKind discriminates the shapes a model endpoint may answer with.
type ResponseKind int

const (
	// KindText is a non-JSON body, or JSON that is a bare string.
	KindText ResponseKind = iota
	// KindResponses is a "responses" API object (has an output array).
	KindResponses
	// KindChatCompletion is a chat-completions object (has choices).
	KindChatCompletion
	// KindOther is any other JSON value.
	KindOther
)

func (k ResponseKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindResponses:
		return "responses"
	case KindChatCompletion:
		return "chat_completion"
	case KindOther:
		return "other"
	}
	return "unknown"
}

// Response is a raw endpoint answer classified once at parse time.
type Response struct {
	Kind ResponseKind
	// Raw is the body as received.
	Raw string

	responses *responsesBody
	chat      *chatBody
}

type responsesBody struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Text  string `json:"text"`
			Delta string `json:"delta"`
		} `json:"content"`
	} `json:"output"`
	OutputText string `json:"output_text"`
}

type chatBody struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseResponse classifies body. isJSON reports whether the endpoint declared
// a JSON content type; a JSON body that fails to decode is kept as text.
// It never fails.
func ParseResponse(body []byte, isJSON bool) Response {
	resp := Response{Kind: KindText, Raw: string(body)}
	if !isJSON {
		return resp
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		var s string
		if json.Unmarshal(body, &s) == nil {
			resp.Raw = s
			return resp
		}
		if json.Valid(body) {
			resp.Kind = KindOther
		}
		return resp
	}

	if out, ok := probe["output"]; ok && isArray(out) {
		var r responsesBody
		if json.Unmarshal(body, &r) == nil {
			resp.Kind = KindResponses
			resp.responses = &r
			return resp
		}
	}
	if _, ok := probe["choices"]; ok {
		var c chatBody
		if json.Unmarshal(body, &c) == nil {
			resp.Kind = KindChatCompletion
			resp.chat = &c
			return resp
		}
	}
	resp.Kind = KindOther
	return resp
}

// Text extracts the model's answer, falling back to the raw body when the
// expected fields are missing or empty.
func (r Response) Text() string {
	switch r.Kind {
	case KindText:
		return r.Raw
	case KindResponses:
		if t := r.responses.text(); t != "" {
			return t
		}
		if r.responses.OutputText != "" {
			return r.responses.OutputText
		}
		return r.Raw
	case KindChatCompletion:
		if t := r.chat.text(); t != "" {
			return t
		}
		return r.Raw
	case KindOther:
		return r.Raw
	}
	return r.Raw
}

func (b *responsesBody) text() string {
	for _, item := range b.Output {
		if item.Type != "message" {
			continue
		}
		var sb strings.Builder
		for _, part := range item.Content {
			if part.Text != "" {
				sb.WriteString(part.Text)
			} else {
				sb.WriteString(part.Delta)
			}
		}
		return sb.String()
	}
	return ""
}

func (b *chatBody) text() string {
	if len(b.Choices) == 0 {
		return ""
	}
	content := b.Choices[0].Message.Content
	var s string
	if json.Unmarshal(content, &s) == nil {
		return s
	}
	var parts []json.RawMessage
	if json.Unmarshal(content, &parts) != nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range parts {
		var part struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(p, &s) == nil {
			sb.WriteString(s)
		} else if json.Unmarshal(p, &part) == nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func isArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
