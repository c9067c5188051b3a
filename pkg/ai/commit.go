package ai

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/johnstilia/commitscope/pkg/apperr"
	"github.com/johnstilia/commitscope/pkg/collect"
)

// Reply is the model's structured answer for a commit, after tolerant
// decoding of the recovered JSON.
type Reply struct {
	Type    string   `json:"type"`
	Scope   string   `json:"scope"`
	Subject string   `json:"subject"`
	Body    []string `json:"body"`
	// BreakingChange is the breaking-change description, if the model gave one.
	BreakingChange string `json:"breaking_change,omitempty"`
	// Breaking is set when breaking_change was the boolean true.
	Breaking  bool     `json:"-"`
	Issues    []string `json:"issues"`
	Rationale string   `json:"rationale,omitempty"`
}

// DecodeReply reads a Reply out of a recovered JSON object. body may be a
// string or a list, issues a list or a single string, and breaking_change a
// string or a boolean. Fields of any other shape are ignored.
func DecodeReply(m map[string]any) Reply {
	r := Reply{
		Type:      str(m["type"]),
		Scope:     str(m["scope"]),
		Subject:   str(m["subject"]),
		Body:      list(m["body"]),
		Issues:    list(m["issues"]),
		Rationale: str(m["rationale"]),
	}
	switch v := m["breaking_change"].(type) {
	case bool:
		r.Breaking = v
	case string:
		if !notBreaking(v) {
			r.BreakingChange = strings.TrimSpace(v)
		}
	}
	return r
}

func notBreaking(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no", "none", "n/a", "null":
		return true
	}
	return false
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64, bool:
		return fmt.Sprint(s)
	}
	return ""
}

func list(v any) []string {
	switch t := v.(type) {
	case string:
		return strings.Split(t, "\n")
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

var allowedTypes = func() map[string]bool {
	m := make(map[string]bool, len(collect.CommitTypes))
	for _, t := range collect.CommitTypes {
		m[t] = true
	}
	return m
}()

// IsAllowedType reports whether t is one of collect.CommitTypes.
func IsAllowedType(t string) bool {
	return allowedTypes[t]
}

// redundantPrefix matches a Conventional Commit header the model repeated in
// its own subject. Heuristic: a subject that genuinely starts with e.g.
// "fix: " loses those words too.
var redundantPrefix = regexp.MustCompile(`(?i)^\s*(` + strings.Join(collect.CommitTypes, "|") + `)(\([^)]*\))?!?:\s*`)

// StripRedundantPrefix removes a leading "type(scope): " or "type: " from
// subject, keeping subject unchanged if nothing would remain.
func StripRedundantPrefix(subject string) string {
	stripped := strings.TrimSpace(redundantPrefix.ReplaceAllString(subject, ""))
	if stripped == "" {
		return strings.TrimSpace(subject)
	}
	return stripped
}

// Assemble formats the reply as a Conventional Commit message. The type must
// be one of the allowed lowercase types; surrounding spaces are ignored.
func Assemble(r Reply) (string, error) {
	typ := strings.TrimSpace(r.Type)
	if !IsAllowedType(typ) {
		return "", apperr.New(apperr.ErrCodeInvalidCommitType,
			fmt.Sprintf("model returned unsupported commit type %q", r.Type))
	}
	subject := StripRedundantPrefix(r.Subject)
	if subject == "" {
		return "", apperr.New(apperr.ErrCodeEmptySubject, "model returned an empty subject")
	}

	header := typ + ": " + subject
	if scope := strings.TrimSpace(r.Scope); scope != "" {
		header = fmt.Sprintf("%s(%s): %s", typ, scope, subject)
	}
	sections := []string{header}

	if body := bullets(r.Body); len(body) > 0 {
		sections = append(sections, strings.Join(body, "\n"))
	}

	var footer []string
	switch {
	case r.BreakingChange != "":
		footer = append(footer, "BREAKING CHANGE: "+r.BreakingChange)
	case r.Breaking:
		footer = append(footer, "BREAKING CHANGE: "+subject)
	}
	for _, issue := range r.Issues {
		if issue = strings.TrimSpace(issue); issue != "" {
			footer = append(footer, issue)
		}
	}
	if len(footer) > 0 {
		sections = append(sections, strings.Join(footer, "\n"))
	}

	return strings.Join(sections, "\n\n"), nil
}

// bullets turns body entries, each possibly multi-line, into "- " lines.
func bullets(entries []string) []string {
	var out []string
	for _, entry := range entries {
		for _, line := range strings.Split(entry, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, "- ") {
				line = "- " + line
			}
			out = append(out, line)
		}
	}
	return out
}

// PRMessage is an assembled pull-request title and description.
type PRMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// AssemblePR reads a pull-request answer. The title is required; the body
// may be a string or a list of lines.
func AssemblePR(m map[string]any) (PRMessage, error) {
	title := strings.TrimSpace(str(m["title"]))
	if title == "" {
		return PRMessage{}, apperr.New(apperr.ErrCodeEmptySubject, "model returned an empty pull request title")
	}
	var body []string
	for _, line := range list(m["body"]) {
		body = append(body, strings.TrimRight(line, " \t\r"))
	}
	return PRMessage{Title: title, Body: strings.TrimSpace(strings.Join(body, "\n"))}, nil
}

// String renders the message as "title\n\nbody".
func (p PRMessage) String() string {
	if p.Body == "" {
		return p.Title
	}
	return p.Title + "\n\n" + p.Body
}
