package ai

import (
	"reflect"
	"testing"

	"github.com/johnstilia/commitscope/pkg/apperr"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name  string
		reply Reply
		want  string
	}{
		{
			name:  "redundant prefix stripped",
			reply: Reply{Type: "fix", Scope: "api", Subject: "fix(api): handle timeout", Body: []string{"x"}},
			want:  "fix(api): handle timeout\n\n- x",
		},
		{
			name:  "header only",
			reply: Reply{Type: "docs", Subject: "update readme"},
			want:  "docs: update readme",
		},
		{
			name:  "type is trimmed",
			reply: Reply{Type: " feat ", Subject: "add export"},
			want:  "feat: add export",
		},
		{
			name:  "multi-line body entries become bullets once",
			reply: Reply{Type: "refactor", Subject: "split parser", Body: []string{"- already", "one\ntwo", "  "}},
			want:  "refactor: split parser\n\n- already\n- one\n- two",
		},
		{
			name:  "breaking flag reuses subject",
			reply: Reply{Type: "feat", Subject: "drop v1", Breaking: true},
			want:  "feat: drop v1\n\nBREAKING CHANGE: drop v1",
		},
		{
			name: "breaking text and issues",
			reply: Reply{
				Type:           "feat",
				Scope:          "api",
				Subject:        "add v2",
				Body:           []string{"a", "b"},
				BreakingChange: "v1 removed",
				Issues:         []string{"Closes #12", " "},
			},
			want: "feat(api): add v2\n\n- a\n- b\n\nBREAKING CHANGE: v1 removed\nCloses #12",
		},
		{
			name:  "prefix-only subject kept",
			reply: Reply{Type: "chore", Subject: "chore:"},
			want:  "chore: chore:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assemble(tt.reply)
			if err != nil {
				t.Fatalf("Assemble: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestAssembleRejects(t *testing.T) {
	tests := []struct {
		reply Reply
		code  apperr.ErrorCode
	}{
		{Reply{Type: "feature", Subject: "x"}, apperr.ErrCodeInvalidCommitType},
		{Reply{Type: "", Subject: "x"}, apperr.ErrCodeInvalidCommitType},
		{Reply{Type: "FIX", Subject: "x"}, apperr.ErrCodeInvalidCommitType},
		{Reply{Type: "Feat", Subject: "x"}, apperr.ErrCodeInvalidCommitType},
		{Reply{Type: "fix", Subject: ""}, apperr.ErrCodeEmptySubject},
		{Reply{Type: "fix", Subject: "   "}, apperr.ErrCodeEmptySubject},
	}
	for _, tt := range tests {
		_, err := Assemble(tt.reply)
		if apperr.CodeOf(err) != tt.code {
			t.Fatalf("Assemble(%+v) code = %s, want %s", tt.reply, apperr.CodeOf(err), tt.code)
		}
		if !apperr.IsContractViolation(err) {
			t.Fatalf("expected a contract violation, got %v", err)
		}
	}
}

func TestDecodeReply(t *testing.T) {
	r := DecodeReply(map[string]any{
		"type":            "fix",
		"scope":           "",
		"subject":         "handle nil",
		"body":            "a\nb",
		"issues":          "#1",
		"breaking_change": "none",
		"rationale":       "branch name",
	})
	if !reflect.DeepEqual(r.Body, []string{"a", "b"}) || !reflect.DeepEqual(r.Issues, []string{"#1"}) {
		t.Fatalf("string body/issues not split: %+v", r)
	}
	if r.BreakingChange != "" || r.Breaking {
		t.Fatalf("\"none\" should not be breaking: %+v", r)
	}
	if r.Rationale != "branch name" {
		t.Fatalf("rationale lost: %+v", r)
	}

	r = DecodeReply(map[string]any{
		"body":            []any{"x", float64(3), nil, map[string]any{}},
		"breaking_change": true,
		"issues":          42.0,
	})
	if !reflect.DeepEqual(r.Body, []string{"x", "3"}) {
		t.Fatalf("list body = %q", r.Body)
	}
	if !r.Breaking {
		t.Fatal("boolean breaking_change not honoured")
	}
	if r.Issues != nil {
		t.Fatalf("issues of unknown shape should be ignored, got %q", r.Issues)
	}

	r = DecodeReply(map[string]any{"breaking_change": " removes the v1 API "})
	if r.BreakingChange != "removes the v1 API" {
		t.Fatalf("breaking text = %q", r.BreakingChange)
	}
}

func TestStripRedundantPrefix(t *testing.T) {
	tests := map[string]string{
		"fix: handle nil":         "handle nil",
		"Feat(ui)!: new layout":   "new layout",
		"handle nil":              "handle nil",
		"fixture cleanup":         "fixture cleanup",
		"  docs(readme): typo  ":  "typo",
		"refactor:":               "refactor:",
		"unknown(scope): message": "unknown(scope): message",
	}
	for in, want := range tests {
		if got := StripRedundantPrefix(in); got != want {
			t.Fatalf("StripRedundantPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAssemblePR(t *testing.T) {
	m, err := AssemblePR(map[string]any{"title": " Add export ", "body": []any{"## Summary  ", "- csv", ""}})
	if err != nil {
		t.Fatalf("AssemblePR: %v", err)
	}
	if m.Title != "Add export" || m.Body != "## Summary\n- csv" {
		t.Fatalf("unexpected message %+v", m)
	}
	if m.String() != "Add export\n\n## Summary\n- csv" {
		t.Fatalf("unexpected rendering %q", m.String())
	}
	if (PRMessage{Title: "t"}).String() != "t" {
		t.Fatal("title-only message should render without blank lines")
	}

	if _, err := AssemblePR(map[string]any{"body": "x"}); apperr.CodeOf(err) != apperr.ErrCodeEmptySubject {
		t.Fatalf("missing title should be rejected, got %v", err)
	}
}

func TestIsAllowedType(t *testing.T) {
	for _, typ := range []string{"feat", "fix", "perf", "refactor", "style", "docs", "test", "build", "ci", "chore", "revert"} {
		if !IsAllowedType(typ) {
			t.Fatalf("%s should be allowed", typ)
		}
	}
	if IsAllowedType("Feat") || IsAllowedType("feature") {
		t.Fatal("only lowercase known types are allowed")
	}
}
