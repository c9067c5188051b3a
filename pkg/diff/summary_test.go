package diff

import (
	"reflect"
	"testing"

	"github.com/johnstilia/commitscope/pkg/git"
)

func TestDetectIntentOrder(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"+ // Fix the crash", IntentBugfix},
		{"+ add cache and fix", IntentBugfix},
		{"+ add a memoized cache", IntentPerf},
		{"+ optimise loop", IntentPerf},
		{"+ cleanup helpers", IntentRefactor},
		{"+ reformat whitespace", IntentStyle},
		{"+ hello world", IntentUnknown},
	}
	for _, tt := range tests {
		if got := DetectIntent(tt.text); got != tt.want {
			t.Errorf("DetectIntent(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestExtractSymbolsPlausible(t *testing.T) {
	text := " context line function ignored()\n" +
		"+function loadUser(id) {\n" +
		"-class OldService extends Base {\n" +
		"+  render(props) {\n" +
		"+function loadUser(id) {\n"
	got := ExtractSymbols(text)
	for _, want := range []string{"loadUser", "OldService", "render"} {
		found := false
		for _, s := range got {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %q among symbols %v", want, got)
		}
	}
	for _, s := range got {
		if s == "ignored" {
			t.Fatalf("context lines must not contribute symbols: %v", got)
		}
	}
}

func TestExtractSymbolsBounded(t *testing.T) {
	text := ""
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		text += "+function " + name + "1() {}\n"
	}
	if got := ExtractSymbols(text); len(got) > MaxSymbols {
		t.Fatalf("expected at most %d symbols, got %d", MaxSymbols, len(got))
	}
	if got := ExtractSymbols(""); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSummarizeBugfix(t *testing.T) {
	text := "diff --git a/api/client.js b/api/client.js\n@@ -10,0 +11 @@\n+  // fix timeout handling"
	s := Summarize("api/client.js", text)
	if s.IntentGuess != IntentBugfix || s.Risk != "medium" {
		t.Fatalf("expected bugfix/medium, got %s/%s", s.IntentGuess, s.Risk)
	}
	if s.ChangeKind != "modified" || s.HighLevel != "potential bug fix indicators detected" {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestSummarizeRename(t *testing.T) {
	s := Summarize("old.go -> new.go", "+package main")
	if s.ChangeKind != "renamed" || s.Risk != "unknown" {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestDetectTestChanges(t *testing.T) {
	entries := []git.NameStatus{
		{Code: "M", Path: "pkg/a.go"},
		{Code: "A", Path: "pkg/a_test.go"},
		{Code: "M", Path: "web/Button.SPEC.tsx"},
	}
	got := DetectTestChanges(entries)
	want := []TestChange{
		{Path: "pkg/a_test.go", Change: "status=A"},
		{Path: "web/Button.SPEC.tsx", Change: "status=M"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
