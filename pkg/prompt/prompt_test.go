package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/johnstilia/commitscope/pkg/collect"
	"github.com/johnstilia/commitscope/pkg/diff"
	"github.com/johnstilia/commitscope/pkg/session"
)

func emptyContext() *collect.Context {
	return &collect.Context{
		RepoMeta: collect.RepoMeta{
			RepoName:          "widgets",
			DefaultBranch:     "main",
			CurrentBranch:     "HEAD",
			CommitConvention:  "Conventional Commits",
			NarrativeLanguage: "auto",
		},
	}
}

func TestRenderEmptyContextKeepsEverySection(t *testing.T) {
	out := Render(emptyContext(), nil)

	last := -1
	for _, title := range Sections {
		i := strings.Index(out, "\n"+title+"\n")
		if i < 0 {
			t.Fatalf("section %s missing:\n%s", title, out)
		}
		if i < last {
			t.Fatalf("section %s out of order", title)
		}
		last = i
	}
	for _, want := range []string{
		"PROJECT_TREE\n(empty)",
		"OPEN_TABS\n(none)",
		"TERMINAL_TAIL\n(empty)",
		"FILE_SUMMARIES\n(none)",
		"DIFFS\n(empty)",
		"HEAVY_SNAPSHOTS\n(none)",
		"AST_IMPACT\n(none)",
		"TEST_CHANGES\n(none)",
		"- languages: []",
		"- branch_hints: []",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in prompt", want)
		}
	}
	if !strings.HasSuffix(out, TaskBlock) {
		t.Fatalf("prompt must end with the task block")
	}
}

func TestRenderContent(t *testing.T) {
	c := emptyContext()
	c.ProjectTree = []string{"└─ api/ [Modified]", "   └─ handler.go [Modified]"}
	c.OpenTabs = []session.Tab{{Path: "api/handler.go", Language: "go", Dirty: true}}
	c.FileSummaries = []diff.FileSummary{diff.Summarize("api/handler.go", "+fix nil pointer")}
	c.Diffs = "diff --git a/api/handler.go b/api/handler.go\n+fix nil pointer"
	c.HeavySnapshots = []collect.Snapshot{{Path: "api/handler.go", Hunks: 3, Content: "package api", Truncated: true}}

	out := Render(c, nil)
	for _, want := range []string{
		"PROJECT_TREE\n└─ api/ [Modified]\n   └─ handler.go [Modified]\n\n",
		"OPEN_TABS\n- api/handler.go (go) [unsaved]",
		`"intent_guess": "bugfix"`,
		"DIFFS\ndiff --git a/api/handler.go",
		"### api/handler.go (3 hunks)\npackage api\n...",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in prompt:\n%s", want, out)
		}
	}
}

func TestRenderRespectsBudget(t *testing.T) {
	c := emptyContext()
	c.Diffs = strings.Repeat("+added line\n", 5000)
	c.TerminalTail = []string{strings.Repeat("x", 3000)}

	unbounded := Render(c, nil)
	budget := NewBudget(4000)
	out := Render(c, budget)

	if len(out) > 4000 {
		t.Fatalf("prompt is %d bytes, budget 4000", len(out))
	}
	if len(out) != budget.Used() {
		t.Fatalf("budget accounted %d bytes, prompt is %d", budget.Used(), len(out))
	}
	if len(out) >= len(unbounded) {
		t.Fatalf("budget did not shrink the prompt")
	}
	if !strings.Contains(out, TruncatedMarker) {
		t.Fatalf("expected a truncation marker")
	}
	for _, title := range Sections {
		if !strings.Contains(out, title+"\n") {
			t.Fatalf("header %s dropped under budget", title)
		}
	}
	if !strings.HasSuffix(out, TaskBlock) {
		t.Fatalf("task block dropped under budget")
	}
}

func TestBudgetClip(t *testing.T) {
	b := NewBudget(30)
	if got := b.Clip("0123456789"); got != "0123456789" || b.Remaining() != 20 {
		t.Fatalf("unexpected clip %q remaining %d", got, b.Remaining())
	}
	if got := b.Clip("this body is far too long"); got != "this bod"+TruncatedMarker || b.Remaining() != 0 {
		t.Fatalf("unexpected clip %q remaining %d", got, b.Remaining())
	}
	if got := b.Clip("more"); got != "" {
		t.Fatalf("exhausted budget should drop the body, got %q", got)
	}
	if b.Used() != 30 {
		t.Fatalf("used %d, want 30", b.Used())
	}
}

func TestBudgetClipKeepsRunes(t *testing.T) {
	b := NewBudget(len(TruncatedMarker) + 2)
	if got := b.Clip("hééééééééé"); got != "h"+TruncatedMarker {
		t.Fatalf("expected cut on a rune boundary, got %q", got)
	}
}

func TestBudgetUnbounded(t *testing.T) {
	b := NewBudget(0)
	body := strings.Repeat("x", 1<<16)
	if got := b.Clip(body); got != body || b.Remaining() != -1 {
		t.Fatalf("unbounded budget clipped the body")
	}
}

func TestRenderPRTruncates(t *testing.T) {
	pr := &collect.PRContext{
		Base:    "origin/main",
		Head:    "feature/login",
		Commits: []string{"feat: add login", "fix: handle #12"},
		Issues:  []string{"#12"},
		Patches: []collect.PRPatch{
			{Path: "a.go", Patch: strings.Repeat("a", 60)},
			{Path: "a.go", Patch: strings.Repeat("z", 60)},
			{Path: "b.go", Patch: strings.Repeat("b", 60)},
		},
	}
	out := RenderPR(pr, 100)
	if !strings.Contains(out, "(diff truncated at 100 bytes)") {
		t.Fatalf("expected truncation note:\n%s", out)
	}
	if strings.Contains(out, "zzz") {
		t.Fatalf("duplicate path rendered twice")
	}
	if !strings.Contains(out, "- feat: add login\n- fix: handle #12") || !strings.Contains(out, "LINKED_ISSUES\n#12") {
		t.Fatalf("commits or issues missing:\n%s", out)
	}
	if !strings.HasSuffix(out, PRTaskBlock) {
		t.Fatalf("missing task block")
	}

	full := RenderPR(pr, 0)
	if strings.Contains(full, "diff truncated") || !strings.Contains(full, strings.Repeat("b", 60)) {
		t.Fatalf("unbounded render should include every patch")
	}
}

func TestRenderPRTruncatesOnRuneBoundary(t *testing.T) {
	pr := &collect.PRContext{
		Base:    "main",
		Head:    "docs",
		Patches: []collect.PRPatch{{Path: "README.md", Patch: "+" + strings.Repeat("é", 20)}},
	}
	out := RenderPR(pr, 4)
	if !utf8.ValidString(out) {
		t.Fatalf("patch cut inside a rune:\n%q", out)
	}
	if !strings.Contains(out, "DIFFS\n+é\n(diff truncated at 4 bytes)") {
		t.Fatalf("unexpected truncation:\n%s", out)
	}
}

func TestRenderPREmpty(t *testing.T) {
	out := RenderPR(&collect.PRContext{Base: "main", Head: "topic"}, 1000)
	if !strings.Contains(out, "COMMITS\n(none)") || !strings.Contains(out, "DIFFS\n(empty)") {
		t.Fatalf("unexpected empty render:\n%s", out)
	}
}

func TestSystem(t *testing.T) {
	if got := System(SystemPrompt, "", "auto"); got != SystemPrompt {
		t.Fatalf("auto language should not change the prompt")
	}
	if got := System(SystemPrompt, "custom", ""); got != "custom" {
		t.Fatalf("override ignored: %q", got)
	}
	if got := System(SystemPrompt, "", "German"); !strings.HasSuffix(got, "in German.") {
		t.Fatalf("language line missing: %q", got)
	}
}
