package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/johnstilia/commitscope/pkg/collect"
)

const (
	// Empty marks a text section with no content.
	Empty = "(empty)"
	// None marks a list section with no entries.
	None = "(none)"
)

const intro = "Analyse the following repository context and staged diffs to infer intent and produce a commit message.\n\n"

// TaskBlock closes every commit prompt.
const TaskBlock = "Generate JSON: {type, scope, subject, body, breaking_change, issues, rationale}."

// Section titles in render order.
var Sections = []string{
	"REPO_META",
	"INTENT_SIGNALS",
	"PROJECT_TREE",
	"OPEN_TABS",
	"TERMINAL_TAIL",
	"FILE_SUMMARIES",
	"DIFFS",
	"HEAVY_SNAPSHOTS",
	"BLAME_CONTEXT",
	"AST_IMPACT",
	"ROUTES_SCHEMA_CHANGES",
	"DB_SCHEMA_CHANGES",
	"TEST_CHANGES",
}

// Render turns the collected context into the user prompt. Every section is
// always present; sections are filled in order until the budget runs out.
// A nil budget is unbounded.
func Render(c *collect.Context, budget *Budget) string {
	if budget == nil {
		budget = NewBudget(0)
	}
	bodies := sectionBodies(c)

	budget.Reserve(intro)
	budget.Reserve(TaskBlock)
	for _, title := range Sections {
		budget.Reserve(title + "\n")
		budget.Reserve("\n\n")
	}

	var sb strings.Builder
	sb.WriteString(intro)
	for i, title := range Sections {
		sb.WriteString(title + "\n")
		sb.WriteString(budget.Clip(bodies[i]))
		sb.WriteString("\n\n")
	}
	sb.WriteString(TaskBlock)
	return sb.String()
}

func sectionBodies(c *collect.Context) []string {
	meta := c.RepoMeta
	intent := c.IntentSignals
	return []string{
		strings.Join([]string{
			"- repo_name: " + meta.RepoName,
			"- default_branch: " + meta.DefaultBranch,
			"- current_branch: " + meta.CurrentBranch,
			"- languages: " + compact(meta.Languages),
			"- commit_convention: " + meta.CommitConvention,
			"- service_map: " + compact(meta.ServiceMap),
			"- narrative_language: " + meta.NarrativeLanguage,
		}, "\n"),
		strings.Join([]string{
			"- branch_hints: " + compact(intent.BranchHints),
			"- recent_test_failures: " + compact(intent.RecentTestFailures),
			"- linter_type_errors: " + compact(intent.LinterTypeErrors),
			"- related_issues: " + compact(intent.RelatedIssuesSummary),
			"- previous_commits_touching_same_symbols: " + compact(intent.PreviousCommits),
		}, "\n"),
		lines(c.ProjectTree, Empty),
		openTabs(c),
		lines(c.TerminalTail, Empty),
		indented(len(c.FileSummaries), c.FileSummaries),
		text(c.Diffs),
		snapshots(c.HeavySnapshots),
		indented(len(c.BlameContext), c.BlameContext),
		indented(len(c.ASTImpact.PublicEndpointsChanged)+len(c.ASTImpact.BreakingCandidates), c.ASTImpact),
		indented(len(c.RoutesSchemaChanges), c.RoutesSchemaChanges),
		indented(len(c.DBSchemaChanges), c.DBSchemaChanges),
		indented(len(c.TestChanges), c.TestChanges),
	}
}

func openTabs(c *collect.Context) string {
	if len(c.OpenTabs) == 0 {
		return None
	}
	out := make([]string, 0, len(c.OpenTabs))
	for _, t := range c.OpenTabs {
		line := "- " + t.Path
		if t.Language != "" {
			line += " (" + t.Language + ")"
		}
		if t.Dirty {
			line += " [unsaved]"
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func snapshots(snaps []collect.Snapshot) string {
	if len(snaps) == 0 {
		return None
	}
	var sb strings.Builder
	for i, s := range snaps {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "### %s (%d hunks)\n%s", s.Path, s.Hunks, s.Content)
		if s.Truncated {
			sb.WriteString("\n...")
		}
	}
	return sb.String()
}

func lines(ls []string, placeholder string) string {
	if len(ls) == 0 {
		return placeholder
	}
	return strings.Join(ls, "\n")
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return Empty
	}
	return s
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}

func indented(n int, v any) string {
	if n == 0 {
		return None
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return None
	}
	return string(data)
}
