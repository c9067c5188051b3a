package collect

import (
	"github.com/johnstilia/commitscope/pkg/diff"
	"github.com/johnstilia/commitscope/pkg/session"
)

// CommitTypes are the Conventional Commit types the model may answer with.
var CommitTypes = []string{"feat", "fix", "perf", "refactor", "style", "docs", "test", "build", "ci", "chore", "revert"}

// RepoMeta describes the repository as a whole.
type RepoMeta struct {
	RepoName          string            `json:"repo_name"`
	DefaultBranch     string            `json:"default_branch"`
	CurrentBranch     string            `json:"current_branch"`
	Languages         []string          `json:"languages"`
	CommitConvention  string            `json:"commit_convention"`
	ServiceMap        map[string]string `json:"service_map"`
	NarrativeLanguage string            `json:"narrative_language"`
}

// IntentSignals are hints about why the change was made.
type IntentSignals struct {
	BranchHints          []string `json:"branch_hints"`
	RecentTestFailures   []string `json:"recent_test_failures"`
	LinterTypeErrors     []string `json:"linter_type_errors"`
	RelatedIssuesSummary []string `json:"related_issues_summary"`
	PreviousCommits      []string `json:"previous_commits_touching_same_symbols"`
}

// ASTImpact is reserved for analyzers that understand the code; it is
// always rendered, empty.
type ASTImpact struct {
	PublicEndpointsChanged []string `json:"public_endpoints_changed"`
	BreakingCandidates     []string `json:"breaking_candidates"`
}

// Snapshot is the staged content of a file with a heavy diff.
type Snapshot struct {
	Path      string `json:"path"`
	Hunks     int    `json:"hunks"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// Blame is the blame output around one changed hunk.
type Blame struct {
	Path       string   `json:"path"`
	Hunk       string   `json:"hunk"`
	BlameLines []string `json:"blame_lines"`
}

// Context is everything the prompt is rendered from. Every list and string
// has already been bounded by the configured caps.
type Context struct {
	RepoMeta            RepoMeta           `json:"repo_meta"`
	IntentSignals       IntentSignals      `json:"intent_signals"`
	FileSummaries       []diff.FileSummary `json:"file_summaries"`
	ProjectTree         []string           `json:"project_tree"`
	OpenTabs            []session.Tab      `json:"open_tabs"`
	TerminalTail        []string           `json:"terminal_tail"`
	HeavySnapshots      []Snapshot         `json:"heavy_snapshots"`
	BlameContext        []Blame            `json:"blame_context"`
	ASTImpact           ASTImpact          `json:"ast_impact"`
	RoutesSchemaChanges []string           `json:"routes_schema_changes"`
	DBSchemaChanges     []string           `json:"db_schema_changes"`
	TestChanges         []diff.TestChange  `json:"test_changes"`
	Diffs               string             `json:"diffs"`
	DiffTruncated       bool               `json:"diff_truncated"`
}

// PRPatch is one file's patch in a pull request.
type PRPatch struct {
	Path  string `json:"path"`
	Patch string `json:"patch"`
}

// PRContext is what the pull-request description is rendered from.
type PRContext struct {
	Base    string    `json:"base"`
	Head    string    `json:"head"`
	Commits []string  `json:"commits"`
	Issues  []string  `json:"issues"`
	Patches []PRPatch `json:"patches"`
}
