package diff

import (
	"regexp"
	"strings"

	"github.com/johnstilia/commitscope/pkg/git"
)

// Intent is a coarse guess at why a file changed.
type Intent string

const (
	IntentBugfix   Intent = "bugfix"
	IntentPerf     Intent = "perf"
	IntentRefactor Intent = "refactor"
	IntentStyle    Intent = "style"
	IntentUnknown  Intent = "unknown"
)

// MaxSymbols bounds the symbols reported per file.
const MaxSymbols = 10

// FileSummary is the heuristic description of one file's change.
type FileSummary struct {
	Path           string   `json:"path"`
	ChangeKind     string   `json:"change_kind"`
	SymbolsChanged []string `json:"symbols_changed"`
	HighLevel      string   `json:"high_level"`
	IntentGuess    Intent   `json:"intent_guess"`
	Risk           string   `json:"risk"`
}

// Ordered: the first matching group wins.
var intentRules = []struct {
	intent Intent
	re     *regexp.Regexp
}{
	{IntentBugfix, regexp.MustCompile(`n\+1|bug|fix|issue|error|exception`)},
	{IntentPerf, regexp.MustCompile(`perf|cache|latency|optimi[sz]e|memo`)},
	{IntentRefactor, regexp.MustCompile(`refactor|cleanup|rename`)},
	{IntentStyle, regexp.MustCompile(`style|format|whitespace`)},
}

var highLevel = map[Intent]string{
	IntentBugfix:   "potential bug fix indicators detected",
	IntentPerf:     "performance-oriented change",
	IntentRefactor: "structural refactor indications",
	IntentStyle:    "formatting adjustments",
	IntentUnknown:  "auto-summary unavailable",
}

// DetectIntent scans the lowercased diff text for intent keywords.
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		if rule.re.MatchString(lower) {
			return rule.intent
		}
	}
	return IntentUnknown
}

var (
	functionDecl = regexp.MustCompile(`function\s+([\w$]+)`)
	classDecl    = regexp.MustCompile(`class\s+([\w$]+)`)
	callWithBody = regexp.MustCompile(`([\w$]+)\s*\([^)]*\)\s*\{`)
)

// ExtractSymbols guesses identifiers touched by the added and removed lines.
// It is a pattern heuristic, not a parser: it misses symbols and reports
// keywords such as "if" when they look like a call followed by a brace.
func ExtractSymbols(text string) []string {
	var symbols []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] || len(symbols) >= MaxSymbols {
			return
		}
		seen[name] = true
		symbols = append(symbols, name)
	}

	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "-") {
			continue
		}
		stripped := line[1:]
		if m := functionDecl.FindStringSubmatch(stripped); m != nil {
			add(m[1])
		}
		if m := classDecl.FindStringSubmatch(stripped); m != nil {
			add(m[1])
		}
		if m := callWithBody.FindStringSubmatch(stripped); m != nil && len(m[1]) <= 40 {
			add(m[1])
		}
	}
	if symbols == nil {
		symbols = []string{}
	}
	return symbols
}

// Summarize derives a FileSummary from one file's diff. token is the path as
// reported by name-status, "old -> new" for renames.
func Summarize(token, text string) FileSummary {
	kind := "modified"
	if strings.Contains(token, " -> ") {
		kind = "renamed"
	}
	intent := DetectIntent(text)
	risk := "unknown"
	if intent == IntentBugfix {
		risk = "medium"
	}
	return FileSummary{
		Path:           token,
		ChangeKind:     kind,
		SymbolsChanged: ExtractSymbols(text),
		HighLevel:      highLevel[intent],
		IntentGuess:    intent,
		Risk:           risk,
	}
}

// TestChange notes a staged change to a test or spec file.
type TestChange struct {
	Path   string `json:"path"`
	Change string `json:"change"`
}

var testPath = regexp.MustCompile(`(?i)test|spec`)

// DetectTestChanges picks the test-looking entries from a name-status listing.
func DetectTestChanges(entries []git.NameStatus) []TestChange {
	changes := []TestChange{}
	for _, e := range entries {
		if testPath.MatchString(e.Path) {
			changes = append(changes, TestChange{Path: e.Path, Change: "status=" + e.Code})
		}
	}
	return changes
}
