package collect

import (
	"context"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/johnstilia/commitscope/pkg/apperr"
	"github.com/johnstilia/commitscope/pkg/clip"
	"github.com/johnstilia/commitscope/pkg/config"
	"github.com/johnstilia/commitscope/pkg/diff"
	"github.com/johnstilia/commitscope/pkg/git"
	"github.com/johnstilia/commitscope/pkg/session"
	"github.com/johnstilia/commitscope/pkg/tree"
)

// Source is the read side of the repository the collector queries.
// *git.Repo implements it.
type Source interface {
	RootDir() string
	NameStatus(ctx context.Context) string
	StagedDiff(ctx context.Context, contextLines int) string
	CurrentBranch(ctx context.Context) string
	RemoteURL(ctx context.Context) string
	DefaultBranchRef(ctx context.Context) string
	TrackedFiles(ctx context.Context) []string
	UntrackedFiles(ctx context.Context) []string
	Status(ctx context.Context) string
	FileHistory(ctx context.Context, path string, n int) []string
	Blame(ctx context.Context, path string, start, end int) []string
	StagedContent(ctx context.Context, path string) (string, error)
	Subjects(ctx context.Context, rangeSpec string, n int) []string
	RangeFiles(ctx context.Context, base string) []string
	RangePatch(ctx context.Context, base, path string) string
}

// Collector assembles a bounded Context from the repository and session.
type Collector struct {
	src     Source
	cfg     *config.Config
	session *session.Session
	log     zerolog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the collector's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Collector) { c.log = log }
}

// WithSession sets the session tabs and terminal output are read from and
// the collected context is recorded into.
func WithSession(s *session.Session) Option {
	return func(c *Collector) { c.session = s }
}

// New creates a collector over src bounded by cfg's context caps.
func New(src Source, cfg *config.Config, opts ...Option) *Collector {
	c := &Collector{src: src, cfg: cfg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == nil {
		c.session = session.New(cfg.Context.MaxTerminalLines)
	}
	return c
}

// raw holds the results of the concurrent git queries.
type raw struct {
	nameStatus   string
	unified      string
	unifiedZero  string
	branch       string
	remoteURL    string
	defaultRef   string
	tracked      []string
	untracked    []string
	statusOutput string
}

func (c *Collector) fetch(ctx context.Context) (*raw, error) {
	r := &raw{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { r.nameStatus = c.src.NameStatus(gctx); return nil })
	g.Go(func() error { r.unified = c.src.StagedDiff(gctx, 3); return nil })
	g.Go(func() error { r.unifiedZero = c.src.StagedDiff(gctx, 0); return nil })
	g.Go(func() error { r.branch = c.src.CurrentBranch(gctx); return nil })
	g.Go(func() error { r.remoteURL = c.src.RemoteURL(gctx); return nil })
	g.Go(func() error { r.defaultRef = c.src.DefaultBranchRef(gctx); return nil })
	g.Go(func() error { r.tracked = c.src.TrackedFiles(gctx); return nil })
	g.Go(func() error { r.untracked = c.src.UntrackedFiles(gctx); return nil })
	g.Go(func() error { r.statusOutput = c.src.Status(gctx); return nil })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Cancelled(err)
	}
	return r, nil
}

// Collect gathers the staged change and its surroundings.
func (c *Collector) Collect(ctx context.Context) (*Context, error) {
	r, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	lim := c.cfg.Context

	unified, truncated := clip.Within(r.unified, lim.MaxPatchBytes)
	unifiedZero, _ := clip.Within(r.unifiedZero, lim.MaxPatchBytes)

	files := diff.ParseByFile(unified)
	files.Filter(c.keep)
	files.CapBlocks(lim.MaxFilePatchBytes)

	nameStatus := git.ParseNameStatus(r.nameStatus)
	tokens := make(map[string]string, len(nameStatus))
	for _, ns := range nameStatus {
		tokens[ns.Path] = ns.Token()
	}

	tracked := git.NormalizePaths(r.tracked)
	currentBranch := orDefault(r.branch, "HEAD")

	out := &Context{
		RepoMeta: RepoMeta{
			RepoName:          repoName(r.remoteURL, c.src.RootDir()),
			DefaultBranch:     defaultBranch(r.defaultRef),
			CurrentBranch:     currentBranch,
			Languages:         git.Languages(tracked),
			CommitConvention:  "Conventional Commits",
			ServiceMap:        git.ServiceMap(tracked),
			NarrativeLanguage: orDefault(lim.Language, "auto"),
		},
		IntentSignals: IntentSignals{
			BranchHints:          BranchHints(currentBranch),
			RecentTestFailures:   []string{},
			LinterTypeErrors:     []string{},
			RelatedIssuesSummary: []string{},
		},
		ASTImpact: ASTImpact{
			PublicEndpointsChanged: []string{},
			BreakingCandidates:     []string{},
		},
		RoutesSchemaChanges: []string{},
		DBSchemaChanges:     []string{},
		TestChanges:         diff.DetectTestChanges(nameStatus),
		Diffs:               files.String(),
		DiffTruncated:       truncated,
	}

	out.FileSummaries = make([]diff.FileSummary, 0, files.Len())
	for _, b := range files.Blocks() {
		token := b.Path
		if t, ok := tokens[b.Path]; ok {
			token = t
		}
		out.FileSummaries = append(out.FileSummaries, diff.Summarize(token, b.Text))
	}

	out.IntentSignals.PreviousCommits = c.history(ctx, files.Paths())

	hunks := diff.ParseHunks(unifiedZero)
	kept := hunks[:0]
	for _, fh := range hunks {
		if c.keep(fh.File) {
			kept = append(kept, fh)
		}
	}
	out.HeavySnapshots = c.snapshots(ctx, kept)
	out.BlameContext = c.blame(ctx, kept, added(nameStatus))

	out.OpenTabs = c.tabs()
	out.TerminalTail = c.session.TerminalTail(lim.MaxTerminalLines)

	status := git.ParsePorcelain(r.statusOutput)
	out.ProjectTree = tree.Build(tree.FileSet{
		Tracked:   tracked,
		Untracked: git.NormalizePaths(r.untracked),
		Status:    status.Lookup(),
		FullTree:  lim.FullTree,
	}, lim.MaxTreeEntries)

	if err := ctx.Err(); err != nil {
		return nil, apperr.Cancelled(err)
	}

	c.log.Debug().
		Int("files", files.Len()).
		Int("heavy", len(out.HeavySnapshots)).
		Int("blame", len(out.BlameContext)).
		Int("tree_lines", len(out.ProjectTree)).
		Bool("diff_truncated", truncated).
		Msg("context collected")

	c.session.RecordContext(out)
	return out, nil
}

// keep reports whether p passes the include and ignore globs.
func (c *Collector) keep(p string) bool {
	return MatchGlobs(p, c.cfg.Context.IncludeGlobs, c.cfg.Context.IgnoreGlobs)
}

// MatchGlobs reports whether p matches at least one include pattern (or
// include is empty) and no ignore pattern. Invalid patterns never match.
func MatchGlobs(p string, include, ignore []string) bool {
	if len(include) > 0 {
		matched := false
		for _, pattern := range include {
			if ok, _ := doublestar.Match(pattern, p); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pattern := range ignore {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return false
		}
	}
	return true
}

func (c *Collector) history(ctx context.Context, paths []string) []string {
	limit := c.cfg.Context.MaxPreviousCommits
	entries := []string{}
	if limit <= 0 {
		return entries
	}
	seen := make(map[string]bool)
	for _, p := range paths {
		for _, line := range c.src.FileHistory(ctx, p, 3) {
			if seen[line] {
				continue
			}
			seen[line] = true
			entries = append(entries, line)
			if len(entries) >= limit {
				return entries
			}
		}
	}
	return entries
}

func (c *Collector) snapshots(ctx context.Context, hunks []diff.FileHunks) []Snapshot {
	lim := c.cfg.Context
	snaps := []Snapshot{}
	if lim.HeavyDiffMaxFiles <= 0 {
		return snaps
	}
	for _, fh := range hunks {
		if len(fh.Hunks) < lim.HeavyDiffMinHunks {
			continue
		}
		content, err := c.src.StagedContent(ctx, fh.File)
		if err != nil {
			c.log.Debug().Err(err).Str("path", fh.File).Msg("skipping heavy snapshot")
			continue
		}
		if strings.IndexByte(content, 0) >= 0 {
			continue
		}
		content, truncated := capLines(content, lim.HeavyDiffMaxLines)
		snaps = append(snaps, Snapshot{
			Path:      fh.File,
			Hunks:     len(fh.Hunks),
			Content:   content,
			Truncated: truncated,
		})
		if len(snaps) >= lim.HeavyDiffMaxFiles {
			break
		}
	}
	return snaps
}

func (c *Collector) blame(ctx context.Context, hunks []diff.FileHunks, skip map[string]bool) []Blame {
	limit := c.cfg.Context.MaxBlameHunks
	out := []Blame{}
	if limit <= 0 {
		return out
	}
	for _, fh := range hunks {
		if skip[fh.File] {
			continue
		}
		for _, h := range fh.Hunks {
			start := h.Start - 2
			if start < 1 {
				start = 1
			}
			end := h.Start + max1(h.Count) + 2
			lines := c.src.Blame(ctx, fh.File, start, end)
			if len(lines) == 0 {
				continue
			}
			out = append(out, Blame{Path: fh.File, Hunk: h.Header, BlameLines: lines})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

func (c *Collector) tabs() []session.Tab {
	tabs := c.session.Tabs()
	if limit := c.cfg.Context.MaxOpenTabs; len(tabs) > limit {
		tabs = tabs[:limit]
	}
	out := make([]session.Tab, 0, len(tabs))
	for _, t := range tabs {
		if t.Language == "" {
			t.Language = git.Language(t.Path)
		}
		out = append(out, t)
	}
	return out
}

// added returns the paths that are new in the index; they have no blame.
func added(entries []git.NameStatus) map[string]bool {
	m := make(map[string]bool)
	for _, e := range entries {
		if strings.HasPrefix(e.Code, "A") {
			m[e.Path] = true
		}
	}
	return m
}

var (
	digitRun = regexp.MustCompile(`\d+`)
	ticketID = regexp.MustCompile(`[A-Z]+-\d+`)
)

// BranchHints extracts commit types, numbers and ticket ids from a branch
// name, deduplicated in discovery order.
func BranchHints(branch string) []string {
	hints := []string{}
	seen := make(map[string]bool)
	add := func(h string) {
		if !seen[h] {
			seen[h] = true
			hints = append(hints, h)
		}
	}
	lowered := strings.ToLower(branch)
	for _, t := range CommitTypes {
		if strings.Contains(lowered, t) {
			add(t)
		}
	}
	for _, m := range digitRun.FindAllString(branch, -1) {
		add(m)
	}
	for _, m := range ticketID.FindAllString(branch, -1) {
		add(m)
	}
	return hints
}

func repoName(remoteURL, root string) string {
	if remoteURL != "" {
		return path.Base(strings.TrimSuffix(remoteURL, ".git"))
	}
	return filepath.Base(root)
}

func defaultBranch(ref string) string {
	if ref == "" {
		return "main"
	}
	return ref[strings.LastIndex(ref, "/")+1:]
}

func capLines(s string, limit int) (string, bool) {
	lines := strings.Split(s, "\n")
	if limit <= 0 || len(lines) <= limit {
		return s, false
	}
	return strings.Join(lines[:limit], "\n"), true
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
