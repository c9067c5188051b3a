package collect

import (
	"context"
	"regexp"
	"strings"

	"github.com/johnstilia/commitscope/pkg/apperr"
)

var issueRef = regexp.MustCompile(`#\d+|\b[A-Z][A-Z0-9]+-\d+\b`)

// CollectPR gathers the commits and per-file patches between base and HEAD.
// An empty base falls back to pr.base_branch, then to origin's default branch.
func (c *Collector) CollectPR(ctx context.Context, base string) (*PRContext, error) {
	if base == "" {
		base = c.cfg.PR.BaseBranch
	}
	if base == "" {
		ref := c.src.DefaultBranchRef(ctx)
		if ref == "" {
			base = "origin/main"
		} else {
			base = strings.TrimPrefix(ref, "refs/remotes/")
		}
	}

	pr := &PRContext{
		Base:    base,
		Head:    orDefault(c.src.CurrentBranch(ctx), "HEAD"),
		Commits: c.src.Subjects(ctx, base+"..HEAD", c.cfg.PR.MaxCommits),
		Patches: []PRPatch{},
	}
	if pr.Commits == nil {
		pr.Commits = []string{}
	}
	pr.Issues = Issues(append([]string{pr.Head}, pr.Commits...))

	seen := make(map[string]bool)
	for _, p := range c.src.RangeFiles(ctx, base) {
		if seen[p] || !c.keep(p) {
			continue
		}
		seen[p] = true
		if patch := c.src.RangePatch(ctx, base, p); patch != "" {
			pr.Patches = append(pr.Patches, PRPatch{Path: p, Patch: patch})
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, apperr.Cancelled(err)
	}
	c.log.Debug().Str("base", base).Int("commits", len(pr.Commits)).Int("files", len(pr.Patches)).Msg("pull request context collected")
	return pr, nil
}

// Issues returns the issue references ("#12", "ABC-123") found in texts,
// deduplicated in discovery order.
func Issues(texts []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, t := range texts {
		for _, m := range issueRef.FindAllString(t, -1) {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}
