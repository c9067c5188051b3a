package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Runner executes git with the given arguments inside root and returns stdout.
type Runner interface {
	Run(ctx context.Context, root string, args ...string) (string, error)
}

// ExecRunner runs the git binary.
type ExecRunner struct {
	GitBin string
}

// NewExecRunner returns a runner for gitBin, defaulting to "git".
func NewExecRunner(gitBin string) *ExecRunner {
	if strings.TrimSpace(gitBin) == "" {
		gitBin = "git"
	}
	return &ExecRunner{GitBin: gitBin}
}

func (e *ExecRunner) Run(ctx context.Context, root string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, e.GitBin, args...)
	if strings.TrimSpace(root) != "" {
		cmd.Dir = root
	}
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errb.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), redactTokens(msg))
	}
	return out.String(), nil
}

var (
	credentialURL = regexp.MustCompile(`https?://[^\s@]+@`)
	secretParam   = regexp.MustCompile(`(?i)(token|secret|password|passwd|bearer)=[^\s]+`)
)

// redactTokens removes obvious credential substrings from messages.
func redactTokens(s string) string {
	s = credentialURL.ReplaceAllString(s, "https://<redacted>@")
	return secretParam.ReplaceAllString(s, "$1=<redacted>")
}

// Repo is a working copy queried through a Runner.
type Repo struct {
	Root   string
	runner Runner
	log    zerolog.Logger
}

// Option configures a Repo.
type Option func(*Repo)

// WithLogger sets the logger used for best-effort query warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Repo) { r.log = log }
}

// WithRunner replaces the default exec runner.
func WithRunner(runner Runner) Option {
	return func(r *Repo) { r.runner = runner }
}

// Open resolves the top level of the working copy containing dir.
func Open(ctx context.Context, dir string, opts ...Option) (*Repo, error) {
	r := &Repo{runner: NewExecRunner(""), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	out, err := r.runner.Run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return nil, errors.New("git rev-parse returned no top level")
	}
	r.Root = root
	return r, nil
}

// RootDir returns the top level of the working copy.
func (r *Repo) RootDir() string { return r.Root }

// Query runs a read-only git command. Failures are logged as warnings and
// yield "", since every caller treats missing data as a valid empty result.
// Trailing whitespace is trimmed.
func (r *Repo) Query(ctx context.Context, args ...string) string {
	out, err := r.runner.Run(ctx, r.Root, args...)
	if err != nil {
		r.log.Warn().Err(err).Msg("git query failed")
		return ""
	}
	return strings.TrimRight(out, " \t\r\n")
}

// Lines is Query split into non-empty lines.
func (r *Repo) Lines(ctx context.Context, args ...string) []string {
	return splitLines(r.Query(ctx, args...))
}

// NameStatus returns the staged name-status listing.
func (r *Repo) NameStatus(ctx context.Context) string {
	return r.Query(ctx, "diff", "--name-status", "--cached", "--find-renames", "--relative")
}

// StagedDiff returns the staged unified diff with the given context lines.
func (r *Repo) StagedDiff(ctx context.Context, contextLines int) string {
	return r.Query(ctx, "diff", "--staged", "--find-renames", fmt.Sprintf("--unified=%d", contextLines))
}

// CurrentBranch returns the abbreviated HEAD ref.
func (r *Repo) CurrentBranch(ctx context.Context) string {
	return r.Query(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// RemoteURL returns the origin URL.
func (r *Repo) RemoteURL(ctx context.Context) string {
	return r.Query(ctx, "remote", "get-url", "origin")
}

// DefaultBranchRef returns the symbolic ref of origin/HEAD.
func (r *Repo) DefaultBranchRef(ctx context.Context) string {
	return r.Query(ctx, "symbolic-ref", "refs/remotes/origin/HEAD")
}

// TrackedFiles lists the files in the index.
func (r *Repo) TrackedFiles(ctx context.Context) []string {
	return r.Lines(ctx, "ls-files")
}

// UntrackedFiles lists untracked files not excluded by ignore rules.
func (r *Repo) UntrackedFiles(ctx context.Context) []string {
	return r.Lines(ctx, "ls-files", "--others", "--exclude-standard")
}

// Status returns raw NUL-separated porcelain v1 status.
func (r *Repo) Status(ctx context.Context) string {
	out, err := r.runner.Run(ctx, r.Root, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		r.log.Warn().Err(err).Msg("git status failed")
		return ""
	}
	return out
}

// FileHistory returns up to n "<hash> <subject>" lines touching path.
func (r *Repo) FileHistory(ctx context.Context, path string, n int) []string {
	return r.Lines(ctx, "log", "--pretty=%h %s", "-n", fmt.Sprint(n), "--", path)
}

// Subjects returns commit subjects in rangeSpec, newest first, at most n.
func (r *Repo) Subjects(ctx context.Context, rangeSpec string, n int) []string {
	return r.Lines(ctx, "log", "--pretty=%s", "-n", fmt.Sprint(n), rangeSpec)
}

// RangeFiles lists the files changed between base and HEAD.
func (r *Repo) RangeFiles(ctx context.Context, base string) []string {
	return r.Lines(ctx, "diff", "--name-only", base+"...HEAD")
}

// RangePatch returns the patch of one file between base and HEAD.
func (r *Repo) RangePatch(ctx context.Context, base, path string) string {
	return r.Query(ctx, "diff", base+"...HEAD", "--", path)
}

// Blame returns blame lines start..end of path.
func (r *Repo) Blame(ctx context.Context, path string, start, end int) []string {
	return r.Lines(ctx, "blame", "-L", fmt.Sprintf("%d,%d", start, end), "--", path)
}

// StagedContent returns the staged blob of path, falling back to the working
// copy file when the blob is unavailable (e.g. intent-to-add).
func (r *Repo) StagedContent(ctx context.Context, path string) (string, error) {
	out, err := r.runner.Run(ctx, r.Root, "show", ":"+path)
	if err == nil {
		return out, nil
	}
	data, ferr := os.ReadFile(filepath.Join(r.Root, filepath.FromSlash(path)))
	if ferr != nil {
		return "", fmt.Errorf("read %s: %w", path, errors.Join(err, ferr))
	}
	return string(data), nil
}

// StageAll stages every change in the working tree.
func (r *Repo) StageAll(ctx context.Context) error {
	_, err := r.runner.Run(ctx, r.Root, "add", "--all")
	return err
}

// Commit creates a new commit with the given message
func (r *Repo) Commit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("commit message cannot be empty")
	}

	// Write commit message to temporary file
	tmpFile, err := os.CreateTemp("", "commitscope-msg-")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(message); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	_, err = r.runner.Run(ctx, r.Root, "commit", "-F", tmpFile.Name())
	return err
}

// WriteCommitMessage writes message to the repository's COMMIT_EDITMSG so the
// next `git commit` opens with it.
func (r *Repo) WriteCommitMessage(ctx context.Context, message string) (string, error) {
	rel := r.Query(ctx, "rev-parse", "--git-path", "COMMIT_EDITMSG")
	if rel == "" {
		return "", errors.New("cannot resolve COMMIT_EDITMSG")
	}
	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.Root, path)
	}
	return path, os.WriteFile(path, []byte(message+"\n"), 0o644)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
