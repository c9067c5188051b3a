package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/johnstilia/commitscope/pkg/ai"
	"github.com/johnstilia/commitscope/pkg/apperr"
	"github.com/johnstilia/commitscope/pkg/collect"
	"github.com/johnstilia/commitscope/pkg/config"
	"github.com/johnstilia/commitscope/pkg/git"
	"github.com/johnstilia/commitscope/pkg/logging"
	"github.com/johnstilia/commitscope/pkg/session"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

// Command-specific flags
var (
	dryRun      bool
	assumeYes   bool
	doCommit    bool
	tabArgs     []string
	terminalLog string
	baseBranch  string
	force       bool
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a commit message for the staged changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		repo, err := openRepo(ctx, log)
		if err != nil {
			return err
		}

		sess := session.New(cfg.Context.MaxTerminalLines)
		if err := loadSession(sess, repo.RootDir()); err != nil {
			return err
		}
		defer saveLast(sess, log)

		ui := newTerminalUI(cmd.InOrStdin(), out)
		ui.header(repo.CurrentBranch(ctx), git.ParsePorcelain(repo.Status(ctx)))

		var confirm ai.Confirmer = ui
		if assumeYes {
			confirm = ai.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
		}
		wc := &workingCopy{repo: repo, mode: outputMode(), confirm: confirm, ui: ui}

		collector := collect.New(repo, cfg, collect.WithLogger(log), collect.WithSession(sess))
		gen := ai.NewGenerator(cfg, collector, wc,
			ai.WithLogger(log),
			ai.WithSession(sess),
			ai.WithConfirmer(confirm),
			ai.WithObserver(ui.progress),
		)

		res, err := gen.Generate(ctx)
		if err != nil {
			return err
		}
		if res.Truncated {
			ui.note("Context was truncated to fit the prompt budget")
		}
		return nil
	},
}

// prCmd represents the pr command
var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Generate a pull request title and description for the current branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		repo, err := openRepo(ctx, log)
		if err != nil {
			return err
		}

		sess := session.New(cfg.Context.MaxTerminalLines)
		defer saveLast(sess, log)

		ui := newTerminalUI(cmd.InOrStdin(), cmd.OutOrStdout())
		collector := collect.New(repo, cfg, collect.WithLogger(log), collect.WithSession(sess))
		gen := ai.NewGenerator(cfg, collector, nil,
			ai.WithLogger(log),
			ai.WithSession(sess),
			ai.WithObserver(ui.progress),
		)

		res, err := gen.GeneratePR(ctx, baseBranch)
		if err != nil {
			return err
		}
		ui.message("Pull request", res.Message.String())
		return nil
	},
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		targetPath := configPath
		if targetPath == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return apperr.Wrap(err, apperr.ErrCodeConfigInvalid, "cannot resolve home directory")
			}
			targetPath = p
		}

		if _, err := os.Stat(targetPath); err == nil && !force {
			return apperr.ConfigInvalid(fmt.Sprintf("configuration file already exists at %s (use --force to overwrite)", targetPath))
		}
		if err := config.SaveExampleConfig(targetPath); err != nil {
			return apperr.Wrap(err, apperr.ErrCodeConfigInvalid, "cannot write configuration file")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\n\033[1;32m✓ Configuration Ready\033[0m")
		fmt.Fprintf(out, "\n  📁 File created at: \033[38;5;76m%s\033[0m\n", targetPath)
		fmt.Fprintf(out, "\n  \033[38;5;252mEdit this file to set your endpoint and model, or export %s.\033[0m\n", config.EnvAPIKey)
		return nil
	},
}

// pingCmd represents the ping command
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the endpoint accepts the configured API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		res, err := ai.Ping(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		if !res.OK() {
			return apperr.TransportFailed(res.Status, res.Head)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\033[1;32m✓ %s answered %d\033[0m\n", res.URL, res.Status)
		return nil
	},
}

// showLastCmd represents the show-last command
var showLastCmd = &cobra.Command{
	Use:   "show-last",
	Short: "Show the payload and context of the previous run",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := session.DefaultLastPath()
		last, err := session.LoadLast(path)
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ConfigInvalid("no previous run recorded at " + path)
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "◇  Last run at %s\n│\n", last.At.Format("2006-01-02 15:04:05"))
		for _, part := range []struct {
			title string
			data  json.RawMessage
		}{{"Payload", last.Payload}, {"Context", last.Context}} {
			fmt.Fprintf(out, "◇  %s:\n", part.title)
			fmt.Fprintf(out, "   %s\n│\n", strings.ReplaceAll(indentJSON(part.data), "\n", "\n   "))
		}
		return nil
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n\033[1;36mcommitscope v%s\033[0m\n", version)
		fmt.Fprintln(out, "\n  \033[38;5;252m🤖 Context-aware AI commit message generator\033[0m")
	},
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Print the commit message without writing or committing it")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask before staging everything or committing")
	cmd.Flags().BoolVar(&doCommit, "commit", false, "Create the commit instead of preparing COMMIT_EDITMSG")
	cmd.Flags().StringArrayVar(&tabArgs, "tab", nil, "File open in the editor; suffix with * when it has unsaved changes (repeatable)")
	cmd.Flags().StringVar(&terminalLog, "terminal-log", "", "File holding recent terminal output to include as context")
}

func init() {
	addGenerateFlags(generateCmd)

	prCmd.Flags().StringVar(&baseBranch, "base", "", "Base branch to compare against (default: pr.base_branch or the remote default branch)")

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration file")
}

// setup loads and validates the configuration and builds the logger.
func setup() (*config.Config, zerolog.Logger, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfigFromPath(configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, zerolog.Nop(), apperr.Wrap(err, apperr.ErrCodeConfigInvalid, "error loading configuration")
	}

	level := logLevel
	if level == "" && cfg.AI.Debug {
		level = "debug"
	}
	log := logging.New(os.Stderr, level, logFormat)

	if err := cfg.Validate(); err != nil {
		return nil, log, apperr.Wrap(err, apperr.ErrCodeConfigInvalid, "invalid configuration")
	}
	return cfg, log, nil
}

func openRepo(ctx context.Context, log zerolog.Logger) (*git.Repo, error) {
	repo, err := git.Open(ctx, ".", git.WithLogger(log))
	if err != nil {
		log.Debug().Err(err).Msg("git rev-parse failed")
		return nil, apperr.NoRepository()
	}
	return repo, nil
}

// loadSession fills the session from the --tab and --terminal-log flags.
func loadSession(sess *session.Session, root string) error {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = root
	}
	tabs := make([]session.Tab, 0, len(tabArgs))
	for _, arg := range tabArgs {
		if tab, ok := parseTab(root, cwd, arg); ok {
			tabs = append(tabs, tab)
		}
	}
	sess.SetTabs(tabs)

	if terminalLog != "" {
		data, err := os.ReadFile(terminalLog)
		if err != nil {
			return apperr.Wrap(err, apperr.ErrCodeConfigInvalid, "cannot read terminal log")
		}
		sess.AppendTerminal(string(data))
	}
	return nil
}

// parseTab turns "path" or "path*" into a tab with a repository-relative
// slash path.
func parseTab(root, cwd, arg string) (session.Tab, bool) {
	arg = strings.TrimSpace(arg)
	dirty := strings.HasSuffix(arg, "*")
	arg = strings.TrimSuffix(arg, "*")
	if arg == "" {
		return session.Tab{}, false
	}

	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		arg = rel
	}
	return session.Tab{Path: filepath.ToSlash(arg), Dirty: dirty}, true
}

func saveLast(sess *session.Session, log zerolog.Logger) {
	if sess.Last().At.IsZero() {
		return
	}
	if err := sess.SaveLast(session.DefaultLastPath()); err != nil {
		log.Warn().Err(err).Msg("cannot save last run")
	}
}

func indentJSON(data json.RawMessage) string {
	if len(data) == 0 {
		return "(none)"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

type mode int

const (
	modeEditMsg mode = iota
	modeDryRun
	modeCommit
)

func outputMode() mode {
	switch {
	case dryRun:
		return modeDryRun
	case doCommit:
		return modeCommit
	}
	return modeEditMsg
}

// workingCopy is the git working copy as the generation flow sees it. The
// message goes to stdout, COMMIT_EDITMSG or a new commit depending on mode.
type workingCopy struct {
	repo    *git.Repo
	mode    mode
	confirm ai.Confirmer
	ui      *terminalUI
}

func (w *workingCopy) Status(ctx context.Context) string { return w.repo.Status(ctx) }

func (w *workingCopy) StageAll(ctx context.Context) error {
	if err := w.repo.StageAll(ctx); err != nil {
		return err
	}
	w.ui.done("Staged all changes")
	return nil
}

func (w *workingCopy) SetCommitMessage(ctx context.Context, message string) error {
	w.ui.message("Commit message", message)

	switch w.mode {
	case modeDryRun:
		w.ui.note("Dry run completed. No commit was created.")
		return nil
	case modeCommit:
		ok, err := w.confirm.Confirm(ctx, "Use this commit message?")
		if err != nil {
			return err
		}
		if ok {
			if err := w.repo.Commit(ctx, message); err != nil {
				return err
			}
			w.ui.done("Commit created")
			return nil
		}
	}

	path, err := w.repo.WriteCommitMessage(ctx, message)
	if err != nil {
		return err
	}
	w.ui.done("Message written to " + path + "; run git commit to edit and commit it")
	return nil
}
