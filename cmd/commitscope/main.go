package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/johnstilia/commitscope/pkg/apperr"
)

// Flags that are used across commands
var (
	configPath string
	logLevel   string
	logFormat  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "commitscope",
	Short: "Context-aware AI commit message generator",
	Long: `commitscope reads the staged changes of a git working copy together with
the surrounding context (branch, history, blame, open files, terminal output),
asks a language model for a Conventional Commit message and hands it back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Generating is the default command when none is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file (default: ~/.commitscoperc)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info, or debug when ai.debug is set)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")

	// Generate flags are also accepted by the root command
	addGenerateFlags(rootCmd)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(prCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(showLastCmd)
	rootCmd.AddCommand(versionCmd)
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	// Cancellation has already been logged; it is not reported as an error.
	if !apperr.IsCancelled(err) {
		fmt.Fprintf(os.Stderr, "\033[1;31m❌ %v\033[0m\n", err)
	}
	return apperr.ExitCode(err)
}

func main() {
	os.Exit(run())
}
