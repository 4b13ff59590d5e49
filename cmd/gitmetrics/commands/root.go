// Package commands implements the gitmetrics CLI's cobra command tree.
//
// Grounded on the teacher's cmd/codefang/commands/history.go for the
// command-construction idiom (a struct holding flag-bound fields, a
// NewXCommand constructor wiring cobra.Command{Use, Short, Long, RunE},
// flags registered through cmd.Flags(), package-level sentinel errors for
// RunE failures) and cmd/codefang/main.go for the root command shape
// (SilenceUsage/SilenceErrors, persistent verbose/quiet flags, a version
// subcommand).
package commands

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

// NewRootCommand builds the gitmetrics root command and attaches every
// subcommand.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gitmetrics",
		Short: "Collect commit-history metrics from a git repository",
		Long: `gitmetrics walks a git repository's commit history and evaluates a
configured set of metric collectors against it, caching results per
(collector, commit) so repeat runs only compute what changed.

Commands:
  collect   Clone/fetch, walk history, and collect configured metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if quiet {
				color.Output = io.Discard
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	root.AddCommand(NewCollectCommand())
	root.AddCommand(versionCommand())

	return root
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("gitmetrics (development build)")
		},
	}
}
