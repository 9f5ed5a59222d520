// Package commands defines the blueprint CLI.
package commands

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blueprint",
		Short: "Dataverse solution blueprint generator",
		Long: color.CyanString(`Blueprint - Dataverse solution documentation

Blueprint pulls the metadata of one or more Dataverse solutions,
reconciles it into a single model, and renders:
  • A Mermaid entity relationship diagram with ownership coloring
  • Per-event automation execution pipelines
  • Solution distribution and dependency analysis
  • Markdown and JSON exports`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewGenerateCommand())

	return rootCmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("blueprint %s\n", Version)
			fmt.Printf("  commit:     %s\n", GitCommit)
			fmt.Printf("  built:      %s\n", BuildDate)
			fmt.Printf("  go version: %s\n", runtime.Version())
		},
	}
}
