package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/saiuns/create-autofe-app/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬ ┬┌┬┐┌─┐┌─┐┌─┐
  ├─┤│ │ │ │ │├┤ ├┤
  ┴ ┴└─┘ ┴ └─┘└  └─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "autofe",
		Short: "Zero-configuration front-end toolchain",
		Long: `autofe wraps an external module bundler with a zero-configuration
development workflow.

Running autofe without a subcommand starts the development server,
or performs a one-shot production compile when NODE_ENV=production.

  • Dev server with live reload
  • Proxy support for external APIs
  • Static asset serving alongside compiled output
  • Configured entirely through autofe.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The bare command follows the conventional bundler contract:
			// NODE_ENV selects between a one-shot compile and the dev loop.
			if os.Getenv("NODE_ENV") == "production" {
				return runBuild("")
			}
			return runDev(0, "", false)
		},
	}

	rootCmd.AddCommand(
		devCmd(),
		buildCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the autofe ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("%s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, args...))
}
