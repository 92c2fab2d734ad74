package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saiuns/create-autofe-app/internal/compiler"
	"github.com/saiuns/create-autofe-app/internal/config"
)

func buildCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile for production",
		Long: `Run the configured bundler once, to completion, for production.

No server is started and no watches are attached. A failed compile
prints the bundler output and exits non-zero.

Examples:
  autofe build
  autofe build --output=dist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from autofe.json)")

	return cmd
}

func runBuild(output string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	if output != "" {
		cfg.Bundler.Output = output
	}

	fmt.Println("  Creating a production build...")
	fmt.Println()

	comp := compiler.NewExec(compiler.Options{
		ProjectDir: cfg.Dir(),
		Command:    cfg.Bundler.Command,
		Args:       cfg.Bundler.Args,
		Env:        []string{"NODE_ENV=production"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	stats, err := comp.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(stats.Report(false))
	fmt.Println()
	success("Build complete in %s", stats.Duration().Round(1000000))
	info("Output: %s/", cfg.Bundler.Output)

	return nil
}
