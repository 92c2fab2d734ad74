package main

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saiuns/create-autofe-app/internal/compiler"
	"github.com/saiuns/create-autofe-app/internal/config"
	"github.com/saiuns/create-autofe-app/internal/dev"
	"github.com/saiuns/create-autofe-app/internal/errors"
	"github.com/saiuns/create-autofe-app/internal/netutil"
)

func devCmd() *cobra.Command {
	var (
		port        int
		host        string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with live reload.

The dev server runs the configured bundler in watch mode, serves the
compiled output and static assets, and refreshes connected browsers
when content changes.

Examples:
  autofe dev
  autofe dev --port=8080
  autofe dev --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host, openBrowser)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from autofe.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from autofe.json)")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser after the first compile")

	return cmd
}

func runDev(port int, host string, openBrowser bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	// Command-line overrides take priority over every config layer.
	if port > 0 {
		cfg.DevServer.Port = port
	}
	if host != "" {
		cfg.DevServer.Host = host
	}
	if openBrowser {
		open := true
		cfg.DevServer.Open = &open
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	resolved := cfg.Session()
	comp := compiler.NewExec(compiler.Options{
		ProjectDir: cfg.Dir(),
		Command:    cfg.Bundler.Command,
		Args:       cfg.Bundler.Args,
		Sources:    cfg.SourcePaths(),
		Ignore:     resolved.WatchOptions.Ignore,
		Debounce:   time.Duration(resolved.WatchOptions.DebounceMs) * time.Millisecond,
		Env:        []string{"NODE_ENV=development"},
	})

	session := dev.NewSession(dev.Options{
		Config: cfg,
		StartWatch: func(ctx context.Context, cb compiler.Callbacks) (dev.Stopper, error) {
			return comp.Watch(ctx, cb)
		},
		OnReady: func(u netutil.URLs) {
			printURLs(u)
			if resolved.Open {
				openURL(browserTarget(u.LocalURLForBrowser, resolved.OpenPage))
			}
		},
		OnStats: func(report string) {
			info(report)
		},
		OnCompileError: func(err error) {
			errors.PrintError(err)
		},
	})

	go dev.NewShutdownCoordinator(session).Listen()

	return session.Start(context.Background())
}

// printURLs prints the resolved URL block, shown once after the first
// successful compile.
func printURLs(u netutil.URLs) {
	fmt.Println()
	success("App running at:")
	info("- Local:   %s", u.LocalURLForTerminal)
	if u.LanURLForTerminal != "" {
		info("- Network: %s", u.LanURLForTerminal)
	}
	fmt.Println()
	info("Note that the development build is not optimized.")
	info("To create a production build, run with NODE_ENV=production.")
	fmt.Println()
}

// browserTarget joins the browser base URL, which always ends in a
// slash, with the configured open page.
func browserTarget(base, page string) string {
	return base + strings.TrimPrefix(page, "/")
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd

	switch {
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	case commandExists("start"):
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}

	cmd.Start()
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
