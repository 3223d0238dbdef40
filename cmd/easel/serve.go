package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/easel-dev/easel"
	"github.com/easel-dev/easel/internal/errors"
)

func serveCmd() *cobra.Command {
	var (
		port        int
		host        string
		openBrowser bool
		liveReload  bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "easel [dir]",
		Short: "Serve a directory over HTTP for local development",
		Long: `Easel serves a directory over plain HTTP on localhost so a
browser-based prototype runs without a build step.

Files are served one request at a time with development-friendly
content types: .ts is served as text/javascript and .js/.mjs as
application/javascript, so ES modules load no matter what the host
platform thinks of those extensions.

With no directory argument, easel serves the directory containing
the easel binary itself.

Examples:
  easel
  easel ./www
  easel --port=3000 --live ./www`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runServe(dir, port, host, openBrowser, liveReload, verbose)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", easel.DefaultPort, "Port to listen on")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default all interfaces)")
	cmd.Flags().BoolVar(&openBrowser, "open", true, "Open the browser on start")
	cmd.Flags().BoolVar(&liveReload, "live", false, "Reload connected browsers on file change")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")

	return cmd
}

func runServe(dir string, port int, host string, openBrowser, liveReload, verbose bool) error {
	if port < 1 || port > 65535 {
		return errors.New("E120").WithDetailf("got %d", port)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := easel.DefaultConfig()
	cfg.Port = port
	cfg.Host = host
	cfg.Root = dir
	cfg.OpenBrowser = openBrowser
	cfg.LiveReload = liveReload
	cfg.Logger = logger

	srv := easel.New(cfg)

	// Bind before printing anything: a dead port should fail loudly, not
	// after a banner claiming the server is up.
	if err := srv.Bind(); err != nil {
		return err
	}

	printBanner()
	fmt.Println()
	success("Serving %s", srv.Root())
	info("Local:   %s", srv.URL())
	if liveReload {
		info("Reload:  watching for file changes")
	}
	info("Press Ctrl-C to stop")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println()
		info("Shutting down...")
		cancel()
	}()

	if err := srv.Serve(ctx); err != nil {
		return err
	}

	success("Server stopped")
	return nil
}
