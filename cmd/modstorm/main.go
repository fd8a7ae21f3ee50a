// Package main is the entry point for the Modstorm mod tooling.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/modstorm/internal/panel"
	"github.com/dshills/modstorm/internal/settings"
	"github.com/dshills/modstorm/internal/stubs"
	"github.com/dshills/modstorm/internal/workspace"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	workspacePath string
	addr          string
	settingsPath  string
	installStubs  bool
	verifyStubs   bool
	logLevel      string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()
	setupLogging(opts.logLevel)

	if opts.verifyStubs {
		if err := stubs.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("%d stub files OK\n", len(stubs.Files()))
		return 0
	}

	ws, err := workspace.Find(opts.workspacePath)
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: no %s found in or above %s\n", workspace.ManifestFile, opts.workspacePath)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}

	if opts.installStubs {
		written, err := stubs.Install(ws.Root())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Installed %d stub files into %s\n", written, ws.Root())
		return 0
	}

	flags, err := settings.New(opts.settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load settings: %v\n", err)
		return 1
	}

	if flags.Get(settings.FlagStubAutocomplete) {
		if _, err := stubs.Install(ws.Root()); err != nil {
			slog.Warn("stub install failed", "error", err)
		}
	}

	srv, err := panel.NewServer(ws, flags, panel.WithAddr(opts.addr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create panel: %v\n", err)
		return 1
	}
	defer srv.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := srv.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start panel: %v\n", err)
		return 1
	}
	fmt.Printf("Mod panel: http://%s/\n", addr)

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.workspacePath, "workspace", ".", "Mod workspace directory (searched upward for mod.txt)")
	flag.StringVar(&opts.workspacePath, "w", ".", "Mod workspace directory (shorthand)")
	flag.StringVar(&opts.addr, "addr", "127.0.0.1:0", "Panel listen address (loopback only)")
	flag.StringVar(&opts.settingsPath, "settings", settings.DefaultPath(), "Settings file path")
	flag.BoolVar(&opts.installStubs, "install-stubs", false, "Install Lua API stubs into the workspace and exit")
	flag.BoolVar(&opts.verifyStubs, "verify-stubs", false, "Verify embedded Lua API stubs and exit")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Modstorm - mod tooling for Lua-scripted games\n\n")
		fmt.Fprintf(os.Stderr, "Usage: modstorm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  modstorm                    Open the panel for the current mod\n")
		fmt.Fprintf(os.Stderr, "  modstorm -w ./mymod         Open the panel for a mod directory\n")
		fmt.Fprintf(os.Stderr, "  modstorm -install-stubs     Install API stubs for autocomplete\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Modstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	return opts
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
