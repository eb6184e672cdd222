package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nexus-capture/internal/config"
	"nexus-capture/pkg/logger"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return true
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

func main() {
	// Handle --help/--version before opening storage
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	_ = godotenv.Load()

	// Keep stdout clean for JSON; logs go to stderr at warn unless LOG_LEVEL says otherwise.
	cfg := config.NewConfig()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	container, err := config.NewContainerWithLogger(cfg, logger.NewLoggerWithWriter(os.Stderr, level, cfg.GetLogFormat()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	app := newCLIApp(container)
	err = app.RunContext(ctx, os.Args)
	stop()
	container.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
