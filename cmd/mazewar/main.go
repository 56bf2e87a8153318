// Command mazewar runs the concurrent maze-combat game server:
// mazewar -p <port> [-t <template_path>] [-c <config.yaml>].
//
// Grounded on the teacher's cmd/gameserver/main.go: context.WithCancel
// plus os/signal.Notify for graceful shutdown, log/slog text handler,
// run(ctx) error split out from main for testability, exit code 1 on
// any startup or lifecycle error.
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

	"github.com/FardinIqbal/concurrent-network-game-server/internal/config"
	"github.com/FardinIqbal/concurrent-network-game-server/internal/gameserver"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	slog.Info("mazewar starting",
		"port", cfg.Port,
		"view_depth", cfg.ViewDepth,
		"purgatory", cfg.Purgatory,
		"rows", len(cfg.TemplateRows))

	srv, err := gameserver.New(gameserver.Config{
		Port:          cfg.Port,
		TemplateRows:  cfg.TemplateRows,
		ViewDepth:     cfg.ViewDepth,
		Purgatory:     cfg.Purgatory,
		SendQueueSize: cfg.SendQueueSize,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}
