// Package gameserver implements the per-connection client service
// routine and the overall server lifecycle: accept, register, serve,
// and drain on shutdown.
//
// Grounded on the teacher's gameserver.Server: acceptLoop/handleConnection
// split, golang.org/x/sync/errgroup tying the accept loop to the
// lifecycle context, log/slog structured logging at every connection
// event.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FardinIqbal/concurrent-network-game-server/internal/maze"
	"github.com/FardinIqbal/concurrent-network-game-server/internal/player"
	"github.com/FardinIqbal/concurrent-network-game-server/internal/registry"
)

// Server owns the maze, player table, and client registry, and runs
// the TCP accept loop that feeds them. Construction order is registry,
// then maze, then player table, all three built together here since
// none depends on the others' runtime state, only their construction
// order.
type Server struct {
	cfg Config

	mz  *maze.Maze
	tbl *player.Table
	reg *registry.Registry

	listener net.Listener
}

// Config is the subset of config.Config the server needs to run.
// Kept separate from the config package to avoid an import cycle
// (config loads the maze template; the server consumes it).
type Config struct {
	Port          int
	TemplateRows  []string
	ViewDepth     int
	Purgatory     time.Duration
	SendQueueSize int
}

// New constructs a Server with a fresh client registry, maze, and player
// table, built in that order.
func New(cfg Config) (*Server, error) {
	reg := registry.New()

	mz, err := maze.New(cfg.TemplateRows)
	if err != nil {
		return nil, fmt.Errorf("gameserver: building maze: %w", err)
	}

	tbl := player.NewTable(mz, player.Config{
		ViewDepth: cfg.ViewDepth,
		Purgatory: cfg.Purgatory,
	})

	return &Server{
		cfg: cfg,
		mz:  mz,
		tbl: tbl,
		reg: reg,
	}, nil
}

// Run listens on cfg.Port, serves connections until ctx is canceled,
// then performs the teardown sequence: close the listener, shut down
// every registered connection's read side, and wait for every service
// routine to drain before returning.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("gameserver: listening on %s: %w", addr, err)
	}
	s.listener = ln

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		slog.Info("mazewar server started", "address", ln.Addr())
		return acceptLoop(gctx, s, ln)
	})

	err = g.Wait()

	s.reg.ShutdownAll()
	s.reg.WaitForEmpty()
	slog.Info("mazewar server stopped")

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func acceptLoop(ctx context.Context, s *Server, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			slog.Error("accept failed", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}
