// Package mcp exposes crate extraction as read-only MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"

	"github.com/mvp-joe/cratescope/internal/crate"
	"github.com/mvp-joe/cratescope/internal/extract"
	"github.com/mvp-joe/cratescope/internal/storage"
)

const serverName = "cratescope"

// Deps are the collaborators the tools run against.
type Deps struct {
	Fs        afero.Fs
	Extractor *extract.Extractor
	// Crate options used for extract_crate; Workers and Ignore matter most.
	CrateOptions crate.Options
	// Snapshots enables the snapshot tools when non-nil.
	Snapshots *storage.Reader
	Logger    *slog.Logger
}

// Server manages the MCP server lifecycle.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger
}

// NewServer registers every tool and returns a server ready to serve.
func NewServer(version string, deps Deps) *Server {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
	)

	AddExtractCrateTool(s, deps)
	AddExtractFileTool(s, deps)
	AddCheckRustTool(s)
	if deps.Snapshots != nil {
		AddSnapshotSummaryTool(s, deps.Snapshots)
		AddFindItemTool(s, deps.Snapshots)
	}

	return &Server{mcp: s, logger: deps.Logger}
}

// Serve serves on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
