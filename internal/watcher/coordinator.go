package watcher

import (
	"context"
	"log/slog"
	"time"
)

// Coordinator rebuilds the crate model once up front and again after every
// debounced batch of changes. Each rebuild is a full extraction.
type Coordinator struct {
	files  FileWatcher
	build  BuildFunc
	logger *slog.Logger
}

// NewCoordinator creates a coordinator. A nil logger uses slog.Default().
func NewCoordinator(files FileWatcher, build BuildFunc, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{files: files, build: build, logger: logger}
}

// Run performs the initial build, then watches until ctx is cancelled.
// Only a failing initial build is returned; later failures are logged and
// the next change triggers another attempt.
func (c *Coordinator) Run(ctx context.Context) error {
	defer func() {
		if err := c.files.Stop(); err != nil {
			c.logger.Warn("file watcher stop failed", "err", err)
		}
	}()

	if err := c.build(ctx, nil); err != nil {
		return err
	}

	if err := c.files.Start(ctx, func(files []string) { c.handleFileChange(ctx, files) }); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// handleFileChange pauses the watcher while the rebuild runs so changes made
// during the build are delivered as the next batch.
func (c *Coordinator) handleFileChange(ctx context.Context, files []string) {
	if len(files) == 0 || ctx.Err() != nil {
		return
	}

	c.files.Pause()
	defer c.files.Resume()

	c.logger.Info("re-extracting crate", "changed", len(files))
	start := time.Now()

	if err := c.build(ctx, files); err != nil {
		c.logger.Error("re-extraction failed", "err", err)
		return
	}

	c.logger.Info("re-extraction finished", "duration", time.Since(start).Round(time.Millisecond))
}
