package watcher

import "context"

// FileWatcher monitors crate sources for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching, calling callback with debounced, sorted file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// BuildFunc rebuilds the crate model. changed is empty for the initial build.
type BuildFunc func(ctx context.Context, changed []string) error
