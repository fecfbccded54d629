// Package crate extracts the public interface of a whole crate directory.
package crate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/cratescope/internal/extract"
	"github.com/mvp-joe/cratescope/internal/model"
)

// Options configures an Aggregator.
type Options struct {
	SourceDir    string   // Scanned when present under the root, default "src"
	ManifestName string   // Default "Cargo.toml"
	Workers      int      // Concurrent file visitors, default 1
	Ignore       []string // Glob patterns relative to the scanned directory

	// OnFileDone is called once per discovered file, possibly from several goroutines.
	// err is nil when the file contributed records.
	OnFileDone func(path string, err error)

	// OnDiscovered is called with the number of files before extraction begins.
	OnDiscovered func(total int)
}

// SkippedFile is a file whose contribution was dropped.
type SkippedFile struct {
	Path string
	Err  error
}

// Result is the outcome of a tree extraction.
type Result struct {
	Crate   *model.Crate
	Files   []string      // Files visited, in merge order
	Skipped []SkippedFile // Files that failed to read or parse
}

// SkipErr combines all skipped-file errors, or returns nil when nothing was skipped.
func (r *Result) SkipErr() error {
	var merr *multierror.Error
	for _, s := range r.Skipped {
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", s.Path, s.Err))
	}
	return merr.ErrorOrNil()
}

// Aggregator runs the file visitor over every source file of a crate and merges the results.
type Aggregator struct {
	fs        afero.Fs
	extractor *extract.Extractor
	opts      Options
	logger    *slog.Logger
}

// NewAggregator creates an Aggregator reading from fs.
func NewAggregator(fs afero.Fs, extractor *extract.Extractor, opts Options, logger *slog.Logger) *Aggregator {
	if opts.SourceDir == "" {
		opts.SourceDir = "src"
	}
	if opts.ManifestName == "" {
		opts.ManifestName = "Cargo.toml"
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = extract.New()
	}

	return &Aggregator{
		fs:        fs,
		extractor: extractor,
		opts:      opts,
		logger:    logger,
	}
}

type fileResult struct {
	items model.Items
	err   error
}

// Extract builds the model of the crate rooted at root.
//
// A file that cannot be read or parsed is skipped and listed in Result.Skipped;
// the run still succeeds. A missing or unreadable manifest yields empty feature
// lists. Only discovery failures and cancellation abort the run.
func (a *Aggregator) Extract(ctx context.Context, root string) (*Result, error) {
	manifest, found := ReadManifest(a.fs, filepath.Join(root, a.opts.ManifestName))
	crate := model.NewCrate(crateName(manifest, found, root))
	crate.AvailableFeatures = manifest.AvailableFeatures
	crate.DefaultFeatures = manifest.DefaultFeatures

	searchDir := root
	if exists, _ := afero.DirExists(a.fs, filepath.Join(root, a.opts.SourceDir)); exists {
		searchDir = filepath.Join(root, a.opts.SourceDir)
	}

	discovery, err := NewFileDiscovery(a.fs, searchDir, a.opts.Ignore)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}
	files, err := discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files in %s: %w", searchDir, err)
	}
	for _, u := range discovery.Unreadable() {
		a.logger.Warn("skipping unreadable path", "path", u.Path, "err", u.Err)
	}

	a.logger.Debug("discovered source files", "crate", crate.Name, "dir", searchDir, "files", len(files))
	if a.opts.OnDiscovered != nil {
		a.opts.OnDiscovered(len(files))
	}

	// Each worker owns one slot; slots are merged in discovery order afterwards.
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.extractFile(searchDir, path)
			if a.opts.OnFileDone != nil {
				a.opts.OnFileDone(path, results[i].err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Crate: crate, Files: files}
	for i, r := range results {
		if r.err != nil {
			a.logger.Warn("skipping file", "path", files[i], "err", r.err)
			result.Skipped = append(result.Skipped, SkippedFile{Path: files[i], Err: r.err})
			continue
		}
		crate.Extend(r.items)
	}

	return result, nil
}

func (a *Aggregator) extractFile(searchDir, path string) fileResult {
	source, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return fileResult{err: fmt.Errorf("%w: %w", extract.ErrRead, err)}
	}

	relPath, err := filepath.Rel(searchDir, path)
	if err != nil {
		relPath = path
	}

	items, err := a.extractor.ExtractSource(path, source, extract.ModulePath(relPath))
	return fileResult{items: items, err: err}
}
