package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/cratescope/internal/config"
	"github.com/mvp-joe/cratescope/internal/crate"
	"github.com/mvp-joe/cratescope/internal/watcher"
)

var watchOpts crateFlags

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-extract the crate whenever its sources change",
	Long: `Watch performs a full extraction, then repeats it after every debounced
batch of changes to .rs files or Cargo.toml. Each run writes the output (and
the snapshot, with --db) again. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addCrateFlags(watchCmd, &watchOpts)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := dirArg(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := watchOpts.apply(cmd, cfg, root); err != nil {
		return err
	}

	// Ignore patterns double as directories not to watch.
	discovery, err := crate.NewFileDiscovery(afero.NewOsFs(), root, cfg.Extract.Ignore)
	if err != nil {
		return err
	}

	files, err := watcher.NewFileWatcher(root, watcher.Options{
		Debounce: cfg.Watch.Debounce(),
		SkipDir:  discovery.Ignored,
		Logger:   slog.Default(),
	})
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	build := newRebuild(afero.NewOsFs(), root, cfg, func(result *crate.Result) error {
		return writeOutput(stdout, cfg.Output.Path, cfg.Output.Format, result.Crate)
	})

	return watcher.NewCoordinator(files, build, slog.Default()).Run(ctx)
}

// newRebuild returns a build function that extracts the whole crate, stores
// the snapshot when configured, then hands the result to emit.
func newRebuild(fs afero.Fs, root string, cfg *config.Config, emit func(*crate.Result) error) watcher.BuildFunc {
	return func(ctx context.Context, changed []string) error {
		if len(changed) > 0 {
			slog.Debug("sources changed", "files", changed)
		}

		result, err := extractCrate(ctx, fs, root, cfg, nil, slog.Default())
		if err != nil {
			return err
		}
		if err := persist(ctx, cfg.Storage.DBPath, result); err != nil {
			return err
		}

		slog.Info("crate extracted",
			"crate", result.Crate.Name,
			"records", result.Crate.Total(),
			"files", len(result.Files),
			"skipped", len(result.Skipped))
		return emit(result)
	}
}
