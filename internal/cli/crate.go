package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/cratescope/internal/config"
	"github.com/mvp-joe/cratescope/internal/crate"
	"github.com/mvp-joe/cratescope/internal/extract"
	"github.com/mvp-joe/cratescope/internal/storage"
)

// crateFlags are the extraction overrides shared by crate and watch.
type crateFlags struct {
	format  string
	output  string
	workers int
	dbPath  string
	nested  bool
	quiet   bool
}

var crateOpts crateFlags

var crateCmd = &cobra.Command{
	Use:   "crate [dir]",
	Short: "Extract the public interface of a crate",
	Long: `Extract walks a crate's source tree and writes its public-interface model.

Files that cannot be read or parsed are skipped and reported on stderr; the
command still succeeds with the records of every other file.

Examples:
  # Model of the crate in the current directory, as JSON on stdout
  cratescope crate

  # YAML into a file, and persist a snapshot
  cratescope crate ./my-crate --format yaml --output model.yaml --db model.db
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrate,
}

func init() {
	rootCmd.AddCommand(crateCmd)
	addCrateFlags(crateCmd, &crateOpts)
}

func addCrateFlags(cmd *cobra.Command, f *crateFlags) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: json or yaml")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "concurrent file visitors")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "persist a snapshot to this SQLite database")
	cmd.Flags().BoolVar(&f.nested, "nested-module-paths", false, "include inline mod names in module paths")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "disable progress output")
}

// apply overrides cfg with the flags the user set. Relative paths from the
// config file are resolved against the crate root.
func (f *crateFlags) apply(cmd *cobra.Command, cfg *config.Config, root string) error {
	flags := cmd.Flags()

	if cfg.Output.Path != "" && !filepath.IsAbs(cfg.Output.Path) {
		cfg.Output.Path = filepath.Join(root, cfg.Output.Path)
	}
	if cfg.Storage.DBPath != "" && !filepath.IsAbs(cfg.Storage.DBPath) {
		cfg.Storage.DBPath = filepath.Join(root, cfg.Storage.DBPath)
	}

	if flags.Changed("format") {
		cfg.Output.Format = f.format
	}
	if flags.Changed("output") {
		cfg.Output.Path = f.output
	}
	if flags.Changed("workers") {
		cfg.Extract.Workers = f.workers
	}
	if flags.Changed("db") {
		cfg.Storage.DBPath = f.dbPath
	}
	if flags.Changed("nested-module-paths") {
		cfg.Extract.NestedModulePaths = f.nested
	}

	return config.Validate(cfg)
}

func runCrate(cmd *cobra.Command, args []string) error {
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
	if err := crateOpts.apply(cmd, cfg, root); err != nil {
		return err
	}

	progress := newProgressReporter(crateOpts.quiet, cmd.ErrOrStderr())
	result, err := extractCrate(ctx, afero.NewOsFs(), root, cfg, progress, slog.Default())
	if err != nil {
		return err
	}
	progress.complete(result)

	if err := persist(ctx, cfg.Storage.DBPath, result); err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), cfg.Output.Path, cfg.Output.Format, result.Crate)
}

// newExtractor builds the file visitor for cfg.
func newExtractor(cfg *config.Config) *extract.Extractor {
	return extract.New(extract.WithNestedModulePaths(cfg.Extract.NestedModulePaths))
}

// crateOptions maps the extract section onto aggregator options.
func crateOptions(cfg *config.Config) crate.Options {
	return crate.Options{
		SourceDir:    cfg.Extract.SourceDir,
		ManifestName: cfg.Extract.Manifest,
		Workers:      cfg.Extract.Workers,
		Ignore:       cfg.Extract.Ignore,
	}
}

// extractCrate runs one full tree extraction of the crate at root.
func extractCrate(ctx context.Context, fs afero.Fs, root string, cfg *config.Config, progress *progressReporter, logger *slog.Logger) (*crate.Result, error) {
	opts := crateOptions(cfg)
	if progress != nil {
		progress.attach(&opts)
	}

	result, err := crate.NewAggregator(fs, newExtractor(cfg), opts, logger).Extract(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", root, err)
	}
	return result, nil
}

// persist stores result as the crate's snapshot when dbPath is set.
func persist(ctx context.Context, dbPath string, result *crate.Result) error {
	if dbPath == "" {
		return nil
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := storage.NewWriter(db).WriteCrate(ctx, result.Crate, storage.RunStats{
		Files:   len(result.Files),
		Skipped: len(result.Skipped),
	})
	if err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}

	slog.Debug("snapshot stored", "db", dbPath, "crate", result.Crate.Name, "run", runID)
	return nil
}
