package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cratescope/internal/model"
	"github.com/mvp-joe/cratescope/internal/storage"
)

var (
	summaryDB     string
	summaryFormat string
)

var summaryCmd = &cobra.Command{
	Use:   "summary [crate]",
	Short: "Summarize stored snapshots",
	Long: `Summary reads a snapshot database written by "crate --db". Without a crate
name it lists the stored crates.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := summaryDB
		if dbPath == "" {
			dir, err := dirArg(nil)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(dir)
			if err != nil {
				return err
			}
			dbPath = cfg.Storage.DBPath
		}
		if dbPath == "" {
			return errors.New("no database: pass --db or set storage.db_path")
		}

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		reader := storage.NewReader(db)

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			crates, err := reader.Crates(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range crates {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		s, err := reader.Summary(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if summaryFormat != "" && summaryFormat != "text" {
			return encode(out, summaryFormat, s)
		}
		printSummary(out, s)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryDB, "db", "", "snapshot database (default storage.db_path)")
	summaryCmd.Flags().StringVarP(&summaryFormat, "format", "f", "text", "output format: text, json or yaml")
}

func printSummary(w io.Writer, s *storage.Summary) {
	fmt.Fprintf(w, "%s (run %s, %s)\n", s.CrateName, s.RunID, s.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  files: %s, skipped: %s\n", formatNumber(s.Files), formatNumber(s.Skipped))
	for _, kind := range model.AllKinds {
		fmt.Fprintf(w, "  %-20s %s\n", kind+":", formatNumber(s.Counts[kind]))
	}
	fmt.Fprintf(w, "  features: %v (default %v)\n", s.AvailableFeatures, s.DefaultFeatures)
}
