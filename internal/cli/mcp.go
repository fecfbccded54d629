package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/cratescope/internal/mcp"
	"github.com/mvp-joe/cratescope/internal/storage"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server exposing crate extraction tools",
	Long: `Start a Model Context Protocol server on stdio. Tools:

  extract_crate     model of a crate directory
  extract_file      model of one .rs file
  check_rust        syntax check of source text
  snapshot_summary  stored snapshot counts (requires storage.db_path)
  find_item         declaring modules of a stored record (requires storage.db_path)

Logs go to stderr; stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dirArg(nil)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(dir)
		if err != nil {
			return err
		}

		deps := mcp.Deps{
			Fs:           afero.NewOsFs(),
			Extractor:    newExtractor(cfg),
			CrateOptions: crateOptions(cfg),
			Logger:       slog.Default(),
		}

		if cfg.Storage.DBPath != "" {
			db, err := storage.Open(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			deps.Snapshots = storage.NewReader(db)
		}

		fmt.Fprintf(os.Stderr, "Cratescope MCP Server %s\n", Version)
		return mcp.NewServer(Version, deps).Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
