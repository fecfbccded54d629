package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cratescope/internal/rustfmt"
)

var checkCmd = &cobra.Command{
	Use:   "check <path|->",
	Short: "Check that Rust source parses",
	Long:  `Check reads a file (or stdin for "-") and reports the first syntax error.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		if err := rustfmt.Validate(source); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

var fmtCmd = &cobra.Command{
	Use:   "fmt <path|->",
	Short: "Validate and format Rust source with rustfmt",
	Long: `Fmt validates the source, then pipes it through the rustfmt binary named in
format.rustfmt_path and writes the result to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dirArg(nil)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(dir)
		if err != nil {
			return err
		}

		source, err := readSource(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		formatted, err := rustfmt.New(cfg.Format.RustfmtPath, cfg.Format.Edition).ValidateAndFormat(cmd.Context(), source)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(formatted)
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fmtCmd)
}

// readSource reads path, or stdin when path is "-".
func readSource(stdin io.Reader, path string) ([]byte, error) {
	var (
		source []byte
		err    error
	)
	if path == "-" {
		source, err = io.ReadAll(stdin)
	} else {
		source, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return source, nil
}
