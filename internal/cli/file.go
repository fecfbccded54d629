package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var fileFormat string

var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Extract the public interface of a single .rs file",
	Long: `Extract one file. The model is named after the file stem and carries no
features. Unlike crate extraction, a read or syntax error fails the command.`,
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
		if cmd.Flags().Changed("format") {
			cfg.Output.Format = fileFormat
		}

		c, err := newExtractor(cfg).ExtractFile(afero.NewOsFs(), args[0])
		if err != nil {
			return err
		}
		return encode(cmd.OutOrStdout(), cfg.Output.Format, c)
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
	fileCmd.Flags().StringVarP(&fileFormat, "format", "f", "", "output format: json or yaml")
}
