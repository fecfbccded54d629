package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/cratescope/internal/model"
	"github.com/mvp-joe/cratescope/internal/modgraph"
)

var modulesFormat string

var modulesCmd = &cobra.Command{
	Use:   "modules [dir]",
	Short: "Show the module hierarchy of a crate",
	Long: `Modules extracts the crate and prints its module tree with the number of
records declared directly in each module. Use --format json or yaml for a
machine-readable list ordered parents first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := dirArg(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(root)
		if err != nil {
			return err
		}

		result, err := extractCrate(cmd.Context(), afero.NewOsFs(), root, cfg, nil, slog.Default())
		if err != nil {
			return err
		}
		g, err := modgraph.Build(result.Crate)
		if err != nil {
			return err
		}

		if modulesFormat == "" || modulesFormat == "tree" {
			return printModuleTree(cmd.OutOrStdout(), result.Crate.Name, g)
		}
		modules, err := g.Modules()
		if err != nil {
			return err
		}
		return encode(cmd.OutOrStdout(), modulesFormat, modules)
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
	modulesCmd.Flags().StringVarP(&modulesFormat, "format", "f", "tree", "output format: tree, json or yaml")
}

// printModuleTree writes the hierarchy depth first, children sorted.
func printModuleTree(w io.Writer, crateName string, g *modgraph.Graph) error {
	modules, err := g.Modules()
	if err != nil {
		return err
	}
	byPath := make(map[string]*modgraph.Module, len(modules))
	for _, m := range modules {
		byPath[m.Path] = m
	}

	var walk func(path string) error
	walk = func(path string) error {
		m := byPath[path]
		name := crateName
		if path != modgraph.RootPath {
			name = path[strings.LastIndex(path, ":")+1:]
		}
		fmt.Fprintf(w, "%s%s%s\n", strings.Repeat("  ", m.Depth), name, describeCounts(m.Counts))

		children, err := g.Children(path)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(modgraph.RootPath)
}

// describeCounts renders non-zero counts in AllKinds order, e.g. " (function: 2, struct: 1)".
func describeCounts(counts map[model.Kind]int) string {
	var parts []string
	for _, kind := range model.AllKinds {
		if n := counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", kind, n))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
