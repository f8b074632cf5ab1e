package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/toolprint/justparse/internal/config"
	"github.com/toolprint/justparse/internal/pipeline"
)

var depsCmd = &cobra.Command{
	Use:   "deps <recipe>",
	Short: "List the dependencies of a recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunDeps(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(depsCmd)
}

func RunDeps(w io.Writer, name string) error {
	paths, err := discoverJustfiles()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no justfile found in current directory")
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	orch := pipeline.New(cfg.Pipeline())
	recipes, err := orch.ParseFile(paths[0])
	if err != nil {
		return fmt.Errorf("parsing %s: %w", paths[0], err)
	}

	known := map[string]bool{}
	for _, r := range recipes {
		known[r.Name] = true
	}

	var found bool
	for _, r := range recipes {
		if r.Name != name {
			continue
		}
		found = true
		if len(r.Dependencies) == 0 {
			fmt.Fprintf(w, "no dependencies for %s\n", name)
			return nil
		}
		for _, d := range r.Dependencies {
			line := "  " + describeDependency(d)
			if !known[d.Name] {
				line += " (missing)"
			}
			fmt.Fprintln(w, line)
		}
		return nil
	}

	if !found {
		return fmt.Errorf("recipe %s not found in %s", name, paths[0])
	}
	return nil
}
