package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/toolprint/justparse/internal/config"
	"github.com/toolprint/justparse/internal/deps"
	"github.com/toolprint/justparse/internal/parser"
	"github.com/toolprint/justparse/internal/pipeline"
	"github.com/toolprint/justparse/internal/ui"
)

var diagnosticsFlag bool

var checkCmd = &cobra.Command{
	Use:   "check [<justfile>]",
	Short: "Validate recipe dependencies and attributes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return RunCheck(cmd.OutOrStdout(), path, diagnosticsFlag)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&diagnosticsFlag, "diagnostics", false, "Print parser tier diagnostics")
	rootCmd.AddCommand(checkCmd)
}

func RunCheck(w io.Writer, path string, diagnostics bool) error {
	if path == "" {
		paths, err := discoverJustfiles()
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no justfile found in current directory")
		}
		path = paths[0]
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	orch := pipeline.New(cfg.Pipeline())
	recipes, err := orch.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	fmt.Fprintf(w, "Recipes: %d\n", len(recipes))

	issues := 0
	result := deps.ValidateAll(recipes)
	for _, cycle := range result.CircularDependencies {
		ui.Finding(w, "cycle", joinCycle(cycle))
		issues++
	}
	for _, missing := range result.MissingDependencies {
		ui.Finding(w, "missing", fmt.Sprintf("dependency %q has no matching recipe", missing))
		issues++
	}
	for _, invalid := range result.InvalidDependencies {
		ui.Finding(w, "invalid", invalid.Error())
		issues++
	}

	for _, r := range recipes {
		for _, finding := range parser.ValidateAttributes(r.Attributes) {
			ui.Finding(w, "attr", fmt.Sprintf("recipe %q: %s", r.Name, finding))
			issues++
		}
	}

	if issues == 0 {
		ui.OKLine(w, "no issues found")
	}

	if diagnostics {
		fmt.Fprintln(w)
		fmt.Fprint(w, orch.Diagnostics())
	}

	return nil
}

func joinCycle(cycle []string) string {
	s := ""
	for i, name := range cycle {
		if i > 0 {
			s += " -> "
		}
		s += name
	}
	if len(cycle) > 0 {
		s += " -> " + cycle[0]
	}
	return s
}
