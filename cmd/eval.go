package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolprint/justparse/internal/config"
	"github.com/toolprint/justparse/internal/pipeline"
)

var (
	varFlags    []string
	lenientFlag bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <text>",
	Short: "Evaluate {{...}} interpolations in a string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunEval(cmd.OutOrStdout(), args[0], varFlags, lenientFlag)
	},
}

func init() {
	evalCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Variable binding in k=v form (repeatable)")
	evalCmd.Flags().BoolVar(&lenientFlag, "lenient", false, "Leave unknown variables unresolved")
	rootCmd.AddCommand(evalCmd)
}

func RunEval(w io.Writer, text string, bindings []string, lenient bool) error {
	vars := map[string]string{}
	for _, b := range bindings {
		k, v, ok := strings.Cut(b, "=")
		if !ok {
			return fmt.Errorf("invalid --var %q, expected k=v", b)
		}
		vars[k] = v
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	orch := pipeline.New(cfg.Pipeline())
	out, err := orch.EvaluateInterpolations(text, vars, lenient)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}
