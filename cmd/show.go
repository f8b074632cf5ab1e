package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolprint/justparse/internal/config"
	"github.com/toolprint/justparse/internal/db"
	"github.com/toolprint/justparse/internal/parser"
	"github.com/toolprint/justparse/internal/pipeline"
	"github.com/toolprint/justparse/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <recipe>",
	Short: "Show a cataloged recipe in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunShow(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func RunShow(w io.Writer, name string) error {
	if _, err := os.Stat(".justparse"); os.IsNotExist(err) {
		return fmt.Errorf("run `justparse init` first")
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer sqlDB.Close()

	var filePath string
	err = sqlDB.QueryRow(`
		SELECT f.file_path
		FROM recipes r
		JOIN files f ON r.file_id = f.id
		WHERE r.name = ?
		ORDER BY r.id
		LIMIT 1
	`, name).Scan(&filePath)
	if err != nil {
		return fmt.Errorf("recipe %s not found", name)
	}

	// Re-parse the source so the detail view reflects the file on disk.
	orch := pipeline.New(cfg.Pipeline())
	recipes, err := orch.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", filePath, err)
	}

	var matched *parser.RecipeInfo
	for i := range recipes {
		if recipes[i].Name == name {
			matched = &recipes[i]
			break
		}
	}
	if matched == nil {
		return fmt.Errorf("recipe %s not found in %s, run `justparse sync`", name, filePath)
	}

	printRecipe(w, matched, filePath)
	return nil
}

func printRecipe(w io.Writer, r *parser.RecipeInfo, filePath string) {
	ui.ShowHeader(w, r.Name, r.LineNumber, filePath)

	if r.Doc != "" {
		ui.ShowField(w, "doc", r.Doc)
	}
	if r.Group != "" {
		ui.ShowField(w, "group", r.Group)
	}
	if r.IsPrivate {
		ui.ShowField(w, "private", "true")
	}
	if r.ConfirmMessage != "" {
		ui.ShowField(w, "confirm", r.ConfirmMessage)
	}

	for _, p := range r.Parameters {
		ui.ShowField(w, "param", describeParameter(p))
	}
	for _, d := range r.Dependencies {
		ui.ShowField(w, "needs", describeDependency(d))
	}
	for _, a := range r.Attributes {
		ui.ShowField(w, "attr", describeAttribute(a))
	}

	if r.Body != "" {
		fmt.Fprintln(w)
		ui.ShowBody(w, r.Body)
	}
}

func describeParameter(p parser.ParameterInfo) string {
	s := p.Name
	if p.IsVariadic {
		s = "*" + s
	}
	s += " (" + string(p.Type)
	switch {
	case p.DefaultValue != nil:
		s += ", default " + *p.DefaultValue
	case p.IsRequired:
		s += ", required"
	}
	s += ")"
	if p.Description != "" {
		s += " — " + p.Description
	}
	return s
}

func describeDependency(d parser.DependencyInfo) string {
	s := d.Name
	if len(d.Arguments) > 0 {
		s += "(" + strings.Join(d.Arguments, ", ") + ")"
	}
	if d.IsConditional && d.Condition != nil {
		s += " if " + *d.Condition
	}
	return s
}

func describeAttribute(a parser.AttributeInfo) string {
	if a.IsBoolean {
		return a.Name
	}
	if a.Value != nil {
		return fmt.Sprintf("%s(%s)", a.Name, *a.Value)
	}
	return fmt.Sprintf("%s(%s)", a.Name, strings.Join(a.Arguments, ", "))
}
