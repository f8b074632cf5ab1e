package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolprint/justparse/internal/config"
	"github.com/toolprint/justparse/internal/db"
	"github.com/toolprint/justparse/internal/ui"
)

var (
	groupFlag string
	allFlag   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunList(cmd.OutOrStdout(), groupFlag, allFlag)
	},
}

func init() {
	listCmd.Flags().StringVar(&groupFlag, "group", "", "Filter by group")
	listCmd.Flags().BoolVar(&allFlag, "all", false, "Include private recipes")
	rootCmd.AddCommand(listCmd)
}

type listRow struct {
	id      int64
	name    string
	group   string
	params  string
	private bool
}

func RunList(w io.Writer, groupFilter string, all bool) error {
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

	rows, err := sqlDB.Query(`
		SELECT r.id, r.name, COALESCE(r.group_name, ''), r.private
		FROM recipes r
		JOIN files f ON r.file_id = f.id
		ORDER BY f.file_path, r.line_number, r.id
	`)
	if err != nil {
		return fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	var results []listRow
	for rows.Next() {
		var r listRow
		if err := rows.Scan(&r.id, &r.name, &r.group, &r.private); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		if groupFilter != "" && r.group != groupFilter {
			continue
		}
		if r.private && !all {
			continue
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	for i := range results {
		params, err := paramSummary(sqlDB, results[i].id)
		if err != nil {
			return err
		}
		results[i].params = params
	}

	if len(results) == 0 {
		return nil
	}

	nameWidth, groupWidth := 0, 0
	for _, r := range results {
		if len(r.name) > nameWidth {
			nameWidth = len(r.name)
		}
		if len(r.group) > groupWidth {
			groupWidth = len(r.group)
		}
	}

	for _, r := range results {
		ui.ListRow(w, r.name, r.group, r.params, r.private, nameWidth, groupWidth)
	}

	return nil
}

// paramSummary renders a recipe's parameters the way a justfile header would.
func paramSummary(sqlDB *sql.DB, recipeID int64) (string, error) {
	rows, err := sqlDB.Query(`
		SELECT name, default_value, variadic
		FROM parameters
		WHERE recipe_id = ?
		ORDER BY position
	`, recipeID)
	if err != nil {
		return "", fmt.Errorf("querying parameters: %w", err)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var name string
		var def *string
		var variadic bool
		if err := rows.Scan(&name, &def, &variadic); err != nil {
			return "", fmt.Errorf("scanning parameter: %w", err)
		}
		part := name
		if variadic {
			part = "*" + part
		}
		if def != nil {
			part += "=" + *def
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " "), rows.Err()
}
