package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/toolprint/justparse/internal/config"
	"github.com/toolprint/justparse/internal/db"
	"github.com/toolprint/justparse/internal/parser"
	"github.com/toolprint/justparse/internal/pipeline"
	"github.com/toolprint/justparse/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scan the current directory for justfiles and refresh the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSync(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

// discoverJustfiles returns the justfiles in the current directory, sorted.
func discoverJustfiles() ([]string, error) {
	seen := map[string]bool{}
	var paths []string
	for _, name := range []string{"justfile", "Justfile", ".justfile"} {
		if _, err := os.Stat(name); err == nil && !seen[name] {
			seen[name] = true
			paths = append(paths, name)
		}
	}
	matches, err := filepath.Glob("*.just")
	if err != nil {
		return nil, fmt.Errorf("scanning for justfiles: %w", err)
	}
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func RunSync(w io.Writer) error {
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

	orch := pipeline.New(cfg.Pipeline())

	paths, err := discoverJustfiles()
	if err != nil {
		return err
	}

	files, total := 0, 0
	for _, path := range paths {
		recipes, err := orch.ParseFile(path)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}

		var fileID int64
		err = sqlDB.QueryRow(`SELECT id FROM files WHERE file_path = ?`, path).Scan(&fileID)
		if err == sql.ErrNoRows {
			res, err := sqlDB.Exec(`INSERT INTO files (file_path) VALUES (?)`, path)
			if err != nil {
				return fmt.Errorf("inserting %s: %w", path, err)
			}
			fileID, err = res.LastInsertId()
			if err != nil {
				return fmt.Errorf("inserting %s: %w", path, err)
			}
			ui.NewLine(w, path)
		} else if err != nil {
			return fmt.Errorf("querying %s: %w", path, err)
		} else {
			if _, err := sqlDB.Exec(`UPDATE files SET updated_at = datetime('now') WHERE id = ?`, fileID); err != nil {
				return fmt.Errorf("updating %s: %w", path, err)
			}
			ui.TrkLine(w, path)
		}

		if err := replaceRecipes(sqlDB, fileID, recipes); err != nil {
			return fmt.Errorf("storing recipes for %s: %w", path, err)
		}

		files++
		total += len(recipes)
	}

	ui.SummaryLine(w, files, total)
	return nil
}

// replaceRecipes swaps the catalog rows for one file inside a transaction.
func replaceRecipes(sqlDB *sql.DB, fileID int64, recipes []parser.RecipeInfo) error {
	tx, err := sqlDB.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM parameters WHERE recipe_id IN (SELECT id FROM recipes WHERE file_id = ?)`, fileID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`DELETE FROM recipes WHERE file_id = ?`, fileID); err != nil {
		tx.Rollback()
		return err
	}

	for _, r := range recipes {
		res, err := tx.Exec(
			`INSERT INTO recipes (file_id, name, line_number, private, group_name, doc, body) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fileID, r.Name, r.LineNumber, r.IsPrivate, r.Group, r.Doc, r.Body,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
		recipeID, err := res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return err
		}
		for _, p := range r.Parameters {
			_, err := tx.Exec(
				`INSERT INTO parameters (recipe_id, name, position, default_value, param_type, required, variadic) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				recipeID, p.Name, p.Position, p.DefaultValue, string(p.Type), p.IsRequired, p.IsVariadic,
			)
			if err != nil {
				tx.Rollback()
				return err
			}
		}
	}

	return tx.Commit()
}
