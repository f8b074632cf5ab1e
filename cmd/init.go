package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolprint/justparse/internal/config"
	"github.com/toolprint/justparse/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize justparse in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func RunInit(w io.Writer) error {
	// .justparse/ directory
	_, err := os.Stat(".justparse")
	dirExists := err == nil
	if err := os.MkdirAll(".justparse", 0o755); err != nil {
		return fmt.Errorf("creating .justparse directory: %w", err)
	}
	if dirExists {
		fmt.Fprintln(w, ".justparse/ already exists")
	} else {
		fmt.Fprintln(w, ".justparse/ created")
	}

	// catalog database
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	_, err = os.Stat(cfg.Catalog)
	dbExists := err == nil
	sqlDB, err := db.Open(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	sqlDB.Close()
	if dbExists {
		fmt.Fprintf(w, "%s already exists\n", cfg.Catalog)
	} else {
		fmt.Fprintf(w, "%s created\n", cfg.Catalog)
	}

	// gitignore
	msgs, err := ensureGitignore(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}

	return nil
}

func ensureGitignore(entry string) ([]string, error) {
	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		if err := os.WriteFile(".gitignore", []byte(entry+"\n"), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", entry + " added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == entry {
			return []string{entry + " already in .gitignore"}, nil
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{entry + " added to .gitignore"}, nil
}
