package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"booknotes/db"
	"booknotes/internal/app"
	"booknotes/internal/config"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the booknotes database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		gooseCmd("up", "Apply all pending migrations"),
		gooseCmd("down", "Roll back the most recent migration"),
		gooseCmd("status", "Show applied and pending migrations"),
		gooseCmd("version", "Print the current schema version"),
		createCmd(),
	)
	return root
}

func gooseCmd(command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGoose(cmd.Context(), command)
		},
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Write a new empty SQL migration into the migrations directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnvFiles()
			goose.SetBaseFS(nil)
			if err := goose.Create(nil, migrationsDir(), args[0], "sql"); err != nil {
				return fmt.Errorf("create migration: %w", err)
			}
			return nil
		},
	}
}

// migrationsDir is where create writes new files; the other commands read
// the migrations embedded in the binary.
func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("db", db.MigrationsDir)
}

func runGoose(ctx context.Context, command string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := app.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return db.Run(ctx, pool, command)
}
