package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mad23dog/nomad-detroit-coffee/config"
	"github.com/mad23dog/nomad-detroit-coffee/database/seeders"
	"github.com/mad23dog/nomad-detroit-coffee/internal/server"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/database"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/migration"

	// Import migrations so their init() funcs run and register themselves.
	_ "github.com/mad23dog/nomad-detroit-coffee/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nomad",
	Short: "Nomad Detroit Coffee storefront API",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := server.New()
		if err != nil {
			return err
		}
		return srv.Run()
	},
}

// bootDB loads config and opens the database for the offline commands.
func bootDB() (runner *migration.Runner, err error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	db, err := database.Open()
	if err != nil {
		return nil, err
	}
	return migration.New(db), nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := bootDB()
		if err != nil {
			return err
		}
		fmt.Println("Running migrations…")
		return runner.Run()
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := bootDB()
		if err != nil {
			return err
		}
		fmt.Println("Rolling back last batch…")
		return runner.Rollback()
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := bootDB()
		if err != nil {
			return err
		}
		entries, err := runner.Status()
		if err != nil {
			return err
		}
		for _, e := range entries {
			state := "pending"
			if e.Ran {
				state = fmt.Sprintf("batch %d", e.Batch)
			}
			fmt.Printf("%-60s %s\n", e.Name, state)
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the catalog and the admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		db, err := database.Open()
		if err != nil {
			return err
		}
		fmt.Println("Running seeders…")
		return seeders.RunAll(db)
	},
}
