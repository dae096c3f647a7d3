package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/geobot/app"
	"github.com/m3rciful/geobot/app/adapters/airports"
	"github.com/m3rciful/geobot/core/bootstrap"
	corecmd "github.com/m3rciful/geobot/core/cmd"
	coredatabase "github.com/m3rciful/geobot/core/database"
	"github.com/m3rciful/geobot/core/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and seed the airport directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		flagPath, _ := cmd.Flags().GetString("config")
		seed, _ := cmd.Flags().GetBool("seed")

		path, err := corecmd.ResolveConfigPath(runnerOptions(flagPath))
		if err != nil {
			return err
		}
		cfg, err := app.LoadConfig(path)
		if err != nil {
			return err
		}
		if !cfg.Database.Configured() {
			return fmt.Errorf("migrate: database.host is not configured")
		}
		if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
			return err
		}
		defer func() { _ = logger.Shutdown() }()

		if err := coredatabase.RunMigrations(cmd.Context(), cfg.Database); err != nil {
			return err
		}
		if !seed {
			return nil
		}
		db, err := coredatabase.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return bootstrap.Seed(cmd.Context(), db, airports.SeedFile(cfg.Airports.SeedFile))
	},
}

func init() {
	migrateCmd.Flags().Bool("seed", true, "upsert airports from airports.seed_file after migrating")
	rootCmd.AddCommand(migrateCmd)
}
