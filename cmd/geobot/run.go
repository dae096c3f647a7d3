package main

import (
	"github.com/spf13/cobra"

	"github.com/m3rciful/geobot/app"
	corecmd "github.com/m3rciful/geobot/core/cmd"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		return corecmd.Run(runnerOptions(path))
	},
}

func runnerOptions(path string) corecmd.Options {
	return corecmd.Options{
		ConfigPath:        path,
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(p string) (corecmd.ConfigCarrier, error) {
			cfg, err := app.LoadConfig(p)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			a, err := app.Bootstrap(cfg.(*app.Config))
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}
