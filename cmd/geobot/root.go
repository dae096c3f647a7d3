package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

var rootCmd = &cobra.Command{
	Use:   "geobot",
	Short: "Telegram bot for maps, news, weather and flights",
	Long: `geobot guides a user through a dialogue that resolves a city and then
shows its map, local news, weather and flight schedules.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to the YAML config (default $CONFIG_PATH or "+defaultConfigPath+")")
}
