// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the anthology-harvester CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the anthology-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "anthology-harvester",
	Short: "Bulk-download conference paper PDFs from the ACL Anthology",
	Long: `anthology-harvester renders an ACL Anthology event page in a real browser,
extracts every paper entry carrying a pdf badge, and downloads the PDFs one
by one through a paced, resumable loop. Each run writes a meta.json index
mapping file identifiers to paper titles.

Each stage is a subcommand: fetch downloads an event's papers, catalog
queries and exports past runs, and merge binds a download directory into a
single volume PDF.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./anthology-harvester.yaml or ~/.config/anthology-harvester/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("anthology-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "anthology-harvester"))
		}
	}

	viper.SetEnvPrefix("ANTHOLOGY_HARVESTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
