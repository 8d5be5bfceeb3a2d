// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the telescan CLI.
// Implements: prd001-retrieval, prd002-analysis, prd003-llm-measures,
//             prd004-reporting, prd005-conversion, prd006-store (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/telescan/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the telescan CLI.
var rootCmd = &cobra.Command{
	Use:   "telescan",
	Short: "Telehealth literature scanning and measure extraction",
	Long: `telescan builds a corpus of telehealth research articles and extracts
utilization measures from them. The pipeline runs in stages: fetch queries
PubMed and Europe PMC for article metadata, acquire downloads open-access
PDFs, convert turns PDFs into plain text, analyze builds per-article
metadata records, measures runs LLM-assisted measure extraction, report
aggregates the corpus, and store indexes it for full-text search.

Each stage is a subcommand; stages read the previous stage's output from
the articles/ and data/ trees, so they compose into scripted workflows.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./telescan.yaml or ~/.config/telescan/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("telescan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "telescan"))
		}
	}

	viper.SetEnvPrefix("TELESCAN")
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
