// Copyright Peter L. Morrell, 2026. All rights reserved.

// Package main is the entry point for the pubmed-expand CLI: seed-driven
// discovery and ranking of PubMed articles related to a curated list.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pmorrell/Plant-Selection/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds NCBI credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the named secret.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the pubmed-expand CLI.
var rootCmd = &cobra.Command{
	Use:   "pubmed-expand",
	Short: "Find new papers similar to a curated PubMed seed set",
	Long: `pubmed-expand walks the PubMed related-articles graph outward from a curated
seed list, scores each discovered paper by how many seeds link to it, filters
candidates by title/abstract content and publication type, and writes
confidence-ranked candidate lists.

The expand subcommand runs the whole pipeline from a YAML run file; cache
inspects the on-disk elink result cache reused across runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pubmed-expand.yaml or ~/.config/pubmed-expand/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubmed-expand")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubmed-expand"))
		}
	}

	viper.SetEnvPrefix("PUBMED_EXPAND")
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
