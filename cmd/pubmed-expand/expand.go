package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pmorrell/Plant-Selection/internal/cache"
	"github.com/pmorrell/Plant-Selection/internal/entrez"
	"github.com/pmorrell/Plant-Selection/internal/expand"
	"github.com/pmorrell/Plant-Selection/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultDelay     = 500 * time.Millisecond
	defaultUserAgent = "pubmed-expand/0.1"
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Expand a seed set into ranked candidate papers",
	Long: `Expand queries PubMed for the related articles of every seed in the run
file, aggregates candidates by how many seeds link to them, filters them by
title/abstract content and publication type, applies age-weighted scoring,
and writes threshold lists plus a fully ranked table to the output directory.`,
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().String("run-file", "", "YAML run file with seeds, exclude list, and overrides (required)")
	expandCmd.Flags().String("output-dir", "results", "output directory for candidate lists")
	expandCmd.Flags().Int("max-seeds", 0, "limit number of seeds processed (0 = all; for test runs)")
	expandCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	expandCmd.Flags().Duration("delay", 0, "minimum delay between E-utility requests (default 500ms)")
	expandCmd.Flags().Float64("age-beta", 0.4, "maximum age penalty, 0-1")
	expandCmd.Flags().Float64("age-gamma", 0.7, "age curve exponent")
	expandCmd.Flags().Float64("comparative-boost", 1.15, "score multiplier for comparative studies")
	expandCmd.Flags().Bool("strict", false, "treat secondary anomalies as fatal")
	expandCmd.Flags().String("cache-dir", "cache", "directory for the elink result cache")
	expandCmd.Flags().Bool("no-cache", false, "disable the elink result cache")

	expandCmd.MarkFlagRequired("run-file")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	runPath, _ := cmd.Flags().GetString("run-file")
	rf, err := expand.ReadRunFile(runPath)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, rf)
	if err != nil {
		return err
	}

	client := entrez.NewClient(cfg.Entrez)
	p := &expand.Pipeline{
		Related:  client,
		Metadata: client,
		Seeds:    rf.Seeds,
		Exclude:  rf.Exclude,
		Config:   cfg,
		Log:      os.Stderr,
	}

	if cfg.CacheDir != "" {
		store, err := cache.Open(cfg.CacheDir)
		if err != nil {
			return err
		}
		defer store.Close()
		p.Cache = store
	}

	res, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := expand.WriteOutputs(cfg.OutputDir, res, cfg, os.Stderr); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr)
	res.Summary.Write(os.Stderr)
	fmt.Fprintf(os.Stderr, "\nDone. Output files are in: %s\n", cfg.OutputDir)
	return nil
}

// buildConfig layers flags over run-file overrides over defaults, and pulls
// NCBI credentials from .secrets/ or the viper config.
func buildConfig(cmd *cobra.Command, rf *expand.RunFile) (types.ExpandConfig, error) {
	var cfg types.ExpandConfig

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}

	cfg.Entrez = types.EntrezConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		APIKey:       secretDefault("ncbi-api-key", viper.GetString("entrez.api_key")),
		Email:        secretDefault("ncbi-email", viper.GetString("entrez.email")),
		RequestDelay: delay,
	}

	cfg.Filter = expand.DefaultFilterConfig()
	rf.Filter.Apply(&cfg.Filter)

	cfg.Scoring = expand.DefaultScoringConfig()
	rf.Scoring.Apply(&cfg.Scoring)
	if cmd.Flags().Changed("age-beta") {
		cfg.Scoring.AgeBeta, _ = cmd.Flags().GetFloat64("age-beta")
	}
	if cmd.Flags().Changed("age-gamma") {
		cfg.Scoring.AgeGamma, _ = cmd.Flags().GetFloat64("age-gamma")
	}
	if cmd.Flags().Changed("comparative-boost") {
		cfg.Scoring.ComparativeBoost, _ = cmd.Flags().GetFloat64("comparative-boost")
	}
	if cfg.Scoring.AgeBeta < 0 || cfg.Scoring.AgeBeta > 1 {
		return cfg, fmt.Errorf("age-beta must be in [0,1], got %v", cfg.Scoring.AgeBeta)
	}

	cfg.MinPMID = rf.MinPMID
	cfg.MaxSeeds, _ = cmd.Flags().GetInt("max-seeds")
	cfg.Strict, _ = cmd.Flags().GetBool("strict")
	cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")

	noCache, _ := cmd.Flags().GetBool("no-cache")
	if !noCache {
		cfg.CacheDir, _ = cmd.Flags().GetString("cache-dir")
	}

	return cfg, nil
}
