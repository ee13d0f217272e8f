// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mlchem-digest CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/mlchem-digest/internal/secrets"
	"github.com/meshintel/mlchem-digest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ (or the
// environment) at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the mlchem-digest CLI.
var rootCmd = &cobra.Command{
	Use:   "mlchem-digest",
	Short: "Daily digest of new ML×chemistry papers",
	Long: `mlchem-digest collects newly published papers at the intersection of
machine learning and chemistry from arXiv, Crossref, bioRxiv, and optionally
Semantic Scholar, filters them by keyword, deduplicates across sources,
summarizes the survivors with an LLM, and emails an HTML digest.

An external scheduler invokes "run" once a day; "fetch" performs the same
collection without summarization or delivery, for inspection.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mlchem-digest.yaml or ~/.config/mlchem-digest/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mlchem-digest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mlchem-digest"))
		}
	}

	viper.SetEnvPrefix("MLCHEM_DIGEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadPipelineConfig decodes the viper configuration into an immutable
// PipelineConfig and fills credential gaps from the loaded secrets.
func loadPipelineConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	if cfg.Sources.Timeout <= 0 {
		cfg.Sources.Timeout = 30 * time.Second
	}
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = "mlchem-digest/" + version
	}

	if cfg.Sources.SemanticScholarAPIKey == "" {
		cfg.Sources.SemanticScholarAPIKey = loadedSecrets["semantic-scholar-api-key"]
	}
	if cfg.Summary.APIKey == "" {
		cfg.Summary.APIKey = loadedSecrets["openai-api-key"]
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = loadedSecrets["smtp-password"]
	}

	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
