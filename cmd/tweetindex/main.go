// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tweetindex CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gwlib/tweetindex/internal/logging"
	"github.com/gwlib/tweetindex/internal/secrets"
	"github.com/gwlib/tweetindex/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// cfg is the resolved configuration, available to every subcommand after
// PersistentPreRunE.
var cfg types.Config

// log is the process logger, available after PersistentPreRunE.
var log *logrus.Entry

// rootCmd is the base command for the tweetindex CLI.
var rootCmd = &cobra.Command{
	Use:   "tweetindex",
	Short: "Load Twitter sample files into a search index and query them",
	Long: `tweetindex loads tweets from gzipped line-delimited JSON sample files into
an Elasticsearch index and queries that index by text, user, mention, hashtag,
and date range, with paging and CSV export.

Sample files come from a local directory tree or an S3 bucket. Files already
present in the index are skipped, so repeated runs are cheap.`,
	SilenceUsage: true,
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

		cfg = types.DefaultConfig()
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		if cfg.Index.Username == "" {
			cfg.Index.Username = loadedSecrets[secrets.ESUsername]
		}
		if cfg.Index.Password == "" {
			cfg.Index.Password = loadedSecrets[secrets.ESPassword]
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		log = logging.New(verbose, cfg.ErrorLog).WithField("app", "tweetindex")
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./tweetindex.yaml or ~/.config/tweetindex/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tweetindex")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tweetindex"))
		}
	}

	def := types.DefaultConfig()
	viper.SetDefault("index.addresses", def.Index.Addresses)
	viper.SetDefault("index.name", def.Index.Name)
	viper.SetDefault("index.bulk_workers", def.Index.BulkWorkers)
	viper.SetDefault("index.bulk_flush_bytes", def.Index.BulkFlushBytes)
	viper.SetDefault("ingest.concurrency", def.Ingest.Concurrency)
	viper.SetDefault("ingest.file_prefix", def.Ingest.FilePrefix)
	viper.SetDefault("bucket.name", def.Bucket.Name)
	viper.SetDefault("query.size", def.Query.Size)
	viper.SetDefault("state_dir", def.StateDir)
	viper.SetDefault("error_log", def.ErrorLog)

	viper.SetEnvPrefix("TWEETINDEX")
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
