// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/losthumanity/TikDownloader/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagQuality   string
	flagOutput    string
	flagInfo      bool
	flagJSON      bool
	flagNoHistory bool
	flagDebug     bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tikdl <url>",
	Short: "Download TikTok videos without watermark",
	Long: `Tikdl resolves TikTok links against several download services and saves
the video without a watermark. Short links (vm/vt.tiktok.com) are supported.`,
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: loadConfig,
	RunE:              downloadRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Video quality: high | standard")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output directory (default: config download_dir)")
	rootCmd.PersistentFlags().BoolVarP(&flagInfo, "info", "i", false, "Print video metadata without downloading")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output metadata as JSON (implies --info)")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Skip recording this download in history")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logrus.SetOutput(os.Stderr)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	return nil
}
