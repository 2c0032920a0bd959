package main

import (
	"fmt"
	"os"

	"subpilot/internal/config"
	"subpilot/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	catalogPath string
	envFile     string

	// Root command flags
	dryRun bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd runs the daily routine.
var rootCmd = &cobra.Command{
	Use:   "subpilot",
	Short: "Daily subreddit community manager",
	Long: `subpilot runs the once-a-day routine for a subreddit: post the weekly
thread scheduled for today, post a daily tip/question/spotlight, reply to a
few unanswered comments, and remember that today is done.

Credentials come from REDDIT_USERNAME and REDDIT_PASSWORD (a .env file is
loaded when present). Use --dry-run to see what would be posted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadEnv(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if catalogPath != "" {
			cfg.Community.Catalog = catalogPath
		}

		logger, err = logging.New(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			File:    cfg.Logging.File,
			Verbose: verbose,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runRoutine,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "subpilot.yaml", "Config file (missing file = defaults)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Content catalog YAML (default: built-in catalog)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load if present")

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log every action instead of performing it")

	previewCmd.Flags().StringVarP(&previewKind, "kind", "k", "daily", "daily, tip, success_story, question, feature_highlight, weekly or reply")
	previewCmd.Flags().StringVar(&previewDay, "day", "", "Weekday for --kind weekly (default: first weekly thread)")
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "Print markdown without terminal rendering")

	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Journal entries to show")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
