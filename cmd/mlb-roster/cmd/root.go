package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/mlb-roster-client/pkg/config"
	"github.com/Sternrassler/mlb-roster-client/pkg/logging"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file and environment values
var (
	cfgFile    string
	logLevel   string
	pretty     bool
	season     int
	cacheStore string
	sqlitePath string
)

var rootCmd = &cobra.Command{
	Use:   "mlb-roster",
	Short: "MLB roster relay and incremental player aggregator",
	Long: `mlb-roster relays team and roster queries to the MLB statistics provider
and aggregates every active roster into one searchable player list.

Commands:
  serve    run the relay backend under /api/mlb
  players  load the aggregate (from cache or batch by batch) and print a page

Configuration is read from an optional YAML file and MLB_* environment
variables; flags win over both.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to configuration file (optional)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false,
		"Human-readable console logs instead of JSON")

	rootCmd.PersistentFlags().IntVar(&season, "season", 0,
		"Override season (default: current year)")
	rootCmd.PersistentFlags().StringVar(&cacheStore, "cache", "",
		"Override cache backend (memory, redis, sqlite)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "",
		"Override sqlite cache file")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the persistent flag override values
func GetCLIOverrides() config.Overrides {
	return config.Overrides{
		LogLevel:   logLevel,
		Pretty:     pretty,
		Season:     season,
		Cache:      cacheStore,
		SQLitePath: sqlitePath,
	}
}

// loadConfig loads, overrides and validates configuration, then sets up logging.
func loadConfig(extra func(*config.Overrides)) (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	if extra != nil {
		extra(&overrides)
	}
	cfg.ApplyOverrides(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logging.Setup(logging.Config{
		Level:  level,
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})
	return cfg, nil
}
