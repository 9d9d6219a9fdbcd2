package cmd

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	configPath string
	verbose    bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "depscout",
	Short: "Dependency vulnerability scanner for GitHub repositories",
	Long: `A CLI tool that scans repositories for declared dependencies across
multiple ecosystems (Go, Maven/Gradle, npm, Python), reconciles them against
the OSV vulnerability database, and produces upgrade recommendations.

For every vulnerable dependency the scanner reports the known advisories,
the minimal safer version above the one in use, and whether the latest
published version is itself clean.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
}
