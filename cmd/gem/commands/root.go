package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	compositeFile string
	env           string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gem",
	Short: "GEM - Sentinel-2 최대 NDVI 시계열 합성",
	Long: `GEM Unified CLI

픽셀별 Sentinel-2 관측값을 기간별 최대 NDVI 합성값으로 변환합니다.

Usage:
  go run ./cmd/gem [command]

Examples:
  go run ./cmd/gem api
  go run ./cmd/gem evaluate --input pixels.json --output composite.json
  go run ./cmd/gem intervals --norm-factor 0.0001
  go run ./cmd/gem config validate --config composite.yaml
  go run ./cmd/gem test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&compositeFile, "config", "", "compositing YAML (default is COMPOSITE_CONFIG or the built-in config)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
