// Package main provides the canon CLI for compiling, inspecting and
// running provider bundles.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canon",
	Short: "LLM telemetry normalization toolkit",
	Long: `canon normalizes heterogeneous LLM-observability span attributes into one
canonical event shape, driven by compiled provider bundles.

Commands:
  - compile: turn declarative provider definitions into a bundle artifact
  - inspect: show the providers and signatures inside a bundle
  - run:     normalize an NDJSON stream of attribute sets
  - schema:  print the JSON Schema of the authoring format`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

// newLogger builds the CLI logger, honoring --verbose.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
	}
	return cfg.Build()
}
