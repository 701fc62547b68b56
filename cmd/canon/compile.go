package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getcanon/canon/bundle"
)

var (
	compileDefsDir string
	compileOutPath string
)

// compileCmd compiles a directory of YAML provider definitions into one
// versioned bundle artifact.
var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile provider definitions into a bundle artifact",
	Long: `Compile reads every .yaml provider definition under --defs, validates
signatures, rules, mappings and transform references, and writes a single
versioned artifact to --out.

Validation failures (unresolved transform, ambiguous signature, dangling
rule reference) abort compilation; a bundle is written only when every
definition is consistent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		defs, err := bundle.ParseDir(compileDefsDir)
		if err != nil {
			return fmt.Errorf("parsing definitions: %w", err)
		}
		if len(defs) == 0 {
			return fmt.Errorf("no provider definitions found in %s", compileDefsDir)
		}

		b, err := bundle.Compile(defs)
		if err != nil {
			return fmt.Errorf("compiling: %w", err)
		}
		if err := bundle.WriteFile(compileOutPath, b); err != nil {
			return fmt.Errorf("writing artifact: %w", err)
		}

		log.Info("bundle compiled",
			zap.String("out", compileOutPath),
			zap.Int("providers", len(b.Providers())),
			zap.String("format_version", b.FormatVersion))
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileDefsDir, "defs", "d", "definitions", "Directory of provider definition YAML files")
	compileCmd.Flags().StringVarP(&compileOutPath, "out", "o", "bundle.json", "Output artifact path")
	rootCmd.AddCommand(compileCmd)
}
