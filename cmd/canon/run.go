package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getcanon/canon/bundle"
	"github.com/getcanon/canon/engine"
	"github.com/getcanon/canon/middleware"
	"github.com/getcanon/canon/obs"
	"github.com/getcanon/canon/stream"
)

var (
	runBundlePath string
	runRedact     bool
	runEventIDs   bool
)

// runCmd normalizes an NDJSON stream of attribute sets from stdin (or a
// file argument) into canonical events on stdout.
var runCmd = &cobra.Command{
	Use:   "run [input.ndjson]",
	Short: "Normalize an NDJSON stream of span attributes",
	Long: `Run reads one flattened attribute set per line, normalizes each span
against the bundle, and writes one canonical event per line. A summary of
detections and diagnostics goes to stderr.

The bundle comes from --bundle, the CANON_BUNDLE environment variable, or
the builtin provider definitions when neither is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		b, err := resolveBundle()
		if err != nil {
			return err
		}

		input := os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			input = f
		}

		var opts []engine.Option
		if runEventIDs {
			opts = append(opts, engine.WithEventIDs())
		}
		var n engine.Normalizer = engine.NewStatic(b, opts...)
		if runRedact {
			n = middleware.WithRedaction(middleware.DefaultRedactionOpts())(n)
		}

		collector := obs.NewCollector(256)
		reader := stream.NewAttributeReader(input)
		writer := stream.NewEventWriter(os.Stdout)

		for {
			attrs, err := reader.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			ev, err := n.Normalize(cmd.Context(), attrs)
			if err != nil {
				return fmt.Errorf("normalizing: %w", err)
			}
			collector.Record(ev)
			if err := writer.Write(ev); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
		if err := writer.Flush(); err != nil {
			return err
		}

		stats := collector.Snapshot()
		fields := []zap.Field{zap.Int64("events", stats.Events)}
		for _, p := range stats.Providers() {
			fields = append(fields, zap.Int64("provider."+p, stats.ByProvider[p]))
		}
		for kind, count := range stats.ByKind {
			fields = append(fields, zap.Int64("diagnostics."+string(kind), count))
		}
		log.Info("normalization complete", fields...)
		return nil
	},
}

// resolveBundle picks the bundle source: flag, environment, then builtin.
func resolveBundle() (*bundle.Bundle, error) {
	path := runBundlePath
	if path == "" {
		path = os.Getenv("CANON_BUNDLE")
	}
	if path == "" {
		return bundle.Builtin()
	}
	return bundle.LoadFile(path)
}

func init() {
	runCmd.Flags().StringVarP(&runBundlePath, "bundle", "b", "", "Bundle artifact path (default: $CANON_BUNDLE or builtin)")
	runCmd.Flags().BoolVar(&runRedact, "redact", false, "Mask PII and credentials in inputs/outputs")
	runCmd.Flags().BoolVar(&runEventIDs, "event-ids", false, "Stamp metadata.event_id on every event")
	rootCmd.AddCommand(runCmd)
}
