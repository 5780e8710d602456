// Command riggen generates a character rig from a metarig definition and
// writes the resulting bone graph as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"rigcore/internal/artifact"
	"rigcore/internal/generate"
	"rigcore/internal/library/sqlite"
	"rigcore/internal/rigs"
	"rigcore/pkg/metarig"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("riggen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		inPath    string
		outPath   string
		storePath string
		publish   bool
		metrics   bool
		verbose   bool
	)
	fs.StringVar(&inPath, "in", "", "path to metarig yaml (required)")
	fs.StringVar(&outPath, "out", "-", "path to write the rig json, - for stdout")
	fs.StringVar(&storePath, "store", "", "optional sqlite rig library to record the definition and rig in")
	fs.BoolVar(&publish, "publish", false, "upload the rig to the configured artifact store (RIGCORE_ARTIFACT_* env)")
	fs.BoolVar(&metrics, "metrics", false, "print operation metrics to stderr after generation")
	fs.BoolVar(&verbose, "v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if inPath == "" {
		fmt.Fprintln(stderr, "riggen: -in is required")
		fs.Usage()
		return 2
	}
	if err := run(context.Background(), inPath, outPath, storePath, publish, metrics, verbose, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "riggen: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, inPath, outPath, storePath string, publish, metrics, verbose bool, stdout, stderr io.Writer) error {
	def, err := metarig.Load(inPath)
	if err != nil {
		return err
	}

	registry := generate.NewRegistry()
	if err := rigs.RegisterAll(registry); err != nil {
		return err
	}

	opts := []generate.Option{}
	var recorder *generate.ExpvarMetricsRecorder
	if metrics {
		recorder = generate.NewExpvarMetricsRecorder("riggen")
		opts = append(opts, generate.WithMetricsRecorder(recorder))
	}
	if verbose {
		opts = append(opts, generate.WithLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	result, err := generate.NewService(registry, opts...).Generate(ctx, def)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}

	data, err := json.MarshalIndent(result.Rig, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rig: %w", err)
	}
	data = append(data, '\n')
	if outPath == "-" || outPath == "" {
		if _, err := stdout.Write(data); err != nil {
			return err
		}
	} else if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	if storePath != "" {
		store, err := sqlite.NewStore(storePath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.SaveDefinition(ctx, def); err != nil {
			return err
		}
		if err := store.SaveRig(ctx, def.Name, result.Rig); err != nil {
			return err
		}
	}

	if publish {
		blobs, err := artifact.Open(ctx)
		if err != nil {
			return err
		}
		info, err := artifact.ExportRig(ctx, blobs, def.Name, result.Rig)
		if err != nil {
			return fmt.Errorf("publish rig: %w", err)
		}
		fmt.Fprintf(stderr, "published %s (%d bytes)\n", info.Key, info.Size)
	}

	if recorder != nil {
		printMetrics(stderr, recorder)
	}
	return nil
}

func printMetrics(w io.Writer, recorder *generate.ExpvarMetricsRecorder) {
	snapshot := recorder.Snapshot()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(snapshot)
}
