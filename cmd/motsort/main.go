// Command motsort replays a MOT challenge detection file through a configured
// matching engine and writes the result file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvtrack/sort-go/mot"
	"github.com/mvtrack/sort-go/mot16"
)

var (
	detPath       string
	outPath       string
	configPath    string
	matcherKind   string
	costThreshold float64
	minConfidence float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "motsort",
		Short:        "Assign persistent identities to per-frame object detections",
		SilenceUsage: true,
		RunE:         run,
	}
	rootCmd.Flags().StringVar(&detPath, "det", "", "MOT detection file (required)")
	rootCmd.Flags().StringVar(&outPath, "out", "result.txt", "result file")
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML engine config")
	rootCmd.Flags().StringVar(&matcherKind, "matcher", "", "matcher kind: simple or cascade")
	rootCmd.Flags().Float64Var(&costThreshold, "cost-threshold", 0, "simple matcher cost threshold")
	rootCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.3, "drop detections below this confidence")
	if err := rootCmd.MarkFlagRequired("det"); err != nil {
		panic(err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := mot.DefaultConfig()
	if configPath != "" {
		loaded, err := mot.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if matcherKind != "" {
		cfg.Matcher = mot.MatcherKind(matcherKind)
	}
	if costThreshold > 0 {
		cfg.CostThreshold = costThreshold
	}

	matcher, err := mot.NewMatcher(cfg)
	if err != nil {
		return err
	}

	detFile, err := os.Open(detPath)
	if err != nil {
		return fmt.Errorf("can't open detection file: %w", err)
	}
	defer detFile.Close()

	frames, err := mot16.LoadDetections(detFile, minConfidence)
	if err != nil {
		return err
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("can't create result file: %w", err)
	}
	defer outFile.Close()

	writer := mot16.NewWriter(outFile)
	for i, detections := range frames {
		if err := matcher.Step(detections); err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		if err := writer.WriteFrame(i+1, matcher.Bindings()); err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	slog.Info("done",
		slog.String("matcher", string(cfg.Matcher)),
		slog.Int("frames", len(frames)),
		slog.String("result", outPath))
	return nil
}
