package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wdmspipe/internal/pipeline"
)

// runPipeline executes the full WD-MS pipeline end to end
func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	progress, err := progressMode(cmd.Flags())
	if err != nil {
		return err
	}

	wdRoot, _ := cmd.Flags().GetString("wd")
	msRoot, _ := cmd.Flags().GetString("ms")
	outDir, _ := cmd.Flags().GetString("out")
	plots := resolvePlots(cmd.Flags(), cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, rep, err := pipeline.Run(ctx, pipeline.Options{
		WDRoot:   wdRoot,
		MSRoot:   msRoot,
		OutDir:   outDir,
		Plots:    plots,
		Progress: progress,
		Config:   cfg,
	})
	if err != nil {
		if rep != nil && rep.Total() > 0 {
			fmt.Fprint(os.Stderr, rep.Summary())
		}
		return err
	}

	fmt.Printf("✅ Pipeline completed (run %s)\n", result.RunID)
	fmt.Printf("WD records: %d (%d good / %d bad)\n", result.WDLoaded, result.WDGood, result.WDBad)
	fmt.Printf("MS records: %d (%d good / %d bad)\n", result.MSLoaded, result.MSGood, result.MSBad)
	fmt.Printf("Candidates: %d matched, %d WD-only, %d MS-only\n", result.Matched, result.WDOnly, result.MSOnly)
	fmt.Printf("Merged SEDs: %d (%d excluded)\n", result.Merged, result.MergeFailed)
	fmt.Printf("VOSA chunks: %d files\n", len(result.ChunkFiles))
	if result.PlotDir != "" {
		fmt.Printf("Plots: %d figures in %s\n", result.PlotsWritten, result.PlotDir)
	}
	fmt.Printf("Duration: %s\n", result.Duration)

	if rep.Total() > 0 {
		fmt.Printf("\nSkipped/failed items:\n%s", rep.Summary())
	}
	return nil
}
