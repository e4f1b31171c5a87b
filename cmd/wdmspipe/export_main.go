package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"wdmspipe/internal/export"
	"wdmspipe/internal/loader"
	"wdmspipe/internal/report"
	"wdmspipe/internal/sed"
)

// runExport loads and classifies one component tree, then writes the
// selected subset as chunked VOSA ASCII
func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	progress, err := progressMode(cmd.Flags())
	if err != nil {
		return err
	}
	kind, err := componentKind(cmd.Flags())
	if err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = filepath.Join(input, "vosa")
	}

	rep := report.New()
	records, err := loader.Load(loader.Options{
		Root:        input,
		Kind:        kind,
		DropUVBands: kind == sed.KindMS && cfg.Load.DropUVBands,
		Workers:     cfg.EffectiveWorkers(),
		Progress:    progress,
	}, rep)
	if err != nil {
		return err
	}

	th := sed.Thresholds{RMax: cfg.Thresholds.RMax, VMax: cfg.Thresholds.VMax}
	sed.ClassifyAll(records, th)

	subset, err := sed.Subset(records, cfg.Export.Subset)
	if err != nil {
		return err
	}

	chunks, err := export.WriteChunks(export.RecordBlocks(subset), export.Options{
		Dir:       outDir,
		Subset:    cfg.Export.Subset,
		ChunkSize: cfg.Export.ChunkSize,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✅ Exported %d %s records (%s subset) into %d files under %s\n",
		len(subset), kind, cfg.Export.Subset, len(chunks), filepath.Join(outDir, cfg.Export.Subset))
	if rep.Total() > 0 {
		fmt.Printf("\nSkipped/failed items:\n%s", rep.Summary())
	}
	return nil
}
