package main

import (
	"bufio"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	wio "wdmspipe/internal/io"
	"wdmspipe/internal/loader"
	"wdmspipe/internal/report"
	"wdmspipe/internal/sed"
)

// runClassify loads one component tree, classifies it and prints the
// good/bad summary
func runClassify(cmd *cobra.Command, args []string) error {
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
	good, bad := sed.ClassifyAll(records, th)

	fmt.Printf("✅ Classified %d %s records (r_max=%g v_max=%g)\n", len(records), kind, th.RMax, th.VMax)
	fmt.Printf("Good: %d\n", good)
	fmt.Printf("Bad:  %d\n", bad)
	if rep.Total() > 0 {
		fmt.Printf("\nSkipped/failed items:\n%s", rep.Summary())
	}

	if outDir == "" {
		return nil
	}
	path := filepath.Join(outDir, fmt.Sprintf("classified_%s.tsv", kind))
	err = wio.WriteAtomic(path, func(w *bufio.Writer) error {
		if _, err := fmt.Fprintln(w, "object\tcategory\tresidual\tvgfb\treason"); err != nil {
			return err
		}
		for _, rec := range records {
			_, err := fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%s\n",
				rec.ObjectID, rec.Category, rec.Residual, rec.Vgfb, rec.Reason)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Summary: %s\n", path)
	return nil
}
