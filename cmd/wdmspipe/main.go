package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "wdmspipe"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "WD-MS binary candidate pipeline",
		Version: version,
		Long: `wdmspipe characterises candidate white dwarf + main sequence binaries
from multi-wavelength photometric model fits: it classifies per-component
fits, pairs WD and MS solutions of the same object, reconstructs the
flux-scaled composite SED of each pair, and exports VOSA-ready ASCII.`,
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full classification-merge-reconstruction pipeline",
		Long:  "Loads both component trees, classifies fits, matches candidates, merges SEDs, exports VOSA ASCII chunks and renders per-object figures",
		RunE:  runPipeline,
	}
	runCmd.Flags().String("wd", "", "WD component tree (required)")
	runCmd.Flags().String("ms", "", "MS component tree (required)")
	runCmd.Flags().String("out", "", "Output directory (default: <ms>/result_dir)")
	runCmd.Flags().String("subset", "", "Candidate subset to process (good|bad|all)")
	runCmd.Flags().Int("chunk", 0, "Objects per VOSA ASCII file (max 1000)")
	runCmd.Flags().Bool("plots", true, "Render one SED figure per merged candidate")
	_ = runCmd.MarkFlagRequired("wd")
	_ = runCmd.MarkFlagRequired("ms")

	classifyCmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one component tree and print the good/bad summary",
		Long:  "Loads a single component tree, applies the residual and Vgfb cuts, and prints per-category counts; optionally writes a TSV summary",
		RunE:  runClassify,
	}
	classifyCmd.Flags().String("input", "", "Component tree root (required)")
	classifyCmd.Flags().String("kind", "MS", "Component kind (WD|MS)")
	classifyCmd.Flags().String("out", "", "Directory for the TSV classification summary (omit to skip)")
	_ = classifyCmd.MarkFlagRequired("input")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a classified subset as chunked VOSA ASCII",
		Long:  "Loads and classifies one component tree, then writes the selected subset as chunked VOSA-ready ASCII files without merging",
		RunE:  runExport,
	}
	exportCmd.Flags().String("input", "", "Component tree root (required)")
	exportCmd.Flags().String("kind", "MS", "Component kind (WD|MS)")
	exportCmd.Flags().String("out", "", "Output directory (default: <input>/vosa)")
	exportCmd.Flags().String("subset", "", "Subset to export (good|bad|all)")
	exportCmd.Flags().Int("chunk", 0, "Objects per output file (max 1000)")
	_ = exportCmd.MarkFlagRequired("input")

	for _, cmd := range []*cobra.Command{runCmd, classifyCmd, exportCmd} {
		cmd.Flags().String("config", "", "YAML pipeline config file")
		cmd.Flags().String("progress", "auto", "Progress output mode (auto|plain|off)")
		cmd.Flags().Bool("no-uv", false, "Drop GALEX UV bands when loading MS photometry")
	}

	rootCmd.AddCommand(runCmd, classifyCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}
