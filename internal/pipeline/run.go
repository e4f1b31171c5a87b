// Package pipeline orchestrates the classification–merge–reconstruction
// run: Loader -> Classifier -> Matcher -> Merger -> Exporter, with the
// plot sink subscribed to merger output. Each stage consumes an immutable
// sequence and produces a new one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wdmspipe/internal/config"
	"wdmspipe/internal/export"
	"wdmspipe/internal/loader"
	lg "wdmspipe/internal/log"
	"wdmspipe/internal/plot"
	"wdmspipe/internal/report"
	"wdmspipe/internal/sed"
)

// Options configures one pipeline run
type Options struct {
	WDRoot string // white-dwarf component tree
	MSRoot string // main-sequence component tree
	OutDir string // output root; empty defaults to <MSRoot>/result_dir
	Plots  bool

	Progress lg.Mode
	Config   config.Config
}

// Result summarises a completed run
type Result struct {
	RunID    string
	Started  time.Time
	Duration time.Duration

	WDLoaded, MSLoaded int
	WDGood, WDBad      int
	MSGood, MSBad      int

	Matched, WDOnly, MSOnly int
	Merged, MergeFailed     int
	PlotsWritten            int

	ChunkFiles []string
	PlotDir    string
}

// Run executes the full WD-MS pipeline and returns the run summary plus
// the per-record problem report. Per-record failures accumulate in the
// report; Run returns an error only for run-level preconditions (missing
// inputs, zero usable records, unwritable outputs) or integrity
// violations.
func Run(ctx context.Context, opts Options) (*Result, *report.Report, error) {
	rep := report.New()
	res := &Result{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Join(opts.MSRoot, "result_dir")
	}

	log.Info().
		Str("run_id", res.RunID).
		Str("wd_root", opts.WDRoot).
		Str("ms_root", opts.MSRoot).
		Str("out_dir", outDir).
		Str("subset", opts.Config.Export.Subset).
		Msg("Starting WD-MS pipeline")

	// Load both components
	wdRecords, err := loader.Load(loader.Options{
		Root:     opts.WDRoot,
		Kind:     sed.KindWD,
		Workers:  opts.Config.EffectiveWorkers(),
		Progress: opts.Progress,
	}, rep)
	if err != nil {
		return nil, rep, fmt.Errorf("load WD component: %w", err)
	}
	res.WDLoaded = len(wdRecords)

	if err := ctx.Err(); err != nil {
		return nil, rep, err
	}

	msRecords, err := loader.Load(loader.Options{
		Root:        opts.MSRoot,
		Kind:        sed.KindMS,
		DropUVBands: opts.Config.Load.DropUVBands,
		Workers:     opts.Config.EffectiveWorkers(),
		Progress:    opts.Progress,
	}, rep)
	if err != nil {
		return nil, rep, fmt.Errorf("load MS component: %w", err)
	}
	res.MSLoaded = len(msRecords)

	// Classify
	th := sed.Thresholds{RMax: opts.Config.Thresholds.RMax, VMax: opts.Config.Thresholds.VMax}
	res.WDGood, res.WDBad = sed.ClassifyAll(wdRecords, th)
	res.MSGood, res.MSBad = sed.ClassifyAll(msRecords, th)

	log.Info().
		Int("wd_good", res.WDGood).Int("wd_bad", res.WDBad).
		Int("ms_good", res.MSGood).Int("ms_bad", res.MSBad).
		Float64("r_max", th.RMax).Float64("v_max", th.VMax).
		Msg("Classification completed")

	// Match the selected subset across components
	subset := opts.Config.Export.Subset
	wdSubset, err := sed.Subset(wdRecords, subset)
	if err != nil {
		return nil, rep, err
	}
	msSubset, err := sed.Subset(msRecords, subset)
	if err != nil {
		return nil, rep, err
	}

	pairs, err := sed.Match(wdSubset, msSubset)
	if err != nil {
		return nil, rep, fmt.Errorf("match candidates: %w", err)
	}
	for _, p := range pairs {
		switch p.Status {
		case sed.StatusMatched:
			res.Matched++
		case sed.StatusWDOnly:
			res.WDOnly++
		case sed.StatusMSOnly:
			res.MSOnly++
		}
	}
	log.Info().
		Int("matched", res.Matched).
		Int("wd_only", res.WDOnly).
		Int("ms_only", res.MSOnly).
		Msg("Candidate matching completed")

	if err := ctx.Err(); err != nil {
		return nil, rep, err
	}

	// Merge matched pairs into composite SEDs
	seds := mergeAll(sed.Matched(pairs), rep, res, opts.Progress)

	// Export composites as chunked VOSA ASCII
	chunks, err := export.WriteChunks(export.SEDBlocks(seds), export.Options{
		Dir:       filepath.Join(outDir, "vosa"),
		Subset:    subset,
		ChunkSize: opts.Config.Export.ChunkSize,
	})
	if err != nil {
		return nil, rep, fmt.Errorf("export VOSA ASCII: %w", err)
	}
	res.ChunkFiles = chunks

	// Plot sink
	if opts.Plots {
		res.PlotDir = filepath.Join(outDir, "plots")
		res.PlotsWritten = plotAll(seds, res.PlotDir, rep, opts.Progress)
	}

	res.Duration = time.Since(res.Started)
	log.Info().
		Str("run_id", res.RunID).
		Int("merged", res.Merged).
		Int("chunk_files", len(res.ChunkFiles)).
		Int("plots", res.PlotsWritten).
		Dur("duration", res.Duration.Round(time.Millisecond)).
		Msg("Pipeline completed")
	return res, rep, nil
}

// mergeAll merges every matched pair, excluding unmergeable pairs and
// counting them
func mergeAll(pairs []sed.CandidatePair, rep *report.Report, res *Result, progress lg.Mode) []*sed.CompositeSED {
	prog := lg.NewProgress("Merging SEDs", "pairs", len(pairs), progress)
	defer prog.Finish()

	seds := make([]*sed.CompositeSED, 0, len(pairs))
	for _, pair := range pairs {
		composite, err := sed.Merge(pair)
		if err != nil {
			res.MergeFailed++
			kind := report.KindNoCommonBand
			if errors.Is(err, sed.ErrNonPositiveScale) {
				kind = report.KindNonPositiveScale
			}
			rep.Add(kind, err.Error())
			log.Warn().Str("object", pair.ObjectID).Err(err).Msg("Pair excluded from merge")
			prog.Increment()
			continue
		}
		res.Merged++
		seds = append(seds, composite)
		prog.Increment()
	}
	return seds
}

// plotAll renders one figure per composite SED; failures are reported,
// never fatal
func plotAll(seds []*sed.CompositeSED, dir string, rep *report.Report, progress lg.Mode) int {
	prog := lg.NewProgress("Rendering SED plots", "objects", len(seds), progress)
	defer prog.Finish()

	written := 0
	for _, s := range seds {
		if _, err := plot.SaveSED(s, dir); err != nil {
			rep.Add(report.KindPlot, err.Error())
			log.Warn().Str("object", s.ObjectID).Err(err).Msg("Plot failed")
		} else {
			written++
		}
		prog.Increment()
	}
	return written
}
