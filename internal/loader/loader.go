// Package loader turns raw fitting-service output trees into in-memory fit
// records. Parsing is a pure projection: input files are never modified.
package loader

import (
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	lg "wdmspipe/internal/log"
	"wdmspipe/internal/report"
	"wdmspipe/internal/sed"
)

const photSuffix = ".bfit.phot.dat"
const bestFitName = "bestfitp.dat"

// Options configures one component load
type Options struct {
	Root        string            // component tree root
	Kind        sed.ComponentKind // WD or MS
	DropUVBands bool              // no-UV variant: drop GALEX bands
	Workers     int               // parallel file parsers, min 1
	Progress    lg.Mode
}

// Load walks a component tree, parses every per-object photometry file,
// joins it with the bestfitp results tables found under the same root, and
// returns the records in sorted-path order. Individual parse failures are
// counted in rep and skipped; Load fails only when the root is unusable or
// zero valid records survive. Parallel parsing never affects output order:
// records are placed by the position of their file in the sorted listing.
func Load(opts Options, rep *report.Report) ([]*sed.FitRecord, error) {
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("input path %s: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", opts.Root)
	}

	photFiles, tablePaths, err := discover(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", opts.Root, err)
	}
	if len(photFiles) == 0 {
		return nil, fmt.Errorf("no %s files under %s", photSuffix, opts.Root)
	}

	table := loadTables(tablePaths, rep)

	log.Info().
		Str("kind", string(opts.Kind)).
		Str("root", opts.Root).
		Int("phot_files", len(photFiles)).
		Int("bestfit_rows", len(table)).
		Msg("Loading fit records")

	records := parseAll(photFiles, table, opts, rep)
	filesSkipped := len(photFiles) - len(records)

	records = dedupe(records, rep)
	if len(records) == 0 {
		return nil, fmt.Errorf("no valid fit records under %s (%d of %d photometry files unusable)",
			opts.Root, filesSkipped, len(photFiles))
	}
	return records, nil
}

// discover lists photometry files and bestfit tables under root, sorted
func discover(root string) (photFiles, tablePaths []string, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(d.Name(), photSuffix):
			photFiles = append(photFiles, path)
		case d.Name() == bestFitName:
			tablePaths = append(tablePaths, path)
		}
		return nil
	})
	sort.Strings(photFiles)
	sort.Strings(tablePaths)
	return photFiles, tablePaths, err
}

// loadTables parses and merges every bestfitp.dat found; an unreadable
// table degrades the affected records to missing-vgfb rather than failing
// the run
func loadTables(paths []string, rep *report.Report) BestFitTable {
	merged := make(BestFitTable)
	for _, path := range paths {
		table, stats, err := ParseBestFit(path)
		if err != nil {
			rep.Addf(report.KindParse, "bestfit table %s: %v", path, err)
			continue
		}
		for i := 0; i < stats.SkippedLines; i++ {
			rep.Addf(report.KindParse, "unparseable row in %s", path)
		}
		for i := 0; i < stats.Duplicates; i++ {
			rep.Addf(report.KindDuplicateID, "duplicate object in %s, last kept", path)
		}
		merged.Merge(table)
	}
	return merged
}

// parseAll fans the photometry files across workers; results land in a
// slice indexed by file position so output order matches input order
func parseAll(files []string, table BestFitTable, opts Options, rep *report.Report) []*sed.FitRecord {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	prog := lg.NewProgress(fmt.Sprintf("Parsing %s photometry", opts.Kind), "files", len(files), opts.Progress)
	slots := make([]*sed.FitRecord, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				slots[i] = loadOne(files[i], table, opts, rep)
				prog.Increment()
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	prog.Finish()

	records := make([]*sed.FitRecord, 0, len(files))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records
}

// loadOne parses a single photometry file into a record, or nil when the
// file yields nothing usable
func loadOne(path string, table BestFitTable, opts Options, rep *report.Report) *sed.FitRecord {
	pf, err := ParsePhotFile(path)
	if err != nil {
		rep.Addf(report.KindParse, "%s: %v", path, err)
		return nil
	}
	for i := 0; i < pf.SkippedLines; i++ {
		rep.Addf(report.KindParse, "unparseable band row in %s", path)
	}
	for i := 0; i < pf.DroppedBands; i++ {
		rep.Addf(report.KindDroppedBand, "non-positive flux error in %s", path)
	}

	objectID := strings.TrimSuffix(filepath.Base(path), photSuffix)

	bands := pf.Bands
	if opts.DropUVBands {
		kept := bands[:0]
		for _, b := range bands {
			if !b.IsUV() {
				kept = append(kept, b)
			}
		}
		bands = kept
	}
	if len(bands) == 0 {
		rep.Addf(report.KindParse, "%s: no usable photometry", path)
		return nil
	}

	rec := &sed.FitRecord{
		ObjectID:   objectID,
		Kind:       opts.Kind,
		Meta:       pf.Meta,
		Params:     map[string]sed.Param{},
		Photometry: bands,
		Residual:   sed.ResidualStat(bands),
		Vgfb:       math.NaN(),
		Category:   sed.CategoryUnclassified,
	}

	if row, ok := table[sed.NormalizeID(objectID)]; ok {
		rec.Vgfb = row.Vgfb
		rec.Params = row.Params
	} else {
		rep.Addf(report.KindMissingStats, "%s missing from bestfit tables", objectID)
	}
	return rec
}

// dedupe drops earlier occurrences of repeated object IDs, keeping the
// last and warning; deduped output still preserves input order
func dedupe(records []*sed.FitRecord, rep *report.Report) []*sed.FitRecord {
	last := make(map[string]int, len(records))
	for i, rec := range records {
		last[sed.NormalizeID(rec.ObjectID)] = i
	}
	if len(last) == len(records) {
		return records
	}

	out := make([]*sed.FitRecord, 0, len(last))
	for i, rec := range records {
		key := sed.NormalizeID(rec.ObjectID)
		if last[key] != i {
			rep.Addf(report.KindDuplicateID, "%s repeated, keeping last occurrence", rec.ObjectID)
			log.Warn().Str("object", rec.ObjectID).Msg("Duplicate object ID, keeping last occurrence")
			continue
		}
		out = append(out, rec)
	}
	return out
}
