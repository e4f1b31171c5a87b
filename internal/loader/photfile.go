package loader

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"wdmspipe/internal/sed"
)

// Default column order of a .bfit.phot.dat table, used when no header
// line is present. Files written by the fitting service carry the header
// as a trailing comment line; it is honored when found.
var defaultPhotColumns = []string{
	"FilterID", "Wavelength", "Flux", "Error", "FluxMod",
	"Fitted", "Excess", "UpLim", "FitExc",
}

// PhotFile is the parsed content of one per-object photometry file
type PhotFile struct {
	Meta         sed.Meta
	Bands        []sed.Band
	SkippedLines int // malformed data lines
	DroppedBands int // bands removed for a non-positive flux error
}

// ParsePhotFile reads a .bfit.phot.dat file: a commented metadata block
// (`# key = value`), an optional commented column-header line, then one
// whitespace-delimited row per photometric band. Malformed rows are
// skipped and counted, never fatal. The commented header convention is
// resolved here as a read-side projection; the input file is never edited.
func ParsePhotFile(path string) (*PhotFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open photometry file: %w", err)
	}
	defer f.Close()

	pf := &PhotFile{
		Meta: sed.Meta{
			RA:       math.NaN(),
			DEC:      math.NaN(),
			Distance: math.NaN(),
		},
	}
	columns := indexColumns(defaultPhotColumns)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			body := strings.TrimSpace(strings.TrimLeft(line, "# "))
			if fields := strings.Fields(body); len(fields) > 0 && fields[0] == "FilterID" {
				columns = indexColumns(fields)
				continue
			}
			parseMetaLine(body, &pf.Meta)
			continue
		}

		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == "FilterID" {
			// already-cleaned file with an uncommented header
			columns = indexColumns(fields)
			continue
		}

		band, ok := parseBandRow(fields, columns)
		if !ok {
			pf.SkippedLines++
			continue
		}
		if !(band.Error > 0) {
			// not fitted; excluded from the record rather than carried as junk
			pf.DroppedBands++
			continue
		}
		pf.Bands = append(pf.Bands, band)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read photometry file: %w", err)
	}

	return pf, nil
}

// parseMetaLine handles `key = value` header entries. Units embedded in
// the key ("D (pc)", "RA (deg)") are stripped; the value keeps only its
// first token so trailing unit strings are tolerated.
func parseMetaLine(body string, meta *sed.Meta) {
	key, value, found := strings.Cut(body, "=")
	if !found {
		return
	}
	key = strings.TrimSpace(key)
	for _, unit := range []string{"(deg)", "(pc)", "(mag)"} {
		key = strings.TrimSpace(strings.TrimSuffix(key, unit))
	}

	tokens := strings.Fields(value)
	if len(tokens) == 0 {
		return
	}
	v, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return
	}

	switch key {
	case "RA":
		meta.RA = v
	case "DEC":
		meta.DEC = v
	case "D":
		meta.Distance = v
	case "Av":
		meta.Av = v
	}
}

func parseBandRow(fields []string, columns map[string]int) (sed.Band, bool) {
	filter, ok := fieldAt(fields, columns, "FilterID")
	if !ok || filter == "" {
		return sed.Band{}, false
	}

	wavelength, ok := floatAt(fields, columns, "Wavelength")
	if !ok {
		return sed.Band{}, false
	}
	flux, ok := floatAt(fields, columns, "Flux")
	if !ok {
		return sed.Band{}, false
	}
	fluxErr, ok := floatAt(fields, columns, "Error")
	if !ok {
		return sed.Band{}, false
	}
	model, ok := floatAt(fields, columns, "FluxMod")
	if !ok {
		return sed.Band{}, false
	}

	return sed.Band{
		FilterID:   filter,
		Wavelength: wavelength,
		Flux:       flux,
		Error:      fluxErr,
		ModelFlux:  model,
		// flag columns may be missing entirely on older files; a bare
		// five-column row reads as a plainly fitted band
		Fitted:     flagAt(fields, columns, "Fitted", true),
		Excess:     flagAt(fields, columns, "Excess", false),
		UpperLimit: flagAt(fields, columns, "UpLim", false),
		FitExcess:  flagAt(fields, columns, "FitExc", false),
	}, true
}

func indexColumns(names []string) map[string]int {
	idx := make(map[string]int, len(names))
	for i, name := range names {
		idx[name] = i
	}
	return idx
}

func fieldAt(fields []string, columns map[string]int, name string) (string, bool) {
	i, ok := columns[name]
	if !ok || i >= len(fields) {
		return "", false
	}
	return fields[i], true
}

func floatAt(fields []string, columns map[string]int, name string) (float64, bool) {
	s, ok := fieldAt(fields, columns, name)
	if !ok || s == "---" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// flagAt reads a 0/1 flag column; "---" and a missing trailing column
// fall back to def
func flagAt(fields []string, columns map[string]int, name string, def bool) bool {
	s, ok := fieldAt(fields, columns, name)
	if !ok || s == "---" {
		return def
	}
	return s == "1"
}
