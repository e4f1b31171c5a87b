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

// BestFitRow is one object's entry from a bestfitp.dat results table
type BestFitRow struct {
	Object string
	Vgfb   float64
	Params map[string]sed.Param
}

// BestFitTable maps normalized object IDs to their best-fit rows
type BestFitTable map[string]BestFitRow

// TableStats counts per-row problems during table parsing
type TableStats struct {
	SkippedLines int
	Duplicates   int
}

// ParseBestFit reads a bestfitp.dat table: leading comment lines, a
// column-header line (commented in raw fitting-service output), then one
// whitespace-delimited row per object. All numeric columns besides the
// goodness-of-fit statistics become model parameters; a column `eX`
// supplies the uncertainty for parameter `X`. Duplicate objects keep the
// last occurrence.
func ParseBestFit(path string) (BestFitTable, TableStats, error) {
	var stats TableStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open bestfit table: %w", err)
	}
	defer f.Close()

	table := make(BestFitTable)
	var header []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			body := strings.TrimSpace(strings.TrimLeft(line, "# "))
			if fields := strings.Fields(body); containsObject(fields) {
				header = normalizeHeader(fields)
			}
			continue
		}

		fields := strings.Fields(line)
		if header == nil {
			if containsObject(fields) {
				// already-cleaned table with an uncommented header
				header = normalizeHeader(fields)
				continue
			}
			stats.SkippedLines++
			continue
		}

		row, ok := parseBestFitRow(fields, header)
		if !ok {
			stats.SkippedLines++
			continue
		}
		key := sed.NormalizeID(row.Object)
		if _, dup := table[key]; dup {
			stats.Duplicates++
		}
		table[key] = row
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("read bestfit table: %w", err)
	}

	if len(table) == 0 {
		return nil, stats, fmt.Errorf("bestfit table %s yielded no rows", path)
	}
	return table, stats, nil
}

func containsObject(fields []string) bool {
	for _, f := range fields {
		if f == "Object" {
			return true
		}
	}
	return false
}

// normalizeHeader strips unit suffixes so "D(pc)" addresses the same
// column as "D" in a cleaned table
func normalizeHeader(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		f = strings.TrimSuffix(f, "(pc)")
		f = strings.TrimSuffix(f, "(deg)")
		out[i] = f
	}
	return out
}

func parseBestFitRow(fields []string, header []string) (BestFitRow, bool) {
	row := BestFitRow{
		Vgfb:   math.NaN(),
		Params: make(map[string]sed.Param),
	}

	values := make(map[string]float64)
	for i, name := range header {
		if i >= len(fields) {
			break // tolerate ragged trailing columns
		}
		if name == "Object" {
			row.Object = fields[i]
			continue
		}
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			continue // "---" and free-text columns
		}
		values[name] = v
	}
	if row.Object == "" {
		return BestFitRow{}, false
	}

	for name, v := range values {
		if strings.EqualFold(name, "Vgfb") {
			row.Vgfb = v
			continue
		}
		if strings.HasPrefix(name, "e") {
			if _, isErrCol := values[name[1:]]; isErrCol {
				continue // folded into the parameter below
			}
		}
		p := sed.Param{Value: v, Uncertainty: math.NaN()}
		if u, ok := values["e"+name]; ok {
			p.Uncertainty = u
		}
		row.Params[name] = p
	}
	return row, true
}

// Merge folds another table into t; rows from other win on collision
func (t BestFitTable) Merge(other BestFitTable) (collisions int) {
	for key, row := range other {
		if _, dup := t[key]; dup {
			collisions++
		}
		t[key] = row
	}
	return collisions
}
