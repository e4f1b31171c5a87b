// Package export serializes classified records and merged SEDs into
// chunked ASCII files in the layout the VOSA upload service ingests.
package export

import (
	"bufio"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	wio "wdmspipe/internal/io"
	"wdmspipe/internal/sed"
)

// Block is one exportable object: an identifying header line followed by
// one row per photometric band
type Block interface {
	ObjectID() string
	Meta() sed.Meta
	Rows() []Row
}

// Row is one band line of an object block
type Row struct {
	Band       string
	Wavelength float64
	Flux       float64
	Error      float64
}

// Options configures a chunked export
type Options struct {
	Dir       string // output root; files land under Dir/Subset/
	Subset    string // good, bad, or all; part of the output path
	ChunkSize int    // objects per file
}

// WriteChunks partitions blocks into consecutive chunks of at most
// ChunkSize objects and writes one file per chunk, named
// `<start>-<end>.txt` by object position. Chunk boundaries are purely
// positional; concatenating the files in index order reproduces the input
// exactly. Each file is written atomically.
func WriteChunks(blocks []Block, opts Options) ([]string, error) {
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", opts.ChunkSize)
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	var paths []string
	for start := 0; start < len(blocks); start += opts.ChunkSize {
		end := start + opts.ChunkSize
		if end > len(blocks) {
			end = len(blocks)
		}

		path := filepath.Join(opts.Dir, opts.Subset, fmt.Sprintf("%d-%d.txt", start, end))
		chunk := blocks[start:end]
		err := wio.WriteAtomic(path, func(w *bufio.Writer) error {
			return writeChunk(w, chunk)
		})
		if err != nil {
			return paths, fmt.Errorf("write chunk %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	log.Info().
		Str("subset", opts.Subset).
		Int("objects", len(blocks)).
		Int("files", len(paths)).
		Str("dir", filepath.Join(opts.Dir, opts.Subset)).
		Msg("VOSA ASCII export completed")
	return paths, nil
}

// writeChunk emits one object block per entry: a header line carrying the
// object ID and its metadata (RA, DEC, distance, Av), one tab-separated
// band row per line, and a blank separator line
func writeChunk(w *bufio.Writer, blocks []Block) error {
	for _, b := range blocks {
		m := b.Meta()
		_, err := fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\n",
			SanitizeObjectID(b.ObjectID()), m.RA, m.DEC, m.Distance, m.Av)
		if err != nil {
			return err
		}
		for _, row := range b.Rows() {
			_, err := fmt.Fprintf(w, "%s\t%g\t%g\t%g\n", row.Band, row.Wavelength, row.Flux, row.Error)
			if err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// RecordBlock adapts a classified fit record for export: observed flux
// and error per band
type RecordBlock struct{ Record *sed.FitRecord }

func (b RecordBlock) ObjectID() string { return b.Record.ObjectID }

func (b RecordBlock) Meta() sed.Meta { return b.Record.Meta }

func (b RecordBlock) Rows() []Row {
	rows := make([]Row, 0, len(b.Record.Photometry))
	for _, band := range b.Record.Photometry {
		rows = append(rows, Row{
			Band:       band.FilterID,
			Wavelength: band.Wavelength,
			Flux:       band.Flux,
			Error:      band.Error,
		})
	}
	return rows
}

// SEDBlock adapts a merged composite SED for export: combined model flux
// with the observed error per band
type SEDBlock struct{ SED *sed.CompositeSED }

func (b SEDBlock) ObjectID() string { return b.SED.ObjectID }

func (b SEDBlock) Meta() sed.Meta { return b.SED.Meta }

func (b SEDBlock) Rows() []Row {
	rows := make([]Row, 0, len(b.SED.Bands))
	for _, band := range b.SED.Bands {
		rows = append(rows, Row{
			Band:       band.FilterID,
			Wavelength: band.Wavelength,
			Flux:       band.Combined,
			Error:      band.ObsError,
		})
	}
	return rows
}

// RecordBlocks wraps records for WriteChunks, preserving order
func RecordBlocks(records []*sed.FitRecord) []Block {
	blocks := make([]Block, len(records))
	for i, rec := range records {
		blocks[i] = RecordBlock{Record: rec}
	}
	return blocks
}

// SEDBlocks wraps composite SEDs for WriteChunks, preserving order
func SEDBlocks(seds []*sed.CompositeSED) []Block {
	blocks := make([]Block, len(seds))
	for i, s := range seds {
		blocks[i] = SEDBlock{SED: s}
	}
	return blocks
}

// SanitizeObjectID rewrites characters VOSA rejects in object names
func SanitizeObjectID(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch r {
		case ' ':
			out = append(out, '_')
		case '*':
			out = append(out, []rune("_AST_")...)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
