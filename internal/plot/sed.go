// Package plot renders merged composite SEDs to image files. It is an
// output sink: failures are reported per object and never abort a run.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"wdmspipe/internal/sed"
)

// obsPoints carries observed fluxes with symmetric error bars
type obsPoints struct {
	plotter.XYs
	plotter.YErrors
}

// SaveSED renders one composite SED as a log-log flux/wavelength figure:
// observed photometry with error bars, the scaled WD and unscaled MS
// model contributions, and their combined sum. Returns the written path,
// `<object_id>_SED.png` under dir.
func SaveSED(s *sed.CompositeSED, dir string) (string, error) {
	p := plot.New()
	p.Title.Text = s.ObjectID
	p.X.Label.Text = "Wavelength (Å)"
	p.Y.Label.Text = "Flux (erg/cm²/s/Å)"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	obs := obsPoints{}
	var combined, wd, ms plotter.XYs
	for _, b := range s.Bands {
		// log axes cannot place non-positive values
		if b.Observed > 0 {
			obs.XYs = append(obs.XYs, plotter.XY{X: b.Wavelength, Y: b.Observed})
			obs.YErrors = append(obs.YErrors, struct{ Low, High float64 }{b.ObsError, b.ObsError})
		}
		if b.Combined > 0 {
			combined = append(combined, plotter.XY{X: b.Wavelength, Y: b.Combined})
		}
		if b.WDFlux > 0 {
			wd = append(wd, plotter.XY{X: b.Wavelength, Y: b.WDFlux})
		}
		if b.MSFlux > 0 {
			ms = append(ms, plotter.XY{X: b.Wavelength, Y: b.MSFlux})
		}
	}
	if len(obs.XYs) == 0 && len(combined) == 0 {
		return "", fmt.Errorf("%s: no positive fluxes to plot", s.ObjectID)
	}

	if len(obs.XYs) > 0 {
		scatter, err := plotter.NewScatter(obs.XYs)
		if err != nil {
			return "", fmt.Errorf("%s: observed points: %w", s.ObjectID, err)
		}
		scatter.GlyphStyle.Radius = vg.Points(2)
		bars, err := plotter.NewYErrorBars(obs)
		if err != nil {
			return "", fmt.Errorf("%s: error bars: %w", s.ObjectID, err)
		}
		p.Add(scatter, bars)
		p.Legend.Add("Observed", scatter)
	}

	for _, series := range []struct {
		name   string
		pts    plotter.XYs
		color  color.RGBA
		dashed bool
	}{
		{"Combined", combined, color.RGBA{R: 0xd6, G: 0x2a, B: 0x1f, A: 0xff}, false},
		{"WD (scaled)", wd, color.RGBA{R: 0x2b, G: 0x5e, B: 0xd6, A: 0xff}, true},
		{"MS", ms, color.RGBA{R: 0x2e, G: 0x8b, B: 0x3a, A: 0xff}, true},
	} {
		if len(series.pts) < 2 {
			continue
		}
		line, err := plotter.NewLine(series.pts)
		if err != nil {
			return "", fmt.Errorf("%s: %s curve: %w", s.ObjectID, series.name, err)
		}
		line.Color = series.color
		if series.dashed {
			line.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	p.Legend.Top = true

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create plot dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, fileName(s.ObjectID))
	if err := p.Save(7*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("%s: save figure: %w", s.ObjectID, err)
	}
	return path, nil
}

// fileName maps an object ID to its figure file, replacing path
// separators and spaces
func fileName(objectID string) string {
	safe := make([]rune, 0, len(objectID))
	for _, r := range objectID {
		switch r {
		case '/', '\\', ' ':
			safe = append(safe, '_')
		default:
			safe = append(safe, r)
		}
	}
	return fmt.Sprintf("%s_SED.png", string(safe))
}
